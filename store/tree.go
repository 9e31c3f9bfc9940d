// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/skald-foundation/skald/attr"
)

// node is one position in a container's attribute tree. A node is
// either a leaf carrying a value or a namespace carrying children,
// never both.
type node struct {
	value    attr.Value
	children map[string]*node
}

func (n *node) isNamespace() bool { return n.children != nil }

// tree is the typed-value structure of one container. Intermediate
// namespaces come into existence when a leaf below them is set and
// vanish when their last leaf is removed.
type tree struct {
	root *node
}

func newTree() *tree {
	return &tree{root: &node{children: make(map[string]*node)}}
}

// lookup returns the node at path, or nil when nothing exists there.
func (t *tree) lookup(path attr.Path) *node {
	current := t.root
	for _, segment := range path {
		if !current.isNamespace() {
			return nil
		}
		next, ok := current.children[segment]
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

// set stores value at path, creating intermediate namespaces. It
// fails when an intermediate segment is occupied by a leaf or the
// final segment by a namespace.
func (t *tree) set(path attr.Path, value attr.Value) error {
	current := t.root
	for i, segment := range path[:len(path)-1] {
		next, ok := current.children[segment]
		if !ok {
			next = &node{children: make(map[string]*node)}
			current.children[segment] = next
		}
		if !next.isNamespace() {
			return fmt.Errorf("%q is an attribute, not a namespace", path[:i+1])
		}
		current = next
	}
	last := path[len(path)-1]
	if existing, ok := current.children[last]; ok && existing.isNamespace() {
		return fmt.Errorf("%q is a namespace, not an attribute", path)
	}
	current.children[last] = &node{value: value}
	return nil
}

// remove deletes the leaf at path and prunes namespaces left empty.
// Removing a missing or namespace path is a no-op.
func (t *tree) remove(path attr.Path) {
	t.removeFrom(t.root, path)
}

func (t *tree) removeFrom(current *node, path attr.Path) bool {
	segment := path[0]
	next, ok := current.children[segment]
	if !ok {
		return false
	}
	if len(path) == 1 {
		if next.isNamespace() {
			return false
		}
		delete(current.children, segment)
		return true
	}
	if !next.isNamespace() {
		return false
	}
	removed := t.removeFrom(next, path[1:])
	if removed && len(next.children) == 0 {
		delete(current.children, segment)
	}
	return removed
}

// walk visits every leaf in lexicographic path order.
func (t *tree) walk(visit func(path attr.Path, value attr.Value)) {
	t.walkFrom(t.root, nil, visit)
}

func (t *tree) walkFrom(current *node, prefix attr.Path, visit func(attr.Path, attr.Value)) {
	segments := maps.Keys(current.children)
	slices.Sort(segments)
	for _, segment := range segments {
		child := current.children[segment]
		path := append(slices.Clone(prefix), segment)
		if child.isNamespace() {
			t.walkFrom(child, path, visit)
			continue
		}
		visit(path, child.value)
	}
}
