// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package attr

import (
	"fmt"
	"strings"
)

// Path identifies one attribute or namespace within a container. It is
// an ordered sequence of non-empty name segments; the canonical string
// form joins segments with "/". Paths compare and sort by their
// canonical string.
type Path []string

// ParsePath parses a canonical slash-joined path string. Empty segments
// (leading, trailing, or doubled slashes) and the empty string are
// rejected.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("attr: empty path")
	}
	segments := strings.Split(s, "/")
	for _, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("attr: path %q contains an empty segment", s)
		}
	}
	return Path(segments), nil
}

// NewPath builds a path from segments, validating each one. It is the
// programmatic counterpart of [ParsePath].
func NewPath(segments ...string) (Path, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("attr: empty path")
	}
	for _, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("attr: path contains an empty segment")
		}
		if strings.Contains(segment, "/") {
			return nil, fmt.Errorf("attr: path segment %q contains a slash", segment)
		}
	}
	return Path(segments), nil
}

// MustParsePath is ParsePath for statically known strings. Panics on
// invalid input.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err.Error())
	}
	return p
}

// String returns the canonical slash-joined form.
func (p Path) String() string {
	return strings.Join(p, "/")
}

// Equal reports whether two paths have identical segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the path.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}
