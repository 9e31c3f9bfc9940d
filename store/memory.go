// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/skald-foundation/skald/attr"
	"github.com/skald-foundation/skald/clock"
	"github.com/skald-foundation/skald/operation"
)

// InMemory is the reference [Backend]: one attribute tree per
// container, guarded by a single mutex. New containers come up with
// the sys namespace pre-populated the way a served project would
// deliver it.
type InMemory struct {
	clk clock.Clock

	mu         sync.Mutex
	containers map[attr.ContainerRef]*tree
	project    attr.ContainerRef
	nextRun    int
	nextModel  int
}

// NewInMemory returns a backend holding a single fresh project
// container. clk stamps sys creation and modification times.
func NewInMemory(clk clock.Clock) *InMemory {
	b := &InMemory{
		clk:        clk,
		containers: make(map[attr.ContainerRef]*tree),
		nextRun:    1,
		nextModel:  1,
	}
	b.project = attr.ContainerRef{ID: attr.NewContainerID(), Kind: attr.ContainerProject}
	b.bootstrap(b.project, "SKALD")
	return b
}

// Project returns the backend's project container.
func (b *InMemory) Project() attr.ContainerRef { return b.project }

// CreateRun registers a new run container and returns its reference.
func (b *InMemory) CreateRun() attr.ContainerRef {
	b.mu.Lock()
	defer b.mu.Unlock()
	ref := attr.ContainerRef{ID: attr.NewContainerID(), Kind: attr.ContainerRun}
	b.bootstrap(ref, fmt.Sprintf("SKALD-%d", b.nextRun))
	b.nextRun++
	return ref
}

// CreateModel registers a new model container under the given key.
func (b *InMemory) CreateModel(key string) attr.ContainerRef {
	b.mu.Lock()
	defer b.mu.Unlock()
	ref := attr.ContainerRef{ID: attr.NewContainerID(), Kind: attr.ContainerModel}
	b.bootstrap(ref, "SKALD-"+key)
	return ref
}

// CreateModelVersion registers a new version container of model.
func (b *InMemory) CreateModelVersion(model attr.ContainerRef) attr.ContainerRef {
	b.mu.Lock()
	defer b.mu.Unlock()
	ref := attr.ContainerRef{ID: attr.NewContainerID(), Kind: attr.ContainerModelVersion}
	t := b.bootstrap(ref, fmt.Sprintf("SKALD-MOD-%d", b.nextModel))
	b.nextModel++
	t.set(attr.Path{"sys", "model_id"}, attr.String{Value: string(model.ID)})
	t.set(attr.Path{"sys", "stage"}, attr.String{Value: "none"})
	return ref
}

// bootstrap is called with b.mu held (or before the backend is
// shared).
func (b *InMemory) bootstrap(ref attr.ContainerRef, sysID string) *tree {
	now := b.clk.Now()
	t := newTree()
	t.set(attr.Path{"sys", "id"}, attr.String{Value: sysID})
	t.set(attr.Path{"sys", "state"}, attr.String{Value: "active"})
	t.set(attr.Path{"sys", "owner"}, attr.String{Value: "local"})
	t.set(attr.Path{"sys", "size"}, attr.Float{Value: 0})
	t.set(attr.Path{"sys", "tags"}, attr.NewStringSet())
	t.set(attr.Path{"sys", "creation_time"}, attr.Datetime{Value: now})
	t.set(attr.Path{"sys", "modification_time"}, attr.Datetime{Value: now})
	t.set(attr.Path{"sys", "failed"}, attr.Bool{Value: false})
	b.containers[ref] = t
	return t
}

// Execute applies ops in order. Every operation is attempted;
// metadata inconsistencies are collected per operation and do not
// stop the batch.
func (b *InMemory) Execute(ctx context.Context, ref attr.ContainerRef, ops []operation.Operation) (int, []OperationError, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.containers[ref]
	if !ok {
		return 0, nil, &ContainerNotFoundError{Ref: ref}
	}
	var failures []OperationError
	for i, op := range ops {
		if err := b.apply(t, op); err != nil {
			failures = append(failures, OperationError{Index: i, Path: op.Path(), Op: op.Kind(), Err: err})
		}
	}
	return len(ops), failures, nil
}

// GetAttribute returns the current value at path.
func (b *InMemory) GetAttribute(ctx context.Context, ref attr.ContainerRef, path attr.Path) (attr.Value, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.containers[ref]
	if !ok {
		return nil, &ContainerNotFoundError{Ref: ref}
	}
	n := t.lookup(path)
	if n == nil || n.isNamespace() {
		return nil, &AttributeNotFoundError{Ref: ref, Path: path}
	}
	return n.value, nil
}

// AttributeDefinition names one existing attribute and its type.
type AttributeDefinition struct {
	Path attr.Path
	Type attr.Type
}

// ListAttributes returns every attribute of the container in
// lexicographic path order.
func (b *InMemory) ListAttributes(ref attr.ContainerRef) ([]AttributeDefinition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.containers[ref]
	if !ok {
		return nil, &ContainerNotFoundError{Ref: ref}
	}
	var defs []AttributeDefinition
	t.walk(func(path attr.Path, value attr.Value) {
		defs = append(defs, AttributeDefinition{Path: path, Type: value.Type()})
	})
	return defs, nil
}

func (b *InMemory) apply(t *tree, op operation.Operation) error {
	path := op.Path()
	var current attr.Value
	if n := t.lookup(path); n != nil {
		if n.isNamespace() {
			return b.inconsistency(op, "%q is a namespace, not an attribute", path)
		}
		current = n.value
	}

	if _, ok := op.(*operation.DeleteAttribute); ok {
		if current == nil {
			return b.inconsistency(op, "attribute is undefined")
		}
		t.remove(path)
		return nil
	}

	next, err := b.nextValue(t, current, op)
	if err != nil {
		return err
	}
	if err := t.set(path, next); err != nil {
		return b.inconsistency(op, "%v", err)
	}
	return nil
}

// nextValue computes the value op leaves at its path, given the
// current one (nil when unset).
func (b *InMemory) nextValue(t *tree, current attr.Value, op operation.Operation) (attr.Value, error) {
	switch op := op.(type) {
	case *operation.AssignFloat:
		if err := b.checkType(current, attr.TypeFloat, op); err != nil {
			return nil, err
		}
		return attr.Float{Value: op.Value}, nil
	case *operation.AssignInt:
		if err := b.checkType(current, attr.TypeInt, op); err != nil {
			return nil, err
		}
		return attr.Int{Value: op.Value}, nil
	case *operation.AssignBool:
		if err := b.checkType(current, attr.TypeBool, op); err != nil {
			return nil, err
		}
		return attr.Bool{Value: op.Value}, nil
	case *operation.AssignString:
		if err := b.checkType(current, attr.TypeString, op); err != nil {
			return nil, err
		}
		return attr.String{Value: op.Value}, nil
	case *operation.AssignDatetime:
		if err := b.checkType(current, attr.TypeDatetime, op); err != nil {
			return nil, err
		}
		return attr.Datetime{Value: op.Value}, nil
	case *operation.UploadFile:
		if err := b.checkType(current, attr.TypeFile, op); err != nil {
			return nil, err
		}
		return attr.File{Name: op.Name, Ext: op.Ext, LocalPath: op.LocalPath}, nil
	case *operation.LogFloats:
		series := attr.FloatSeries{}
		if current != nil {
			existing, ok := current.(attr.FloatSeries)
			if !ok {
				return nil, b.typeError(op, current)
			}
			series = existing
		}
		values := make([]float64, 0, len(series.Values)+len(op.Points))
		values = append(values, series.Values...)
		for _, pt := range op.Points {
			values = append(values, pt.Value)
		}
		return attr.FloatSeries{Values: values, Metadata: series.Metadata}, nil
	case *operation.LogStrings:
		series := attr.StringSeries{}
		if current != nil {
			existing, ok := current.(attr.StringSeries)
			if !ok {
				return nil, b.typeError(op, current)
			}
			series = existing
		}
		values := make([]string, 0, len(series.Values)+len(op.Points))
		values = append(values, series.Values...)
		for _, pt := range op.Points {
			values = append(values, pt.Value)
		}
		return attr.StringSeries{Values: values}, nil
	case *operation.ClearFloatLog:
		if current == nil {
			return attr.FloatSeries{}, nil
		}
		existing, ok := current.(attr.FloatSeries)
		if !ok {
			return nil, b.typeError(op, current)
		}
		return attr.FloatSeries{Metadata: existing.Metadata}, nil
	case *operation.ClearStringLog:
		if current != nil {
			if _, ok := current.(attr.StringSeries); !ok {
				return nil, b.typeError(op, current)
			}
		}
		return attr.StringSeries{}, nil
	case *operation.ConfigFloatSeries:
		series := attr.FloatSeries{}
		if current != nil {
			existing, ok := current.(attr.FloatSeries)
			if !ok {
				return nil, b.typeError(op, current)
			}
			series = existing
		}
		series.Metadata = attr.SeriesMetadata{Min: op.Min, Max: op.Max, Unit: op.Unit}
		return series, nil
	case *operation.AddStrings:
		set := attr.NewStringSet()
		if current != nil {
			existing, ok := current.(attr.StringSet)
			if !ok {
				return nil, b.typeError(op, current)
			}
			set = existing
		}
		merged := attr.NewStringSet(set.Sorted()...)
		for _, v := range op.Values {
			merged.Values[v] = struct{}{}
		}
		return merged, nil
	case *operation.RemoveStrings:
		if current == nil {
			return attr.NewStringSet(), nil
		}
		existing, ok := current.(attr.StringSet)
		if !ok {
			return nil, b.typeError(op, current)
		}
		remaining := attr.NewStringSet(existing.Sorted()...)
		for _, v := range op.Values {
			delete(remaining.Values, v)
		}
		return remaining, nil
	case *operation.ClearStringSet:
		if current != nil {
			if _, ok := current.(attr.StringSet); !ok {
				return nil, b.typeError(op, current)
			}
		}
		return attr.NewStringSet(), nil
	case *operation.CopyAttribute:
		source, ok := b.containers[attr.ContainerRef{ID: op.SourceContainer.ID, Kind: op.SourceContainer.Kind}]
		if !ok {
			return nil, b.inconsistency(op, "copy source container %s not found", op.SourceContainer)
		}
		n := source.lookup(op.SourcePath)
		if n == nil || n.isNamespace() {
			return nil, b.inconsistency(op, "copy source %q is undefined", op.SourcePath)
		}
		resolved, err := op.Resolve(n.value)
		if err != nil {
			return nil, err
		}
		return b.nextValue(t, current, resolved)
	default:
		return nil, &operation.InternalError{Message: fmt.Sprintf("unknown operation kind %d", op.Kind())}
	}
}

func (b *InMemory) checkType(current attr.Value, want attr.Type, op operation.Operation) error {
	if current == nil || current.Type() == want {
		return nil
	}
	return b.typeError(op, current)
}

func (b *InMemory) typeError(op operation.Operation, current attr.Value) error {
	return b.inconsistency(op, "expected %s, found %s", op.Kind().AttributeType(), current.Type())
}

func (b *InMemory) inconsistency(op operation.Operation, format string, args ...any) error {
	return &operation.MetadataInconsistencyError{
		Path:    op.Path(),
		Op:      op.Kind(),
		Message: fmt.Sprintf(format, args...),
	}
}
