// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package operation

import (
	"fmt"

	"github.com/skald-foundation/skald/attr"
)

// Accumulator folds the operations targeting one path into a minimal
// equivalent sequence. It keeps three ordered buckets that are emitted
// in fixed order: deletes first, then value modifications, then series
// configuration. It is not safe for concurrent use.
//
// The fold is type-checked: the first folded operation fixes the
// inferred attribute type, and a later operation requiring a different
// type is recorded as a [MetadataInconsistencyError] without mutating
// state. A delete resets the inferred type.
type Accumulator struct {
	path attr.Path

	inferred  attr.Type
	deleteOps []Operation
	modifyOps []Operation
	configOps []Operation
	errs      []error
}

// NewAccumulator returns an empty accumulator for path.
func NewAccumulator(path attr.Path) *Accumulator {
	return &Accumulator{path: path}
}

// Operations returns the reduced sequence in emission order. The
// result aliases internal state; callers must not fold afterwards.
func (a *Accumulator) Operations() []Operation {
	ops := make([]Operation, 0, len(a.deleteOps)+len(a.modifyOps)+len(a.configOps))
	ops = append(ops, a.deleteOps...)
	ops = append(ops, a.modifyOps...)
	ops = append(ops, a.configOps...)
	return ops
}

// Errors returns the consistency errors recorded so far, in fold
// order.
func (a *Accumulator) Errors() []error {
	return a.errs
}

// Fold incorporates op into the accumulated state. A type conflict is
// recorded internally and returns nil. A non-nil return is an
// [InternalError] and means the accumulator hit a state the pipeline
// is supposed to prevent; the caller must stop feeding it.
func (a *Accumulator) Fold(op Operation) error {
	switch op := op.(type) {
	case *AssignFloat, *AssignInt, *AssignBool, *AssignString, *AssignDatetime, *UploadFile:
		return a.foldModify(op, a.replaceModifier(op))
	case *LogFloats:
		return a.foldModify(op, a.logModifier(op, KindLogFloats, KindClearFloatLog, mergeFloatLogs))
	case *LogStrings:
		return a.foldModify(op, a.logModifier(op, KindLogStrings, KindClearStringLog, mergeStringLogs))
	case *ClearFloatLog, *ClearStringLog, *ClearStringSet:
		return a.foldModify(op, a.replaceModifier(op))
	case *AddStrings, *RemoveStrings:
		return a.foldModify(op, a.appendModifier(op))
	case *ConfigFloatSeries:
		a.foldConfig(op)
		return nil
	case *DeleteAttribute:
		a.foldDelete(op)
		return nil
	case *CopyAttribute:
		return &InternalError{Message: "unresolved copy reached the accumulator at " + a.path.String()}
	default:
		return &InternalError{Message: fmt.Sprintf("unknown operation kind %d", op.Kind())}
	}
}

// foldModify applies a modifier producing the new modify bucket, after
// the type check shared by all value-modifying kinds.
func (a *Accumulator) foldModify(op Operation, modify func() ([]Operation, error)) error {
	expected := op.Kind().AttributeType()
	if a.inferred != attr.TypeUnset && a.inferred != expected {
		a.typeMismatch(op, expected)
		return nil
	}
	ops, err := modify()
	if err != nil {
		return err
	}
	a.inferred = expected
	a.modifyOps = ops
	return nil
}

func (a *Accumulator) foldConfig(op *ConfigFloatSeries) {
	expected := op.Kind().AttributeType()
	if a.inferred != attr.TypeUnset && a.inferred != expected {
		a.typeMismatch(op, expected)
		return
	}
	a.inferred = expected
	a.configOps = []Operation{op}
}

// foldDelete absorbs everything the delete supersedes. When
// modifications of a possibly pre-existing attribute are held, the
// first of them is kept in front of the delete so that the delete
// cannot fail on a store that never saw the attribute.
func (a *Accumulator) foldDelete(op *DeleteAttribute) {
	if a.inferred == attr.TypeUnset {
		if len(a.deleteOps) > 0 {
			// Already deleted and untouched since.
			return
		}
		a.deleteOps = append(a.deleteOps, op)
		return
	}
	if len(a.deleteOps) > 0 || len(a.modifyOps) == 0 {
		// A held delete already guarantees validity, and a bare
		// configure never created the attribute.
		a.modifyOps = nil
		a.configOps = nil
		a.inferred = attr.TypeUnset
		if len(a.deleteOps) == 0 {
			a.deleteOps = []Operation{op}
		}
		return
	}
	a.deleteOps = []Operation{a.modifyOps[0], op}
	a.modifyOps = nil
	a.configOps = nil
	a.inferred = attr.TypeUnset
}

// replaceModifier discards all held modifications in favor of op.
// Assigns, uploads, and clears are each self-contained.
func (a *Accumulator) replaceModifier(op Operation) func() ([]Operation, error) {
	return func() ([]Operation, error) {
		return []Operation{op}, nil
	}
}

// appendModifier holds op after the existing modifications. Set adds
// and removes are order-sensitive and are not coalesced.
func (a *Accumulator) appendModifier(op Operation) func() ([]Operation, error) {
	return func() ([]Operation, error) {
		return append(a.modifyOps, op), nil
	}
}

// logModifier merges consecutive series appends. The held bucket can
// only be empty, a single append, a single clear, or a clear followed
// by an append; anything else is a broken invariant.
func (a *Accumulator) logModifier(op Operation, logKind, clearKind Kind, merge func(Operation, Operation) Operation) func() ([]Operation, error) {
	return func() ([]Operation, error) {
		held := a.modifyOps
		switch {
		case len(held) == 0:
			return []Operation{op}, nil
		case len(held) == 1 && held[0].Kind() == logKind:
			return []Operation{merge(held[0], op)}, nil
		case len(held) == 1 && held[0].Kind() == clearKind:
			return []Operation{held[0], op}, nil
		case len(held) == 2:
			return []Operation{held[0], merge(held[1], op)}, nil
		default:
			return nil, &InternalError{Message: fmt.Sprintf("accumulator holds %d series operations at %q", len(held), a.path)}
		}
	}
}

func (a *Accumulator) typeMismatch(op Operation, expected attr.Type) {
	a.errs = append(a.errs, &MetadataInconsistencyError{
		Path:    a.path,
		Op:      op.Kind(),
		Message: fmt.Sprintf("cannot perform %s: attribute is not a %s", op.Kind(), expected),
	})
}

func mergeFloatLogs(first, second Operation) Operation {
	a, b := first.(*LogFloats), second.(*LogFloats)
	points := make([]FloatPoint, 0, len(a.Points)+len(b.Points))
	points = append(points, a.Points...)
	points = append(points, b.Points...)
	return NewLogFloats(a.Path(), points)
}

func mergeStringLogs(first, second Operation) Operation {
	a, b := first.(*LogStrings), second.(*LogStrings)
	points := make([]StringPoint, 0, len(a.Points)+len(b.Points))
	points = append(points, a.Points...)
	points = append(points, b.Points...)
	return NewLogStrings(a.Path(), points)
}
