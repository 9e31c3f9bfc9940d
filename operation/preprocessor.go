// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package operation

import (
	"slices"

	"golang.org/x/exp/maps"

	"github.com/skald-foundation/skald/attr"
)

// Batch is the result of reducing an operation stream: the coalesced
// operations in dispatch order, file uploads split out for the binary
// transfer path, and the consistency errors recorded along the way.
type Batch struct {
	Operations []Operation
	Uploads    []*UploadFile
	Errors     []error
}

// Empty reports whether the batch carries nothing to dispatch and no
// errors to surface.
func (b Batch) Empty() bool {
	return len(b.Operations) == 0 && len(b.Uploads) == 0 && len(b.Errors) == 0
}

// Preprocessor reduces a stream of operations across all paths of one
// container. Operations fold strictly in arrival order into one lazily
// created [Accumulator] per canonical path. It is not safe for
// concurrent use.
type Preprocessor struct {
	accumulators map[string]*Accumulator
}

func NewPreprocessor() *Preprocessor {
	return &Preprocessor{accumulators: make(map[string]*Accumulator)}
}

// Process folds ops in order and returns how many were folded. Type
// conflicts are recorded inside the owning accumulator and do not stop
// the fold. A broken pipeline invariant stops processing immediately;
// the unfolded remainder is not consumed and must be resubmitted, and
// the returned error describes the fault.
func (p *Preprocessor) Process(ops []Operation) (int, error) {
	for i, op := range ops {
		key := op.Path().String()
		acc, ok := p.accumulators[key]
		if !ok {
			acc = NewAccumulator(op.Path())
			p.accumulators[key] = acc
		}
		if err := acc.Fold(op); err != nil {
			return i, err
		}
	}
	return len(ops), nil
}

// Batch assembles the reduced operations. Paths contribute in
// lexicographic order of their canonical string, regardless of arrival
// order, and each path emits deletes, then modifications, then
// configuration. Errors are flattened in the same path order.
func (p *Preprocessor) Batch() Batch {
	var batch Batch
	keys := maps.Keys(p.accumulators)
	slices.Sort(keys)
	for _, key := range keys {
		acc := p.accumulators[key]
		for _, op := range acc.Operations() {
			if upload, ok := op.(*UploadFile); ok {
				batch.Uploads = append(batch.Uploads, upload)
				continue
			}
			batch.Operations = append(batch.Operations, op)
		}
		batch.Errors = append(batch.Errors, acc.Errors()...)
	}
	return batch
}

// Paths returns the canonical paths seen so far, sorted.
func (p *Preprocessor) Paths() []attr.Path {
	paths := make([]attr.Path, 0, len(p.accumulators))
	keys := maps.Keys(p.accumulators)
	slices.Sort(keys)
	for _, key := range keys {
		paths = append(paths, p.accumulators[key].path)
	}
	return paths
}
