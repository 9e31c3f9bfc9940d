// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

// Package operation defines the mutation records Skald buffers on
// behalf of an instrumented process, and the reduction pipeline that
// coalesces them before dispatch.
//
// An [Operation] is an immutable record of one mutation to one
// attribute path: a scalar assign, a series append, a set update, a
// series configure, a delete, or a copy from another attribute. The
// set of kinds is closed; the accumulator and the store execute
// operations through exhaustive type switches, so adding a kind
// touches one switch per component.
//
// The [Accumulator] folds the operations of a single path into a
// minimal, type-consistent sequence: assigns collapse to the last one,
// consecutive series appends merge into one, deletes absorb what they
// supersede. The [Preprocessor] fans a mixed stream out across per-path
// accumulators and assembles the reduced [Batch] in lexicographic path
// order, collecting per-path consistency errors without aborting the
// rest of the stream.
//
// Operations also have a stable CBOR wire form ([Encode], [Decode])
// used by the journal.
package operation
