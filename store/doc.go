// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

// Package store defines the backend boundary operations are dispatched
// through, and a reference in-memory implementation of it.
//
// A [Backend] applies an ordered, already-reduced operation batch to
// one container and reports per-operation failures without aborting
// the rest of the batch. Transport-backed implementations signal a
// connectivity loss with [ConnectionLostError]; everything the worker
// retries hangs off that classification.
//
// [InMemory] is the executable specification of the backend contract:
// a typed-value tree per container with namespace/leaf exclusivity.
// Tests and offline sessions run against it directly.
package store
