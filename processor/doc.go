// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

// Package processor owns the asynchronous dispatch pipeline of one
// container: producers enqueue operations, a background worker drains
// them in batches, reduces each batch, and submits it to the backend
// with retry on connection loss.
//
// An operation is consumed only after its batch was accepted by the
// backend (or it permanently failed as inconsistent); until then it
// stays queued, and with a journal configured it also survives a
// process crash. Enqueue with wait set blocks until the operation and
// everything queued before it has been consumed.
package processor
