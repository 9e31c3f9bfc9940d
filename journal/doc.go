// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

// Package journal persists pending operations across process crashes.
//
// Each enqueued operation is appended as one framed record: a length
// prefix, a checksum of the payload, and the zstd-compressed CBOR
// encoding of the operation. On startup [Journal.Replay] returns every
// intact record and truncates the file at the first torn or corrupt
// one, so a crash mid-append loses at most the record being written.
// After a successful flush [Journal.Rewrite] compacts the file down to
// the operations still pending.
package journal
