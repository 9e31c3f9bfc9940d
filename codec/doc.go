// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec centralizes Skald's CBOR configuration. The journal and
// the operation wire records both encode through this package so that
// the same logical record always produces identical bytes (Core
// Deterministic Encoding, RFC 8949 §4.2). Journal frames depend on
// this: their checksum is computed over the encoded payload.
//
// Decoding accepts standard CBOR and silently ignores unknown fields,
// so journals written by a newer SDK replay under an older one as long
// as the operation kinds themselves are known.
package codec
