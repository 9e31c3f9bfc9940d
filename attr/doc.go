// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

// Package attr defines the Skald attribute data model: paths, attribute
// types, the typed-value union, and container references.
//
// A container (run, model, model version, or project) owns a tree of
// attributes. Each attribute lives at a [Path], a slash-joined sequence
// of non-empty name segments, and holds exactly one [Value] of one
// [Type] until it is deleted. A path denotes either a leaf attribute or
// a namespace (a node with children), never both; the store package
// enforces the exclusivity.
//
// Values are small immutable records. Series values (FloatSeries,
// StringSeries) additionally carry optional numeric bounds and a unit
// label that are independent of the data points: appending or clearing
// points never touches the metadata, which changes only through a
// configure operation.
package attr
