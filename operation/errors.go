// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package operation

import (
	"fmt"

	"github.com/skald-foundation/skald/attr"
)

// MetadataInconsistencyError reports an operation that contradicts the
// accumulated or stored state of its attribute: a type conflict, a
// structural conflict with a namespace, or a copy of a non-atom value.
// The operation is dropped and surfaced to the error sink; the rest of
// the batch proceeds.
type MetadataInconsistencyError struct {
	Path    attr.Path
	Op      Kind
	Message string
}

func (e *MetadataInconsistencyError) Error() string {
	return fmt.Sprintf("metadata inconsistency at %q (%s): %s", e.Path, e.Op, e.Message)
}

// InternalError reports a state the reduction pipeline is supposed to
// make unreachable. It indicates a bug, not bad input.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Message
}
