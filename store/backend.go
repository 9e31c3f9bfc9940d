// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/skald-foundation/skald/attr"
	"github.com/skald-foundation/skald/operation"
)

// Backend applies operation batches to containers. Execute attempts
// every operation in order and returns how many were attempted
// together with the per-operation failures; the error return is
// reserved for faults affecting the batch as a whole, a lost
// connection or an unknown container. Implementations must be safe
// for concurrent use.
type Backend interface {
	Execute(ctx context.Context, ref attr.ContainerRef, ops []operation.Operation) (int, []OperationError, error)
	GetAttribute(ctx context.Context, ref attr.ContainerRef, path attr.Path) (attr.Value, error)
}

// OperationError is one failed operation of a batch. Index is the
// position within the submitted slice.
type OperationError struct {
	Index int
	Path  attr.Path
	Op    operation.Kind
	Err   error
}

func (e OperationError) Error() string {
	return fmt.Sprintf("operation %d (%s at %q): %v", e.Index, e.Op, e.Path, e.Err)
}

func (e OperationError) Unwrap() error { return e.Err }

// ConnectionLostError marks a transport failure the worker should
// retry with backoff. The batch it interrupted was not applied and
// must be resubmitted whole.
type ConnectionLostError struct {
	Err error
}

func (e *ConnectionLostError) Error() string {
	return "connection lost: " + e.Err.Error()
}

func (e *ConnectionLostError) Unwrap() error { return e.Err }

// IsConnectionLost reports whether err is, or wraps, a connection
// loss.
func IsConnectionLost(err error) bool {
	var lost *ConnectionLostError
	return errors.As(err, &lost)
}

// ContainerNotFoundError reports an Execute or GetAttribute call
// against a container the backend does not know.
type ContainerNotFoundError struct {
	Ref attr.ContainerRef
}

func (e *ContainerNotFoundError) Error() string {
	return fmt.Sprintf("container %s not found", e.Ref)
}

// AttributeNotFoundError reports a GetAttribute miss.
type AttributeNotFoundError struct {
	Ref  attr.ContainerRef
	Path attr.Path
}

func (e *AttributeNotFoundError) Error() string {
	return fmt.Sprintf("attribute %q not found in container %s", e.Path, e.Ref)
}
