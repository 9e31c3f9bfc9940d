// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package attr

import (
	"fmt"

	"github.com/google/uuid"
)

// ContainerID uniquely identifies a container within a workspace.
// IDs are opaque; the reference store issues UUIDs.
type ContainerID string

// NewContainerID returns a fresh random container ID.
func NewContainerID() ContainerID {
	return ContainerID(uuid.NewString())
}

// ContainerKind distinguishes the addressable entity kinds that own
// attribute trees.
type ContainerKind uint8

const (
	ContainerRun ContainerKind = iota + 1
	ContainerModel
	ContainerModelVersion
	ContainerProject
)

// String returns the lowercase kind name.
func (k ContainerKind) String() string {
	switch k {
	case ContainerRun:
		return "run"
	case ContainerModel:
		return "model"
	case ContainerModelVersion:
		return "model_version"
	case ContainerProject:
		return "project"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// ContainerRef addresses one container: the pair of ID and kind. Two
// kinds may in principle share an ID space, so both parts participate
// in identity.
type ContainerRef struct {
	ID   ContainerID
	Kind ContainerKind
}

// String renders the reference for logs and error messages.
func (r ContainerRef) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}
