// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package operation

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/skald-foundation/skald/attr"
	"github.com/skald-foundation/skald/codec"
)

// envelope is the stable journal form of an operation: the kind and
// path up front, the kind-specific payload as a nested CBOR document.
type envelope struct {
	Kind    Kind            `cbor:"kind"`
	Path    []string        `cbor:"path"`
	Payload cbor.RawMessage `cbor:"payload,omitempty"`
}

type scalarPayload[T any] struct {
	Value T `cbor:"value"`
}

type uploadPayload struct {
	Name      string `cbor:"name"`
	Ext       string `cbor:"ext,omitempty"`
	LocalPath string `cbor:"local_path"`
}

type pointPayload[T any] struct {
	Value     T         `cbor:"value"`
	Step      *float64  `cbor:"step,omitempty"`
	Timestamp time.Time `cbor:"ts"`
}

type seriesPayload[T any] struct {
	Points []pointPayload[T] `cbor:"points"`
}

type configPayload struct {
	Min  *float64 `cbor:"min,omitempty"`
	Max  *float64 `cbor:"max,omitempty"`
	Unit string   `cbor:"unit,omitempty"`
}

type setPayload struct {
	Values []string `cbor:"values"`
}

type copyPayload struct {
	SourceID   attr.ContainerID   `cbor:"source_id"`
	SourceKind attr.ContainerKind `cbor:"source_kind"`
	SourcePath []string           `cbor:"source_path"`
	SourceType attr.Type          `cbor:"source_type"`
}

// Encode serializes op into its journal form.
func Encode(op Operation) ([]byte, error) {
	var payload any
	switch op := op.(type) {
	case *AssignFloat:
		payload = scalarPayload[float64]{Value: op.Value}
	case *AssignInt:
		payload = scalarPayload[int64]{Value: op.Value}
	case *AssignBool:
		payload = scalarPayload[bool]{Value: op.Value}
	case *AssignString:
		payload = scalarPayload[string]{Value: op.Value}
	case *AssignDatetime:
		payload = scalarPayload[time.Time]{Value: op.Value}
	case *UploadFile:
		payload = uploadPayload{Name: op.Name, Ext: op.Ext, LocalPath: op.LocalPath}
	case *LogFloats:
		points := make([]pointPayload[float64], len(op.Points))
		for i, pt := range op.Points {
			points[i] = pointPayload[float64]{Value: pt.Value, Step: pt.Step, Timestamp: pt.Timestamp}
		}
		payload = seriesPayload[float64]{Points: points}
	case *LogStrings:
		points := make([]pointPayload[string], len(op.Points))
		for i, pt := range op.Points {
			points[i] = pointPayload[string]{Value: pt.Value, Step: pt.Step, Timestamp: pt.Timestamp}
		}
		payload = seriesPayload[string]{Points: points}
	case *ConfigFloatSeries:
		payload = configPayload{Min: op.Min, Max: op.Max, Unit: op.Unit}
	case *AddStrings:
		payload = setPayload{Values: op.Values}
	case *RemoveStrings:
		payload = setPayload{Values: op.Values}
	case *CopyAttribute:
		payload = copyPayload{
			SourceID:   op.SourceContainer.ID,
			SourceKind: op.SourceContainer.Kind,
			SourcePath: op.SourcePath,
			SourceType: op.SourceType,
		}
	case *ClearFloatLog, *ClearStringLog, *ClearStringSet, *DeleteAttribute:
		payload = nil
	default:
		return nil, fmt.Errorf("encode operation: unknown kind %d", op.Kind())
	}

	env := envelope{Kind: op.Kind(), Path: op.Path()}
	if payload != nil {
		raw, err := codec.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", op.Kind(), err)
		}
		env.Payload = raw
	}
	return codec.Marshal(env)
}

// Decode reverses [Encode].
func Decode(data []byte) (Operation, error) {
	var env envelope
	if err := codec.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode operation envelope: %w", err)
	}
	path := attr.Path(env.Path)

	unmarshal := func(v any) error {
		if err := codec.Unmarshal(env.Payload, v); err != nil {
			return fmt.Errorf("decode %s payload: %w", env.Kind, err)
		}
		return nil
	}

	switch env.Kind {
	case KindAssignFloat:
		var p scalarPayload[float64]
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewAssignFloat(path, p.Value), nil
	case KindAssignInt:
		var p scalarPayload[int64]
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewAssignInt(path, p.Value), nil
	case KindAssignBool:
		var p scalarPayload[bool]
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewAssignBool(path, p.Value), nil
	case KindAssignString:
		var p scalarPayload[string]
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewAssignString(path, p.Value), nil
	case KindAssignDatetime:
		var p scalarPayload[time.Time]
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewAssignDatetime(path, p.Value), nil
	case KindUploadFile:
		var p uploadPayload
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewUploadFile(path, p.Name, p.Ext, p.LocalPath), nil
	case KindLogFloats:
		var p seriesPayload[float64]
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		points := make([]FloatPoint, len(p.Points))
		for i, pt := range p.Points {
			points[i] = FloatPoint{Value: pt.Value, Step: pt.Step, Timestamp: pt.Timestamp}
		}
		return NewLogFloats(path, points), nil
	case KindLogStrings:
		var p seriesPayload[string]
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		points := make([]StringPoint, len(p.Points))
		for i, pt := range p.Points {
			points[i] = StringPoint{Value: pt.Value, Step: pt.Step, Timestamp: pt.Timestamp}
		}
		return NewLogStrings(path, points), nil
	case KindClearFloatLog:
		return NewClearFloatLog(path), nil
	case KindClearStringLog:
		return NewClearStringLog(path), nil
	case KindConfigFloatSeries:
		var p configPayload
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewConfigFloatSeries(path, p.Min, p.Max, p.Unit), nil
	case KindAddStrings:
		var p setPayload
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewAddStrings(path, p.Values), nil
	case KindRemoveStrings:
		var p setPayload
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return NewRemoveStrings(path, p.Values), nil
	case KindClearStringSet:
		return NewClearStringSet(path), nil
	case KindDeleteAttribute:
		return NewDeleteAttribute(path), nil
	case KindCopyAttribute:
		var p copyPayload
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		ref := attr.ContainerRef{ID: p.SourceID, Kind: p.SourceKind}
		return NewCopyAttribute(path, ref, attr.Path(p.SourcePath), p.SourceType), nil
	default:
		return nil, fmt.Errorf("decode operation: unknown kind %d", env.Kind)
	}
}
