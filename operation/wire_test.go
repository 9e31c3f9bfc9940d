// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package operation

import (
	"reflect"
	"testing"
	"time"

	"github.com/skald-foundation/skald/attr"
	"github.com/skald-foundation/skald/codec"
)

func roundtrip(t *testing.T, op Operation) Operation {
	t.Helper()
	data, err := Encode(op)
	if err != nil {
		t.Fatalf("encode %s: %v", op.Kind(), err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode %s: %v", op.Kind(), err)
	}
	return decoded
}

func TestWireRoundtrip(t *testing.T) {
	when := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	source := attr.ContainerRef{ID: "11111111-2222-3333-4444-555555555555", Kind: attr.ContainerModel}

	ops := []Operation{
		NewAssignFloat(attr.MustParsePath("metrics/loss"), 0.125),
		NewAssignDatetime(attr.MustParsePath("sys/modification_time"), when),
		NewLogFloats(attr.MustParsePath("metrics/acc"), []FloatPoint{
			{Value: 0.5, Step: fptr(1), Timestamp: when},
			{Value: 0.75, Timestamp: when.Add(time.Second)},
		}),
		NewConfigFloatSeries(attr.MustParsePath("metrics/acc"), fptr(0), fptr(1), "ratio"),
		NewAddStrings(attr.MustParsePath("sys/tags"), []string{"baseline", "v2"}),
		NewDeleteAttribute(attr.MustParsePath("params/old")),
		NewUploadFile(attr.MustParsePath("artifacts/model"), "model", "pt", "/tmp/model.pt"),
		NewCopyAttribute(attr.MustParsePath("params/lr"), source, attr.MustParsePath("params/lr"), attr.TypeFloat),
	}
	for _, op := range ops {
		decoded := roundtrip(t, op)
		if !reflect.DeepEqual(decoded, op) {
			t.Errorf("%s: got %#v, want %#v", op.Kind(), decoded, op)
		}
	}
}

func TestWireDeterministic(t *testing.T) {
	op := NewAddStrings(attr.MustParsePath("sys/tags"), []string{"a", "b"})
	first, err := Encode(op)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	second, err := Encode(op)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("encoding the same operation twice produced different bytes")
	}
}

func TestWireRejectsUnknownKind(t *testing.T) {
	data, err := Encode(NewDeleteAttribute(attr.MustParsePath("a")))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var env envelope
	if err := codec.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	env.Kind = Kind(250)
	mangled, err := codec.Marshal(env)
	if err != nil {
		t.Fatalf("re-encode envelope: %v", err)
	}
	if _, err := Decode(mangled); err == nil {
		t.Error("decoding an unknown kind succeeded")
	}
}
