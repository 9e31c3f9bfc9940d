// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package attr

import "testing"

func TestParsePath(t *testing.T) {
	t.Parallel()

	p, err := ParsePath("metrics/train/loss")
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	if len(p) != 3 || p[0] != "metrics" || p[1] != "train" || p[2] != "loss" {
		t.Fatalf("unexpected segments: %v", p)
	}
	if p.String() != "metrics/train/loss" {
		t.Fatalf("canonical form %q", p.String())
	}
}

func TestParsePathRejectsEmptySegments(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "/", "a//b", "/a", "a/"} {
		if _, err := ParsePath(input); err == nil {
			t.Fatalf("ParsePath(%q) succeeded, want error", input)
		}
	}
}

func TestNewPathRejectsSlashInSegment(t *testing.T) {
	t.Parallel()

	if _, err := NewPath("a", "b/c"); err == nil {
		t.Fatal("NewPath accepted a segment containing a slash")
	}
}

func TestPathEqualAndClone(t *testing.T) {
	t.Parallel()

	p := MustParsePath("sys/tags")
	q := p.Clone()
	if !p.Equal(q) {
		t.Fatal("clone not equal to original")
	}
	q[1] = "state"
	if p.Equal(q) {
		t.Fatal("mutating clone affected original comparison")
	}
	if p[1] != "tags" {
		t.Fatal("clone shares backing array with original")
	}
}
