// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/skald-foundation/skald/attr"
	"github.com/skald-foundation/skald/operation"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pending", "ops.journal")
	j, err := Open(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func testOps(t *testing.T) []operation.Operation {
	t.Helper()
	return []operation.Operation{
		operation.NewAssignFloat(attr.MustParsePath("metrics/loss"), 0.25),
		operation.NewLogFloats(attr.MustParsePath("metrics/acc"), []operation.FloatPoint{{Value: 0.5}}),
		operation.NewAddStrings(attr.MustParsePath("sys/tags"), []string{"resumed"}),
		operation.NewDeleteAttribute(attr.MustParsePath("params/old")),
	}
}

func TestJournalAppendReplay(t *testing.T) {
	j := openTestJournal(t)
	ops := testOps(t)
	for _, op := range ops {
		if err := j.Append(op); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	replayed, err := j.Replay()
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !reflect.DeepEqual(replayed, ops) {
		t.Errorf("replayed %#v, want %#v", replayed, ops)
	}
}

func TestJournalReplayEmpty(t *testing.T) {
	j := openTestJournal(t)
	replayed, err := j.Replay()
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(replayed) != 0 {
		t.Errorf("replayed %d operations from an empty journal", len(replayed))
	}
}

func TestJournalTruncatesTornTail(t *testing.T) {
	j := openTestJournal(t)
	ops := testOps(t)
	for _, op := range ops {
		if err := j.Append(op); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	// Tear the last record in half, as a crash mid-write would.
	size, err := j.Size()
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if err := os.Truncate(j.path, size-5); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	replayed, err := j.Replay()
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !reflect.DeepEqual(replayed, ops[:len(ops)-1]) {
		t.Errorf("replayed %d operations, want %d intact ones", len(replayed), len(ops)-1)
	}

	// The torn tail is gone; appending and replaying again works.
	if err := j.Append(ops[len(ops)-1]); err != nil {
		t.Fatalf("append after truncation: %v", err)
	}
	replayed, err = j.Replay()
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !reflect.DeepEqual(replayed, ops) {
		t.Errorf("replayed %#v, want %#v", replayed, ops)
	}
}

func TestJournalDetectsCorruptPayload(t *testing.T) {
	j := openTestJournal(t)
	ops := testOps(t)
	for _, op := range ops {
		if err := j.Append(op); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	// Flip one byte inside the first record's payload.
	data, err := os.ReadFile(j.path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	data[headerSize] ^= 0xff
	if err := os.WriteFile(j.path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	replayed, err := j.Replay()
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	// Corruption in the first record discards everything after it.
	if len(replayed) != 0 {
		t.Errorf("replayed %d operations past a corrupt record", len(replayed))
	}
}

func TestJournalRewriteCompacts(t *testing.T) {
	j := openTestJournal(t)
	ops := testOps(t)
	for _, op := range ops {
		if err := j.Append(op); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	remaining := ops[2:]
	if err := j.Rewrite(remaining); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	replayed, err := j.Replay()
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !reflect.DeepEqual(replayed, remaining) {
		t.Errorf("replayed %#v, want %#v", replayed, remaining)
	}

	if err := j.Rewrite(nil); err != nil {
		t.Fatalf("rewrite empty: %v", err)
	}
	size, err := j.Size()
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if size != 0 {
		t.Errorf("size after empty rewrite = %d, want 0", size)
	}
}
