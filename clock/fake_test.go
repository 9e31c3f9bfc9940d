// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	t.Parallel()

	clk := Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ch := clk.After(10 * time.Second)

	select {
	case <-ch:
		t.Fatal("timer fired before Advance")
	default:
	}

	clk.Advance(9 * time.Second)
	select {
	case <-ch:
		t.Fatal("timer fired before its deadline")
	default:
	}

	clk.Advance(1 * time.Second)
	fired := <-ch
	if !fired.Equal(time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC)) {
		t.Fatalf("unexpected fire time %v", fired)
	}
}

func TestFakeAfterNonPositiveFiresImmediately(t *testing.T) {
	t.Parallel()

	clk := Fake(time.Unix(0, 0))
	select {
	case <-clk.After(0):
	default:
		t.Fatal("After(0) did not fire immediately")
	}
	if clk.PendingCount() != 0 {
		t.Fatalf("expected no pending waiters, got %d", clk.PendingCount())
	}
}

func TestFakeWaitForTimers(t *testing.T) {
	t.Parallel()

	clk := Fake(time.Unix(0, 0))
	done := make(chan struct{})
	go func() {
		clk.Sleep(time.Minute)
		close(done)
	}()

	clk.WaitForTimers(1)
	clk.Advance(time.Minute)
	<-done
}

func TestFakeAdvanceFiresInDeadlineOrder(t *testing.T) {
	t.Parallel()

	clk := Fake(time.Unix(0, 0))
	late := clk.After(2 * time.Second)
	early := clk.After(1 * time.Second)

	clk.Advance(3 * time.Second)

	earlyTime := <-early
	lateTime := <-late
	if earlyTime.After(lateTime) {
		t.Fatal("waiters fired out of deadline order")
	}
}
