// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skald-foundation/skald/clock"
)

var errFlaky = errors.New("flaky connection")

func never() bool { return false }

func newTestRetrier(clk clock.Clock) *Retrier {
	return &Retrier{
		Initial:     2 * time.Second,
		Max:         8 * time.Second,
		Clock:       clk,
		Log:         discardLogger(),
		IsTransient: func(err error) bool { return errors.Is(err, errFlaky) },
	}
}

func TestRetrierBackoffLadder(t *testing.T) {
	clk := clock.Fake(testEpoch)
	r := newTestRetrier(clk)

	attempts := 0
	calls := make(chan struct{}, 16)
	result := make(chan error, 1)
	go func() {
		result <- r.Do(context.Background(), never, func() error {
			attempts++
			calls <- struct{}{}
			if attempts < 5 {
				return errFlaky
			}
			return nil
		})
	}()

	// Delays double from the initial value and cap at the maximum:
	// 2s, 4s, 8s, 8s.
	<-calls
	for _, backoff := range []time.Duration{2, 4, 8, 8} {
		clk.WaitForTimers(1)
		clk.Advance(backoff * time.Second)
		<-calls
	}
	if err := <-result; err != nil {
		t.Fatalf("do: %v", err)
	}
	if attempts != 5 {
		t.Errorf("attempts = %d, want 5", attempts)
	}
}

func TestRetrierNonTransientPropagates(t *testing.T) {
	clk := clock.Fake(testEpoch)
	r := newTestRetrier(clk)

	fatal := errors.New("schema rejected")
	attempts := 0
	err := r.Do(context.Background(), never, func() error {
		attempts++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Errorf("err = %v, want the fatal error", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetrierStoppedBeforeCall(t *testing.T) {
	clk := clock.Fake(testEpoch)
	r := newTestRetrier(clk)

	err := r.Do(context.Background(), func() bool { return true }, func() error {
		t.Error("call ran despite the worker being stopped")
		return nil
	})
	if !errors.Is(err, ErrStopped) {
		t.Errorf("err = %v, want ErrStopped", err)
	}
}

func TestRetrierCancelDuringBackoff(t *testing.T) {
	clk := clock.Fake(testEpoch)
	r := newTestRetrier(clk)
	ctx, cancel := context.WithCancel(context.Background())

	result := make(chan error, 1)
	go func() {
		result <- r.Do(ctx, never, func() error { return errFlaky })
	}()

	// Wait until the retrier is parked in its first backoff, then
	// interrupt it.
	clk.WaitForTimers(1)
	cancel()
	if err := <-result; !errors.Is(err, ErrStopped) {
		t.Errorf("err = %v, want ErrStopped", err)
	}
}
