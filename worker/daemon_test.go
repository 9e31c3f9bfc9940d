// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skald-foundation/skald/clock"
)

var testEpoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDaemonRunsPeriodically(t *testing.T) {
	clk := clock.Fake(testEpoch)
	cycles := make(chan struct{}, 8)
	d := NewDaemon(10*time.Second, func(context.Context) error {
		cycles <- struct{}{}
		return nil
	}, clk, discardLogger())
	d.Start(context.Background())
	defer func() {
		d.Interrupt()
		<-d.Done()
	}()

	// The first cycle runs immediately, then the loop arms its sleep.
	<-cycles
	clk.WaitForTimers(1)
	clk.Advance(10 * time.Second)
	<-cycles
}

func TestDaemonWakeCutsSleepShort(t *testing.T) {
	clk := clock.Fake(testEpoch)
	cycles := make(chan struct{}, 8)
	d := NewDaemon(time.Hour, func(context.Context) error {
		cycles <- struct{}{}
		return nil
	}, clk, discardLogger())
	d.Start(context.Background())
	defer func() {
		d.Interrupt()
		<-d.Done()
	}()

	<-cycles
	clk.WaitForTimers(1)
	d.Wake()
	// The second cycle arrives without the clock moving.
	<-cycles
}

func TestDaemonPauseWaitsForWorkInFlight(t *testing.T) {
	clk := clock.Fake(testEpoch)
	inWork := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	d := NewDaemon(time.Hour, func(context.Context) error {
		inWork <- struct{}{}
		<-release
		finished.Store(true)
		return nil
	}, clk, discardLogger())
	d.Start(context.Background())
	defer func() {
		d.Interrupt()
		<-d.Done()
	}()

	<-inWork
	paused := make(chan struct{})
	go func() {
		d.Pause()
		close(paused)
	}()

	select {
	case <-paused:
		t.Fatal("pause returned while work was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-paused
	if !finished.Load() {
		t.Error("pause acknowledged before work completed")
	}
	if got := d.State(); got != StatePaused {
		t.Errorf("state = %s, want paused", got)
	}

	// Resume restarts the cycle loop.
	d.Resume()
	<-inWork
}

func TestDaemonInterruptStopsLoop(t *testing.T) {
	clk := clock.Fake(testEpoch)
	d := NewDaemon(time.Hour, func(context.Context) error { return nil }, clk, discardLogger())
	d.Start(context.Background())

	d.Interrupt()
	<-d.Done()
	if got := d.State(); got != StateStopped {
		t.Errorf("state = %s, want stopped", got)
	}
	if err := d.Err(); err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}

func TestDaemonWorkErrorTerminates(t *testing.T) {
	clk := clock.Fake(testEpoch)
	boom := errors.New("boom")
	d := NewDaemon(time.Hour, func(context.Context) error { return boom }, clk, discardLogger())
	d.Start(context.Background())

	<-d.Done()
	if !errors.Is(d.Err(), boom) {
		t.Errorf("err = %v, want boom", d.Err())
	}
	if got := d.State(); got != StateStopped {
		t.Errorf("state = %s, want stopped", got)
	}
}

func TestDaemonErrStoppedIsBenign(t *testing.T) {
	clk := clock.Fake(testEpoch)
	cycles := make(chan struct{}, 8)
	d := NewDaemon(time.Hour, func(context.Context) error {
		cycles <- struct{}{}
		return ErrStopped
	}, clk, discardLogger())
	d.Start(context.Background())

	// An abandoned retry does not kill the loop; the interrupt that
	// caused it does, on the next cycle.
	<-cycles
	d.Interrupt()
	<-d.Done()
	if err := d.Err(); err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}

func TestDaemonContextCancelInterrupts(t *testing.T) {
	clk := clock.Fake(testEpoch)
	ctx, cancel := context.WithCancel(context.Background())
	cycles := make(chan struct{}, 8)
	d := NewDaemon(time.Hour, func(context.Context) error {
		cycles <- struct{}{}
		return nil
	}, clk, discardLogger())
	d.Start(ctx)

	<-cycles
	cancel()
	<-d.Done()
	if err := d.Err(); err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}
