// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/skald-foundation/skald/clock"
)

// State is the lifecycle position of a [Daemon].
type State uint8

const (
	StateInit State = iota
	StateRunning
	StatePaused
	StateInterrupted
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateInterrupted:
		return "interrupted"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Daemon invokes a work callback on a fixed interval until
// interrupted. A work error other than [ErrStopped] terminates the
// loop and is retained for [Daemon.Err].
type Daemon struct {
	interval time.Duration
	work     func(context.Context) error
	clk      clock.Clock
	log      *slog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	state   State
	loopSeq uint64
	err     error

	wake chan struct{}
	done chan struct{}
}

// NewDaemon builds a daemon calling work every interval. A
// non-positive interval makes the loop spin on explicit wakes only.
func NewDaemon(interval time.Duration, work func(context.Context) error, clk clock.Clock, log *slog.Logger) *Daemon {
	d := &Daemon{
		interval: interval,
		work:     work,
		clk:      clk,
		log:      log,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// Start launches the run loop. It must be called once, from the
// owning goroutine, before any other method.
func (d *Daemon) Start(ctx context.Context) {
	d.mu.Lock()
	d.state = StateRunning
	d.mu.Unlock()
	go d.run(ctx)
}

// Pause parks the loop and blocks until it acknowledges: when Pause
// returns, no work callback is in flight and none will start before
// Resume. Pausing a stopped daemon returns immediately.
func (d *Daemon) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateStopped || d.state == StateInterrupted {
		return
	}
	if d.state == StateInit {
		d.state = StatePaused
		return
	}
	d.state = StatePaused
	d.wakeUp()
	seq := d.loopSeq
	for d.loopSeq == seq && d.state == StatePaused {
		d.cond.Wait()
	}
}

// Resume unparks the loop. It does not wait for the next cycle.
func (d *Daemon) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StatePaused {
		return
	}
	d.state = StateRunning
	d.wakeUp()
}

// Interrupt asks the loop to exit. It does not wait; use [Daemon.Done]
// to observe the stop.
func (d *Daemon) Interrupt() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateStopped {
		return
	}
	d.state = StateInterrupted
	d.wakeUp()
}

// Wake cuts the current inter-cycle sleep short, triggering an
// immediate cycle.
func (d *Daemon) Wake() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.wakeUp()
}

// State returns the current lifecycle state.
func (d *Daemon) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Done is closed once the run loop has exited.
func (d *Daemon) Done() <-chan struct{} { return d.done }

// Err returns the work error that terminated the loop, or nil after a
// clean interrupt. Meaningful only once Done is closed.
func (d *Daemon) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// wakeUp is called with d.mu held.
func (d *Daemon) wakeUp() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Daemon) run(ctx context.Context) {
	defer func() {
		d.mu.Lock()
		d.state = StateStopped
		d.cond.Broadcast()
		d.mu.Unlock()
		close(d.done)
	}()

	for {
		d.mu.Lock()
		if ctx.Err() != nil && d.state != StateInterrupted {
			d.state = StateInterrupted
		}
		d.loopSeq++
		d.cond.Broadcast()
		startState := d.state
		d.mu.Unlock()

		if startState == StateInterrupted {
			return
		}
		if startState == StateRunning {
			err := d.work(ctx)
			if err != nil && !errors.Is(err, ErrStopped) {
				d.log.Error("background worker terminated", "error", err)
				d.mu.Lock()
				d.err = err
				d.state = StateInterrupted
				d.mu.Unlock()
				return
			}
		}

		d.sleep(ctx, d.interval, startState)
	}
}

// sleep parks between cycles. A sleep only arms when the state is
// still the one observed at the cycle's start; otherwise the loop
// re-evaluates immediately.
func (d *Daemon) sleep(ctx context.Context, interval time.Duration, startState State) {
	d.mu.Lock()
	unchanged := d.state == startState
	d.mu.Unlock()
	if !unchanged {
		return
	}
	if interval <= 0 {
		// No timer: park until an explicit wake.
		select {
		case <-d.wake:
		case <-ctx.Done():
		}
		return
	}
	select {
	case <-d.clk.After(interval):
	case <-d.wake:
	case <-ctx.Done():
	}
}
