// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/skald-foundation/skald/clock"
)

// ErrStopped reports that a retried call was abandoned because the
// worker was interrupted, not because the call failed.
var ErrStopped = errors.New("worker stopped")

// DefaultInitialBackoff and DefaultMaxBackoff bound the retry delay
// ladder.
const (
	DefaultInitialBackoff = 2 * time.Second
	DefaultMaxBackoff     = 120 * time.Second
)

// Retrier repeats a call while it fails transiently. The delay starts
// at Initial after the first failure, doubles per consecutive failure
// up to Max, and resets once a call succeeds.
type Retrier struct {
	Initial     time.Duration
	Max         time.Duration
	Clock       clock.Clock
	Log         *slog.Logger
	IsTransient func(error) bool
}

// Do runs call until it succeeds, fails non-transiently, or the
// worker stops. stopped is polled before every attempt; a true result
// or a canceled ctx yields [ErrStopped]. A non-transient error is
// returned as-is, without further attempts.
func (r *Retrier) Do(ctx context.Context, stopped func() bool, call func() error) error {
	backoff := time.Duration(0)
	for {
		if stopped() || ctx.Err() != nil {
			return ErrStopped
		}
		err := call()
		if err == nil {
			if backoff > 0 {
				r.Log.Info("connection restored")
			}
			return nil
		}
		if !r.IsTransient(err) {
			return err
		}
		if backoff == 0 {
			r.Log.Warn("connection interrupted, retrying", "error", err)
			backoff = r.Initial
		} else {
			backoff = min(backoff*2, r.Max)
		}
		select {
		case <-r.Clock.After(backoff):
		case <-ctx.Done():
			return ErrStopped
		}
	}
}
