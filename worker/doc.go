// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

// Package worker runs the background flush loop.
//
// [Daemon] is a periodic runner with a small state machine: it starts
// running, can be paused and resumed, and interruption is terminal.
// Pausing is a rendezvous: Pause returns only once the loop has
// acknowledged the new state, so no work callback is in flight
// afterwards. The inter-cycle sleep is interruptible; any state change
// wakes the loop immediately.
//
// [Retrier] wraps the work callback's backend calls: transient
// connectivity failures back off exponentially and retry until success
// or interruption, anything else propagates immediately and terminates
// the daemon.
package worker
