// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability. Production code injects
// Real(); tests inject Fake() and drive time with Advance.
//
// Skald's time-dependent code (the background worker's inter-cycle
// sleep, the connection retry backoff) only needs Now, After, and
// Sleep, so the interface is deliberately that small.
package clock
