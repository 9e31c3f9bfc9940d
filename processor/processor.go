// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/skald-foundation/skald/attr"
	"github.com/skald-foundation/skald/clock"
	"github.com/skald-foundation/skald/config"
	"github.com/skald-foundation/skald/journal"
	"github.com/skald-foundation/skald/operation"
	"github.com/skald-foundation/skald/store"
	"github.com/skald-foundation/skald/worker"
)

// FlushError is one operation that permanently failed during a flush.
// It is reported to the error sink and logged; it is never retried.
type FlushError struct {
	Path    attr.Path
	Op      operation.Kind
	Message string
}

// ErrorSink receives the permanent failures of each flush cycle. It is
// called from the worker goroutine and must not block.
type ErrorSink func([]FlushError)

// UploadSink transfers file-bearing operations. It is called from the
// worker goroutine after the metadata batch was accepted.
type UploadSink func(ctx context.Context, uploads []*operation.UploadFile) error

// Options configures a [Processor].
type Options struct {
	// FlushInterval is the worker's cycle period. Defaults to 5s.
	FlushInterval time.Duration
	// BatchSize caps operations per backend call. Defaults to 1000.
	BatchSize int
	// MaxQueueSize bounds the pending queue; a full queue blocks
	// Enqueue until the worker catches up. Zero means unbounded.
	MaxQueueSize int
	// BackoffInitial and BackoffMax bound the retry ladder. Default
	// to the worker package defaults.
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	// Journal, when non-nil, makes the pending queue crash-durable.
	// The processor takes ownership and closes it on Stop.
	Journal *journal.Journal
	// Errors receives permanent per-operation failures. Optional.
	Errors ErrorSink
	// Uploads handles file transfers. Optional; without it upload
	// operations are reported as failures.
	Uploads UploadSink
	// Clock defaults to the real clock.
	Clock clock.Clock
	// Log defaults to slog.Default.
	Log *slog.Logger
}

// FromConfig builds Options from a loaded configuration, opening the
// journal when one is configured. Sinks and clock stay at their
// defaults and can be set on the returned value.
func FromConfig(cfg config.Config, log *slog.Logger) (Options, error) {
	if log == nil {
		log = slog.Default()
	}
	opts := Options{
		FlushInterval:  time.Duration(cfg.FlushInterval),
		BatchSize:      cfg.BatchSize,
		MaxQueueSize:   cfg.MaxQueueSize,
		BackoffInitial: time.Duration(cfg.Backoff.Initial),
		BackoffMax:     time.Duration(cfg.Backoff.Max),
		Log:            log,
	}
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path, opts.Log)
		if err != nil {
			return Options{}, fmt.Errorf("open journal: %w", err)
		}
		opts.Journal = j
	}
	return opts, nil
}

func (o *Options) applyDefaults() {
	if o.FlushInterval == 0 {
		o.FlushInterval = 5 * time.Second
	}
	if o.BatchSize == 0 {
		o.BatchSize = 1000
	}
	if o.BackoffInitial == 0 {
		o.BackoffInitial = worker.DefaultInitialBackoff
	}
	if o.BackoffMax == 0 {
		o.BackoffMax = worker.DefaultMaxBackoff
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.Log == nil {
		o.Log = slog.Default()
	}
}

// Processor dispatches the operations of one container.
type Processor struct {
	ref     attr.ContainerRef
	backend store.Backend
	opts    Options
	retrier *worker.Retrier
	daemon  *worker.Daemon
	log     *slog.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	pending  []operation.Operation
	enqueued int64
	consumed int64
}

// New builds a processor for ref backed by backend. When the options
// carry a journal, operations recorded by a previous process are
// replayed into the pending queue. The worker does not run until
// [Processor.Start].
func New(ref attr.ContainerRef, backend store.Backend, opts Options) (*Processor, error) {
	opts.applyDefaults()
	p := &Processor{
		ref:     ref,
		backend: backend,
		opts:    opts,
		log:     opts.Log.With("container", ref.String()),
	}
	p.cond = sync.NewCond(&p.mu)
	p.retrier = &worker.Retrier{
		Initial:     opts.BackoffInitial,
		Max:         opts.BackoffMax,
		Clock:       opts.Clock,
		Log:         p.log,
		IsTransient: store.IsConnectionLost,
	}
	p.daemon = worker.NewDaemon(opts.FlushInterval, p.flush, opts.Clock, p.log)

	if opts.Journal != nil {
		recovered, err := opts.Journal.Replay()
		if err != nil {
			return nil, fmt.Errorf("replay journal: %w", err)
		}
		if len(recovered) > 0 {
			p.log.Info("recovered journaled operations", "count", len(recovered))
			p.pending = recovered
			p.enqueued = int64(len(recovered))
		}
	}
	return p, nil
}

// Start launches the background worker.
func (p *Processor) Start(ctx context.Context) {
	p.daemon.Start(ctx)
	go func() {
		<-p.daemon.Done()
		// Unblock waiters; the queue will not drain further.
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	}()
}

// Enqueue appends op to the pending queue. With wait set it blocks
// until op and everything enqueued before it has been dispatched or
// permanently failed. A full bounded queue blocks until the worker
// frees space. A stopped worker fails the wait.
func (p *Processor) Enqueue(op operation.Operation, wait bool) error {
	if p.opts.MaxQueueSize > 0 {
		if err := p.waitForSpace(); err != nil {
			return err
		}
	}
	if p.opts.Journal != nil {
		if err := p.opts.Journal.Append(op); err != nil {
			return fmt.Errorf("journal operation: %w", err)
		}
	}
	p.mu.Lock()
	p.pending = append(p.pending, op)
	p.enqueued++
	version := p.enqueued
	queued := len(p.pending)
	p.mu.Unlock()

	if queued >= p.opts.BatchSize {
		p.daemon.Wake()
	}
	if !wait {
		return nil
	}
	p.daemon.Wake()
	return p.waitConsumed(version)
}

// Flush wakes the worker and blocks until everything enqueued so far
// has been dispatched or permanently failed.
func (p *Processor) Flush() error {
	p.mu.Lock()
	version := p.enqueued
	p.mu.Unlock()
	p.daemon.Wake()
	return p.waitConsumed(version)
}

// waitForSpace parks the producer until the queue is below its bound.
// A worker that has not started yet cannot free space; callers are
// expected to Start before producing against a bounded queue.
func (p *Processor) waitForSpace() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.pending) >= p.opts.MaxQueueSize {
		if p.interrupted() {
			if err := p.daemon.Err(); err != nil {
				return fmt.Errorf("worker terminated: %w", err)
			}
			return worker.ErrStopped
		}
		p.daemon.Wake()
		p.cond.Wait()
	}
	return nil
}

func (p *Processor) waitConsumed(version int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.consumed < version {
		if p.interrupted() {
			if err := p.daemon.Err(); err != nil {
				return fmt.Errorf("worker terminated: %w", err)
			}
			return worker.ErrStopped
		}
		p.cond.Wait()
	}
	return nil
}

// Pause parks the worker; it returns with no flush in flight. Queued
// operations accumulate until Resume.
func (p *Processor) Pause() { p.daemon.Pause() }

// Resume unparks the worker.
func (p *Processor) Resume() { p.daemon.Resume() }

// Err returns the error that terminated the worker, if any.
func (p *Processor) Err() error { return p.daemon.Err() }

// Done is closed when the worker has exited.
func (p *Processor) Done() <-chan struct{} { return p.daemon.Done() }

// Pending returns the number of queued operations.
func (p *Processor) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Stop drains the queue, stops the worker, and closes the journal.
// When ctx expires first the worker is interrupted anyway and the
// remaining operations stay in the journal for the next process.
func (p *Processor) Stop(ctx context.Context) error {
	flushErr := p.stopFlush(ctx)
	p.daemon.Interrupt()
	<-p.daemon.Done()
	if p.opts.Journal != nil {
		if err := p.opts.Journal.Close(); err != nil {
			p.log.Warn("closing journal", "error", err)
		}
	}
	if err := p.daemon.Err(); err != nil {
		return err
	}
	return flushErr
}

func (p *Processor) stopFlush(ctx context.Context) error {
	p.mu.Lock()
	version := p.enqueued
	p.mu.Unlock()
	p.daemon.Wake()

	// Make ctx expiry observable to the cond wait.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.cond.Broadcast()
			p.mu.Unlock()
		case <-watchDone:
		}
	}()

	p.mu.Lock()
	defer p.mu.Unlock()
	for p.consumed < version {
		if ctx.Err() != nil {
			return fmt.Errorf("stop: %d operations left unflushed: %w", len(p.pending), ctx.Err())
		}
		if p.interrupted() {
			if err := p.daemon.Err(); err != nil {
				return fmt.Errorf("worker terminated: %w", err)
			}
			return worker.ErrStopped
		}
		p.cond.Wait()
	}
	return nil
}

// interrupted reports whether the worker is winding down. The daemon
// state has its own lock, so calling this with p.mu held is fine.
func (p *Processor) interrupted() bool {
	switch p.daemon.State() {
	case worker.StateInterrupted, worker.StateStopped:
		return true
	default:
		return false
	}
}

// flush is the daemon's work callback: it drains and dispatches full
// batches until the queue holds less than one batch, then dispatches
// the remainder.
func (p *Processor) flush(ctx context.Context) error {
	for {
		p.mu.Lock()
		n := min(len(p.pending), p.opts.BatchSize)
		batch := slices.Clone(p.pending[:n])
		p.mu.Unlock()
		if n == 0 {
			return nil
		}
		if err := p.dispatch(ctx, batch); err != nil {
			return err
		}
		if n < p.opts.BatchSize {
			return nil
		}
	}
}

// dispatch reduces and submits one batch, then consumes it from the
// queue. ops is a prefix snapshot of the pending queue.
func (p *Processor) dispatch(ctx context.Context, ops []operation.Operation) error {
	var failed []FlushError

	resolved, origin, failures, err := p.resolveCopies(ctx, ops)
	if err != nil {
		return err
	}
	failed = append(failed, failures...)

	pre := operation.NewPreprocessor()
	folded, foldErr := pre.Process(resolved)
	consume := len(ops)
	if foldErr != nil {
		// A broken reduction invariant. The faulting operation is
		// dropped so the queue cannot wedge on it; everything after
		// it stays queued for the next cycle.
		p.log.Error("operation reduction failed", "error", foldErr, "folded", folded)
		faulting := resolved[folded]
		failed = append(failed, FlushError{
			Path:    faulting.Path(),
			Op:      faulting.Kind(),
			Message: foldErr.Error(),
		})
		consume = origin[folded] + 1
	}

	batch := pre.Batch()
	for _, err := range batch.Errors {
		failed = append(failed, toFlushError(err))
	}

	var execFailures []store.OperationError
	err = p.retrier.Do(ctx, p.interrupted, func() error {
		_, failures, err := p.backend.Execute(ctx, p.ref, batch.Operations)
		if err != nil {
			return err
		}
		execFailures = failures
		return nil
	})
	if err != nil {
		// ErrStopped or a fatal backend fault; the batch stays queued.
		return err
	}
	for _, failure := range execFailures {
		failed = append(failed, FlushError{
			Path:    failure.Path,
			Op:      failure.Op,
			Message: failure.Err.Error(),
		})
	}

	if len(batch.Uploads) > 0 {
		failed = append(failed, p.upload(ctx, batch.Uploads)...)
	}

	p.report(failed)
	p.consume(consume)
	return nil
}

// resolveCopies rewrites copy operations into assigns carrying the
// source value, fetched with retry. A missing source fails the copy
// permanently; the rest of the batch proceeds. origin maps each
// returned operation back to its index in ops.
func (p *Processor) resolveCopies(ctx context.Context, ops []operation.Operation) ([]operation.Operation, []int, []FlushError, error) {
	var failed []FlushError
	resolved := make([]operation.Operation, 0, len(ops))
	origin := make([]int, 0, len(ops))
	for i, op := range ops {
		copyOp, ok := op.(*operation.CopyAttribute)
		if !ok {
			resolved = append(resolved, op)
			origin = append(origin, i)
			continue
		}
		var value attr.Value
		err := p.retrier.Do(ctx, p.interrupted, func() error {
			v, err := p.backend.GetAttribute(ctx, copyOp.SourceContainer, copyOp.SourcePath)
			if err != nil {
				return err
			}
			value = v
			return nil
		})
		if err != nil {
			var notFoundAttr *store.AttributeNotFoundError
			var notFoundContainer *store.ContainerNotFoundError
			if errors.As(err, &notFoundAttr) || errors.As(err, &notFoundContainer) {
				failed = append(failed, FlushError{
					Path:    copyOp.Path(),
					Op:      copyOp.Kind(),
					Message: "copy source unavailable: " + err.Error(),
				})
				continue
			}
			return nil, nil, nil, err
		}
		assign, err := copyOp.Resolve(value)
		if err != nil {
			failed = append(failed, toFlushError(err))
			continue
		}
		resolved = append(resolved, assign)
		origin = append(origin, i)
	}
	return resolved, origin, failed, nil
}

func (p *Processor) upload(ctx context.Context, uploads []*operation.UploadFile) []FlushError {
	if p.opts.Uploads == nil {
		failed := make([]FlushError, 0, len(uploads))
		for _, up := range uploads {
			failed = append(failed, FlushError{
				Path:    up.Path(),
				Op:      up.Kind(),
				Message: "no upload handler configured",
			})
		}
		return failed
	}
	if err := p.opts.Uploads(ctx, uploads); err != nil {
		failed := make([]FlushError, 0, len(uploads))
		for _, up := range uploads {
			failed = append(failed, FlushError{
				Path:    up.Path(),
				Op:      up.Kind(),
				Message: err.Error(),
			})
		}
		return failed
	}
	return nil
}

// consume removes the dispatched prefix from the queue, compacts the
// journal to the remainder, and releases waiters.
func (p *Processor) consume(n int) {
	p.mu.Lock()
	p.pending = slices.Clone(p.pending[n:])
	p.consumed += int64(n)
	remaining := slices.Clone(p.pending)
	p.cond.Broadcast()
	p.mu.Unlock()

	if p.opts.Journal != nil {
		if err := p.opts.Journal.Rewrite(remaining); err != nil {
			p.log.Warn("compacting journal", "error", err)
		}
	}
}

func (p *Processor) report(failed []FlushError) {
	if len(failed) == 0 {
		return
	}
	for _, failure := range failed {
		p.log.Warn("operation failed permanently",
			"path", failure.Path.String(), "op", failure.Op.String(), "reason", failure.Message)
	}
	if p.opts.Errors != nil {
		p.opts.Errors(failed)
	}
}

func toFlushError(err error) FlushError {
	var inconsistency *operation.MetadataInconsistencyError
	if errors.As(err, &inconsistency) {
		return FlushError{
			Path:    inconsistency.Path,
			Op:      inconsistency.Op,
			Message: inconsistency.Message,
		}
	}
	return FlushError{Message: err.Error()}
}
