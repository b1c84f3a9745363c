package jobx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tracefield/astro-reason/pkg/logx"
)

// Worker runs the poll-execute-ack loop for one process. One worker is one
// sequential loop; horizontal throughput comes from running more worker
// processes in the same consumer group, not from goroutines inside one.
type Worker struct {
	queue    *Queue
	registry *Registry
	opts     WorkerOptions

	mu      sync.Mutex
	running bool
}

// NewWorker creates a worker over the given queue and handler registry.
func NewWorker(queue *Queue, registry *Registry, options ...WorkerOption) *Worker {
	opts := defaultWorkerOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Worker{
		queue:    queue,
		registry: registry,
		opts:     opts,
	}
}

// Start runs the loop until ctx is cancelled. Shutdown is cooperative: the
// cancellation is observed once per iteration, and a job already dequeued
// runs STARTED -> terminal -> ack to completion before Start returns.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return jobErrors.New(ErrAlreadyRunning)
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	logx.Infof("jobs: worker started (functions: %v)", w.registry.Functions())

	backoff := NewIdleBackoff(w.opts.IdleBackoffMin, w.opts.IdleBackoffMax)

	for {
		select {
		case <-ctx.Done():
			logx.Info("jobs: worker stopped")
			return nil
		default:
		}

		env, err := w.queue.Dequeue(ctx, w.opts.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				logx.Info("jobs: worker stopped")
				return nil
			}
			logx.WithError(err).Warn("jobs: dequeue error")
			if !sleepCtx(ctx, backoff.Next()) {
				return nil
			}
			continue
		}
		if env == nil {
			if !sleepCtx(ctx, backoff.Next()) {
				return nil
			}
			continue
		}

		backoff.Reset()
		// The delivered job must run to completion even if shutdown begins
		// mid-execution, so it gets a non-cancelable view of the context.
		w.process(context.WithoutCancel(ctx), env)
	}
}

// process takes one delivery through STARTED -> terminal -> ack.
func (w *Worker) process(ctx context.Context, env *Envelope) {
	rec := env.Record
	log := logx.WithField("job_id", rec.ID).WithField("function", rec.Function)

	// At-least-once guard: a redelivered job that already reached a terminal
	// state is not executed again, only acknowledged.
	if current, err := w.queue.Fetch(ctx, rec.ID); err == nil && current.Status.Terminal() {
		log.WithField("status", string(current.Status)).Info("jobs: skipping redelivered terminal job")
		w.ack(ctx, env, log)
		return
	}

	if err := w.queue.UpdateStatus(ctx, rec.ID, StatusStarted, nil, nil); err != nil {
		log.WithError(err).Warn("jobs: failed to mark job started")
	}

	result, execErr := w.execute(ctx, rec)

	if execErr != nil {
		log.WithError(execErr).Warn("jobs: job failed")
		msg := execErr.Error()
		if err := w.queue.UpdateStatus(ctx, rec.ID, StatusFailed, nil, &msg); err != nil {
			log.WithError(err).Error("jobs: failed to persist FAILED status")
		}
	} else {
		if err := w.queue.UpdateStatus(ctx, rec.ID, StatusFinished, &result, nil); err != nil {
			log.WithError(err).Error("jobs: failed to persist FINISHED status")
		}
	}

	// Acknowledge unconditionally after the terminal transition. Redelivery
	// is reserved for crash/infrastructure failures; deterministic handler
	// errors are retried only by an explicit external re-enqueue.
	w.ack(ctx, env, log)
}

// execute dispatches to the registered handler, converting panics and missing
// registrations into ordinary handler errors so one bad job never stops the
// loop.
func (w *Worker) execute(ctx context.Context, rec Record) (result string, err error) {
	handler, ok := w.registry.Lookup(rec.Function)
	if !ok {
		return "", fmt.Errorf("no handler registered for function %q", rec.Function)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return handler.Execute(ctx, rec.Args, rec.Kwargs)
}

func (w *Worker) ack(ctx context.Context, env *Envelope, log *logx.Entry) {
	if err := w.queue.Ack(ctx, env); err != nil {
		// The message will be redelivered; the terminal-status guard above
		// keeps the redelivery from re-executing the handler.
		log.WithError(err).Error("jobs: failed to ack delivery")
	}
}

// sleepCtx sleeps for d or until ctx is done; it returns false on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
