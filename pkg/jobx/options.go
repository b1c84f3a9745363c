package jobx

import "time"

// WorkerOptions configures the worker runtime.
type WorkerOptions struct {
	DequeueTimeout time.Duration
	IdleBackoffMin time.Duration
	IdleBackoffMax time.Duration
}

func defaultWorkerOptions() WorkerOptions {
	return WorkerOptions{
		DequeueTimeout: time.Second,
		IdleBackoffMin: 100 * time.Millisecond,
		IdleBackoffMax: 2 * time.Second,
	}
}

// WorkerOption is a functional option for configuring the worker.
type WorkerOption func(*WorkerOptions)

// WithDequeueTimeout sets the bounded wait passed to each broker poll.
func WithDequeueTimeout(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.DequeueTimeout = d
		}
	}
}

// WithIdleBackoff sets the floor and ceiling of the idle backoff.
func WithIdleBackoff(floor, ceiling time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if floor > 0 {
			o.IdleBackoffMin = floor
		}
		if ceiling > 0 {
			o.IdleBackoffMax = ceiling
		}
	}
}
