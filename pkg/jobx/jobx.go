// Package jobx is the asynchronous job runtime: a durability-first producer
// contract over a partitioned broker, an at-least-once consumer contract, and
// a durable status store that stays queryable after a message has left the
// broker. Delivery and status are intentionally two separate systems; do not
// collapse them, the broker's redelivery/offset semantics must stay
// independent of application-level job state.
package jobx

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Broker is the delivery transport between producers and a consumer group.
type Broker interface {
	// Publish appends the record to the given topic, keyed by job id.
	Publish(ctx context.Context, topic string, rec Record) error

	// Dequeue waits up to timeout for the next delivery on the consumer's
	// subscribed topics. Returns (nil, nil) when the wait elapses empty.
	Dequeue(ctx context.Context, timeout time.Duration) (*Envelope, error)

	// Ack commits the consumer position for the envelope's partition/offset.
	// Call exactly once per delivery, after the terminal status is persisted.
	Ack(ctx context.Context, env *Envelope) error
}

// StatusStore is the durable source of truth for job lifecycle state.
type StatusStore interface {
	// Insert persists a freshly built QUEUED record.
	Insert(ctx context.Context, rec Record) error

	// Get returns the record by id, or a not-found error.
	Get(ctx context.Context, id string) (*Record, error)

	// UpdateStatus applies a status transition. StartedAt is set only on the
	// first transition out of QUEUED and never cleared; EndedAt only on a
	// terminal transition. Unknown ids and already-terminal records are a
	// silent no-op.
	UpdateStatus(ctx context.Context, id string, status Status, result, errMsg *string) error
}

// EnqueueOption configures a single enqueue call.
type EnqueueOption func(*Record)

// WithTimeout attaches an advisory execution timeout hint.
func WithTimeout(d time.Duration) EnqueueOption {
	return func(r *Record) { r.Timeout = d }
}

// WithFailureTTL attaches an advisory retention hint for failed records.
func WithFailureTTL(d time.Duration) EnqueueOption {
	return func(r *Record) { r.FailureTTL = d }
}

// WithResultTTL attaches an advisory retention hint for results.
func WithResultTTL(d time.Duration) EnqueueOption {
	return func(r *Record) { r.ResultTTL = d }
}

// Queue bridges the broker and the status store.
type Queue struct {
	broker Broker
	store  StatusStore
}

// NewQueue creates a queue over the given broker and status store.
func NewQueue(broker Broker, store StatusStore) *Queue {
	return &Queue{broker: broker, store: store}
}

// Enqueue builds a QUEUED record, persists it, then publishes it to topic.
// Durability precedes visibility: if persistence fails nothing is published.
// If publishing fails after persistence the record remains QUEUED in the
// store with no deliverable message; recovering it is an operator replay
// decision, which is the documented at-least-once risk of this design.
func (q *Queue) Enqueue(ctx context.Context, topic, function string, args []string, kwargs map[string]string, opts ...EnqueueOption) (*Record, error) {
	if args == nil {
		args = []string{}
	}
	if kwargs == nil {
		kwargs = map[string]string{}
	}

	rec := Record{
		ID:         uuid.New().String(),
		Function:   function,
		Args:       args,
		Kwargs:     kwargs,
		Status:     StatusQueued,
		EnqueuedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&rec)
	}

	if err := q.store.Insert(ctx, rec); err != nil {
		return nil, jobErrors.NewWithCause(ErrPersistFailed, err).
			WithDetail("function", function)
	}

	if err := q.broker.Publish(ctx, topic, rec); err != nil {
		return nil, jobErrors.NewWithCause(ErrPublishFailed, err).
			WithDetail("job_id", rec.ID).
			WithDetail("topic", topic)
	}

	return &rec, nil
}

// Fetch reads the current record from the durable store. Safe for unlimited
// concurrent callers; it never touches the transport.
func (q *Queue) Fetch(ctx context.Context, id string) (*Record, error) {
	return q.store.Get(ctx, id)
}

// Dequeue polls the broker for the next delivery, waiting up to timeout.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Envelope, error) {
	return q.broker.Dequeue(ctx, timeout)
}

// Ack commits the envelope's offset with the broker.
func (q *Queue) Ack(ctx context.Context, env *Envelope) error {
	return q.broker.Ack(ctx, env)
}

// UpdateStatus applies a status transition in the store. Unknown ids are a
// no-op; the record may have been evicted by an external retention policy.
func (q *Queue) UpdateStatus(ctx context.Context, id string, status Status, result, errMsg *string) error {
	return q.store.UpdateStatus(ctx, id, status, result, errMsg)
}
