// Package jobxmem provides in-memory implementations of the jobx broker and
// status store. They mimic the delivery semantics of the stream broker
// (ordered per topic, at-least-once, explicit ack) and exist for local
// development and tests; nothing here survives a process restart.
package jobxmem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tracefield/astro-reason/pkg/jobx"
)

type entry struct {
	env       jobx.Envelope
	delivered bool
	acked     bool
}

// Broker is an in-memory jobx.Broker.
type Broker struct {
	mu      sync.Mutex
	entries []*entry
	nextSeq int64

	// ackErr, when set, makes Ack fail; used to exercise redelivery paths.
	ackErr error
}

// NewBroker creates an empty in-memory broker.
func NewBroker() *Broker {
	return &Broker{}
}

// Publish appends the record to the topic's log.
func (b *Broker) Publish(_ context.Context, topic string, rec jobx.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	b.entries = append(b.entries, &entry{
		env: jobx.Envelope{
			Record: rec,
			Topic:  topic,
			Offset: fmt.Sprintf("%d", b.nextSeq),
		},
	})
	return nil
}

// Dequeue returns the oldest undelivered entry, or (nil, nil) when none is
// available within the bounded wait. The wait is not honored beyond a single
// check; tests do not need real blocking.
func (b *Broker) Dequeue(ctx context.Context, _ time.Duration) (*jobx.Envelope, error) {
	if ctx.Err() != nil {
		return nil, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range b.entries {
		if !e.delivered {
			e.delivered = true
			env := e.env
			return &env, nil
		}
	}
	return nil, nil
}

// Ack marks the entry as committed.
func (b *Broker) Ack(_ context.Context, env *jobx.Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ackErr != nil {
		return b.ackErr
	}
	for _, e := range b.entries {
		if e.env.Offset == env.Offset {
			e.acked = true
			return nil
		}
	}
	return fmt.Errorf("unknown offset %s", env.Offset)
}

// SetAckError makes subsequent Ack calls fail with err; pass nil to restore.
func (b *Broker) SetAckError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ackErr = err
}

// Redeliver returns every delivered-but-unacked entry to the undelivered
// pool, as a broker would after a consumer crash.
func (b *Broker) Redeliver() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, e := range b.entries {
		if e.delivered && !e.acked {
			e.delivered = false
			n++
		}
	}
	return n
}

// Pending returns the number of entries not yet acked.
func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, e := range b.entries {
		if !e.acked {
			n++
		}
	}
	return n
}

// StatusStore is an in-memory jobx.StatusStore with the same transition
// semantics as the PostgreSQL store.
type StatusStore struct {
	mu      sync.Mutex
	records map[string]*jobx.Record
}

// NewStatusStore creates an empty in-memory status store.
func NewStatusStore() *StatusStore {
	return &StatusStore{records: make(map[string]*jobx.Record)}
}

// Insert persists a new record.
func (s *StatusStore) Insert(_ context.Context, rec jobx.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return memErrors.New(ErrDuplicateID).WithDetail("job_id", rec.ID)
	}
	clone := rec
	s.records[rec.ID] = &clone
	return nil
}

// Get returns a copy of the record by id.
func (s *StatusStore) Get(_ context.Context, id string) (*jobx.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, memErrors.New(ErrNotFound).WithDetail("job_id", id)
	}
	clone := *rec
	return &clone, nil
}

// UpdateStatus applies a transition. Unknown ids and terminal records are a
// silent no-op; started_at is set only once, ended_at only on terminal.
func (s *StatusStore) UpdateStatus(_ context.Context, id string, status jobx.Status, result, errMsg *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || rec.Status.Terminal() {
		return nil
	}

	now := time.Now().UTC()
	rec.Status = status
	if rec.StartedAt == nil {
		rec.StartedAt = &now
	}
	if status.Terminal() {
		rec.EndedAt = &now
	}
	rec.Result = result
	rec.Error = errMsg
	return nil
}
