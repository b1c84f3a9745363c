package jobx

import (
	"encoding/json"
	"time"
)

// Status represents the lifecycle state of a job.
type Status string

const (
	StatusQueued   Status = "QUEUED"
	StatusStarted  Status = "STARTED"
	StatusFinished Status = "FINISHED"
	StatusFailed   Status = "FAILED"
)

// Terminal reports whether the status is final. Terminal records are immutable.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusFailed
}

// CanTransitionTo reports whether the state machine allows moving to next.
// Edges are one-directional: QUEUED -> STARTED -> {FINISHED, FAILED}.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusQueued:
		return next == StatusStarted
	case StatusStarted:
		return next == StatusFinished || next == StatusFailed
	default:
		return false
	}
}

// Record describes one unit of asynchronous work and its lifecycle.
// The JSON shape is the wire format published to the broker and must stay
// compatible with the other workers consuming these topics.
type Record struct {
	ID       string            `json:"id"`
	Function string            `json:"function"`
	Args     []string          `json:"args"`
	Kwargs   map[string]string `json:"kwargs"`
	Status   Status            `json:"status"`

	EnqueuedAt time.Time  `json:"-"`
	StartedAt  *time.Time `json:"-"`
	EndedAt    *time.Time `json:"-"`

	Result *string `json:"result"`
	Error  *string `json:"excInfo"`

	// Retention hints are stored with the record but advisory only;
	// nothing in this subsystem enforces them.
	Timeout    time.Duration `json:"-"`
	FailureTTL time.Duration `json:"-"`
	ResultTTL  time.Duration `json:"-"`
}

// recordWire mirrors Record with millisecond timestamps for the broker payload.
type recordWire struct {
	ID         string            `json:"id"`
	Function   string            `json:"function"`
	Args       []string          `json:"args"`
	Kwargs     map[string]string `json:"kwargs"`
	Status     Status            `json:"status"`
	EnqueuedAt int64             `json:"enqueuedAt"`
	StartedAt  *int64            `json:"startedAt"`
	EndedAt    *int64            `json:"endedAt"`
	Result     *string           `json:"result"`
	Error      *string           `json:"excInfo"`
}

// MarshalJSON implements json.Marshaler using epoch-millisecond timestamps.
func (r Record) MarshalJSON() ([]byte, error) {
	w := recordWire{
		ID:         r.ID,
		Function:   r.Function,
		Args:       r.Args,
		Kwargs:     r.Kwargs,
		Status:     r.Status,
		EnqueuedAt: r.EnqueuedAt.UnixMilli(),
		Result:     r.Result,
		Error:      r.Error,
	}
	if r.StartedAt != nil {
		ms := r.StartedAt.UnixMilli()
		w.StartedAt = &ms
	}
	if r.EndedAt != nil {
		ms := r.EndedAt.UnixMilli()
		w.EndedAt = &ms
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w recordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.ID = w.ID
	r.Function = w.Function
	r.Args = w.Args
	r.Kwargs = w.Kwargs
	r.Status = w.Status
	r.EnqueuedAt = time.UnixMilli(w.EnqueuedAt).UTC()
	r.Result = w.Result
	r.Error = w.Error
	if w.StartedAt != nil {
		t := time.UnixMilli(*w.StartedAt).UTC()
		r.StartedAt = &t
	}
	if w.EndedAt != nil {
		t := time.UnixMilli(*w.EndedAt).UTC()
		r.EndedAt = &t
	}
	return nil
}

// Envelope binds a delivered record to its transport coordinates. It exists
// only inside the consumer process while the delivery is in flight and is
// discarded on acknowledgment.
type Envelope struct {
	Record    Record
	Topic     string
	Partition int32
	Offset    string
}
