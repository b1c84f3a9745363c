// Package provenance records pipeline stage events so downstream analysis can
// audit when and how each person's derived data was produced.
package provenance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Event is one stage outcome. PersonID is optional; batch stages omit it.
type Event struct {
	PersonID   *string        `json:"-"`
	Stage      string         `json:"-"`
	Status     string         `json:"status"`
	Count      *int           `json:"count"`
	DurationMs *int64         `json:"duration_ms"`
	Error      *string        `json:"error"`
	Meta       map[string]any `json:"meta"`
}

// Recorder persists events.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// PostgresRecorder writes events to the provenance_event table.
type PostgresRecorder struct {
	db *sqlx.DB
}

// NewPostgresRecorder creates a recorder over the given connection pool.
func NewPostgresRecorder(db *sqlx.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

// Record inserts the event. The status/count/duration/error/meta payload is
// stored as one JSON detail column.
func (r *PostgresRecorder) Record(ctx context.Context, ev Event) error {
	if ev.Meta == nil {
		ev.Meta = map[string]any{}
	}
	detail, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal provenance detail: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO provenance_event (person_id, stage, detail) VALUES ($1, $2, $3)`,
		ev.PersonID, ev.Stage, detail,
	)
	if err != nil {
		return fmt.Errorf("insert provenance event: %w", err)
	}
	return nil
}

// NopRecorder discards events; used in tests.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Event) error { return nil }
