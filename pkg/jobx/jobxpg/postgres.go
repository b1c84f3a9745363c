// Package jobxpg implements the jobx.StatusStore contract on PostgreSQL.
// The job_status table is the single durable source of truth for job
// lifecycle state; it outlives the broker message and keeps status queryable
// after the delivery has been acknowledged.
package jobxpg

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tracefield/astro-reason/pkg/jobx"
)

// StatusStore is a PostgreSQL implementation of jobx.StatusStore.
type StatusStore struct {
	db *sqlx.DB
}

// NewStatusStore creates a store over an open sqlx connection.
func NewStatusStore(db *sqlx.DB) *StatusStore {
	return &StatusStore{db: db}
}

// jobRow maps one job_status row. Timestamps are epoch milliseconds, the
// format the surrounding workers already write.
type jobRow struct {
	ID           string          `db:"id"`
	Function     string          `db:"function"`
	Status       string          `db:"status"`
	ArgsJSON     json.RawMessage `db:"args_json"`
	KwargsJSON   json.RawMessage `db:"kwargs_json"`
	EnqueuedAt   int64           `db:"enqueued_at"`
	StartedAt    sql.NullInt64   `db:"started_at"`
	EndedAt      sql.NullInt64   `db:"ended_at"`
	Result       sql.NullString  `db:"result"`
	ExcInfo      sql.NullString  `db:"exc_info"`
	TimeoutMs    sql.NullInt64   `db:"timeout_ms"`
	FailureTTLMs sql.NullInt64   `db:"failure_ttl_ms"`
	ResultTTLMs  sql.NullInt64   `db:"result_ttl_ms"`
}

// Insert persists a freshly enqueued record.
func (s *StatusStore) Insert(ctx context.Context, rec jobx.Record) error {
	argsJSON, err := json.Marshal(rec.Args)
	if err != nil {
		return pgErrors.NewWithCause(ErrMarshal, err).WithDetail("job_id", rec.ID)
	}
	kwargsJSON, err := json.Marshal(rec.Kwargs)
	if err != nil {
		return pgErrors.NewWithCause(ErrMarshal, err).WithDetail("job_id", rec.ID)
	}

	query := `
		INSERT INTO job_status
			(id, function, status, args_json, kwargs_json, enqueued_at,
			 timeout_ms, failure_ttl_ms, result_ttl_ms)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Function,
		string(rec.Status),
		argsJSON,
		kwargsJSON,
		rec.EnqueuedAt.UnixMilli(),
		durationMs(rec.Timeout),
		durationMs(rec.FailureTTL),
		durationMs(rec.ResultTTL),
	)
	if err != nil {
		return pgErrors.NewWithCause(ErrInsert, err).WithDetail("job_id", rec.ID)
	}
	return nil
}

// Get returns the record by id.
func (s *StatusStore) Get(ctx context.Context, id string) (*jobx.Record, error) {
	var row jobRow
	query := `
		SELECT id, function, status, args_json, kwargs_json, enqueued_at,
		       started_at, ended_at, result, exc_info,
		       timeout_ms, failure_ttl_ms, result_ttl_ms
		FROM job_status
		WHERE id = $1`

	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, pgErrors.New(ErrNotFound).WithDetail("job_id", id)
		}
		return nil, pgErrors.NewWithCause(ErrQuery, err).WithDetail("job_id", id)
	}
	return row.toRecord()
}

// UpdateStatus applies a status transition. started_at is set only once
// (COALESCE), ended_at only on a terminal transition, and terminal rows are
// never touched again. Unknown ids are a silent no-op.
func (s *StatusStore) UpdateStatus(ctx context.Context, id string, status jobx.Status, result, errMsg *string) error {
	nowMs := time.Now().UTC().UnixMilli()

	query := `
		UPDATE job_status
		   SET status = $1,
		       started_at = COALESCE(started_at, $2),
		       ended_at = CASE WHEN $1 IN ('FINISHED', 'FAILED') THEN $2 ELSE ended_at END,
		       result = $3,
		       exc_info = $4,
		       updated_at = NOW()
		 WHERE id = $5
		   AND status NOT IN ('FINISHED', 'FAILED')`

	_, err := s.db.ExecContext(ctx, query,
		string(status),
		nowMs,
		nullString(result),
		nullString(errMsg),
		id,
	)
	if err != nil {
		return pgErrors.NewWithCause(ErrUpdate, err).
			WithDetail("job_id", id).
			WithDetail("status", string(status))
	}
	return nil
}

func (r jobRow) toRecord() (*jobx.Record, error) {
	rec := jobx.Record{
		ID:         r.ID,
		Function:   r.Function,
		Status:     jobx.Status(r.Status),
		EnqueuedAt: time.UnixMilli(r.EnqueuedAt).UTC(),
	}

	if err := json.Unmarshal(r.ArgsJSON, &rec.Args); err != nil {
		return nil, pgErrors.NewWithCause(ErrUnmarshal, err).WithDetail("job_id", r.ID)
	}
	if err := json.Unmarshal(r.KwargsJSON, &rec.Kwargs); err != nil {
		return nil, pgErrors.NewWithCause(ErrUnmarshal, err).WithDetail("job_id", r.ID)
	}

	if r.StartedAt.Valid {
		t := time.UnixMilli(r.StartedAt.Int64).UTC()
		rec.StartedAt = &t
	}
	if r.EndedAt.Valid {
		t := time.UnixMilli(r.EndedAt.Int64).UTC()
		rec.EndedAt = &t
	}
	if r.Result.Valid {
		v := r.Result.String
		rec.Result = &v
	}
	if r.ExcInfo.Valid {
		v := r.ExcInfo.String
		rec.Error = &v
	}
	if r.TimeoutMs.Valid {
		rec.Timeout = time.Duration(r.TimeoutMs.Int64) * time.Millisecond
	}
	if r.FailureTTLMs.Valid {
		rec.FailureTTL = time.Duration(r.FailureTTLMs.Int64) * time.Millisecond
	}
	if r.ResultTTLMs.Valid {
		rec.ResultTTL = time.Duration(r.ResultTTLMs.Int64) * time.Millisecond
	}
	return &rec, nil
}

func durationMs(d time.Duration) sql.NullInt64 {
	if d <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: d.Milliseconds(), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
