package traits

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repo reads biography texts and persists trait scores.
type Repo struct {
	db *sqlx.DB
}

// NewRepo creates a repository over the given connection pool.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// BioText returns the stored biography for a person.
func (r *Repo) BioText(ctx context.Context, personID string) (string, error) {
	var text string
	err := r.db.GetContext(ctx, &text,
		`SELECT text FROM bio_text WHERE person_id = $1`, personID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", traitErrors.New(ErrBioNotFound).WithDetail("person_id", personID)
	}
	if err != nil {
		return "", traitErrors.NewWithCause(ErrRepoQuery, err).WithDetail("person_id", personID)
	}
	return text, nil
}

// UpsertScores writes the person's scores for the given model, replacing any
// previous scoring by the same model.
func (r *Repo) UpsertScores(ctx context.Context, personID, model string, scores *Scores) error {
	vectors, err := json.Marshal(scores.Vectors)
	if err != nil {
		return traitErrors.NewWithCause(ErrRepoQuery, err)
	}
	rationale, err := json.Marshal(scores.Rationale)
	if err != nil {
		return traitErrors.NewWithCause(ErrRepoQuery, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO trait_scores (person_id, model_name, vectors, dominant, rationale, confidence, scored_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (person_id, model_name) DO UPDATE
		   SET vectors = EXCLUDED.vectors,
		       dominant = EXCLUDED.dominant,
		       rationale = EXCLUDED.rationale,
		       confidence = EXCLUDED.confidence,
		       scored_at = NOW()`,
		personID, model, vectors, pq.Array(scores.Dominant), rationale, scores.Confidence,
	)
	if err != nil {
		return traitErrors.NewWithCause(ErrRepoQuery, err).WithDetail("person_id", personID)
	}
	return nil
}
