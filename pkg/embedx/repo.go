package embedx

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// supportedDims are the embedding widths the schema accepts. Vectors of any
// other width are skipped, not fatal.
var supportedDims = map[int]bool{384: true, 768: true, 1024: true, 1536: true}

// Candidate is one biography awaiting embedding.
type Candidate struct {
	PersonID     string  `db:"person_id"`
	Text         string  `db:"text"`
	TextHash     string  `db:"text_hash"`
	ExistingHash *string `db:"existing_hash"`
}

// changed reports whether the bio needs (re-)embedding for the model.
func (r Candidate) changed() bool {
	return r.ExistingHash == nil || *r.ExistingHash != r.TextHash
}

// Repo reads embedding candidates and persists vectors.
type Repo struct {
	db *sqlx.DB
}

// NewRepo creates a repository over the given connection pool.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// Candidates returns the bios among personIDs whose text is missing from or
// stale in the embeddings table for the given model.
func (r *Repo) Candidates(ctx context.Context, model string, personIDs []string) ([]Candidate, error) {
	var rows []Candidate
	err := r.db.SelectContext(ctx, &rows, `
		SELECT bt.person_id, bt.text, bt.text_hash, e.text_hash AS existing_hash
		  FROM bio_text bt
		  LEFT JOIN embeddings e
		    ON e.person_id = bt.person_id AND e.model_name = $1
		 WHERE bt.person_id = ANY($2)`,
		model, pq.Array(personIDs),
	)
	if err != nil {
		return nil, embedErrors.NewWithCause(ErrQueryFailed, err)
	}

	todo := rows[:0]
	for _, row := range rows {
		if row.changed() {
			todo = append(todo, row)
		}
	}
	return todo, nil
}

// Upsert writes one vector, replacing any previous embedding by the model.
func (r *Repo) Upsert(ctx context.Context, personID, model string, vector []float64, textHash, source string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO embeddings (person_id, model_name, dim, vector, text_hash, source, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (person_id, model_name) DO UPDATE
		   SET dim = EXCLUDED.dim,
		       vector = EXCLUDED.vector,
		       text_hash = EXCLUDED.text_hash,
		       source = EXCLUDED.source,
		       updated_at = NOW()`,
		personID, model, len(vector), pq.Array(vector), textHash, source,
	)
	if err != nil {
		return embedErrors.NewWithCause(ErrUpsertFailed, err).
			WithDetail("person_id", personID)
	}
	return nil
}
