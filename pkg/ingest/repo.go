package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/jmoiron/sqlx"
)

// Repo persists parsed person records.
type Repo struct {
	db *sqlx.DB
}

// NewRepo creates a repository over the given connection pool.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// UpsertPerson writes the person and their birth and biography rows inside
// one transaction and returns the stable person id.
func (r *Repo) UpsertPerson(ctx context.Context, p Person, sourcePath, sourceLabel string) (string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", ingestErrors.NewWithCause(ErrUpsertFailed, err)
	}
	defer tx.Rollback()

	var personID string
	err = tx.GetContext(ctx, &personID, `
		INSERT INTO person_raw (adb_id, full_name, adb_xml_path)
		VALUES ($1, $2, $3)
		ON CONFLICT (adb_id) DO UPDATE SET full_name = EXCLUDED.full_name
		RETURNING person_id`,
		p.ADBID, p.FullName, sourcePath,
	)
	if err != nil {
		return "", ingestErrors.NewWithCause(ErrUpsertFailed, err).
			WithDetail("adb_id", p.ADBID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO birth (person_id, date, time, tz_offset_minutes, place_name, lat, lon, data_quality)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (person_id) DO UPDATE
		   SET date = EXCLUDED.date,
		       time = EXCLUDED.time,
		       tz_offset_minutes = EXCLUDED.tz_offset_minutes,
		       place_name = EXCLUDED.place_name,
		       lat = EXCLUDED.lat,
		       lon = EXCLUDED.lon,
		       data_quality = EXCLUDED.data_quality`,
		personID, nullable(p.BirthDate), nullable(p.BirthTime), p.TZOffset,
		nullable(p.Place), p.Lat, p.Lon, nullable(p.Rating),
	)
	if err != nil {
		return "", ingestErrors.NewWithCause(ErrUpsertFailed, err).
			WithDetail("person_id", personID).
			WithDetail("table", "birth")
	}

	if p.BioText != "" {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bio_text (person_id, text, text_hash, source, updated_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (person_id) DO UPDATE
			   SET text = EXCLUDED.text,
			       text_hash = EXCLUDED.text_hash,
			       source = EXCLUDED.source,
			       updated_at = NOW()`,
			personID, p.BioText, sha256Hex(p.BioText), sourceLabel,
		)
		if err != nil {
			return "", ingestErrors.NewWithCause(ErrUpsertFailed, err).
				WithDetail("person_id", personID).
				WithDetail("table", "bio_text")
		}
	}

	if err := tx.Commit(); err != nil {
		return "", ingestErrors.NewWithCause(ErrUpsertFailed, err)
	}
	return personID, nil
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
