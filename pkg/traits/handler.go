package traits

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tracefield/astro-reason/pkg/logx"
	"github.com/tracefield/astro-reason/pkg/provenance"
)

// FunctionName is the job function identifier handled by this package.
const FunctionName = "traits.score_person_bio"

// ScoreStore reads bios and persists scores; *Repo is the production
// implementation.
type ScoreStore interface {
	BioText(ctx context.Context, personID string) (string, error)
	UpsertScores(ctx context.Context, personID, model string, scores *Scores) error
}

// Handler scores one person's biography as a background job.
type Handler struct {
	repo   ScoreStore
	client *Client
	events provenance.Recorder
	model  string
}

// NewHandler wires the scoring job handler.
func NewHandler(repo ScoreStore, client *Client, events provenance.Recorder, model string) *Handler {
	return &Handler{repo: repo, client: client, events: events, model: model}
}

// Execute scores the person named by args[0] (or kwargs["person_id"]) and
// upserts the result. The returned string is the scores document as JSON.
func (h *Handler) Execute(ctx context.Context, args []string, kwargs map[string]string) (string, error) {
	started := time.Now()

	personID := ""
	if len(args) > 0 {
		personID = args[0]
	} else if v, ok := kwargs["person_id"]; ok {
		personID = v
	}
	if personID == "" {
		return "", fmt.Errorf("missing person_id argument")
	}

	bio, err := h.repo.BioText(ctx, personID)
	if err != nil {
		h.recordEvent(ctx, personID, started, err)
		return "", err
	}

	scores, err := h.client.Score(ctx, bio)
	if err != nil {
		h.recordEvent(ctx, personID, started, err)
		return "", err
	}

	if err := h.repo.UpsertScores(ctx, personID, h.model, scores); err != nil {
		h.recordEvent(ctx, personID, started, err)
		return "", err
	}

	h.recordEvent(ctx, personID, started, nil)

	result, err := json.Marshal(scores)
	if err != nil {
		return "", fmt.Errorf("marshal scores result: %w", err)
	}
	return string(result), nil
}

func (h *Handler) recordEvent(ctx context.Context, personID string, started time.Time, cause error) {
	durationMs := time.Since(started).Milliseconds()
	ev := provenance.Event{
		PersonID:   &personID,
		Stage:      "traits",
		Status:     "ok",
		DurationMs: &durationMs,
		Meta:       map[string]any{"model": h.model},
	}
	if cause != nil {
		ev.Status = "error"
		msg := cause.Error()
		ev.Error = &msg
	}
	if err := h.events.Record(ctx, ev); err != nil {
		logx.WithError(err).WithField("person_id", personID).Warn("Failed to record provenance event")
	}
}
