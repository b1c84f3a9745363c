// Package embedx embeds biography texts through an OpenAI-compatible
// endpoint and stores the vectors for similarity search.
package embedx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/tracefield/astro-reason/pkg/config"
	"github.com/tracefield/astro-reason/pkg/logx"
	"github.com/tracefield/astro-reason/pkg/provenance"
)

// FunctionName is the job function identifier handled by this package.
const FunctionName = "embeddings.embed_person_bios"

// BioStore selects embedding candidates and persists vectors. *Repo is the
// production implementation.
type BioStore interface {
	Candidates(ctx context.Context, model string, personIDs []string) ([]Candidate, error)
	Upsert(ctx context.Context, personID, model string, vector []float64, textHash, source string) error
}

// Handler embeds a batch of person bios as a background job.
type Handler struct {
	repo      BioStore
	client    openai.Client
	events    provenance.Recorder
	model     string
	chunkSize int
}

// NewHandler wires the embedding job handler.
func NewHandler(repo BioStore, events provenance.Recorder, cfg config.EmbedConfig) *Handler {
	opts := []option.RequestOption{option.WithBaseURL(cfg.BaseURL)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	chunkSize := cfg.ChunkSize
	if chunkSize < 1 {
		chunkSize = 1
	}

	return &Handler{
		repo:      repo,
		client:    openai.NewClient(opts...),
		events:    events,
		model:     cfg.Model,
		chunkSize: chunkSize,
	}
}

// embedResult is the job's result document.
type embedResult struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Execute embeds the bios named by kwargs["person_ids"] (a JSON string
// array). Bios whose text hash already matches the stored embedding are
// skipped; so are vectors of unsupported width.
func (h *Handler) Execute(ctx context.Context, _ []string, kwargs map[string]string) (string, error) {
	started := time.Now()

	var personIDs []string
	if raw := kwargs["person_ids"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &personIDs); err != nil {
			return "", embedErrors.NewWithCause(ErrNoPersonIDs, err)
		}
	}
	if len(personIDs) == 0 {
		err := embedErrors.New(ErrNoPersonIDs)
		h.recordEvent(ctx, started, 0, err)
		return "", err
	}

	model := kwargs["model"]
	if model == "" {
		model = h.model
	}
	source := kwargs["source"]
	if source == "" {
		source = "astrodb-upload"
	}

	todo, err := h.repo.Candidates(ctx, model, personIDs)
	if err != nil {
		h.recordEvent(ctx, started, 0, err)
		return "", err
	}
	if len(todo) == 0 {
		h.recordEvent(ctx, started, 0, nil)
		return marshalResult(embedResult{Status: "noop", Count: 0})
	}

	processed := 0
	for start := 0; start < len(todo); start += h.chunkSize {
		end := min(start+h.chunkSize, len(todo))
		chunk := todo[start:end]

		texts := make([]string, len(chunk))
		for i, row := range chunk {
			texts[i] = row.Text
		}

		vectors, err := h.embed(ctx, model, texts)
		if err != nil {
			h.recordEvent(ctx, started, processed, err)
			return "", err
		}

		for i, row := range chunk {
			vec := vectors[i]
			if !supportedDims[len(vec)] {
				logx.WithFields(logx.Fields{
					"person_id": row.PersonID,
					"dim":       len(vec),
				}).Warn("Unsupported embedding dimension, skipping")
				continue
			}
			if err := h.repo.Upsert(ctx, row.PersonID, model, vec, row.TextHash, source); err != nil {
				h.recordEvent(ctx, started, processed, err)
				return "", err
			}
			processed++
		}
	}

	h.recordEvent(ctx, started, processed, nil)
	return marshalResult(embedResult{Status: "ok", Count: processed})
}

// embed calls the embeddings endpoint for one chunk of texts.
func (h *Handler) embed(ctx context.Context, model string, texts []string) ([][]float64, error) {
	resp, err := h.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, embedErrors.NewWithCause(ErrEmbedFailed, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, embedErrors.New(ErrEmbedFailed).
			WithDetail("expected", len(texts)).
			WithDetail("got", len(resp.Data))
	}

	vectors := make([][]float64, len(resp.Data))
	for _, item := range resp.Data {
		idx := int(item.Index)
		if idx < 0 || idx >= len(vectors) {
			return nil, embedErrors.New(ErrEmbedFailed).
				WithDetail("reason", fmt.Sprintf("embedding index %d out of range", idx))
		}
		vectors[idx] = item.Embedding
	}
	return vectors, nil
}

func (h *Handler) recordEvent(ctx context.Context, started time.Time, count int, cause error) {
	durationMs := time.Since(started).Milliseconds()
	ev := provenance.Event{
		Stage:      "embeddings",
		Status:     "ok",
		Count:      &count,
		DurationMs: &durationMs,
		Meta:       map[string]any{"model": h.model},
	}
	if cause != nil {
		ev.Status = "error"
		msg := cause.Error()
		ev.Error = &msg
	}
	if err := h.events.Record(ctx, ev); err != nil {
		logx.WithError(err).Warn("Failed to record provenance event")
	}
}

func marshalResult(res embedResult) (string, error) {
	raw, err := json.Marshal(res)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
