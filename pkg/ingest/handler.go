package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/tracefield/astro-reason/pkg/blobx"
	"github.com/tracefield/astro-reason/pkg/jobx"
	"github.com/tracefield/astro-reason/pkg/logx"
	"github.com/tracefield/astro-reason/pkg/provenance"
	"github.com/tracefield/astro-reason/pkg/traits"
)

// FunctionName is the job function identifier handled by this package.
const FunctionName = "worker.ingest.parse_adb_xml"

// EmbedFunctionName identifies the embeddings follow-up job.
const EmbedFunctionName = "embeddings.embed_person_bios"

const enqueueBatch = 200

// PersonStore persists parsed person records; *Repo is the production
// implementation.
type PersonStore interface {
	UpsertPerson(ctx context.Context, p Person, sourcePath, sourceLabel string) (string, error)
}

// HandlerConfig carries the fan-out wiring for the parse handler.
type HandlerConfig struct {
	TraitsTopic     string
	EmbeddingsTopic string
	EmbedModel      string
}

// Handler parses one uploaded dataset object as a background job.
type Handler struct {
	store  blobx.Store
	repo   PersonStore
	queue  *jobx.Queue
	events provenance.Recorder
	cfg    HandlerConfig
}

// NewHandler wires the parse job handler.
func NewHandler(store blobx.Store, repo PersonStore, queue *jobx.Queue, events provenance.Recorder, cfg HandlerConfig) *Handler {
	return &Handler{store: store, repo: repo, queue: queue, events: events, cfg: cfg}
}

// parseResult is the job's result document.
type parseResult struct {
	Bytes          int    `json:"bytes"`
	RecordsSeen    int    `json:"records_seen"`
	PeopleUpserted int    `json:"people_upserted"`
	JobsEnqueued   int    `json:"jobs_enqueued"`
	ObjectURI      string `json:"object_uri"`
	Source         string `json:"source"`
}

// Execute downloads the object named by args[0], streams person records into
// the store, then enqueues embedding batches plus one scoring job per person
// with a biography.
func (h *Handler) Execute(ctx context.Context, args []string, kwargs map[string]string) (string, error) {
	started := time.Now()

	objectURI := ""
	if len(args) > 0 {
		objectURI = args[0]
	}
	if objectURI == "" {
		return "", ingestErrors.New(ErrMissingObjectURI)
	}
	source := kwargs["source"]
	if source == "" {
		source = "astrodb-upload"
	}

	data, err := h.store.Read(ctx, objectURI)
	if err != nil {
		h.recordEvent(ctx, started, 0, err, source)
		return "", ingestErrors.NewWithCause(ErrDownloadFailed, err).
			WithDetail("object_uri", objectURI)
	}

	recordsSeen := 0
	touched := make([]string, 0, 256)
	withBio := make([]string, 0, 256)
	seen := make(map[string]struct{})

	err = Parse(bytes.NewReader(data), func(p Person) error {
		recordsSeen++

		personID, upsertErr := h.repo.UpsertPerson(ctx, p, objectURI, source)
		if upsertErr != nil {
			return upsertErr
		}
		if _, dup := seen[personID]; !dup {
			seen[personID] = struct{}{}
			touched = append(touched, personID)
			if p.BioText != "" {
				withBio = append(withBio, personID)
			}
		}
		return nil
	})
	if err != nil {
		h.recordEvent(ctx, started, len(touched), err, source)
		return "", ingestErrors.NewWithCause(ErrParseFailed, err).
			WithDetail("object_uri", objectURI)
	}

	enqueued, err := h.fanOut(ctx, touched, withBio, source)
	if err != nil {
		h.recordEvent(ctx, started, len(touched), err, source)
		return "", err
	}

	h.recordEvent(ctx, started, len(touched), nil, source)

	result := parseResult{
		Bytes:          len(data),
		RecordsSeen:    recordsSeen,
		PeopleUpserted: len(touched),
		JobsEnqueued:   enqueued,
		ObjectURI:      objectURI,
		Source:         source,
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// fanOut enqueues embedding jobs in batches and one scoring job per person
// that has a biography.
func (h *Handler) fanOut(ctx context.Context, touched, withBio []string, source string) (int, error) {
	enqueued := 0

	for start := 0; start < len(touched); start += enqueueBatch {
		end := min(start+enqueueBatch, len(touched))

		ids, err := json.Marshal(touched[start:end])
		if err != nil {
			return enqueued, ingestErrors.NewWithCause(ErrEnqueueFailed, err)
		}
		_, err = h.queue.Enqueue(ctx, h.cfg.EmbeddingsTopic, EmbedFunctionName, nil, map[string]string{
			"person_ids": string(ids),
			"model":      h.cfg.EmbedModel,
			"source":     source,
		})
		if err != nil {
			return enqueued, ingestErrors.NewWithCause(ErrEnqueueFailed, err)
		}
		enqueued++
	}

	for _, personID := range withBio {
		_, err := h.queue.Enqueue(ctx, h.cfg.TraitsTopic, traits.FunctionName,
			[]string{personID}, map[string]string{"source": source})
		if err != nil {
			return enqueued, ingestErrors.NewWithCause(ErrEnqueueFailed, err).
				WithDetail("person_id", personID)
		}
		enqueued++
	}

	return enqueued, nil
}

func (h *Handler) recordEvent(ctx context.Context, started time.Time, count int, cause error, source string) {
	durationMs := time.Since(started).Milliseconds()
	ev := provenance.Event{
		Stage:      "ingest",
		Status:     "ok",
		Count:      &count,
		DurationMs: &durationMs,
		Meta:       map[string]any{"source": source},
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
