package embedx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tracefield/astro-reason/pkg/config"
	"github.com/tracefield/astro-reason/pkg/provenance"
)

type fakeBioStore struct {
	candidates []Candidate
	queryErr   error
	upserts    []upsertCall
}

type upsertCall struct {
	personID string
	model    string
	dim      int
	textHash string
	source   string
}

func (s *fakeBioStore) Candidates(_ context.Context, _ string, _ []string) ([]Candidate, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.candidates, nil
}

func (s *fakeBioStore) Upsert(_ context.Context, personID, model string, vector []float64, textHash, source string) error {
	s.upserts = append(s.upserts, upsertCall{
		personID: personID,
		model:    model,
		dim:      len(vector),
		textHash: textHash,
		source:   source,
	})
	return nil
}

// embedServer answers the embeddings endpoint with one vector of width dim
// per input text.
func embedServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode embeddings request: %v", err)
		}
		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			vec := make([]float64, dim)
			for j := range vec {
				vec[j] = float64(i)
			}
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": vec}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  "test-embed",
		})
	}))
}

func testHandler(store BioStore, baseURL string, chunkSize int) *Handler {
	return NewHandler(store, provenance.NopRecorder{}, config.EmbedConfig{
		BaseURL:   baseURL,
		Model:     "test-embed",
		ChunkSize: chunkSize,
	})
}

func TestEmbedHandlerExecute(t *testing.T) {
	srv := embedServer(t, 384)
	defer srv.Close()

	store := &fakeBioStore{candidates: []Candidate{
		{PersonID: "p1", Text: "first bio", TextHash: "h1"},
		{PersonID: "p2", Text: "second bio", TextHash: "h2"},
		{PersonID: "p3", Text: "third bio", TextHash: "h3"},
	}}
	h := testHandler(store, srv.URL, 2)

	ids, _ := json.Marshal([]string{"p1", "p2", "p3"})
	result, err := h.Execute(context.Background(), nil, map[string]string{"person_ids": string(ids)})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var res embedResult
	if err := json.Unmarshal([]byte(result), &res); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if res.Status != "ok" || res.Count != 3 {
		t.Fatalf("result = %+v, want status ok count 3", res)
	}
	if len(store.upserts) != 3 {
		t.Fatalf("got %d upserts, want 3", len(store.upserts))
	}
	for i, up := range store.upserts {
		if up.dim != 384 {
			t.Errorf("upsert %d dim = %d, want 384", i, up.dim)
		}
		if up.model != "test-embed" {
			t.Errorf("upsert %d model = %q, want test-embed", i, up.model)
		}
		if up.source != "astrodb-upload" {
			t.Errorf("upsert %d source = %q, want astrodb-upload", i, up.source)
		}
	}
}

func TestEmbedHandlerSkipsUnsupportedDim(t *testing.T) {
	srv := embedServer(t, 100)
	defer srv.Close()

	store := &fakeBioStore{candidates: []Candidate{
		{PersonID: "p1", Text: "a bio", TextHash: "h1"},
	}}
	h := testHandler(store, srv.URL, 8)

	ids, _ := json.Marshal([]string{"p1"})
	result, err := h.Execute(context.Background(), nil, map[string]string{"person_ids": string(ids)})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var res embedResult
	if err := json.Unmarshal([]byte(result), &res); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if res.Count != 0 {
		t.Fatalf("count = %d, want 0 for unsupported width", res.Count)
	}
	if len(store.upserts) != 0 {
		t.Fatalf("got %d upserts, want 0", len(store.upserts))
	}
}

func TestEmbedHandlerNoCandidatesIsNoop(t *testing.T) {
	store := &fakeBioStore{}
	h := testHandler(store, "http://127.0.0.1:0", 8)

	ids, _ := json.Marshal([]string{"p1"})
	result, err := h.Execute(context.Background(), nil, map[string]string{"person_ids": string(ids)})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var res embedResult
	if err := json.Unmarshal([]byte(result), &res); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if res.Status != "noop" || res.Count != 0 {
		t.Fatalf("result = %+v, want status noop count 0", res)
	}
}

func TestEmbedHandlerRequiresPersonIDs(t *testing.T) {
	h := testHandler(&fakeBioStore{}, "http://127.0.0.1:0", 8)

	for name, kwargs := range map[string]map[string]string{
		"missing": nil,
		"empty":   {"person_ids": "[]"},
		"garbage": {"person_ids": "not json"},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := h.Execute(context.Background(), nil, kwargs); err == nil {
				t.Fatalf("Execute() = nil error, want person_ids rejection")
			}
		})
	}
}
