package traits

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/tracefield/astro-reason/pkg/provenance"
)

type fakeScoreStore struct {
	bios    map[string]string
	written map[string]*Scores
}

func (s *fakeScoreStore) BioText(_ context.Context, personID string) (string, error) {
	bio, ok := s.bios[personID]
	if !ok {
		return "", traitErrors.New(ErrBioNotFound).WithDetail("person_id", personID)
	}
	return bio, nil
}

func (s *fakeScoreStore) UpsertScores(_ context.Context, personID, _ string, scores *Scores) error {
	if s.written == nil {
		s.written = make(map[string]*Scores)
	}
	s.written[personID] = scores
	return nil
}

func TestScoreHandlerExecute(t *testing.T) {
	store := &fakeScoreStore{bios: map[string]string{"p1": "a rich biography"}}
	client := NewClientWithAttempts([]Attempt{
		fixedAttempt("only", validScoresJSON, nil, nil),
	}, time.Second)
	h := NewHandler(store, client, provenance.NopRecorder{}, "test-model")

	result, err := h.Execute(context.Background(), []string{"p1"}, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var scores Scores
	if err := json.Unmarshal([]byte(result), &scores); err != nil {
		t.Fatalf("result not JSON: %v", err)
	}
	if scores.Vectors["sound"] != 6 {
		t.Errorf("sound = %d, want 6", scores.Vectors["sound"])
	}
	if store.written["p1"] == nil {
		t.Error("scores were not persisted")
	}
}

func TestScoreHandlerPersonIDFromKwargs(t *testing.T) {
	store := &fakeScoreStore{bios: map[string]string{"p2": "bio"}}
	client := NewClientWithAttempts([]Attempt{
		fixedAttempt("only", validScoresJSON, nil, nil),
	}, time.Second)
	h := NewHandler(store, client, provenance.NopRecorder{}, "test-model")

	if _, err := h.Execute(context.Background(), nil, map[string]string{"person_id": "p2"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if store.written["p2"] == nil {
		t.Error("scores were not persisted for the kwargs person id")
	}
}

func TestScoreHandlerMissingPersonID(t *testing.T) {
	h := NewHandler(&fakeScoreStore{}, NewClientWithAttempts(nil, time.Second),
		provenance.NopRecorder{}, "m")

	_, err := h.Execute(context.Background(), nil, nil)
	if err == nil || !strings.Contains(err.Error(), "person_id") {
		t.Fatalf("err = %v, want missing person_id", err)
	}
}

func TestScoreHandlerUnknownPerson(t *testing.T) {
	h := NewHandler(&fakeScoreStore{}, NewClientWithAttempts(nil, time.Second),
		provenance.NopRecorder{}, "m")

	if _, err := h.Execute(context.Background(), []string{"ghost"}, nil); err == nil {
		t.Fatal("Execute succeeded for a person with no bio")
	}
}
