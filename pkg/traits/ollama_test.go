package traits

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOllamaChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s, want /api/chat", r.URL.Path)
		}
		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("chat request must not stream")
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "scored"},
		})
	}))
	defer srv.Close()

	d := newOllamaDialect(srv.URL, "test-model", time.Second)
	got, err := d.Chat(context.Background(), "sys", "prompt")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "scored" {
		t.Errorf("content = %q, want scored", got)
	}
}

func TestOllamaGenerateStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s, want /api/generate", r.URL.Path)
		}
		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !req.Stream {
			t.Error("generate request must stream")
		}
		if !strings.Contains(req.Prompt, "sys") || !strings.Contains(req.Prompt, "prompt") {
			t.Errorf("prompt = %q, want system folded in", req.Prompt)
		}
		w.Write([]byte(`{"response": "hel", "done": false}` + "\n"))
		w.Write([]byte(`{"response": "lo", "done": true}` + "\n"))
	}))
	defer srv.Close()

	d := newOllamaDialect(srv.URL, "test-model", time.Second)
	got, err := d.Generate(context.Background(), "sys", "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "hello" {
		t.Errorf("accumulated = %q, want hello", got)
	}
}

func TestOllamaChatErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusNotFound)
	}))
	defer srv.Close()

	d := newOllamaDialect(srv.URL, "test-model", time.Second)
	if _, err := d.Chat(context.Background(), "sys", "prompt"); err == nil {
		t.Fatal("Chat succeeded on a 404 response")
	}
}

func TestCollectGenerateStream(t *testing.T) {
	stream := strings.Join([]string{
		`{"response": "{\"vectors\"", "done": false}`,
		`this line is not JSON and must be skipped`,
		`{"response": ": 1}", "done": false}`,
		``,
		`{"response": "", "done": true}`,
		`{"response": "after done, never read", "done": false}`,
	}, "\n")

	got, err := collectGenerateStream(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("collectGenerateStream: %v", err)
	}
	if got != `{"vectors": 1}` {
		t.Errorf("accumulated = %q", got)
	}
}

func TestCollectGenerateStreamWithoutDoneMarker(t *testing.T) {
	stream := `{"response": "partial", "done": false}`

	got, err := collectGenerateStream(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("collectGenerateStream: %v", err)
	}
	if got != "partial" {
		t.Errorf("accumulated = %q, want partial", got)
	}
}

func TestCollectGenerateStreamAllMalformed(t *testing.T) {
	stream := "garbage\nmore garbage"

	got, err := collectGenerateStream(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("collectGenerateStream: %v", err)
	}
	if got != "" {
		t.Errorf("accumulated = %q, want empty", got)
	}
}
