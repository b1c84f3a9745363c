package traits

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ollamaDialect speaks the primary endpoint's native chat and generate APIs.
// There is no SDK for this protocol so requests are built by hand.
type ollamaDialect struct {
	baseURL string
	model   string
	client  *http.Client
}

// modelOptions is pinned for reproducible scoring.
var modelOptions = map[string]any{
	"temperature":    0.1,
	"num_ctx":        4096,
	"repeat_penalty": 1.05,
}

func newOllamaDialect(baseURL, model string, timeout time.Duration) *ollamaDialect {
	return &ollamaDialect{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Options  map[string]any  `json:"options"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Options map[string]any `json:"options"`
	Stream  bool           `json:"stream"`
}

// generateChunk is one NDJSON line of a streaming generate response.
type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Chat calls the non-streaming chat API and returns the assistant content.
func (d *ollamaDialect) Chat(ctx context.Context, system, prompt string) (string, error) {
	body := ollamaChatRequest{
		Model: d.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Options: modelOptions,
		Stream:  false,
	}

	resp, err := d.post(ctx, "/api/chat", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", d.statusError(resp)
	}

	var parsed ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return parsed.Message.Content, nil
}

// Generate calls the streaming generate API with the system instruction
// folded into a single prompt and returns the accumulated response text.
func (d *ollamaDialect) Generate(ctx context.Context, system, prompt string) (string, error) {
	body := ollamaGenerateRequest{
		Model:   d.model,
		Prompt:  strings.TrimSpace(system + "\n\n" + prompt),
		Options: modelOptions,
		Stream:  true,
	}

	resp, err := d.post(ctx, "/api/generate", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", d.statusError(resp)
	}

	return collectGenerateStream(resp.Body)
}

// collectGenerateStream accumulates a line-delimited JSON stream. Lines that
// fail to parse are skipped; accumulation stops at the done marker.
func collectGenerateStream(r io.Reader) (string, error) {
	var out strings.Builder

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk generateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		out.WriteString(chunk.Response)
		if chunk.Done {
			return out.String(), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read generate stream: %w", err)
	}
	return out.String(), nil
}

func (d *ollamaDialect) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	return resp, nil
}

func (d *ollamaDialect) statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s returned status %d: %s", resp.Request.URL.Path, resp.StatusCode, strings.TrimSpace(string(snippet)))
}
