package traits

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tracefield/astro-reason/pkg/config"
	"github.com/tracefield/astro-reason/pkg/logx"
)

// Attempt is one endpoint dialect in the fallback chain. Invoke sends the
// instruction pair and returns the parsed response text.
type Attempt struct {
	Label  string
	Invoke func(ctx context.Context, system, prompt string) (string, error)
}

// AttemptError is the short diagnostic kept per failed endpoint.
type AttemptError struct {
	Label  string
	Reason string
}

// ChainError aggregates one diagnostic per attempted endpoint after the whole
// chain has been exhausted.
type ChainError struct {
	Attempts []AttemptError
}

func (e *ChainError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Label, a.Reason))
	}
	return "all endpoints failed: " + strings.Join(parts, "; ")
}

// Client obtains one structured trait answer through the fallback chain.
// It holds no mutable state across calls beyond its endpoint list and model.
type Client struct {
	attempts       []Attempt
	attemptTimeout time.Duration
}

// NewClient wires the four production dialects in priority order: primary
// chat, primary raw generation, secondary chat, secondary raw completion.
func NewClient(cfg config.TraitsConfig) *Client {
	primary := newOllamaDialect(cfg.PrimaryBaseURL, cfg.Model, cfg.AttemptTimeout)
	secondary := newOpenAIDialect(cfg.SecondaryBaseURL, cfg.SecondaryAPIKey, cfg.Model)

	return &Client{
		attemptTimeout: cfg.AttemptTimeout,
		attempts: []Attempt{
			{Label: "primary-chat", Invoke: primary.Chat},
			{Label: "primary-generate", Invoke: primary.Generate},
			{Label: "secondary-chat", Invoke: secondary.Chat},
			{Label: "secondary-completion", Invoke: secondary.Completion},
		},
	}
}

// NewClientWithAttempts builds a client over an explicit attempt list.
func NewClientWithAttempts(attempts []Attempt, attemptTimeout time.Duration) *Client {
	return &Client{attempts: attempts, attemptTimeout: attemptTimeout}
}

// Complete tries each endpoint in order and returns the first non-blank,
// successfully parsed body. Later endpoints are never invoked once one has
// succeeded. When every endpoint fails or returns blank, the error is a
// *ChainError aggregating one diagnostic per attempt.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	chainErr := &ChainError{}

	for _, attempt := range c.attempts {
		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if c.attemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
		}

		body, err := attempt.Invoke(attemptCtx, system, prompt)
		cancel()

		if err != nil {
			logx.WithField("endpoint", attempt.Label).
				WithError(err).
				Warn("Scoring endpoint failed, trying next")
			chainErr.Attempts = append(chainErr.Attempts, AttemptError{
				Label:  attempt.Label,
				Reason: err.Error(),
			})
			continue
		}
		if strings.TrimSpace(body) == "" {
			chainErr.Attempts = append(chainErr.Attempts, AttemptError{
				Label:  attempt.Label,
				Reason: "blank response body",
			})
			continue
		}
		return body, nil
	}

	return "", traitErrors.NewWithCause(ErrChainExhausted, chainErr)
}

// Score obtains a validated Scores answer for one biography. A schema decode
// failure triggers exactly one corrective retry of the whole chain with a
// strict-JSON instruction appended; a second decode failure is terminal.
func (c *Client) Score(ctx context.Context, bioText string) (*Scores, error) {
	if strings.TrimSpace(bioText) == "" {
		return nil, traitErrors.New(ErrEmptyBio)
	}
	prompt := buildVectorPrompt(bioText)

	body, err := c.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	scores, decodeErr := DecodeScores(body)
	if decodeErr == nil {
		return scores, nil
	}

	logx.WithError(decodeErr).Warn("Scoring output failed schema decode, retrying with strict instruction")

	body, err = c.Complete(ctx, systemPrompt+"\n\n"+strictRetryInstruction, prompt)
	if err != nil {
		return nil, err
	}
	return DecodeScores(body)
}
