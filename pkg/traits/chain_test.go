package traits

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const validScoresJSON = `{
  "vectors": {"sound": 6, "visual": 4, "oral": 3, "anal": 5,
              "urethral": 2, "skin": 4, "muscular": 4, "olfactory": 4},
  "dominant": ["sound", "anal"],
  "rationale": {"sound": "a", "visual": "b", "oral": "c", "anal": "d",
                "urethral": "e", "skin": "f", "muscular": "g", "olfactory": "h"},
  "confidence": 0.72
}`

func fixedAttempt(label, body string, err error, invoked *int) Attempt {
	return Attempt{
		Label: label,
		Invoke: func(context.Context, string, string) (string, error) {
			if invoked != nil {
				*invoked++
			}
			return body, err
		},
	}
}

func TestChainFirstSuccessWins(t *testing.T) {
	var fourth int
	client := NewClientWithAttempts([]Attempt{
		fixedAttempt("one", "", errors.New("timeout"), nil),
		fixedAttempt("two", "   ", nil, nil),
		fixedAttempt("three", "the answer", nil, nil),
		fixedAttempt("four", "never", nil, &fourth),
	}, time.Second)

	body, err := client.Complete(context.Background(), "sys", "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if body != "the answer" {
		t.Errorf("body = %q, want the third endpoint's body", body)
	}
	if fourth != 0 {
		t.Errorf("fourth endpoint invoked %d times, want 0", fourth)
	}
}

func TestChainExhaustedAggregatesDiagnostics(t *testing.T) {
	client := NewClientWithAttempts([]Attempt{
		fixedAttempt("primary-chat", "", errors.New("connection refused"), nil),
		fixedAttempt("primary-generate", "", nil, nil),
	}, time.Second)

	_, err := client.Complete(context.Background(), "sys", "prompt")
	if err == nil {
		t.Fatal("Complete succeeded with all endpoints failing")
	}

	var chainErr *ChainError
	if !errors.As(err, &chainErr) {
		t.Fatalf("error chain = %v, want a *ChainError inside", err)
	}
	if len(chainErr.Attempts) != 2 {
		t.Fatalf("got %d attempt diagnostics, want 2", len(chainErr.Attempts))
	}
	if chainErr.Attempts[0].Label != "primary-chat" ||
		!strings.Contains(chainErr.Attempts[0].Reason, "connection refused") {
		t.Errorf("first diagnostic = %+v", chainErr.Attempts[0])
	}
	if chainErr.Attempts[1].Label != "primary-generate" ||
		!strings.Contains(chainErr.Attempts[1].Reason, "blank") {
		t.Errorf("second diagnostic = %+v", chainErr.Attempts[1])
	}
}

func TestScoreCorrectiveRetrySucceeds(t *testing.T) {
	calls := 0
	var systems []string
	client := NewClientWithAttempts([]Attempt{{
		Label: "only",
		Invoke: func(_ context.Context, system, _ string) (string, error) {
			calls++
			systems = append(systems, system)
			if calls == 1 {
				return "this is not JSON at all", nil
			}
			return validScoresJSON, nil
		},
	}}, time.Second)

	scores, err := client.Score(context.Background(), "a long biography")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if calls != 2 {
		t.Errorf("chain invoked %d times, want 2 (one corrective retry)", calls)
	}
	if scores.Vectors["sound"] != 6 {
		t.Errorf("sound = %d, want 6", scores.Vectors["sound"])
	}
	if !strings.Contains(systems[1], "strict JSON") {
		t.Errorf("corrective retry system instruction = %q, want strict-JSON directive", systems[1])
	}
}

func TestScoreSecondDecodeFailureIsTerminal(t *testing.T) {
	calls := 0
	client := NewClientWithAttempts([]Attempt{{
		Label: "only",
		Invoke: func(context.Context, string, string) (string, error) {
			calls++
			return "still not JSON", nil
		},
	}}, time.Second)

	_, err := client.Score(context.Background(), "bio")
	if err == nil {
		t.Fatal("Score succeeded with undecodable output")
	}
	if calls != 2 {
		t.Errorf("chain invoked %d times, want exactly 2", calls)
	}
}

func TestScoreRejectsEmptyBio(t *testing.T) {
	invoked := 0
	client := NewClientWithAttempts([]Attempt{
		fixedAttempt("only", validScoresJSON, nil, &invoked),
	}, time.Second)

	if _, err := client.Score(context.Background(), "   "); err == nil {
		t.Fatal("Score accepted a blank biography")
	}
	if invoked != 0 {
		t.Errorf("endpoint invoked %d times for a blank bio, want 0", invoked)
	}
}

func TestChainAppliesAttemptTimeout(t *testing.T) {
	client := NewClientWithAttempts([]Attempt{{
		Label: "slow",
		Invoke: func(ctx context.Context, _, _ string) (string, error) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Second):
				return "too late", nil
			}
		},
	}, {
		Label: "fast",
		Invoke: func(context.Context, string, string) (string, error) {
			return "recovered", nil
		},
	}}, 10*time.Millisecond)

	body, err := client.Complete(context.Background(), "sys", "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if body != "recovered" {
		t.Errorf("body = %q, want the fallback after the slow endpoint timed out", body)
	}
}
