package traits

import (
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiDialect speaks the secondary endpoint's OpenAI-compatible chat and
// legacy completion APIs through the official SDK with a base URL override.
type openaiDialect struct {
	client openai.Client
	model  string
}

func newOpenAIDialect(baseURL, apiKey, model string) *openaiDialect {
	opts := []option.RequestOption{option.WithBaseURL(baseURL)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &openaiDialect{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Chat calls the chat-completions dialect.
func (d *openaiDialect) Chat(ctx context.Context, system, prompt string) (string, error) {
	completion, err := d.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: d.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.1),
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", traitErrors.New(ErrEmptyResponse).
			WithDetail("dialect", "chat")
	}
	return completion.Choices[0].Message.Content, nil
}

// Completion calls the legacy raw-completion dialect with the instruction
// folded into a single prompt.
func (d *openaiDialect) Completion(ctx context.Context, system, prompt string) (string, error) {
	completion, err := d.client.Completions.New(ctx, openai.CompletionNewParams{
		Model: openai.CompletionNewParamsModel(d.model),
		Prompt: openai.CompletionNewParamsPromptUnion{
			OfString: openai.String(system + "\n\n" + prompt),
		},
		Temperature: openai.Float(0.1),
		MaxTokens:   openai.Int(2048),
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", traitErrors.New(ErrEmptyResponse).
			WithDetail("dialect", "completion")
	}
	return completion.Choices[0].Text, nil
}
