// Package anthropic adapts the Anthropic Messages API to the core.Responder
// contract.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/launchpadhq/roundtable/core"
)

// Options configures the Anthropic responder (model id, temperature, max
// tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Responder wraps the Anthropic Messages API behind core.Responder.
type Responder struct {
	client *anthropic.Client
	opts   Options
}

// New creates an Anthropic responder using the official client.
func New(optFns ...func(o *Options)) *Responder {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Responder{client: &client, opts: opts}
}

// NewFromClient creates an Anthropic responder from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Responder {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Responder{client: client, opts: opts}
}

// Generate implements core.Responder with a single non-streaming Messages
// call. The dispatcher consumes whole replies, so streaming is not needed.
func (r *Responder) Generate(ctx context.Context, instruction, prompt string, history []core.Turn) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       r.opts.Model,
		Messages:    buildMessages(history, prompt),
		MaxTokens:   r.opts.MaxTokens,
		Temperature: anthropic.Float(r.opts.Temperature),
	}
	if instruction != "" {
		params.System = []anthropic.TextBlockParam{{Text: instruction}}
	}

	resp, err := r.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	return text, nil
}

// buildMessages converts prior turns plus the current prompt into Anthropic
// message params. Unknown roles are treated as user.
func buildMessages(history []core.Turn, prompt string) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, t := range history {
		if t.Content == "" {
			continue
		}
		switch t.Role {
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))
	return messages
}
