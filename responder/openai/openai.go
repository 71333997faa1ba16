// Package openai adapts the OpenAI Chat Completions API to the
// core.Responder contract.
package openai

import (
	"context"
	"fmt"

	"github.com/launchpadhq/roundtable/core"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI responder. Fields mirror a minimal subset of
// Chat Completion parameters; extend via functional options without
// breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Responder wraps the OpenAI Chat Completions API behind core.Responder.
type Responder struct {
	client *openai.Client
	opts   Options
}

// New creates an OpenAI responder using the official client.
func New(optFns ...func(o *Options)) *Responder {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates an OpenAI responder from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Responder {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Responder{client: client, opts: opts}
}

// Generate implements core.Responder with a single non-streaming chat
// completion call.
func (r *Responder) Generate(ctx context.Context, instruction, prompt string, history []core.Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	if instruction != "" {
		messages = append(messages, openai.SystemMessage(instruction))
	}
	for _, t := range history {
		if t.Content == "" {
			continue
		}
		switch t.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(t.Content))
		default:
			messages = append(messages, openai.UserMessage(t.Content))
		}
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               r.opts.Model,
		Temperature:         openai.Float(r.opts.Temperature),
		MaxCompletionTokens: openai.Int(r.opts.MaxCompletionTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai api returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
