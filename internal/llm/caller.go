// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm implements the two language-model collaborators the engine
// consumes: extracting research context from student messages and generating
// candidate thesis topics. Both run on the Anthropic Messages API and speak
// strict JSON.
package llm

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is used when the configuration names no model.
const DefaultModel = "claude-sonnet-4-5-20250929"

const systemPrompt = "You are the understanding layer of a research topic advisor for graduate students. You read conversation turns, extract stated facts, and propose concise academic topic ideas. You do not invent facts the student did not state. Return strict JSON only."

// backoffBase is the first retry delay. Tests shrink it.
var backoffBase = time.Second

// Caller is the narrow slice of a language model the collaborators need.
// Tests substitute a scripted implementation.
type Caller interface {
	// Complete sends one prompt and returns the raw text of the response.
	Complete(ctx context.Context, prompt string) (string, error)

	// Model names the underlying model.
	Model() string
}

// Messager is the slice of the Anthropic SDK client the caller uses.
type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// MessagerCreator builds the Messages service for an API key.
type MessagerCreator func(apiKey string) Messager

func defaultMessagerCreator(apiKey string) Messager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

// newMessager is swapped in tests to avoid network calls.
var newMessager MessagerCreator = defaultMessagerCreator

// AnthropicCaller implements Caller against the Anthropic Messages API.
type AnthropicCaller struct {
	messages Messager
	model    string
}

// NewAnthropicCaller returns a caller for the given key and model. An empty
// model falls back to DefaultModel.
func NewAnthropicCaller(apiKey, model string) (*AnthropicCaller, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("anthropic API key not configured")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &AnthropicCaller{messages: newMessager(apiKey), model: model}, nil
}

// Model implements Caller.
func (a *AnthropicCaller) Model() string { return a.model }

// Complete sends one user message with deterministic sampling and returns
// the concatenated text blocks of the reply.
func (a *AnthropicCaller) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   4096,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

// completeJSON sends prompt and hands the fence-stripped reply to parse.
// Transport failures retry after exponential backoff. A reply the parser
// rejects retries immediately, with the parse error appended to the prompt
// as corrective feedback. Total attempts are maxRetries + 1.
func completeJSON(ctx context.Context, caller Caller, prompt string, maxRetries int, parse func(raw string) error) error {
	var lastErr error
	feedback := ""
	for attempt := 0; attempt <= maxRetries; attempt++ {
		raw, err := caller.Complete(ctx, prompt+feedback)
		if err != nil {
			lastErr = err
			if attempt < maxRetries {
				backoff := time.Duration(math.Pow(2, float64(attempt))) * backoffBase
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(backoff):
				}
			}
			continue
		}
		if err := parse(stripCodeFences(raw)); err != nil {
			lastErr = err
			feedback = fmt.Sprintf("\n\nYour previous response could not be used: %v. Return a single valid JSON object and nothing else.", err)
			continue
		}
		return nil
	}
	return fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// stripCodeFences unwraps a reply the model wrapped in a Markdown code fence.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}
