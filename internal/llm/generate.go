// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thesismate/topic-scout/pkg/types"
)

// Generator produces candidate thesis topics from accumulated context. It
// implements propose.Generator.
type Generator struct {
	caller     Caller
	maxRetries int
}

// NewGenerator returns a generator on the given caller.
func NewGenerator(caller Caller, cfg types.AIConfig) *Generator {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Generator{caller: caller, maxRetries: maxRetries}
}

// generationResponse mirrors the JSON contract of the generation prompt.
type generationResponse struct {
	Topics []string `json:"topics"`
}

func (r generationResponse) validate() error {
	if len(r.Topics) == 0 {
		return fmt.Errorf("topics is empty")
	}
	for i, topic := range r.Topics {
		if strings.TrimSpace(topic) == "" {
			return fmt.Errorf("topics[%d] is empty", i)
		}
	}
	return nil
}

// Generate asks the model for count candidate topics combining the field
// with the interests. The model may return fewer topics than asked; extras
// beyond count are dropped.
func (g *Generator) Generate(ctx context.Context, field string, interests []string, count int) ([]string, error) {
	prompt, err := renderGenerationPrompt(field, strings.Join(interests, ", "), count)
	if err != nil {
		return nil, fmt.Errorf("rendering generation prompt: %w", err)
	}

	var resp generationResponse
	err = completeJSON(ctx, g.caller, prompt, g.maxRetries, func(raw string) error {
		resp = generationResponse{}
		if err := json.Unmarshal([]byte(raw), &resp); err != nil {
			return fmt.Errorf("not valid JSON: %w", err)
		}
		return resp.validate()
	})
	if err != nil {
		return nil, fmt.Errorf("generating topics: %w", err)
	}

	topics := make([]string, 0, len(resp.Topics))
	for _, topic := range resp.Topics {
		topics = append(topics, strings.TrimSpace(topic))
	}
	if len(topics) > count {
		topics = topics[:count]
	}
	return topics, nil
}
