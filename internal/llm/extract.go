// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thesismate/topic-scout/internal/conversation"
	"github.com/thesismate/topic-scout/pkg/types"
)

// Extractor turns raw student messages into structured context observations.
// It implements conversation.Extractor.
type Extractor struct {
	caller     Caller
	maxRetries int
}

// NewExtractor returns an extractor on the given caller.
func NewExtractor(caller Caller, cfg types.AIConfig) *Extractor {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Extractor{caller: caller, maxRetries: maxRetries}
}

// extractionResponse mirrors the JSON contract of the extraction prompt.
// Field is a pointer so null and a missing key both read as absent.
type extractionResponse struct {
	Field     *string  `json:"field"`
	Interests []string `json:"interests"`
}

func (r extractionResponse) validate() error {
	for i, interest := range r.Interests {
		if strings.TrimSpace(interest) == "" {
			return fmt.Errorf("interests[%d] is empty", i)
		}
	}
	return nil
}

// Extract asks the model what field and interests userText states, given
// what is already known. A terminal failure is returned as an error; the
// caller decides whether to downgrade it.
func (e *Extractor) Extract(ctx context.Context, userText string, known types.ConversationContext) (conversation.Extraction, error) {
	prompt, err := renderExtractionPrompt(known.Field, strings.Join(known.Interests, ", "), userText)
	if err != nil {
		return conversation.Extraction{}, fmt.Errorf("rendering extraction prompt: %w", err)
	}

	var resp extractionResponse
	err = completeJSON(ctx, e.caller, prompt, e.maxRetries, func(raw string) error {
		resp = extractionResponse{}
		if err := json.Unmarshal([]byte(raw), &resp); err != nil {
			return fmt.Errorf("%w: not valid JSON: %v", conversation.ErrMalformedExtraction, err)
		}
		if err := resp.validate(); err != nil {
			return fmt.Errorf("%w: %v", conversation.ErrMalformedExtraction, err)
		}
		return nil
	})
	if err != nil {
		return conversation.Extraction{}, fmt.Errorf("extracting context: %w", err)
	}

	var out conversation.Extraction
	if resp.Field != nil {
		out.Field = strings.TrimSpace(*resp.Field)
	}
	for _, interest := range resp.Interests {
		out.Interests = append(out.Interests, strings.TrimSpace(interest))
	}
	return out, nil
}
