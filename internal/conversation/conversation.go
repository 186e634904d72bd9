// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package conversation tracks what is known about a user's research goals
// across turns: the stated field, the accumulated interests, and how far the
// exchange has progressed toward topic proposals. State moves forward only;
// an explicit reset is the sole way back.
package conversation

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/thesismate/topic-scout/pkg/types"
)

// ErrMalformedExtraction marks an extractor reply that could not be turned
// into an observation even after retries. Callers treat it as an empty
// observation rather than a failed turn.
var ErrMalformedExtraction = errors.New("extraction response malformed")

// Extraction is one turn's worth of understood context. The zero value is a
// valid observation meaning the turn contained nothing usable.
type Extraction struct {
	// Field is the research field stated in the turn, empty when absent.
	Field string `json:"field"`

	// Interests lists the research interests stated in the turn.
	Interests []string `json:"interests"`
}

// IsEmpty reports whether the extraction carries no usable context.
func (e Extraction) IsEmpty() bool {
	return strings.TrimSpace(e.Field) == "" && len(e.Interests) == 0
}

// Extractor pulls research context out of a raw user turn. The known context
// lets the implementation resolve references like "the second one".
type Extractor interface {
	Extract(ctx context.Context, userText string, known types.ConversationContext) (Extraction, error)
}

// Tracker folds extracted context into conversation state.
type Tracker struct {
	extractor Extractor
	logger    *zap.Logger
}

// NewTracker returns a tracker using the given extractor. A nil logger is
// replaced with a no-op logger.
func NewTracker(extractor Extractor, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{extractor: extractor, logger: logger}
}

// Update runs the extractor on userText and applies the result to conv. An
// extractor failure downgrades to an empty observation with a warning, so a
// turn the extractor cannot parse never halts the conversation.
func (t *Tracker) Update(ctx context.Context, conv types.ConversationContext, userText string) types.ConversationContext {
	ext, err := t.extractor.Extract(ctx, userText, conv)
	if err != nil {
		if errors.Is(err, ErrMalformedExtraction) {
			t.logger.Warn("Extraction reply unusable, treating turn as empty", zap.Error(err))
		} else {
			t.logger.Warn("Context extraction failed", zap.Error(err))
		}
		ext = Extraction{}
	}
	return Apply(conv, ext)
}

// Apply folds one extraction into the context and recomputes the stage. It is
// pure: conv is not mutated, and applying the same extraction twice yields
// the same context as applying it once.
//
// A non-empty extracted field overwrites the known field; stating a field is
// an explicit correction, not a hint. Interests accumulate as a union under
// normalized identity, insertion order preserved.
func Apply(conv types.ConversationContext, ext Extraction) types.ConversationContext {
	out := conv.Clone()
	if field := strings.TrimSpace(ext.Field); field != "" {
		out.Field = field
	}
	for _, interest := range ext.Interests {
		out.Interests = addInterest(out.Interests, interest)
	}
	out.Stage = nextStage(out)
	return out
}

// Reset returns a fresh context at the initial stage. This is the only
// operation that moves a conversation backward past ready.
func Reset() types.ConversationContext {
	return types.NewConversationContext()
}

// MarkPresented records that topics were shown to the user: the stage becomes
// presented and the topics are appended to the proposal log, skipping any
// already recorded under normalized identity.
func MarkPresented(conv types.ConversationContext, topics []string) types.ConversationContext {
	out := conv.Clone()
	seen := make(map[string]bool, len(out.ProposedTopics))
	for _, topic := range out.ProposedTopics {
		seen[normalize(topic)] = true
	}
	for _, topic := range topics {
		key := normalize(topic)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out.ProposedTopics = append(out.ProposedTopics, strings.TrimSpace(topic))
	}
	out.Stage = types.StagePresented
	return out
}

// addInterest appends the canonical form of interest unless an equal entry
// is already present. Stored entries are always canonical, so plain string
// equality is the identity test.
func addInterest(interests []string, interest string) []string {
	canon := normalize(interest)
	if canon == "" {
		return interests
	}
	for _, have := range interests {
		if have == canon {
			return interests
		}
	}
	return append(interests, canon)
}

// nextStage recomputes the stage from what is known. Presented is sticky: a
// detail arriving after proposals were shown must not silently un-present
// them.
func nextStage(conv types.ConversationContext) types.Stage {
	if conv.Stage == types.StagePresented {
		return types.StagePresented
	}
	switch {
	case !conv.HasField():
		return types.StageAwaitingField
	case !conv.HasInterests():
		return types.StageAwaitingInterests
	default:
		return types.StageReady
	}
}

// normalize reduces a phrase to its identity form: trimmed, lowercased,
// inner whitespace collapsed.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
