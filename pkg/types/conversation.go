// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Stage tracks how far a conversation has progressed toward topic proposals.
// Stages move forward only; an explicit reset is the sole way back.
type Stage string

const (
	// StageAwaitingField means the research field is still unknown.
	StageAwaitingField Stage = "awaiting_field"

	// StageAwaitingInterests means the field is known but no interests
	// have been stated yet.
	StageAwaitingInterests Stage = "awaiting_interests"

	// StageReady means field and at least one interest are known and a
	// proposal round can run.
	StageReady Stage = "ready"

	// StagePresented means proposals have been shown. The stage is sticky:
	// it survives later turns unless the caller resets or revisits.
	StagePresented Stage = "presented"
)

// historyCap bounds the retained conversation history.
const historyCap = 20

// ConversationContext is the accumulated understanding of one conversation.
// It is passed and returned by value; operations return updated copies.
type ConversationContext struct {
	// Field is the user's research field. Empty means unknown.
	Field string `json:"field,omitempty" yaml:"field,omitempty"`

	// Interests holds stated interests in insertion order. Identity is the
	// trimmed, lowercased, space-collapsed form; entries are stored in that
	// canonical form so repeated statements cannot duplicate.
	Interests []string `json:"interests,omitempty" yaml:"interests,omitempty"`

	// Stage is the conversation stage.
	Stage Stage `json:"stage" yaml:"stage"`

	// ProposedTopics lists topics already shown, in presentation order.
	ProposedTopics []string `json:"proposed_topics,omitempty" yaml:"proposed_topics,omitempty"`

	// History holds the most recent raw user turns, oldest first.
	History []string `json:"history,omitempty" yaml:"history,omitempty"`
}

// NewConversationContext returns an empty context at the initial stage.
func NewConversationContext() ConversationContext {
	return ConversationContext{Stage: StageAwaitingField}
}

// HasField reports whether the research field is known.
func (c ConversationContext) HasField() bool {
	return c.Field != ""
}

// HasInterests reports whether at least one interest has been stated.
func (c ConversationContext) HasInterests() bool {
	return len(c.Interests) > 0
}

// Clone returns a deep copy so callers can mutate slices safely.
func (c ConversationContext) Clone() ConversationContext {
	out := c
	out.Interests = append([]string(nil), c.Interests...)
	out.ProposedTopics = append([]string(nil), c.ProposedTopics...)
	out.History = append([]string(nil), c.History...)
	return out
}

// AppendHistory returns a copy with the turn appended, keeping at most the
// most recent historyCap turns.
func (c ConversationContext) AppendHistory(turn string) ConversationContext {
	out := c.Clone()
	out.History = append(out.History, turn)
	if len(out.History) > historyCap {
		out.History = out.History[len(out.History)-historyCap:]
	}
	return out
}
