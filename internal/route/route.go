// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package route turns user turns into directives. The router owns the
// conversation loop: it updates the tracked context, decides per stage
// whether to ask for more, run a proposal round, or stay idle, and never
// fails a turn; collaborator errors surface as warnings and weaker
// directives.
package route

import (
	"context"

	"go.uber.org/zap"

	"github.com/thesismate/topic-scout/internal/conversation"
	"github.com/thesismate/topic-scout/internal/propose"
	"github.com/thesismate/topic-scout/pkg/types"
)

// Kind identifies what the caller should do next.
type Kind string

const (
	// AskField prompts the user for their research field.
	AskField Kind = "ask_field"

	// AskInterests prompts the user for research interests.
	AskInterests Kind = "ask_interests"

	// ShowProposals presents the round's evaluations.
	ShowProposals Kind = "show_proposals"

	// Idle means nothing actionable came out of the turn.
	Idle Kind = "idle"
)

// Directive tells the caller how to respond to the user. Rendering belongs
// to the caller.
type Directive struct {
	Kind          Kind
	Evaluations   []types.TopicEvaluation
	LowConfidence bool
}

// Router drives one conversation turn at a time.
type Router struct {
	tracker  *conversation.Tracker
	proposer *propose.Proposer
	logger   *zap.Logger
}

// NewRouter returns a router over the tracker and proposer. A nil logger is
// replaced with a no-op logger.
func NewRouter(tracker *conversation.Tracker, proposer *propose.Proposer, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{tracker: tracker, proposer: proposer, logger: logger}
}

// Handle processes one user turn: the turn is recorded, the context updated,
// and the stage consulted for what to do next. Handle never returns an
// error; a turn that cannot progress the conversation yields an asking or
// idle directive instead.
func (r *Router) Handle(ctx context.Context, conv types.ConversationContext, userText string) (Directive, types.ConversationContext) {
	before := conv
	conv = conv.AppendHistory(userText)
	conv = r.tracker.Update(ctx, conv, userText)

	if before.Stage == types.StagePresented {
		// After proposals were shown, only fresh material warrants another
		// round. Everything else leaves the presented state alone.
		if len(conv.Interests) > len(before.Interests) {
			return r.runProposals(ctx, conv)
		}
		return Directive{Kind: Idle}, conv
	}

	switch conv.Stage {
	case types.StageAwaitingField:
		return Directive{Kind: AskField}, conv
	case types.StageAwaitingInterests:
		return Directive{Kind: AskInterests}, conv
	default:
		return r.runProposals(ctx, conv)
	}
}

// Revisit reopens a presented conversation for another proposal round. Any
// other stage is returned unchanged.
func Revisit(conv types.ConversationContext) types.ConversationContext {
	out := conv.Clone()
	if out.Stage == types.StagePresented {
		out.Stage = types.StageReady
	}
	return out
}

// runProposals invokes the proposer and folds the outcome into a directive.
// A round with at least one evaluation marks the topics presented; an empty
// round leaves the stage as it was so a later turn can retry.
func (r *Router) runProposals(ctx context.Context, conv types.ConversationContext) (Directive, types.ConversationContext) {
	res := r.proposer.Propose(ctx, conv)
	switch res.Missing {
	case "field":
		return Directive{Kind: AskField}, conv
	case "interests":
		return Directive{Kind: AskInterests}, conv
	}

	if len(res.Evaluations) == 0 {
		r.logger.Warn("Proposal round produced nothing to show",
			zap.String("field", conv.Field), zap.Strings("interests", conv.Interests))
		return Directive{Kind: Idle, LowConfidence: true}, conv
	}

	topics := make([]string, 0, len(res.Evaluations))
	for _, ev := range res.Evaluations {
		topics = append(topics, ev.Topic)
	}
	conv = conversation.MarkPresented(conv, topics)
	return Directive{Kind: ShowProposals, Evaluations: res.Evaluations, LowConfidence: res.LowConfidence}, conv
}
