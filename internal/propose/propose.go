// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package propose runs proposal rounds: generating candidate thesis topics
// from the accumulated conversation context and keeping the candidates the
// published literature can support.
package propose

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/thesismate/topic-scout/pkg/types"
)

// Generator is the external collaborator that produces candidate topics.
type Generator interface {
	Generate(ctx context.Context, field string, interests []string, count int) ([]string, error)
}

// Evaluator scores one candidate topic against the literature.
type Evaluator interface {
	Evaluate(ctx context.Context, topic string) (types.TopicEvaluation, error)
}

// Result is the outcome of one proposal round.
type Result struct {
	// Missing names the context still needed ("field" or "interests") when
	// the round could not run. Empty otherwise.
	Missing string

	// Evaluations holds the proposals, best first.
	Evaluations []types.TopicEvaluation

	// LowConfidence marks a round in which no candidate cleared the
	// feasibility threshold. Evaluations then holds the best available,
	// possibly none.
	LowConfidence bool
}

// Proposer generates candidate topics and filters them by feasibility.
type Proposer struct {
	generator Generator
	evaluator Evaluator
	cfg       types.ProposerConfig
	logger    *zap.Logger
}

// NewProposer returns a proposer wiring the generator to the evaluator.
// A nil logger is replaced with a no-op logger.
func NewProposer(generator Generator, evaluator Evaluator, cfg types.ProposerConfig, logger *zap.Logger) *Proposer {
	if cfg.Candidates <= 0 {
		cfg.Candidates = 3
	}
	if cfg.RelaxedCandidates <= 0 {
		cfg.RelaxedCandidates = 5
	}
	if cfg.FeasibilityThreshold <= 0 {
		cfg.FeasibilityThreshold = 0.3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Proposer{generator: generator, evaluator: evaluator, cfg: cfg, logger: logger}
}

// Propose runs one proposal round against the accumulated context. The round
// needs a field and at least one interest; otherwise it reports what is
// missing. Candidates are evaluated one at a time, in generation order.
//
// When no candidate clears the feasibility threshold, one relaxed pass
// regenerates with a larger count, skipping candidates already evaluated.
// If that still yields nothing above the threshold, the best available
// evaluations are returned flagged low-confidence rather than blocking the
// conversation.
func (p *Proposer) Propose(ctx context.Context, conv types.ConversationContext) Result {
	if !conv.HasField() {
		return Result{Missing: "field"}
	}
	if !conv.HasInterests() {
		return Result{Missing: "interests"}
	}

	evaluated := make(map[string]bool)
	all := p.round(ctx, conv, p.cfg.Candidates, evaluated)
	kept := keepFeasible(all, p.cfg.FeasibilityThreshold)

	if len(kept) == 0 {
		p.logger.Info("No candidate cleared the feasibility threshold, relaxing",
			zap.Int("evaluated", len(all)), zap.Float64("threshold", p.cfg.FeasibilityThreshold))
		all = append(all, p.round(ctx, conv, p.cfg.RelaxedCandidates, evaluated)...)
		kept = keepFeasible(all, p.cfg.FeasibilityThreshold)
	}

	if len(kept) > 0 {
		rank(kept)
		return Result{Evaluations: kept}
	}
	rank(all)
	return Result{Evaluations: all, LowConfidence: true}
}

// round generates count candidates and evaluates the ones not yet seen.
// Generator and evaluator failures downgrade to warnings; the round returns
// whatever it managed to evaluate.
func (p *Proposer) round(ctx context.Context, conv types.ConversationContext, count int, evaluated map[string]bool) []types.TopicEvaluation {
	topics, err := p.generator.Generate(ctx, conv.Field, conv.Interests, count)
	if err != nil {
		p.logger.Warn("Topic generation failed", zap.Error(err))
		return nil
	}

	var out []types.TopicEvaluation
	for _, topic := range topics {
		key := normalizeTopic(topic)
		if key == "" || evaluated[key] {
			continue
		}
		evaluated[key] = true

		ev, err := p.evaluator.Evaluate(ctx, topic)
		if err != nil {
			p.logger.Warn("Topic evaluation failed", zap.String("topic", topic), zap.Error(err))
			continue
		}
		out = append(out, ev)
	}
	return out
}

// keepFeasible returns the evaluations at or above the threshold, preserving
// order.
func keepFeasible(evals []types.TopicEvaluation, threshold float64) []types.TopicEvaluation {
	var kept []types.TopicEvaluation
	for _, ev := range evals {
		if ev.FeasibilityScore >= threshold {
			kept = append(kept, ev)
		}
	}
	return kept
}

// rank orders evaluations best first: feasibility, then paper count, then
// generation order.
func rank(evals []types.TopicEvaluation) {
	sort.SliceStable(evals, func(i, j int) bool {
		if evals[i].FeasibilityScore != evals[j].FeasibilityScore {
			return evals[i].FeasibilityScore > evals[j].FeasibilityScore
		}
		return evals[i].PaperCount > evals[j].PaperCount
	})
}

// normalizeTopic reduces a topic to its identity form for repeat detection.
func normalizeTopic(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
