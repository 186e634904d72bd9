// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package route

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/thesismate/topic-scout/internal/conversation"
	"github.com/thesismate/topic-scout/internal/propose"
	"github.com/thesismate/topic-scout/pkg/types"
)

// --- stubs ---

// scriptedExtractor returns one extraction per call, in order.
type scriptedExtractor struct {
	seq  []conversation.Extraction
	errs []error
	idx  int
}

func (s *scriptedExtractor) Extract(_ context.Context, _ string, _ types.ConversationContext) (conversation.Extraction, error) {
	i := s.idx
	s.idx++
	if i < len(s.errs) && s.errs[i] != nil {
		return conversation.Extraction{}, s.errs[i]
	}
	if i < len(s.seq) {
		return s.seq[i], nil
	}
	return conversation.Extraction{}, nil
}

type fixedGenerator struct {
	topics []string
	err    error
	calls  int
}

func (g *fixedGenerator) Generate(_ context.Context, _ string, _ []string, count int) ([]string, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	if len(g.topics) > count {
		return g.topics[:count], nil
	}
	return g.topics, nil
}

type fixedEvaluator struct {
	score  float64
	papers int
	err    error
}

func (e *fixedEvaluator) Evaluate(_ context.Context, topic string) (types.TopicEvaluation, error) {
	if e.err != nil {
		return types.TopicEvaluation{}, e.err
	}
	return types.TopicEvaluation{Topic: topic, FeasibilityScore: e.score, PaperCount: e.papers, Confidence: e.score}, nil
}

func newTestRouter(ex conversation.Extractor, gen propose.Generator, ev propose.Evaluator) *Router {
	tracker := conversation.NewTracker(ex, nil)
	cfg := types.ProposerConfig{Candidates: 3, RelaxedCandidates: 5, FeasibilityThreshold: 0.3}
	return NewRouter(tracker, propose.NewProposer(gen, ev, cfg, nil), nil)
}

func presentedConv() types.ConversationContext {
	conv := conversation.Apply(types.NewConversationContext(),
		conversation.Extraction{Field: "computer science", Interests: []string{"nlp"}})
	return conversation.MarkPresented(conv, []string{"Old topic"})
}

// --- Handle ---

func TestHandleAsksForFieldFirst(t *testing.T) {
	r := newTestRouter(&scriptedExtractor{}, &fixedGenerator{}, &fixedEvaluator{})

	dir, conv := r.Handle(context.Background(), types.NewConversationContext(), "hello")
	if dir.Kind != AskField {
		t.Errorf("Kind = %q, want %q", dir.Kind, AskField)
	}
	if conv.Stage != types.StageAwaitingField {
		t.Errorf("stage = %q, want %q", conv.Stage, types.StageAwaitingField)
	}
	if !reflect.DeepEqual(conv.History, []string{"hello"}) {
		t.Errorf("History = %v, want [hello]", conv.History)
	}
}

func TestHandleFieldThenInterestsThenProposals(t *testing.T) {
	ex := &scriptedExtractor{seq: []conversation.Extraction{
		{Field: "computer science"},
		{Interests: []string{"federated learning"}},
	}}
	gen := &fixedGenerator{topics: []string{"Topic A", "Topic B", "Topic C"}}
	r := newTestRouter(ex, gen, &fixedEvaluator{score: 0.8, papers: 12})

	conv := types.NewConversationContext()

	dir, conv := r.Handle(context.Background(), conv, "I'm in computer science")
	if dir.Kind != AskInterests {
		t.Fatalf("turn 1: Kind = %q, want %q", dir.Kind, AskInterests)
	}
	if conv.Stage != types.StageAwaitingInterests {
		t.Fatalf("turn 1: stage = %q, want %q", conv.Stage, types.StageAwaitingInterests)
	}

	dir, conv = r.Handle(context.Background(), conv, "mostly federated learning")
	if dir.Kind != ShowProposals {
		t.Fatalf("turn 2: Kind = %q, want %q", dir.Kind, ShowProposals)
	}
	if dir.LowConfidence {
		t.Error("turn 2: feasible proposals should not be low confidence")
	}
	if len(dir.Evaluations) != 3 {
		t.Errorf("turn 2: got %d evaluations, want 3", len(dir.Evaluations))
	}
	if conv.Stage != types.StagePresented {
		t.Errorf("turn 2: stage = %q, want %q", conv.Stage, types.StagePresented)
	}
	if len(conv.ProposedTopics) != 3 {
		t.Errorf("turn 2: ProposedTopics = %v, want all three topics", conv.ProposedTopics)
	}
}

func TestHandleOneShotTurn(t *testing.T) {
	ex := &scriptedExtractor{seq: []conversation.Extraction{
		{Field: "biology", Interests: []string{"gene editing"}},
	}}
	gen := &fixedGenerator{topics: []string{"Topic A"}}
	r := newTestRouter(ex, gen, &fixedEvaluator{score: 0.9, papers: 15})

	dir, conv := r.Handle(context.Background(), types.NewConversationContext(),
		"biology, interested in gene editing")
	if dir.Kind != ShowProposals {
		t.Fatalf("Kind = %q, want %q (field and interests in one turn)", dir.Kind, ShowProposals)
	}
	if conv.Stage != types.StagePresented {
		t.Errorf("stage = %q, want %q", conv.Stage, types.StagePresented)
	}
}

func TestHandleReadyTurnRunsProposals(t *testing.T) {
	conv := conversation.Apply(types.NewConversationContext(),
		conversation.Extraction{Field: "cs", Interests: []string{"nlp"}})

	gen := &fixedGenerator{topics: []string{"Topic A"}}
	r := newTestRouter(&scriptedExtractor{}, gen, &fixedEvaluator{score: 0.7, papers: 10})

	dir, conv := r.Handle(context.Background(), conv, "sounds good, go ahead")
	if dir.Kind != ShowProposals {
		t.Errorf("Kind = %q, want %q", dir.Kind, ShowProposals)
	}
	if conv.Stage != types.StagePresented {
		t.Errorf("stage = %q, want %q", conv.Stage, types.StagePresented)
	}
}

func TestHandleEmptyRoundLeavesReady(t *testing.T) {
	conv := conversation.Apply(types.NewConversationContext(),
		conversation.Extraction{Field: "cs", Interests: []string{"nlp"}})

	gen := &fixedGenerator{err: fmt.Errorf("api down")}
	r := newTestRouter(&scriptedExtractor{}, gen, &fixedEvaluator{})

	dir, conv := r.Handle(context.Background(), conv, "go ahead")
	if dir.Kind != Idle || !dir.LowConfidence {
		t.Errorf("directive = %+v, want idle and low confidence", dir)
	}
	if conv.Stage != types.StageReady {
		t.Errorf("stage = %q, want %q (a later turn can retry)", conv.Stage, types.StageReady)
	}
}

func TestHandleLowConfidenceRoundStillPresents(t *testing.T) {
	conv := conversation.Apply(types.NewConversationContext(),
		conversation.Extraction{Field: "cs", Interests: []string{"an obscure niche"}})

	gen := &fixedGenerator{topics: []string{"Topic A"}}
	r := newTestRouter(&scriptedExtractor{}, gen, &fixedEvaluator{score: 0.1, papers: 1})

	dir, conv := r.Handle(context.Background(), conv, "go ahead")
	if dir.Kind != ShowProposals || !dir.LowConfidence {
		t.Fatalf("directive = %+v, want low-confidence proposals", dir)
	}
	if conv.Stage != types.StagePresented {
		t.Errorf("stage = %q, want %q", conv.Stage, types.StagePresented)
	}
}

func TestHandlePresentedStaysIdle(t *testing.T) {
	gen := &fixedGenerator{topics: []string{"Topic A"}}
	r := newTestRouter(&scriptedExtractor{}, gen, &fixedEvaluator{score: 0.8, papers: 10})

	dir, conv := r.Handle(context.Background(), presentedConv(), "thanks, let me think")
	if dir.Kind != Idle {
		t.Errorf("Kind = %q, want %q", dir.Kind, Idle)
	}
	if conv.Stage != types.StagePresented {
		t.Errorf("stage = %q, want %q", conv.Stage, types.StagePresented)
	}
	if gen.calls != 0 {
		t.Errorf("generator calls = %d, want 0 (no new material)", gen.calls)
	}
}

func TestHandlePresentedNewInterestReproposes(t *testing.T) {
	ex := &scriptedExtractor{seq: []conversation.Extraction{
		{Interests: []string{"privacy"}},
	}}
	gen := &fixedGenerator{topics: []string{"Fresh topic"}}
	r := newTestRouter(ex, gen, &fixedEvaluator{score: 0.8, papers: 10})

	dir, conv := r.Handle(context.Background(), presentedConv(), "I'm also into privacy")
	if dir.Kind != ShowProposals {
		t.Fatalf("Kind = %q, want %q", dir.Kind, ShowProposals)
	}
	if conv.Stage != types.StagePresented {
		t.Errorf("stage = %q, want %q", conv.Stage, types.StagePresented)
	}
	want := []string{"Old topic", "Fresh topic"}
	if !reflect.DeepEqual(conv.ProposedTopics, want) {
		t.Errorf("ProposedTopics = %v, want %v", conv.ProposedTopics, want)
	}
}

func TestHandleExtractorFailureAbsorbed(t *testing.T) {
	ex := &scriptedExtractor{errs: []error{fmt.Errorf("malformed output")}}
	r := newTestRouter(ex, &fixedGenerator{}, &fixedEvaluator{})

	dir, conv := r.Handle(context.Background(), types.NewConversationContext(), "garbled input")
	if dir.Kind != AskField {
		t.Errorf("Kind = %q, want %q (failure downgrades to asking again)", dir.Kind, AskField)
	}
	if len(conv.History) != 1 {
		t.Errorf("History = %v, want the turn recorded despite the failure", conv.History)
	}
}

func TestHandleAppendsHistoryInOrder(t *testing.T) {
	r := newTestRouter(&scriptedExtractor{}, &fixedGenerator{}, &fixedEvaluator{})

	conv := types.NewConversationContext()
	_, conv = r.Handle(context.Background(), conv, "first")
	_, conv = r.Handle(context.Background(), conv, "second")

	if !reflect.DeepEqual(conv.History, []string{"first", "second"}) {
		t.Errorf("History = %v, want [first second]", conv.History)
	}
}

// --- Revisit ---

func TestRevisit(t *testing.T) {
	conv := Revisit(presentedConv())
	if conv.Stage != types.StageReady {
		t.Errorf("stage = %q, want %q", conv.Stage, types.StageReady)
	}
	// Context besides the stage is untouched.
	if conv.Field != "computer science" || len(conv.ProposedTopics) != 1 {
		t.Errorf("context changed: %+v", conv)
	}
}

func TestRevisitNonPresentedUnchanged(t *testing.T) {
	ready := conversation.Apply(types.NewConversationContext(),
		conversation.Extraction{Field: "cs", Interests: []string{"nlp"}})
	if got := Revisit(ready); got.Stage != types.StageReady {
		t.Errorf("stage = %q, want %q", got.Stage, types.StageReady)
	}

	empty := types.NewConversationContext()
	if got := Revisit(empty); got.Stage != types.StageAwaitingField {
		t.Errorf("stage = %q, want %q", got.Stage, types.StageAwaitingField)
	}
}
