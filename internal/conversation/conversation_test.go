// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package conversation

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/thesismate/topic-scout/pkg/types"
)

// --- stub extractor ---

type stubExtractor struct {
	ext   Extraction
	err   error
	calls int
}

func (s *stubExtractor) Extract(_ context.Context, _ string, _ types.ConversationContext) (Extraction, error) {
	s.calls++
	if s.err != nil {
		return Extraction{}, s.err
	}
	return s.ext, nil
}

// --- Apply ---

func TestApplyStageProgression(t *testing.T) {
	conv := types.NewConversationContext()
	if conv.Stage != types.StageAwaitingField {
		t.Fatalf("initial stage = %q, want %q", conv.Stage, types.StageAwaitingField)
	}

	conv = Apply(conv, Extraction{Field: "computer science"})
	if conv.Stage != types.StageAwaitingInterests {
		t.Errorf("after field: stage = %q, want %q", conv.Stage, types.StageAwaitingInterests)
	}
	if conv.Field != "computer science" {
		t.Errorf("Field = %q, want %q", conv.Field, "computer science")
	}

	conv = Apply(conv, Extraction{Interests: []string{"federated learning"}})
	if conv.Stage != types.StageReady {
		t.Errorf("after interests: stage = %q, want %q", conv.Stage, types.StageReady)
	}
}

func TestApplyFieldAndInterestsInOneTurn(t *testing.T) {
	conv := Apply(types.NewConversationContext(), Extraction{
		Field:     "biology",
		Interests: []string{"gene editing", "CRISPR"},
	})
	if conv.Stage != types.StageReady {
		t.Errorf("stage = %q, want %q", conv.Stage, types.StageReady)
	}
	if len(conv.Interests) != 2 {
		t.Errorf("got %d interests, want 2", len(conv.Interests))
	}
}

func TestApplyFieldOverwrites(t *testing.T) {
	conv := Apply(types.NewConversationContext(), Extraction{Field: "physics"})
	conv = Apply(conv, Extraction{Field: "astrophysics"})
	if conv.Field != "astrophysics" {
		t.Errorf("Field = %q, want %q (a stated field is a correction)", conv.Field, "astrophysics")
	}
}

func TestApplyInterestUnion(t *testing.T) {
	conv := types.NewConversationContext()
	conv = Apply(conv, Extraction{Field: "cs", Interests: []string{"Federated Learning"}})
	conv = Apply(conv, Extraction{Interests: []string{"  federated   learning ", "privacy"}})

	want := []string{"federated learning", "privacy"}
	if !reflect.DeepEqual(conv.Interests, want) {
		t.Errorf("Interests = %v, want %v", conv.Interests, want)
	}
}

func TestApplyIdempotent(t *testing.T) {
	ext := Extraction{Field: "chemistry", Interests: []string{"catalysis", "green solvents"}}
	once := Apply(types.NewConversationContext(), ext)
	twice := Apply(once, ext)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second application changed the context:\n once = %+v\ntwice = %+v", once, twice)
	}
}

func TestApplyEmptyExtractionKeepsStage(t *testing.T) {
	tests := []struct {
		name string
		conv types.ConversationContext
	}{
		{"awaiting field", types.NewConversationContext()},
		{"awaiting interests", Apply(types.NewConversationContext(), Extraction{Field: "math"})},
		{"ready", Apply(types.NewConversationContext(), Extraction{Field: "math", Interests: []string{"graphs"}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(tt.conv, Extraction{})
			if got.Stage != tt.conv.Stage {
				t.Errorf("stage = %q, want %q", got.Stage, tt.conv.Stage)
			}
			if !reflect.DeepEqual(got.Interests, tt.conv.Interests) {
				t.Errorf("Interests = %v, want %v", got.Interests, tt.conv.Interests)
			}
		})
	}
}

func TestApplyWhitespaceFieldIgnored(t *testing.T) {
	conv := Apply(types.NewConversationContext(), Extraction{Field: "economics"})
	conv = Apply(conv, Extraction{Field: "   "})
	if conv.Field != "economics" {
		t.Errorf("Field = %q, want %q", conv.Field, "economics")
	}
}

func TestApplyPresentedSticky(t *testing.T) {
	conv := Apply(types.NewConversationContext(), Extraction{Field: "cs", Interests: []string{"nlp"}})
	conv = MarkPresented(conv, []string{"Prompt compression for long documents"})

	conv = Apply(conv, Extraction{Interests: []string{"summarization"}})
	if conv.Stage != types.StagePresented {
		t.Errorf("stage = %q, want %q (presented survives new details)", conv.Stage, types.StagePresented)
	}
	if len(conv.Interests) != 2 {
		t.Errorf("got %d interests, want 2", len(conv.Interests))
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	orig := Apply(types.NewConversationContext(), Extraction{Field: "cs", Interests: []string{"nlp"}})
	before := orig.Clone()

	_ = Apply(orig, Extraction{Field: "biology", Interests: []string{"genomics"}})

	if !reflect.DeepEqual(orig, before) {
		t.Errorf("input mutated:\nbefore = %+v\n after = %+v", before, orig)
	}
}

// --- Tracker.Update ---

func TestTrackerUpdateAppliesExtraction(t *testing.T) {
	ex := &stubExtractor{ext: Extraction{Field: "linguistics", Interests: []string{"syntax"}}}
	tr := NewTracker(ex, nil)

	conv := tr.Update(context.Background(), types.NewConversationContext(), "I study linguistics, mostly syntax")
	if conv.Field != "linguistics" {
		t.Errorf("Field = %q, want %q", conv.Field, "linguistics")
	}
	if conv.Stage != types.StageReady {
		t.Errorf("stage = %q, want %q", conv.Stage, types.StageReady)
	}
	if ex.calls != 1 {
		t.Errorf("extractor calls = %d, want 1", ex.calls)
	}
}

func TestTrackerUpdateExtractorFailureIsNoOp(t *testing.T) {
	before := Apply(types.NewConversationContext(), Extraction{Field: "cs", Interests: []string{"nlp"}})
	ex := &stubExtractor{err: fmt.Errorf("malformed model output")}
	tr := NewTracker(ex, nil)

	after := tr.Update(context.Background(), before, "gibberish the model cannot parse")
	if !reflect.DeepEqual(before, after) {
		t.Errorf("failed extraction changed the context:\nbefore = %+v\n after = %+v", before, after)
	}
}

func TestTrackerUpdateMalformedReplyIsNoOp(t *testing.T) {
	before := Apply(types.NewConversationContext(), Extraction{Field: "cs", Interests: []string{"nlp"}})
	ex := &stubExtractor{err: fmt.Errorf("after 3 retries: %w", ErrMalformedExtraction)}
	tr := NewTracker(ex, nil)

	after := tr.Update(context.Background(), before, "anything")
	if !reflect.DeepEqual(before, after) {
		t.Errorf("malformed reply changed the context:\nbefore = %+v\n after = %+v", before, after)
	}
}

// --- Reset ---

func TestReset(t *testing.T) {
	conv := Apply(types.NewConversationContext(), Extraction{Field: "cs", Interests: []string{"nlp"}})
	conv = MarkPresented(conv, []string{"Some topic"})

	got := Reset()
	if got.Stage != types.StageAwaitingField {
		t.Errorf("stage = %q, want %q", got.Stage, types.StageAwaitingField)
	}
	if got.HasField() || got.HasInterests() || len(got.ProposedTopics) != 0 {
		t.Errorf("reset context not empty: %+v", got)
	}
	// The pre-reset context is untouched; callers decide what to discard.
	if conv.Stage != types.StagePresented {
		t.Errorf("original context changed: %+v", conv)
	}
}

// --- MarkPresented ---

func TestMarkPresented(t *testing.T) {
	conv := Apply(types.NewConversationContext(), Extraction{Field: "cs", Interests: []string{"nlp"}})
	conv = MarkPresented(conv, []string{"Topic A", "Topic B"})

	if conv.Stage != types.StagePresented {
		t.Errorf("stage = %q, want %q", conv.Stage, types.StagePresented)
	}
	want := []string{"Topic A", "Topic B"}
	if !reflect.DeepEqual(conv.ProposedTopics, want) {
		t.Errorf("ProposedTopics = %v, want %v", conv.ProposedTopics, want)
	}
}

func TestMarkPresentedSkipsRepeats(t *testing.T) {
	conv := Apply(types.NewConversationContext(), Extraction{Field: "cs", Interests: []string{"nlp"}})
	conv = MarkPresented(conv, []string{"Topic A"})
	conv = MarkPresented(conv, []string{"topic  a", "Topic B"})

	want := []string{"Topic A", "Topic B"}
	if !reflect.DeepEqual(conv.ProposedTopics, want) {
		t.Errorf("ProposedTopics = %v, want %v", conv.ProposedTopics, want)
	}
}

// --- helpers ---

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Federated Learning", "federated learning"},
		{"  federated   learning  ", "federated learning"},
		{"NLP", "nlp"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractionIsEmpty(t *testing.T) {
	if !(Extraction{}).IsEmpty() {
		t.Error("zero extraction should be empty")
	}
	if !(Extraction{Field: "  "}).IsEmpty() {
		t.Error("whitespace field should be empty")
	}
	if (Extraction{Field: "cs"}).IsEmpty() {
		t.Error("field-bearing extraction should not be empty")
	}
	if (Extraction{Interests: []string{"nlp"}}).IsEmpty() {
		t.Error("interest-bearing extraction should not be empty")
	}
}
