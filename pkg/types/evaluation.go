// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// TopicEvaluation summarizes the literature evidence for one candidate
// research topic. It is a plain value: scores are recomputed from live
// sources on each evaluation, never updated in place.
type TopicEvaluation struct {
	// Topic is the candidate topic text that was evaluated.
	Topic string `json:"topic" yaml:"topic"`

	// PaperCount is the number of distinct records found for the topic.
	PaperCount int `json:"paper_count" yaml:"paper_count"`

	// FeasibilityScore is a value between 0.0 and 1.0 indicating how well
	// the literature supports the topic. Exactly 0.0 when no records were
	// found.
	FeasibilityScore float64 `json:"feasibility_score" yaml:"feasibility_score"`

	// SampleRecords holds the top records by relevance, capped at the
	// configured sample size.
	SampleRecords []LiteratureRecord `json:"sample_records,omitempty" yaml:"sample_records,omitempty"`

	// Confidence is the feasibility score damped by source availability:
	// a low score caused by unreachable sources yields a lower confidence
	// than the same score from a thin literature.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// SourceErrors records per-source warnings from the collection run
	// that produced this evaluation.
	SourceErrors []string `json:"source_errors,omitempty" yaml:"source_errors,omitempty"`
}
