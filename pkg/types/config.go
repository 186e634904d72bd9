package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "topic-scout/0.1 (mailto:research@thesismate.com)").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourcesConfig holds settings for literature collection.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxRecords is the shared cap on merged records per collection
	// (default 20). Each source is asked for MaxRecords divided by the
	// number of active sources, floor 5.
	MaxRecords int `json:"max_records" yaml:"max_records"`

	// CollectTimeout bounds the wait for all sources in one collection.
	// Sources still pending when it elapses contribute nothing (default 30s).
	CollectTimeout time.Duration `json:"collect_timeout" yaml:"collect_timeout"`

	// EnableArxiv controls whether the arXiv source is used.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv"`

	// EnableCrossRef controls whether the CrossRef source is used.
	EnableCrossRef bool `json:"enable_crossref" yaml:"enable_crossref"`

	// EnableSemanticScholar controls whether the Semantic Scholar source is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`

	// EnableOpenAlex controls whether the OpenAlex source is used.
	EnableOpenAlex bool `json:"enable_openalex" yaml:"enable_openalex"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// Mailto is the contact address sent to CrossRef and OpenAlex for
	// polite-pool access.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty"`

	// ArxivInterval is the minimum delay between arXiv requests (default 3s,
	// the published crawl limit).
	ArxivInterval time.Duration `json:"arxiv_interval" yaml:"arxiv_interval"`

	// CrossRefInterval is the minimum delay between CrossRef requests
	// (default 20ms).
	CrossRefInterval time.Duration `json:"crossref_interval" yaml:"crossref_interval"`

	// SemanticScholarInterval is the minimum delay between Semantic Scholar
	// requests (default 1s for unauthenticated access).
	SemanticScholarInterval time.Duration `json:"semantic_scholar_interval" yaml:"semantic_scholar_interval"`

	// OpenAlexInterval is the minimum delay between OpenAlex requests
	// (default 100ms).
	OpenAlexInterval time.Duration `json:"openalex_interval" yaml:"openalex_interval"`
}

// ScoringConfig holds the relevance and feasibility constants. Weights are
// relative; they should sum to 1.
type ScoringConfig struct {
	// TitleWeight scales the title-query token overlap (default 0.4).
	TitleWeight float64 `json:"title_weight" yaml:"title_weight"`

	// AbstractWeight scales the abstract-query token overlap (default 0.3).
	AbstractWeight float64 `json:"abstract_weight" yaml:"abstract_weight"`

	// MethodWeight scales the methodological keyword bonus (default 0.1).
	MethodWeight float64 `json:"method_weight" yaml:"method_weight"`

	// RecencyWeight scales the recency term (default 0.2).
	RecencyWeight float64 `json:"recency_weight" yaml:"recency_weight"`

	// RecencyWindowYears is the span over which recency decays linearly
	// from 1.0 to 0.0 (default 10). Records with no year score 0.
	RecencyWindowYears int `json:"recency_window_years" yaml:"recency_window_years"`

	// MethodKeywords overrides the default methodological keyword list.
	MethodKeywords []string `json:"method_keywords,omitempty" yaml:"method_keywords,omitempty"`

	// CountSaturation controls how fast feasibility saturates with record
	// count (default 3.0; around ten well-matched records approach 1.0).
	CountSaturation float64 `json:"count_saturation" yaml:"count_saturation"`

	// RelevanceFloor is the feasibility multiplier at zero mean relevance
	// (default 0.5), so count alone never saturates the score.
	RelevanceFloor float64 `json:"relevance_floor" yaml:"relevance_floor"`

	// TopRelevance is how many top records feed the mean relevance used by
	// feasibility (default 5).
	TopRelevance int `json:"top_relevance" yaml:"top_relevance"`

	// SampleSize is how many records an evaluation carries as samples
	// (default 3).
	SampleSize int `json:"sample_size" yaml:"sample_size"`
}

// ProposerConfig holds settings for the topic proposer.
type ProposerConfig struct {
	// Candidates is the number of topics requested per generation round
	// (default 3).
	Candidates int `json:"candidates" yaml:"candidates"`

	// RelaxedCandidates is the wider count used for the single relaxation
	// pass when no candidate clears the threshold (default 5).
	RelaxedCandidates int `json:"relaxed_candidates" yaml:"relaxed_candidates"`

	// FeasibilityThreshold discards evaluations scoring below it
	// (default 0.3).
	FeasibilityThreshold float64 `json:"feasibility_threshold" yaml:"feasibility_threshold"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// StoreConfig holds settings for the session and evaluation store.
type StoreConfig struct {
	// DataDir is the base directory for persisted data (contains topics.db).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default maximum number of lookup results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// EngineConfig groups all stage configurations.
type EngineConfig struct {
	Sources  SourcesConfig  `json:"sources" yaml:"sources"`
	Scoring  ScoringConfig  `json:"scoring" yaml:"scoring"`
	Proposer ProposerConfig `json:"proposer" yaml:"proposer"`
	AI       AIConfig       `json:"ai" yaml:"ai"`
	Store    StoreConfig    `json:"store" yaml:"store"`
}
