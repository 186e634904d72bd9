// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/thesismate/topic-scout/pkg/types"
)

// defaultMethodKeywords flag methodological framing in titles and abstracts.
var defaultMethodKeywords = []string{
	"survey", "review", "empirical", "evaluation", "framework",
	"case study", "experiment", "benchmark", "meta-analysis",
}

// stopwords are excluded from token overlap so filler words do not inflate
// relevance.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true, "is": true,
	"it": true, "of": true, "on": true, "or": true, "that": true, "the": true,
	"to": true, "with": true,
}

// scoringDefaults fills zero-valued fields with the standard constants.
// Weights default as a block so a partial override is respected as given.
func scoringDefaults(cfg types.ScoringConfig) types.ScoringConfig {
	if cfg.TitleWeight == 0 && cfg.AbstractWeight == 0 && cfg.MethodWeight == 0 && cfg.RecencyWeight == 0 {
		cfg.TitleWeight = 0.4
		cfg.AbstractWeight = 0.3
		cfg.MethodWeight = 0.1
		cfg.RecencyWeight = 0.2
	}
	if cfg.RecencyWindowYears <= 0 {
		cfg.RecencyWindowYears = 10
	}
	if len(cfg.MethodKeywords) == 0 {
		cfg.MethodKeywords = defaultMethodKeywords
	}
	if cfg.CountSaturation <= 0 {
		cfg.CountSaturation = 3.0
	}
	if cfg.RelevanceFloor <= 0 {
		cfg.RelevanceFloor = 0.5
	}
	if cfg.TopRelevance <= 0 {
		cfg.TopRelevance = 5
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = 3
	}
	return cfg
}

// ScoreRecord returns the record's relevance to the query in [0,1]: a
// weighted combination of title overlap, abstract overlap, methodological
// keyword presence, and recency.
func ScoreRecord(r types.LiteratureRecord, query string, cfg types.ScoringConfig) float64 {
	cfg = scoringDefaults(cfg)

	queryTokens := tokenize(query)
	title := overlap(queryTokens, tokenize(r.Title))
	abstract := overlap(queryTokens, tokenize(r.Abstract))

	method := 0.0
	if hasMethodKeyword(r, cfg.MethodKeywords) {
		method = 1.0
	}

	recency := recencyScore(r.Year, cfg.RecencyWindowYears)

	score := cfg.TitleWeight*title +
		cfg.AbstractWeight*abstract +
		cfg.MethodWeight*method +
		cfg.RecencyWeight*recency
	return math.Min(1.0, math.Max(0.0, score))
}

// Feasibility maps record count and mean top relevance to [0,1]. It is 0
// exactly when count is 0, rises steeply through the first handful of
// records, and saturates around ten well-matched records.
func Feasibility(count int, meanTopRelevance float64, cfg types.ScoringConfig) float64 {
	if count <= 0 {
		return 0.0
	}
	cfg = scoringDefaults(cfg)

	saturation := 1.0 - math.Exp(-float64(count)/cfg.CountSaturation)
	quality := cfg.RelevanceFloor + (1.0-cfg.RelevanceFloor)*math.Min(1.0, math.Max(0.0, meanTopRelevance))
	return math.Min(1.0, saturation*quality)
}

// Evaluate collects literature for the topic and condenses it into a
// TopicEvaluation. A collection where every source failed yields a valid
// zero-result evaluation with the failures recorded, never an error.
func (e *Engine) Evaluate(ctx context.Context, topic string) (types.TopicEvaluation, error) {
	out, err := e.Collect(ctx, topic)
	if err != nil {
		return types.TopicEvaluation{}, err
	}

	cfg := scoringDefaults(e.scoring)

	// Records arrive ranked, so the scores are non-increasing.
	scores := make([]float64, len(out.Records))
	for i, r := range out.Records {
		scores[i] = ScoreRecord(r, topic, cfg)
	}

	feasibility := Feasibility(len(out.Records), meanTop(scores, cfg.TopRelevance), cfg)

	sample := out.Records
	if len(sample) > cfg.SampleSize {
		sample = sample[:cfg.SampleSize]
	}

	return types.TopicEvaluation{
		Topic:            topic,
		PaperCount:       len(out.Records),
		FeasibilityScore: feasibility,
		SampleRecords:    sample,
		Confidence:       feasibility * availability(len(e.sources), len(out.SourceErrors)),
		SourceErrors:     out.SourceErrors,
	}, nil
}

// tokenize lowercases s, splits on punctuation and whitespace, and drops
// stopwords.
func tokenize(s string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	var tokens []string
	for _, tok := range strings.Fields(b.String()) {
		if !stopwords[tok] {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// overlap returns the fraction of distinct query tokens that appear among
// the field tokens.
func overlap(queryTokens, fieldTokens []string) float64 {
	querySet := tokenSet(queryTokens)
	if len(querySet) == 0 {
		return 0.0
	}
	fieldSet := tokenSet(fieldTokens)
	hits := 0
	for tok := range querySet {
		if fieldSet[tok] {
			hits++
		}
	}
	return float64(hits) / float64(len(querySet))
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	return set
}

// hasMethodKeyword reports whether the title or abstract mentions any of
// the methodology keywords. Multi-word keywords match as substrings.
func hasMethodKeyword(r types.LiteratureRecord, keywords []string) bool {
	text := strings.ToLower(r.Title + " " + r.Abstract)
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// recencyScore decays linearly from 1.0 for the current year to 0.0 at the
// window edge. Unknown years (0) score 0.
func recencyScore(year, windowYears int) float64 {
	if year <= 0 {
		return 0.0
	}
	age := time.Now().Year() - year
	if age < 0 {
		age = 0
	}
	if age >= windowYears {
		return 0.0
	}
	return 1.0 - float64(age)/float64(windowYears)
}

// meanTop averages the first n scores. Callers pass ranked scores.
func meanTop(scores []float64, n int) float64 {
	if len(scores) == 0 {
		return 0.0
	}
	if n > len(scores) {
		n = len(scores)
	}
	sum := 0.0
	for _, s := range scores[:n] {
		sum += s
	}
	return sum / float64(n)
}

// availability is the fraction of configured sources that answered.
func availability(configured, failed int) float64 {
	if configured <= 0 {
		return 0.0
	}
	ok := configured - failed
	if ok < 0 {
		ok = 0
	}
	return float64(ok) / float64(configured)
}
