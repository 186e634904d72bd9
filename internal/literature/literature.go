// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package literature collects evidence for candidate thesis topics from
// academic APIs and condenses it into unified, deduplicated records with
// relevance and feasibility scores.
package literature

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/thesismate/topic-scout/pkg/types"
)

// Source queries a single academic API. Each source (arXiv, CrossRef,
// Semantic Scholar, OpenAlex) implements this interface.
type Source interface {
	Name() string
	Fetch(ctx context.Context, query string, limit int, cfg types.SourcesConfig) ([]types.LiteratureRecord, error)
}

// CollectOutput holds the merged records and collection statistics.
type CollectOutput struct {
	Records      []types.LiteratureRecord
	DupsRemoved  int
	SourceErrors []string
}

// Engine aggregates literature evidence and evaluates topic feasibility.
type Engine struct {
	sources []Source
	cfg     types.SourcesConfig
	scoring types.ScoringConfig
	logger  *zap.Logger
}

// NewEngine returns an Engine over the given sources. A nil logger is
// replaced with a no-op logger.
func NewEngine(sources []Source, cfg types.SourcesConfig, scoring types.ScoringConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{sources: sources, cfg: cfg, scoring: scoring, logger: logger}
}

// Sources returns the number of configured sources.
func (e *Engine) Sources() int { return len(e.sources) }

// Collect fans the query out to all sources concurrently, merges duplicate
// records, orders them by relevance to the query, and returns the top N.
// The whole fan-out shares one deadline; sources still pending when it
// elapses contribute nothing. Individual source failures become warnings in
// SourceErrors; only an empty query or an empty source list is an error.
func (e *Engine) Collect(ctx context.Context, query string) (CollectOutput, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return CollectOutput{}, fmt.Errorf("query is empty: provide a topic to collect literature for")
	}
	if len(e.sources) == 0 {
		return CollectOutput{}, fmt.Errorf("no literature sources configured")
	}

	maxRecords := e.cfg.MaxRecords
	if maxRecords <= 0 {
		maxRecords = 20
	}
	perSource := maxRecords / len(e.sources)
	if perSource < 5 {
		perSource = 5
	}

	timeout := e.cfg.CollectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type sourceResult struct {
		records []types.LiteratureRecord
		err     error
		name    string
	}

	ch := make(chan sourceResult, len(e.sources))
	var wg sync.WaitGroup

	for _, s := range e.sources {
		wg.Add(1)
		go func(s Source) {
			defer wg.Done()
			records, err := s.Fetch(ctx, query, perSource, e.cfg)
			ch <- sourceResult{records: records, err: err, name: s.Name()}
		}(s)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.LiteratureRecord
	var sourceErrors []string
	for sr := range ch {
		if sr.err != nil {
			sourceErrors = append(sourceErrors, fmt.Sprintf("%s: %v", sr.name, sr.err))
			e.logger.Warn("Literature source failed",
				zap.String("source", sr.name), zap.Error(sr.err))
			continue
		}
		all = append(all, sr.records...)
	}
	sort.Strings(sourceErrors)

	merged, removed := deduplicate(all)
	merged = rankRecords(merged, query, e.scoring)

	if len(merged) > maxRecords {
		merged = merged[:maxRecords]
	}

	return CollectOutput{
		Records:      merged,
		DupsRemoved:  removed,
		SourceErrors: sourceErrors,
	}, nil
}

// deduplicate merges records that share a source URL or normalized title.
func deduplicate(records []types.LiteratureRecord) ([]types.LiteratureRecord, int) {
	seen := make(map[string]int) // dedup key → index in merged
	var merged []types.LiteratureRecord
	removed := 0

	for _, r := range records {
		urlKey := ""
		if r.SourceURL != "" {
			urlKey = "url:" + r.SourceURL
		}
		titleKey := "title:" + normalizeTitle(r.Title)
		if titleKey == "title:" {
			titleKey = ""
		}

		// Empty keys are never stored, so lookups on them always miss.
		idx, ok := seen[urlKey]
		if !ok {
			idx, ok = seen[titleKey]
		}
		if ok {
			mergeInto(&merged[idx], r)
			removed++
			// The merge may have filled a key the kept record was missing.
			if urlKey != "" {
				seen[urlKey] = idx
			}
			if titleKey != "" {
				seen[titleKey] = idx
			}
			continue
		}

		idx = len(merged)
		merged = append(merged, r)
		if urlKey != "" {
			seen[urlKey] = idx
		}
		if titleKey != "" {
			seen[titleKey] = idx
		}
	}
	return merged, removed
}

// mergeInto folds src into dst: the longer abstract wins, author lists are
// unioned in first-seen order, empty fields fill from src, and distinct
// source names are comma-joined. The citation text is rebuilt so it stays
// consistent with the merged fields.
func mergeInto(dst *types.LiteratureRecord, src types.LiteratureRecord) {
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
	}
	if len(src.Abstract) > len(dst.Abstract) {
		dst.Abstract = src.Abstract
	}
	dst.Authors = unionAuthors(dst.Authors, src.Authors)
	if dst.Year == 0 && src.Year != 0 {
		dst.Year = src.Year
	}
	if dst.SourceURL == "" && src.SourceURL != "" {
		dst.SourceURL = src.SourceURL
	}
	if dst.SourceID == "" && src.SourceID != "" {
		dst.SourceID = src.SourceID
	}
	if src.Source != "" && dst.Source != src.Source && !strings.Contains(dst.Source, src.Source) {
		dst.Source = dst.Source + "," + src.Source
	}
	dst.CitationText = BibTeX(*dst)
}

// unionAuthors appends names from b that a does not already contain,
// preserving first-seen order. Comparison ignores case.
func unionAuthors(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, name := range a {
		seen[strings.ToLower(name)] = true
	}
	for _, name := range b {
		key := strings.ToLower(name)
		if !seen[key] {
			seen[key] = true
			a = append(a, name)
		}
	}
	return a
}

// rankRecords orders records by relevance to the query, breaking ties by
// recency and then title.
func rankRecords(records []types.LiteratureRecord, query string, scoring types.ScoringConfig) []types.LiteratureRecord {
	type scored struct {
		rec   types.LiteratureRecord
		score float64
	}
	ranked := make([]scored, len(records))
	for i, r := range records {
		ranked[i] = scored{rec: r, score: ScoreRecord(r, query, scoring)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if ranked[i].rec.Year != ranked[j].rec.Year {
			return ranked[i].rec.Year > ranked[j].rec.Year
		}
		return ranked[i].rec.Title < ranked[j].rec.Title
	})

	out := make([]types.LiteratureRecord, len(ranked))
	for i, s := range ranked {
		out[i] = s.rec
	}
	return out
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
