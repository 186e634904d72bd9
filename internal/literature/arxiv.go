// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/thesismate/topic-scout/internal/httputil"
	"github.com/thesismate/topic-scout/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivSource queries the arXiv API.
type ArxivSource struct {
	Client *http.Client
	pacer  *httputil.Pacer
}

// NewArxivSource returns an arXiv source that spaces its requests by the
// configured interval (default 3s, arXiv's published crawl limit).
func NewArxivSource(client *http.Client, cfg types.SourcesConfig) *ArxivSource {
	interval := cfg.ArxivInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &ArxivSource{Client: client, pacer: httputil.NewPacer(interval)}
}

// Name returns the source identifier.
func (s *ArxivSource) Name() string { return "arxiv" }

// Fetch queries the arXiv API and returns normalized records.
func (s *ArxivSource) Fetch(ctx context.Context, query string, limit int, cfg types.SourcesConfig) ([]types.LiteratureRecord, error) {
	q := buildArxivQuery(query)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	if limit <= 0 {
		limit = 5
	}

	if err := s.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, q, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var records []types.LiteratureRecord
	for _, entry := range feed.Entries {
		arxivID := extractArxivID(entry.ID)
		if arxivID == "" {
			continue
		}

		r := types.LiteratureRecord{
			Title:     unwrap(entry.Title),
			Abstract:  unwrap(entry.Summary),
			SourceURL: strings.TrimSpace(entry.ID),
			SourceID:  arxivID,
			Source:    "arxiv",
		}

		for _, a := range entry.Authors {
			r.Authors = append(r.Authors, strings.TrimSpace(a.Name))
		}

		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			r.Year = t.Year()
		}

		r.CitationText = BibTeX(r)
		records = append(records, r)
	}
	return records, nil
}

// buildArxivQuery joins the topic words as all: terms.
func buildArxivQuery(query string) string {
	words := strings.Fields(query)
	if len(words) == 0 {
		return ""
	}
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = "all:" + w
	}
	return strings.Join(parts, "+AND+")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

// unwrap collapses the newline indentation arXiv inserts into long titles
// and abstracts.
func unwrap(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
