// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/thesismate/topic-scout/internal/httputil"
	"github.com/thesismate/topic-scout/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,externalIds,year,url"

// SemanticScholarSource queries the Semantic Scholar graph API.
type SemanticScholarSource struct {
	Client *http.Client
	APIKey string
	pacer  *httputil.Pacer
}

// NewSemanticScholarSource returns a Semantic Scholar source that spaces
// its requests by the configured interval (default 1s, the unauthenticated
// rate limit).
func NewSemanticScholarSource(client *http.Client, cfg types.SourcesConfig) *SemanticScholarSource {
	interval := cfg.SemanticScholarInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &SemanticScholarSource{
		Client: client,
		APIKey: cfg.SemanticScholarAPIKey,
		pacer:  httputil.NewPacer(interval),
	}
}

// Name returns the source identifier.
func (s *SemanticScholarSource) Name() string { return "semantic_scholar" }

// Fetch queries the Semantic Scholar API and returns normalized records.
func (s *SemanticScholarSource) Fetch(ctx context.Context, query string, limit int, cfg types.SourcesConfig) ([]types.LiteratureRecord, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}
	if limit <= 0 {
		limit = 5
	}

	if err := s.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", limit)},
		"fields": {semanticFields},
	}

	reqURL := semanticAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if s.APIKey != "" {
		req.Header.Set("x-api-key", s.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var records []types.LiteratureRecord
	for _, paper := range sr.Data {
		if paper.Title == "" {
			continue
		}

		r := types.LiteratureRecord{
			Title:    paper.Title,
			Abstract: paper.Abstract,
			Year:     paper.Year,
			Source:   "semantic_scholar",
		}

		for _, a := range paper.Authors {
			if a.Name != "" {
				r.Authors = append(r.Authors, a.Name)
			}
		}

		// Prefer the arXiv ID, then the DOI, then the native paper ID.
		switch {
		case paper.ExternalIDs.ArXiv != "":
			r.SourceID = paper.ExternalIDs.ArXiv
			r.SourceURL = "https://arxiv.org/abs/" + paper.ExternalIDs.ArXiv
		case paper.ExternalIDs.DOI != "":
			r.SourceID = paper.ExternalIDs.DOI
			r.SourceURL = "https://doi.org/" + paper.ExternalIDs.DOI
		default:
			r.SourceID = paper.PaperID
			r.SourceURL = paper.URL
		}

		r.CitationText = BibTeX(r)
		records = append(records, r)
	}
	return records, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID     string              `json:"paperId"`
	Title       string              `json:"title"`
	Abstract    string              `json:"abstract"`
	Year        int                 `json:"year"`
	URL         string              `json:"url"`
	Authors     []semanticAuthor    `json:"authors"`
	ExternalIDs semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI      string `json:"DOI"`
	ArXiv    string `json:"ArXiv"`
	CorpusID int    `json:"CorpusId"`
}
