// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/thesismate/topic-scout/internal/httputil"
	"github.com/thesismate/topic-scout/pkg/types"
)

// crossrefAPIBase is the CrossRef works search endpoint. Declared as a var
// so tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

// crossrefAbstractLimit caps stored abstract length; CrossRef abstracts can
// run to full-page JATS XML.
const crossrefAbstractLimit = 500

// CrossRefSource queries the CrossRef REST API.
type CrossRefSource struct {
	Client *http.Client
	// Mailto joins CrossRef's polite pool for better rate limits.
	Mailto string
	pacer  *httputil.Pacer
}

// NewCrossRefSource returns a CrossRef source that spaces its requests by
// the configured interval (default 20ms).
func NewCrossRefSource(client *http.Client, cfg types.SourcesConfig) *CrossRefSource {
	interval := cfg.CrossRefInterval
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	return &CrossRefSource{Client: client, Mailto: cfg.Mailto, pacer: httputil.NewPacer(interval)}
}

// Name returns the source identifier.
func (s *CrossRefSource) Name() string { return "crossref" }

// Fetch queries the CrossRef API and returns normalized records.
func (s *CrossRefSource) Fetch(ctx context.Context, query string, limit int, cfg types.SourcesConfig) ([]types.LiteratureRecord, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty CrossRef query")
	}
	if limit <= 0 {
		limit = 5
	}

	if err := s.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"query": {query},
		"rows":  {fmt.Sprintf("%d", limit)},
	}
	if s.Mailto != "" {
		params.Set("mailto", s.Mailto)
	}

	reqURL := crossrefAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("CrossRef API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CrossRef API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing CrossRef response: %w", err)
	}

	var records []types.LiteratureRecord
	for _, work := range cr.Message.Items {
		if len(work.Title) == 0 || work.Title[0] == "" {
			continue
		}

		r := types.LiteratureRecord{
			Title:    work.Title[0],
			Abstract: cleanJATS(work.Abstract),
			Year:     crossrefYear(work),
			SourceID: work.DOI,
			Source:   "crossref",
		}
		if work.DOI != "" {
			r.SourceURL = "https://doi.org/" + work.DOI
		} else {
			r.SourceURL = work.URL
		}

		for _, a := range work.Author {
			name := strings.TrimSpace(a.Given + " " + a.Family)
			if name != "" {
				r.Authors = append(r.Authors, name)
			}
		}

		r.CitationText = BibTeX(r)
		records = append(records, r)
	}
	return records, nil
}

// CrossRef API JSON structures.
type crossrefResponse struct {
	Message crossrefMessage `json:"message"`
}

type crossrefMessage struct {
	Items []crossrefWork `json:"items"`
}

type crossrefWork struct {
	Title     []string         `json:"title"`
	Abstract  string           `json:"abstract"`
	DOI       string           `json:"DOI"`
	URL       string           `json:"URL"`
	Author    []crossrefAuthor `json:"author"`
	Published crossrefDate     `json:"published"`
	Issued    crossrefDate     `json:"issued"`
	Created   crossrefDate     `json:"created"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// crossrefYear picks the year from the first populated date facet.
func crossrefYear(w crossrefWork) int {
	for _, d := range []crossrefDate{w.Published, w.Issued, w.Created} {
		if len(d.DateParts) > 0 && len(d.DateParts[0]) > 0 {
			return d.DateParts[0][0]
		}
	}
	return 0
}

// jatsTag matches the JATS XML markup CrossRef embeds in abstracts.
var jatsTag = regexp.MustCompile(`<[^>]+>`)

// cleanJATS strips JATS markup from a CrossRef abstract and truncates it.
func cleanJATS(abstract string) string {
	if abstract == "" {
		return ""
	}
	text := jatsTag.ReplaceAllString(abstract, " ")
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > crossrefAbstractLimit {
		text = text[:crossrefAbstractLimit]
	}
	return text
}
