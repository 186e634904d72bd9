package literature

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleSemanticJSON = `{
  "total": 2,
  "offset": 0,
  "data": [
    {
      "paperId": "abc123",
      "title": "Attention Is All You Need",
      "abstract": "We propose a new architecture.",
      "year": 2017,
      "url": "https://www.semanticscholar.org/paper/abc123",
      "authors": [
        {"authorId": "1", "name": "Ashish Vaswani"},
        {"authorId": "2", "name": "Noam Shazeer"}
      ],
      "externalIds": {"ArXiv": "1706.03762", "DOI": "10.5555/3295222.3295349"}
    },
    {
      "paperId": "def456",
      "title": "GPT-4 Technical Report",
      "abstract": "We report the development of GPT-4.",
      "year": 2023,
      "url": "https://www.semanticscholar.org/paper/def456",
      "authors": [{"authorId": "3", "name": "OpenAI"}],
      "externalIds": {"DOI": "10.48550/arXiv.2303.08774"}
    }
  ]
}`

func TestSemanticScholarSourceFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, sampleSemanticJSON)
	}))
	defer ts.Close()

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = old }()

	cfg := testSourcesCfg()
	s := NewSemanticScholarSource(ts.Client(), cfg)
	records, err := s.Fetch(context.Background(), "attention", 10, cfg)
	if err != nil {
		t.Fatalf("SemanticScholarSource.Fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	// First paper has an arXiv ID, which wins over the DOI.
	r0 := records[0]
	if r0.SourceID != "1706.03762" {
		t.Errorf("SourceID = %q, want the arXiv ID", r0.SourceID)
	}
	if r0.SourceURL != "https://arxiv.org/abs/1706.03762" {
		t.Errorf("SourceURL = %q, want the arXiv URL", r0.SourceURL)
	}
	if r0.Year != 2017 {
		t.Errorf("Year = %d, want 2017", r0.Year)
	}

	// Second paper has no arXiv ID, so the DOI is used.
	r1 := records[1]
	if r1.SourceID != "10.48550/arXiv.2303.08774" {
		t.Errorf("SourceID = %q, want the DOI", r1.SourceID)
	}
	if r1.SourceURL != "https://doi.org/10.48550/arXiv.2303.08774" {
		t.Errorf("SourceURL = %q, want the DOI URL", r1.SourceURL)
	}
	if r1.Source != "semantic_scholar" {
		t.Errorf("Source = %q", r1.Source)
	}
}

func TestSemanticScholarSourceSendsAPIKey(t *testing.T) {
	var gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		fmt.Fprint(w, `{"total":0,"offset":0,"data":[]}`)
	}))
	defer ts.Close()

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = old }()

	cfg := testSourcesCfg()
	cfg.SemanticScholarAPIKey = "sk-test"
	s := NewSemanticScholarSource(ts.Client(), cfg)
	if _, err := s.Fetch(context.Background(), "anything", 5, cfg); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotKey != "sk-test" {
		t.Errorf("x-api-key = %q, want the configured key", gotKey)
	}
}

func TestSemanticScholarSourceHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = old }()

	cfg := testSourcesCfg()
	s := NewSemanticScholarSource(ts.Client(), cfg)
	if _, err := s.Fetch(context.Background(), "anything", 5, cfg); err == nil {
		t.Error("expected error on HTTP 500")
	}
}
