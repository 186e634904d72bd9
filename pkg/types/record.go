// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the topic-scout engine:
// literature records, topic evaluations, conversation state, and the
// configuration blocks the stages consume.
package types

// LiteratureRecord represents one published work aggregated from one or more
// literature sources. Records from different sources that describe the same
// work are merged during collection.
type LiteratureRecord struct {
	// Title is the work's title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the authors in source order. Merging unions author
	// lists and preserves first-seen order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the work's abstract. Merging keeps the longer non-empty
	// abstract.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Year is the publication year. Zero means unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// SourceURL is the canonical URL for the work at its source.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// SourceID is the source-native identifier (arXiv ID, DOI).
	SourceID string `json:"source_id,omitempty" yaml:"source_id,omitempty"`

	// Source identifies which adapter(s) produced the record
	// (e.g. "arxiv", "crossref"). Comma-joined when records merge.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// CitationText is a BibTeX entry derived deterministically from the
	// fields above. Regenerated whenever a merge changes those fields.
	CitationText string `json:"citation_text,omitempty" yaml:"citation_text,omitempty"`
}
