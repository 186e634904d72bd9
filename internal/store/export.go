// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/thesismate/topic-scout/internal/literature"
	"github.com/thesismate/topic-scout/pkg/types"
)

// ExportBibTeX writes the BibTeX entries of every record saved under a
// session, deduplicated by citation key.
func (s *Store) ExportBibTeX(ctx context.Context, w io.Writer, sessionID string) error {
	records, err := s.recordsForSession(ctx, sessionID)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	first := true
	for _, r := range records {
		citation := strings.TrimSpace(r.CitationText)
		if citation == "" {
			continue
		}
		key := citationKey(citation)
		if key == "" {
			key = citation
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		if !first {
			if _, err := io.WriteString(w, "\n\n"); err != nil {
				return fmt.Errorf("writing BibTeX export: %w", err)
			}
		}
		first = false
		if _, err := io.WriteString(w, citation); err != nil {
			return fmt.Errorf("writing BibTeX export: %w", err)
		}
	}
	if !first {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return fmt.Errorf("writing BibTeX export: %w", err)
		}
	}
	return nil
}

// ExportCSL writes the session's saved records as CSL-YAML references.
func (s *Store) ExportCSL(ctx context.Context, w io.Writer, sessionID string) error {
	records, err := s.recordsForSession(ctx, sessionID)
	if err != nil {
		return err
	}
	return literature.FormatCSL(dedupeRecords(records), w)
}

// ExportJSON writes the session's evaluations, sample records included,
// as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, sessionID string) error {
	evals, err := s.Evaluations(ctx, sessionID)
	if err != nil {
		return err
	}
	if evals == nil {
		evals = []types.TopicEvaluation{}
	}

	data, err := json.MarshalIndent(evals, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling evaluations: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing JSON export: %w", err)
	}
	return nil
}

// citationKey extracts the entry key from a BibTeX citation, the text
// between the opening brace and the first comma.
func citationKey(citation string) string {
	head, _, ok := strings.Cut(citation, ",")
	if !ok {
		return ""
	}
	_, key, ok := strings.Cut(head, "{")
	if !ok {
		return ""
	}
	return strings.TrimSpace(key)
}
