// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/thesismate/topic-scout/pkg/types"
)

// FormatRecordsTable writes records as a human-readable table to w.
func FormatRecordsTable(out CollectOutput, w io.Writer) {
	if len(out.Records) == 0 {
		fmt.Fprintln(w, "No records found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %s\n",
		"Rank", "Title", "Authors", "Year", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, r := range out.Records {
		title := r.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		year := ""
		if r.Year > 0 {
			year = fmt.Sprintf("%d", r.Year)
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %s\n",
			i+1, title, formatAuthors(r.Authors), year, r.Source)
	}

	fmt.Fprintf(w, "\n%d records", len(out.Records))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	fmt.Fprintln(w)
}

// FormatEvaluation writes one evaluation as a human-readable block to w.
func FormatEvaluation(ev types.TopicEvaluation, w io.Writer) {
	fmt.Fprintf(w, "Topic: %s\n", ev.Topic)
	fmt.Fprintf(w, "  papers found: %d\n", ev.PaperCount)
	fmt.Fprintf(w, "  feasibility:  %.2f\n", ev.FeasibilityScore)
	fmt.Fprintf(w, "  confidence:   %.2f\n", ev.Confidence)

	for _, r := range ev.SampleRecords {
		year := "n.d."
		if r.Year > 0 {
			year = fmt.Sprintf("%d", r.Year)
		}
		fmt.Fprintf(w, "  - %s (%s, %s) [%s]\n", r.Title, formatAuthors(r.Authors), year, CiteKey(r))
	}

	for _, e := range ev.SourceErrors {
		fmt.Fprintf(w, "  warning: %s\n", e)
	}
}

// FormatJSON writes v as indented JSON to w.
func FormatJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
