// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/thesismate/topic-scout/pkg/types"
)

// BibTeX renders the record as a deterministic @article entry. The citation
// key is the first alphanumeric title word plus the year ("nd" when the
// year is unknown).
func BibTeX(r types.LiteratureRecord) string {
	var fields []string
	if r.Title != "" {
		fields = append(fields, fmt.Sprintf("  title = {%s}", r.Title))
	}
	if len(r.Authors) > 0 {
		fields = append(fields, fmt.Sprintf("  author = {%s}", strings.Join(r.Authors, " and ")))
	}
	if r.Year > 0 {
		fields = append(fields, fmt.Sprintf("  year = {%d}", r.Year))
	}
	switch {
	case isDOI(r.SourceID):
		fields = append(fields, fmt.Sprintf("  doi = {%s}", r.SourceID))
	case isArxivID(r.SourceID):
		fields = append(fields, fmt.Sprintf("  eprint = {%s}", r.SourceID))
	}
	if r.SourceURL != "" {
		fields = append(fields, fmt.Sprintf("  url = {%s}", r.SourceURL))
	}
	return fmt.Sprintf("@article{%s,\n%s\n}", CiteKey(r), strings.Join(fields, ",\n"))
}

// CiteKey builds the citation key from the first title word and the year.
func CiteKey(r types.LiteratureRecord) string {
	word := firstTitleWord(r.Title)
	if word == "" {
		word = "untitled"
	}
	if r.Year > 0 {
		return fmt.Sprintf("%s%d", word, r.Year)
	}
	return word + "nd"
}

// firstTitleWord returns the first word of the title that still has
// alphanumeric content after stripping punctuation, lowercased.
func firstTitleWord(title string) string {
	for _, field := range strings.Fields(strings.ToLower(title)) {
		var b strings.Builder
		for _, r := range field {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

// isDOI reports whether s looks like a DOI (e.g. "10.1145/3292500.3330701").
func isDOI(s string) bool {
	return strings.HasPrefix(s, "10.") && strings.Contains(s, "/")
}

// isArxivID reports whether s looks like an arXiv ID (e.g. "2301.07041").
func isArxivID(s string) bool {
	if len(s) < 9 {
		return false
	}
	return s[4] == '.' && s[0] >= '0' && s[0] <= '9'
}
