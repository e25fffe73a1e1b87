// Package cli provides CLI utilities for fastcos.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/fastcos/internal/models"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact is one hit per line.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// ParseOutputFormat parses text, compact or json.
func ParseOutputFormat(s string) (SearchOutputFormat, error) {
	switch f := SearchOutputFormat(s); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		return WriteJSON(w, response)
	case OutputCompact:
		for _, hit := range response.Hits {
			fmt.Fprintf(w, "%.6f\t%s/%d\t%s\t%s\n", hit.Score, hit.Segment, hit.DocID, hit.ID, hit.Name)
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nScored %d documents in %dms (max score %.4f)\n\n",
		response.Total, response.QueryTime, response.MaxScore)
	for i, hit := range response.Hits {
		writeOneHit(w, i+1, hit)
	}
}

func writeOneHit(w io.Writer, rank int, hit *models.SearchHit) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.6f\n", rank, hit.Score)
	fmt.Fprintf(w, "Doc: %s/%d\n", hit.Segment, hit.DocID)
	if hit.ID != "" {
		fmt.Fprintf(w, "ID: %s\n", hit.ID)
	}
	if hit.Name != "" {
		fmt.Fprintf(w, "Name: %s\n", Truncate(hit.Name, 200))
	}
	if hit.Explanation != nil {
		fmt.Fprintf(w, "\n%s", indent(hit.Explanation.String(), "  "))
	}
	fmt.Fprintln(w)
}

func indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(line)
	}
	return b.String()
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
