// Package cli provides CLI output utilities for Hirogeru.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/hirogeru/internal/models"
)

// OutputFormat is the format for expansion result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
	// OutputCompact prints only the expanded query, for shell pipelines.
	OutputCompact OutputFormat = "compact"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	case "compact":
		return OutputCompact, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// WriteExpansion writes an expansion response to w in the given format.
func WriteExpansion(w io.Writer, response *models.ExpansionResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		fmt.Fprintln(w, response.Result.ExpandedQuery)
		return nil
	default:
		writeExpansionText(w, response)
		return nil
	}
}

func writeExpansionText(w io.Writer, response *models.ExpansionResponse) {
	result := response.Result
	fmt.Fprintf(w, "\nQuery:    %s\n", result.OriginalQuery)
	fmt.Fprintf(w, "Expanded: %s\n", result.ExpandedQuery)
	fmt.Fprintf(w, "\n%d term(s) from %d document(s) in %dms (%s, %d candidates)\n",
		len(result.ExpansionTerms), result.DocumentsUsed,
		result.Metrics.ExpansionTimeMs, result.Algorithm, result.Metrics.CandidateTermCount)
	if len(result.ExpansionTerms) > 0 {
		fmt.Fprintln(w)
		for i, term := range result.ExpansionTerms {
			fmt.Fprintf(w, "  %2d. %-20s weight=%.4f  relevance=%.4f  idf=%.4f  sources=%s\n",
				i+1, term.Term, term.Weight, term.Relevance, term.IDF,
				strings.Join(term.SourceMaterialIDs, ","))
		}
	}
	if len(response.RerunResults) > 0 {
		fmt.Fprintln(w, "\n--- Results for expanded query ---")
		for _, ranked := range response.RerunResults {
			fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
			fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", ranked.Rank, ranked.Score)
			fmt.Fprintf(w, "ID: %s\n", ranked.Material.ID)
			if ranked.Material.Title != "" {
				fmt.Fprintf(w, "Title: %s\n", ranked.Material.Title)
			}
			fmt.Fprintf(w, "\n%s\n", Truncate(ranked.Material.Content, 200))
		}
	}
	fmt.Fprintln(w)
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
