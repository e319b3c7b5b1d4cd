package cli

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/doclens/backend/internal/domain"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeAnalysis prints one analysis as JSON or as a ranked text report
func writeAnalysis(w io.Writer, analysis *domain.Analysis, format string) error {
	if format == "json" {
		return writeJSON(w, analysis)
	}

	writeln(w, "Analysis %s  %s  (%s)", analysis.ID, analysis.Source, analysis.CreatedAt.Local().Format("2006-01-02 15:04"))
	if len(analysis.Results) == 0 {
		writeln(w, "  no catalog products mentioned")
		return nil
	}

	for i, r := range analysis.Results {
		writeln(w, "%2d. %-30s index %6.2f  %-9s  +%d / -%d",
			i+1, r.ProductName, r.Index, r.Rating, r.PositiveCount, r.NegativeCount)
		if found := foundKeywords(r.MatchedKeywords); found != "" {
			writeln(w, "    keywords: %s", found)
		}
		for _, ctx := range r.Contexts {
			writeln(w, "    > %s", ctx)
		}
	}
	return nil
}

func foundKeywords(matches []domain.KeywordMatch) string {
	var parts []string
	for _, m := range matches {
		if !m.Found {
			continue
		}
		sign := "+"
		if m.Polarity == domain.PolarityNegative {
			sign = "-"
		}
		parts = append(parts, sign+m.Keyword)
	}
	return strings.Join(parts, ", ")
}
