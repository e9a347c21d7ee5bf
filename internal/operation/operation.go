package operation

import (
	"fmt"
	"strings"

	"av1ify/internal/history"
	"av1ify/internal/services"
)

// Choice is a user-selectable operation for a queue item.
type Choice string

const (
	// AnalyzeConvert runs the quality search, then encodes.
	AnalyzeConvert Choice = "analyze_convert"
	// AnalyzeOnly runs the quality search and stops.
	AnalyzeOnly Choice = "analyze_only"
	// Convert encodes using the cached search result, running the
	// search first only if the cache turns out unusable.
	Convert Choice = "convert"
	// ReanalyzeConvert discards the cached search result and runs the
	// full pipeline.
	ReanalyzeConvert Choice = "reanalyze_convert"
)

var labels = map[Choice]string{
	AnalyzeConvert:   "Analyze + Convert",
	AnalyzeOnly:      "Analyze Only",
	Convert:          "Convert",
	ReanalyzeConvert: "Re-analyze + Convert",
}

// Label returns the display string for the choice.
func (c Choice) Label() string {
	if label, ok := labels[c]; ok {
		return label
	}
	return string(c)
}

// Valid reports whether c is a known choice.
func (c Choice) Valid() bool {
	_, ok := labels[c]
	return ok
}

// IncludesAnalyze reports whether the choice runs the quality search.
func (c Choice) IncludesAnalyze() bool {
	return c == AnalyzeConvert || c == AnalyzeOnly || c == ReanalyzeConvert
}

// IncludesConvert reports whether the choice encodes the file.
func (c Choice) IncludesConvert() bool {
	return c != AnalyzeOnly
}

// Parse converts a string into a known Choice.
func Parse(value string) (Choice, bool) {
	normalized := Choice(strings.ToLower(strings.TrimSpace(value)))
	if normalized.Valid() {
		return normalized, true
	}
	return "", false
}

// Available returns the operations valid for a file given its history
// record, most appropriate first. The first entry is the default.
// Without a cached quality-search result the only sensible flows start
// with analysis; with one, a direct convert that reuses the cache
// becomes the default.
func Available(record *history.Record) []Choice {
	if record == nil || !record.HasLayer2() {
		return []Choice{AnalyzeConvert, AnalyzeOnly}
	}
	return []Choice{Convert, ReanalyzeConvert, AnalyzeOnly}
}

// Default returns the preferred operation for a file given its history
// record.
func Default(record *history.Record) Choice {
	return Available(record)[0]
}

// Apply validates choice against the record's current state and makes
// any side effects durable. Selecting ReanalyzeConvert clears the
// cached search result and persists the store immediately, so the
// invalidation survives even if the run is cancelled before the
// re-analysis happens. Applying it twice is harmless.
func Apply(store *history.Store, identity string, choice Choice) error {
	if !choice.Valid() {
		return services.Wrap(services.ErrInput, "operation", "apply",
			fmt.Sprintf("unknown operation %q", choice), nil)
	}
	if choice != ReanalyzeConvert {
		return nil
	}

	record, ok := store.Get(identity)
	if !ok || !record.HasLayer2() {
		return nil
	}

	record.ClearLayer2()
	if record.Status == history.StatusAnalyzed || record.Status == history.StatusNotWorthwhile {
		record.Status = history.StatusNotSeen
	}
	if err := store.Upsert(record); err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return services.Wrap(services.ErrPersistence, "operation", "apply",
			"persist cache invalidation", err)
	}
	return nil
}
