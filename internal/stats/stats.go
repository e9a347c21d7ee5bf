package stats

import (
	"fmt"
	"sort"
	"time"

	"av1ify/internal/history"
)

// Bucket is one histogram bin covering [Low, High) percent.
type Bucket struct {
	Low   int
	High  int
	Count int
}

// Label renders the bucket range, e.g. "20%-30%".
func (b Bucket) Label() string {
	return fmt.Sprintf("%d%%-%d%%", b.Low, b.High)
}

// ReductionHistogram buckets size reduction percentages into fixed-width
// bins over [0, 100). Values outside the range are clamped into the
// nearest bin. Empty buckets are omitted; bins are returned in ascending
// order. A non-positive width falls back to 10.
func ReductionHistogram(records []history.Record, width int) []Bucket {
	if width <= 0 {
		width = 10
	}
	counts := make(map[int]int)
	for i := range records {
		if records[i].Status != history.StatusConverted {
			continue
		}
		pct := records[i].SizeReductionPct
		if pct < 0 {
			pct = 0
		}
		if pct >= 100 {
			pct = 99.99
		}
		counts[int(pct)/width]++
	}

	buckets := make([]Bucket, 0, len(counts))
	for idx, count := range counts {
		buckets = append(buckets, Bucket{Low: idx * width, High: (idx + 1) * width, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Low < buckets[j].Low })
	return buckets
}

// CodecCount pairs a source codec with how many converted files had it.
type CodecCount struct {
	Codec string
	Count int
}

// CodecRanking counts converted files by source codec, most common
// first. Ties break alphabetically so output is deterministic. Records
// without probe metadata count as "unknown".
func CodecRanking(records []history.Record) []CodecCount {
	counts := make(map[string]int)
	for i := range records {
		if records[i].Status != history.StatusConverted {
			continue
		}
		codec := records[i].Media.SourceCodec
		if codec == "" {
			codec = "unknown"
		}
		counts[codec]++
	}

	ranking := make([]CodecCount, 0, len(counts))
	for codec, count := range counts {
		ranking = append(ranking, CodecCount{Codec: codec, Count: count})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return ranking[i].Codec < ranking[j].Codec
	})
	return ranking
}

// SavingsPoint is one day's position on the cumulative savings curve.
type SavingsPoint struct {
	Date            string // YYYY-MM-DD
	SavedBytes      int64  // bytes saved on this day
	CumulativeBytes int64  // running total through this day
}

// CumulativeSavings sums per-day byte savings from converted records in
// ascending date order. Days are keyed by conversion date; records
// predating the converted_at field fall back to first_seen. Records
// whose output grew contribute nothing.
func CumulativeSavings(records []history.Record) []SavingsPoint {
	daily := make(map[string]int64)
	for i := range records {
		r := &records[i]
		if r.Status != history.StatusConverted || r.SizeBytes <= 0 || r.OutputSizeBytes <= 0 {
			continue
		}
		saved := r.SizeBytes - r.OutputSizeBytes
		if saved <= 0 {
			continue
		}
		when := r.ConvertedAt
		if when.IsZero() {
			when = r.FirstSeen
		}
		if when.IsZero() {
			continue
		}
		daily[when.UTC().Format(time.DateOnly)] += saved
	}

	dates := make([]string, 0, len(daily))
	for date := range daily {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	series := make([]SavingsPoint, 0, len(dates))
	var total int64
	for _, date := range dates {
		total += daily[date]
		series = append(series, SavingsPoint{Date: date, SavedBytes: daily[date], CumulativeBytes: total})
	}
	return series
}

// Summary holds headline totals for the history stats view.
type Summary struct {
	TotalFiles       int
	TotalInputBytes  int64
	TotalOutputBytes int64
	TotalSavedBytes  int64
	TotalSeconds     float64
	MeanReductionPct float64
	MeanVMAF         float64
}

// Summarize computes overall totals across converted records.
func Summarize(records []history.Record) Summary {
	var s Summary
	var reductionSum, vmafSum float64
	var vmafCount int
	for i := range records {
		r := &records[i]
		if r.Status != history.StatusConverted {
			continue
		}
		s.TotalFiles++
		s.TotalInputBytes += r.SizeBytes
		s.TotalOutputBytes += r.OutputSizeBytes
		s.TotalSeconds += r.ProcessingSeconds
		reductionSum += r.SizeReductionPct
		if r.FinalVMAF != nil {
			vmafSum += *r.FinalVMAF
			vmafCount++
		}
	}
	s.TotalSavedBytes = s.TotalInputBytes - s.TotalOutputBytes
	if s.TotalFiles > 0 {
		s.MeanReductionPct = reductionSum / float64(s.TotalFiles)
	}
	if vmafCount > 0 {
		s.MeanVMAF = vmafSum / float64(vmafCount)
	}
	return s
}
