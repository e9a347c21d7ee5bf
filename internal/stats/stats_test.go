package stats

import (
	"testing"
	"time"

	"av1ify/internal/history"
)

func converted(id string, reduction float64, codec string, in, out int64, at time.Time) history.Record {
	return history.Record{
		ID:               id,
		Status:           history.StatusConverted,
		SizeBytes:        in,
		OutputSizeBytes:  out,
		SizeReductionPct: reduction,
		FinalCRF:         history.IntPtr(28),
		FinalVMAF:        history.Float64Ptr(95.1),
		ConvertedAt:      at,
		Media:            history.MediaInfo{SourceCodec: codec},
	}
}

func TestReductionHistogramBucketsAndClamps(t *testing.T) {
	now := time.Now()
	records := []history.Record{
		converted("a", 5, "h264", 100, 95, now),
		converted("b", 12, "h264", 100, 88, now),
		converted("c", 18, "h264", 100, 82, now),
		converted("d", -3, "h264", 100, 103, now),  // clamps into first bucket
		converted("e", 150, "h264", 100, 10, now),  // clamps into last bucket
		converted("f", 100, "h264", 100, 0, now),   // 100 is outside [0,100)
		{ID: "g", Status: history.StatusAnalyzed},  // not converted, ignored
	}

	buckets := ReductionHistogram(records, 10)
	want := map[string]int{"0%-10%": 2, "10%-20%": 2, "90%-100%": 2}
	if len(buckets) != len(want) {
		t.Fatalf("bucket count = %d, want %d (%+v)", len(buckets), len(want), buckets)
	}
	for _, b := range buckets {
		if want[b.Label()] != b.Count {
			t.Errorf("bucket %s count = %d, want %d", b.Label(), b.Count, want[b.Label()])
		}
	}
	for i := 1; i < len(buckets); i++ {
		if buckets[i].Low <= buckets[i-1].Low {
			t.Fatal("buckets not in ascending order")
		}
	}
}

func TestReductionHistogramCustomWidth(t *testing.T) {
	now := time.Now()
	records := []history.Record{
		converted("a", 10, "h264", 100, 90, now),
		converted("b", 30, "h264", 100, 70, now),
	}
	buckets := ReductionHistogram(records, 25)
	if len(buckets) != 2 {
		t.Fatalf("buckets = %+v", buckets)
	}
	if buckets[0].Label() != "0%-25%" || buckets[1].Label() != "25%-50%" {
		t.Fatalf("labels = %s, %s", buckets[0].Label(), buckets[1].Label())
	}
}

func TestCodecRankingOrdersByCountThenName(t *testing.T) {
	now := time.Now()
	records := []history.Record{
		converted("a", 40, "hevc", 100, 60, now),
		converted("b", 40, "h264", 100, 60, now),
		converted("c", 40, "h264", 100, 60, now),
		converted("d", 40, "", 100, 60, now),
		{ID: "e", Status: history.StatusNotWorthwhile, Media: history.MediaInfo{SourceCodec: "vp9"}},
	}

	ranking := CodecRanking(records)
	if len(ranking) != 3 {
		t.Fatalf("ranking = %+v", ranking)
	}
	if ranking[0].Codec != "h264" || ranking[0].Count != 2 {
		t.Fatalf("top codec = %+v", ranking[0])
	}
	// hevc and unknown tie at 1; alphabetical order breaks the tie.
	if ranking[1].Codec != "hevc" || ranking[2].Codec != "unknown" {
		t.Fatalf("tail = %+v", ranking[1:])
	}
}

func TestCumulativeSavingsPerDayAscending(t *testing.T) {
	day1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	day1Later := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	records := []history.Record{
		converted("b", 50, "h264", 1000, 500, day2),
		converted("a", 30, "h264", 1000, 700, day1),
		converted("c", 10, "h264", 1000, 900, day1Later),
		converted("grew", 0, "h264", 1000, 1200, day2), // larger output, excluded
	}

	series := CumulativeSavings(records)
	if len(series) != 2 {
		t.Fatalf("series = %+v", series)
	}
	if series[0].Date != "2026-03-01" || series[0].SavedBytes != 400 || series[0].CumulativeBytes != 400 {
		t.Fatalf("day 1 = %+v", series[0])
	}
	if series[1].Date != "2026-03-02" || series[1].SavedBytes != 500 || series[1].CumulativeBytes != 900 {
		t.Fatalf("day 2 = %+v", series[1])
	}
}

func TestCumulativeSavingsFallsBackToFirstSeen(t *testing.T) {
	rec := converted("a", 50, "h264", 1000, 500, time.Time{})
	rec.FirstSeen = time.Date(2025, 12, 24, 5, 0, 0, 0, time.UTC)

	series := CumulativeSavings([]history.Record{rec})
	if len(series) != 1 || series[0].Date != "2025-12-24" {
		t.Fatalf("series = %+v", series)
	}
}

func TestSummarizeTotals(t *testing.T) {
	now := time.Now()
	records := []history.Record{
		converted("a", 40, "h264", 1000, 600, now),
		converted("b", 60, "hevc", 2000, 800, now),
		{ID: "c", Status: history.StatusAnalyzed, SizeBytes: 5000},
	}
	records[0].ProcessingSeconds = 100
	records[1].ProcessingSeconds = 200

	s := Summarize(records)
	if s.TotalFiles != 2 {
		t.Fatalf("files = %d", s.TotalFiles)
	}
	if s.TotalInputBytes != 3000 || s.TotalOutputBytes != 1400 || s.TotalSavedBytes != 1600 {
		t.Fatalf("totals = %+v", s)
	}
	if s.TotalSeconds != 300 {
		t.Fatalf("seconds = %v", s.TotalSeconds)
	}
	if s.MeanReductionPct != 50 {
		t.Fatalf("mean reduction = %v", s.MeanReductionPct)
	}
}

func TestEmptyInputs(t *testing.T) {
	if got := ReductionHistogram(nil, 10); len(got) != 0 {
		t.Fatalf("histogram = %+v", got)
	}
	if got := CodecRanking(nil); len(got) != 0 {
		t.Fatalf("ranking = %+v", got)
	}
	if got := CumulativeSavings(nil); len(got) != 0 {
		t.Fatalf("savings = %+v", got)
	}
	if s := Summarize(nil); s.TotalFiles != 0 || s.MeanReductionPct != 0 {
		t.Fatalf("summary = %+v", s)
	}
}
