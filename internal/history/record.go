package history

import (
	"fmt"
	"strings"
	"time"
)

// Status describes how far a file has progressed through conversion.
type Status string

const (
	// StatusNotSeen marks a record created from a scan before any
	// analysis ran. Only media metadata is populated.
	StatusNotSeen Status = "not_seen"
	// StatusAnalyzed marks a record holding a quality-search result.
	StatusAnalyzed Status = "analyzed"
	// StatusConverted marks a record whose file was encoded to AV1.
	StatusConverted Status = "converted"
	// StatusNotWorthwhile marks a file where no encode reached the
	// quality floor or the source is already efficient. Terminal unless
	// the user requests re-analysis.
	StatusNotWorthwhile Status = "not_worthwhile"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusNotSeen, StatusAnalyzed, StatusConverted, StatusNotWorthwhile:
		return true
	}
	return false
}

// MediaInfo holds probe metadata captured when a file is first seen.
type MediaInfo struct {
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
	SourceCodec     string  `json:"source_codec,omitempty"`
	BitrateBPS      int64   `json:"bitrate_bps,omitempty"`
	AudioStreams    int     `json:"audio_streams,omitempty"`
}

// Record is one history entry, keyed by path identity.
//
// BestCRF and BestVMAFAchieved together form the cached quality-search
// result: both set or both nil, never one without the other. The
// companion fields record the settings the search ran with so a later
// run can decide whether the cached CRF is still applicable.
type Record struct {
	ID           string    `json:"id"`
	OriginalPath string    `json:"original_path,omitempty"`
	Status       Status    `json:"status"`
	FirstSeen    time.Time `json:"first_seen"`
	LastUpdated  time.Time `json:"last_updated"`

	SizeBytes int64     `json:"size_bytes,omitempty"`
	ModTime   time.Time `json:"mod_time,omitempty"`

	Media MediaInfo `json:"media,omitempty"`

	BestCRF                *int     `json:"best_crf,omitempty"`
	BestVMAFAchieved       *float64 `json:"best_vmaf_achieved,omitempty"`
	VMAFTargetWhenAnalyzed int      `json:"vmaf_target_when_analyzed,omitempty"`
	PresetWhenAnalyzed     *int     `json:"preset_when_analyzed,omitempty"`
	PredictedOutputSize    int64    `json:"predicted_output_size,omitempty"`
	PredictedReductionPct  float64  `json:"predicted_size_reduction,omitempty"`

	OutputPath        string    `json:"output_path,omitempty"`
	OutputSizeBytes   int64     `json:"output_size_bytes,omitempty"`
	SizeReductionPct  float64   `json:"size_reduction_percent,omitempty"`
	FinalVMAF         *float64  `json:"final_vmaf,omitempty"`
	FinalCRF          *int      `json:"final_crf,omitempty"`
	FinalVMAFTarget   int       `json:"final_vmaf_target,omitempty"`
	ConvertedAt       time.Time `json:"converted_at,omitempty"`
	ProcessingSeconds float64   `json:"processing_seconds,omitempty"`
}

// HasLayer2 reports whether the record carries a usable quality-search
// result.
func (r *Record) HasLayer2() bool {
	return r.BestCRF != nil && r.BestVMAFAchieved != nil
}

// Validate reports the first structural problem with the record.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("record has empty id")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("record %s has unknown status %q", r.ID, r.Status)
	}
	if (r.BestCRF == nil) != (r.BestVMAFAchieved == nil) {
		return fmt.Errorf("record %s has partial quality-search data", r.ID)
	}
	if r.Status == StatusConverted {
		if r.OutputSizeBytes <= 0 || r.FinalVMAF == nil || r.FinalCRF == nil {
			return fmt.Errorf("record %s is converted but missing final metrics", r.ID)
		}
	}
	return nil
}

// ClearLayer2 removes the cached quality-search result and the
// prediction fields derived from it. Calling it on a record without
// cached data is a no-op.
func (r *Record) ClearLayer2() {
	r.BestCRF = nil
	r.BestVMAFAchieved = nil
	r.VMAFTargetWhenAnalyzed = 0
	r.PresetWhenAnalyzed = nil
	r.PredictedOutputSize = 0
	r.PredictedReductionPct = 0
}

// Unchanged reports whether the file on disk still matches the size and
// modification time recorded when it was last analyzed. A mismatch means
// cached results describe a different file body.
func (r *Record) Unchanged(sizeBytes int64, modTime time.Time) bool {
	if r.SizeBytes == 0 && r.ModTime.IsZero() {
		return false
	}
	return r.SizeBytes == sizeBytes && r.ModTime.Equal(modTime)
}

// CanReuseCRF reports whether the cached CRF can drive a convert run
// with the given settings. The preset must match the one the search ran
// with, and the cached search must have aimed at least as high as the
// desired VMAF target.
func (r *Record) CanReuseCRF(preset, vmafTarget int) bool {
	if !r.HasLayer2() {
		return false
	}
	if r.PresetWhenAnalyzed == nil || *r.PresetWhenAnalyzed != preset {
		return false
	}
	return r.VMAFTargetWhenAnalyzed >= vmafTarget
}

// IntPtr returns a pointer to v. Convenience for building records.
func IntPtr(v int) *int { return &v }

// Float64Ptr returns a pointer to v. Convenience for building records.
func Float64Ptr(v float64) *float64 { return &v }
