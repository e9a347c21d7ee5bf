package abav1

import (
	"regexp"
	"strconv"
	"strings"
)

// Phases reported through progress callbacks.
const (
	PhaseCRFSearch = "crf-search"
	PhaseEncoding  = "encoding"
)

// Progress is a single progress observation parsed from ab-av1 output.
type Progress struct {
	Phase   string
	Percent float64
	CRF     int
	VMAF    float64
	Message string
}

var (
	reCRFVMAF       = regexp.MustCompile(`(?i)crf\s+(\d+)\s+VMAF\s+(\d+\.?\d*)`)
	reBestCRF       = regexp.MustCompile(`(?i)Best\s+CRF:\s+(\d+)`)
	rePercent       = regexp.MustCompile(`^\s*(\d{1,3}(?:\.\d+)?)\s*%`)
	reOutputSizePct = regexp.MustCompile(`(?i)Output\s+size:.*?\((\d+\.?\d*)\s*%\s+of\s+source\)`)
	reFinalVMAF     = regexp.MustCompile(`(?i)VMAF:\s+(\d+\.\d+)`)
	rePhaseEncode   = regexp.MustCompile(`(?i)ab_av1::command::encode\].*encoding`)
	reSearchFailed  = regexp.MustCompile(`(?i)Failed\s+to\s+find\s+a\s+suitable\s+crf`)
)

// outputParser accumulates results across the lines of one ab-av1 run
// while emitting progress updates as they appear.
type outputParser struct {
	phase string

	lastCRF  int
	lastVMAF float64

	bestCRF       int
	haveBestCRF   bool
	finalVMAF     float64
	haveFinalVMAF bool
	outputSizePct float64
	haveOutputPct bool
	searchFailed  bool
}

func newOutputParser() *outputParser {
	return &outputParser{phase: PhaseCRFSearch}
}

// feed consumes one output line. The returned Progress is valid only
// when the second return is true.
func (p *outputParser) feed(line string) (Progress, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Progress{}, false
	}

	if rePhaseEncode.MatchString(trimmed) {
		p.phase = PhaseEncoding
	}
	if reSearchFailed.MatchString(trimmed) {
		p.searchFailed = true
	}

	if m := reCRFVMAF.FindStringSubmatch(trimmed); m != nil {
		p.lastCRF, _ = strconv.Atoi(m[1])
		p.lastVMAF, _ = strconv.ParseFloat(m[2], 64)
		return Progress{
			Phase:   p.phase,
			CRF:     p.lastCRF,
			VMAF:    p.lastVMAF,
			Message: trimmed,
		}, true
	}

	if m := reBestCRF.FindStringSubmatch(trimmed); m != nil {
		p.bestCRF, _ = strconv.Atoi(m[1])
		p.haveBestCRF = true
		return Progress{Phase: p.phase, CRF: p.bestCRF, VMAF: p.lastVMAF, Message: trimmed}, true
	}

	if m := reOutputSizePct.FindStringSubmatch(trimmed); m != nil {
		p.outputSizePct, _ = strconv.ParseFloat(m[1], 64)
		p.haveOutputPct = true
	}

	if m := reFinalVMAF.FindStringSubmatch(trimmed); m != nil {
		p.finalVMAF, _ = strconv.ParseFloat(m[1], 64)
		p.haveFinalVMAF = true
	}

	if m := rePercent.FindStringSubmatch(trimmed); m != nil {
		percent, _ := strconv.ParseFloat(m[1], 64)
		return Progress{Phase: p.phase, Percent: percent, CRF: p.lastCRF, VMAF: p.lastVMAF}, true
	}

	return Progress{}, false
}

// best returns the concluded CRF/VMAF pair of a search, falling back to
// the last observed sample when the summary line never appeared.
func (p *outputParser) best() (int, float64, bool) {
	if p.haveBestCRF {
		vmaf := p.lastVMAF
		if p.haveFinalVMAF {
			vmaf = p.finalVMAF
		}
		return p.bestCRF, vmaf, true
	}
	if p.lastCRF > 0 {
		return p.lastCRF, p.lastVMAF, true
	}
	return 0, 0, false
}
