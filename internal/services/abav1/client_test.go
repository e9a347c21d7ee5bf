package abav1

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"av1ify/internal/config"
	"av1ify/internal/services"
)

type fakeRun struct {
	lines []string
	err   error
}

// fakeExecutor replays canned output per invocation and records the
// argument lists it saw.
type fakeExecutor struct {
	runs  []fakeRun
	calls [][]string
}

func (f *fakeExecutor) Run(_ context.Context, _ string, args []string, onLine func(string)) error {
	f.calls = append(f.calls, args)
	idx := len(f.calls) - 1
	if idx >= len(f.runs) {
		return errors.New("unexpected invocation")
	}
	run := f.runs[idx]
	for _, line := range run.lines {
		onLine(line)
	}
	return run.err
}

func newTestClient(t *testing.T, exec Executor) *Client {
	t.Helper()
	cfg := config.Default()
	cfg.Encoder.VMAFTarget = 95
	cfg.Encoder.VMAFFallbackStep = 5
	cfg.Encoder.VMAFFloor = 85
	cfg.Encoder.Preset = 6
	client, err := New(&cfg, nil, WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func searchOutput() []string {
	return []string{
		"crf 32 VMAF 93.10 predicted video stream size 700 MiB (25%) taking 9 minutes",
		"crf 28 VMAF 95.40 predicted video stream size 820 MiB (29%) taking 11 minutes",
		"Best CRF: 28",
		"Output size: 820 MiB (29% of source)",
	}
}

func writeEncodedFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, 4096), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestAnalyzeParsesSearchResult(t *testing.T) {
	exec := &fakeExecutor{runs: []fakeRun{{lines: searchOutput()}}}
	client := newTestClient(t, exec)

	var updates []Progress
	result, err := client.Analyze(context.Background(), "/media/a.mkv", func(p Progress) {
		updates = append(updates, p)
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.CRF != 28 {
		t.Fatalf("crf = %d, want 28", result.CRF)
	}
	if result.VMAFAchieved != 95.40 {
		t.Fatalf("vmaf = %v, want 95.40", result.VMAFAchieved)
	}
	if result.VMAFTargetUsed != 95 {
		t.Fatalf("target used = %d, want 95", result.VMAFTargetUsed)
	}
	if result.PredictedSizePercent != 29 {
		t.Fatalf("predicted size = %v%%, want 29", result.PredictedSizePercent)
	}
	if len(updates) == 0 {
		t.Fatal("no progress updates delivered")
	}

	args := exec.calls[0]
	if args[0] != "crf-search" {
		t.Fatalf("subcommand = %s", args[0])
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--min-vmaf 95") || !strings.Contains(joined, "--preset 6") {
		t.Fatalf("unexpected args: %s", joined)
	}
}

func TestAnalyzeFallbackLadder(t *testing.T) {
	failed := fakeRun{
		lines: []string{"Error: Failed to find a suitable crf"},
		err:   errors.New("exit status 1"),
	}
	exec := &fakeExecutor{runs: []fakeRun{failed, failed, {lines: searchOutput()}}}
	client := newTestClient(t, exec)

	result, err := client.Analyze(context.Background(), "/media/a.mkv", nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.VMAFTargetUsed != 85 {
		t.Fatalf("target used = %d, want 85 after two fallbacks", result.VMAFTargetUsed)
	}
	if len(exec.calls) != 3 {
		t.Fatalf("invocations = %d, want 3", len(exec.calls))
	}
	for i, want := range []string{"95", "90", "85"} {
		joined := strings.Join(exec.calls[i], " ")
		if !strings.Contains(joined, "--min-vmaf "+want) {
			t.Fatalf("call %d args = %s, want target %s", i, joined, want)
		}
	}
}

func TestAnalyzeNotWorthwhileBelowFloor(t *testing.T) {
	failed := fakeRun{
		lines: []string{"Error: Failed to find a suitable crf"},
		err:   errors.New("exit status 1"),
	}
	exec := &fakeExecutor{runs: []fakeRun{failed, failed, failed}}
	client := newTestClient(t, exec)

	_, err := client.Analyze(context.Background(), "/media/a.mkv", nil)
	if !services.IsNotWorthwhile(err) {
		t.Fatalf("expected not-worthwhile, got %v", err)
	}
	if len(exec.calls) != 3 {
		t.Fatalf("invocations = %d, want 3 (95, 90, 85)", len(exec.calls))
	}
}

func TestAnalyzeOtherFailureDoesNotRetry(t *testing.T) {
	exec := &fakeExecutor{runs: []fakeRun{{
		lines: []string{"ffmpeg: Invalid data found when processing input"},
		err:   errors.New("exit status 1"),
	}}}
	client := newTestClient(t, exec)

	_, err := client.Analyze(context.Background(), "/media/a.mkv", nil)
	if err == nil || services.IsNotWorthwhile(err) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("marker = %v", err)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("invocations = %d, want 1", len(exec.calls))
	}
}

func TestConvertWithCachedCRF(t *testing.T) {
	out := filepath.Join(t.TempDir(), "a_av1.mkv")
	exec := &fakeExecutor{runs: []fakeRun{{lines: []string{"100%, encoding done"}}}}
	client := newTestClient(t, exec)
	writeEncodedFile(t, out)

	result, err := client.Convert(context.Background(), "/media/a.mkv", out, intPtr(28), nil)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !result.UsedCachedCRF || result.FinalCRF != 28 {
		t.Fatalf("cached crf not used: %+v", result)
	}
	if result.OutputSizeBytes != 4096 {
		t.Fatalf("output size = %d", result.OutputSizeBytes)
	}

	args := exec.calls[0]
	if args[0] != "encode" {
		t.Fatalf("subcommand = %s, want encode", args[0])
	}
	if !strings.Contains(strings.Join(args, " "), "--crf 28") {
		t.Fatalf("crf flag missing: %v", args)
	}
}

func TestConvertAutoEncodeWithoutCache(t *testing.T) {
	out := filepath.Join(t.TempDir(), "a_av1.mkv")
	exec := &fakeExecutor{runs: []fakeRun{{lines: append(searchOutput(), "VMAF: 95.21")}}}
	client := newTestClient(t, exec)
	writeEncodedFile(t, out)

	result, err := client.Convert(context.Background(), "/media/a.mkv", out, nil, nil)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if result.UsedCachedCRF {
		t.Fatal("auto-encode flagged as cached")
	}
	if result.FinalCRF != 28 || result.FinalVMAF != 95.21 {
		t.Fatalf("final metrics = crf %d vmaf %v", result.FinalCRF, result.FinalVMAF)
	}
	if exec.calls[0][0] != "auto-encode" {
		t.Fatalf("subcommand = %s", exec.calls[0][0])
	}
}

func TestConvertRejectsTinyOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "a_av1.mkv")
	exec := &fakeExecutor{runs: []fakeRun{{}}}
	client := newTestClient(t, exec)
	if err := os.WriteFile(out, []byte("stub"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := client.Convert(context.Background(), "/media/a.mkv", out, intPtr(28), nil)
	if err == nil {
		t.Fatal("expected error for undersized output")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatal("undersized output not removed")
	}
}

func TestParserPhaseTransition(t *testing.T) {
	parser := newOutputParser()
	if parser.phase != PhaseCRFSearch {
		t.Fatalf("initial phase = %s", parser.phase)
	}
	parser.feed("[2026-01-02T10:00:00Z INFO ab_av1::command::encode] encoding video.av1.mkv")
	update, ok := parser.feed("37.5%, 24 fps, eta 10 minutes")
	if !ok {
		t.Fatal("percent line not parsed")
	}
	if update.Phase != PhaseEncoding {
		t.Fatalf("phase = %s, want encoding", update.Phase)
	}
	if update.Percent != 37.5 {
		t.Fatalf("percent = %v", update.Percent)
	}
}

func intPtr(v int) *int { return &v }

func TestNewRequiresBinary(t *testing.T) {
	cfg := config.Default()
	cfg.Encoder.Binary = "  "
	if _, err := New(&cfg, nil); err == nil {
		t.Fatal("expected error for empty binary")
	}
	if _, err := New(nil, nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
