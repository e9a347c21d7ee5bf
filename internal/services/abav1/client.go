package abav1

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"av1ify/internal/config"
	"av1ify/internal/logging"
	"av1ify/internal/services"
)

// minOutputBytes guards against encodes that produced a stub file.
const minOutputBytes = 1024

// AnalyzeResult is the outcome of a successful CRF search.
type AnalyzeResult struct {
	CRF                  int
	VMAFAchieved         float64
	VMAFTargetUsed       int
	PredictedSizePercent float64
}

// ConvertResult is the outcome of a successful encode.
type ConvertResult struct {
	OutputPath      string
	OutputSizeBytes int64
	FinalCRF        int
	FinalVMAF       float64
	VMAFTargetUsed  int
	Elapsed         time.Duration
	UsedCachedCRF   bool
}

// Analyzer runs the quality search for a file.
type Analyzer interface {
	Analyze(ctx context.Context, path string, onProgress func(Progress)) (AnalyzeResult, error)
}

// Converter encodes a file to AV1. cachedCRF, when non-nil, skips the
// search phase entirely.
type Converter interface {
	Convert(ctx context.Context, inputPath, outputPath string, cachedCRF *int, onProgress func(Progress)) (ConvertResult, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps ab-av1 CLI interactions.
type Client struct {
	binary       string
	preset       int
	vmafTarget   int
	fallbackStep int
	vmafFloor    int
	exec         Executor
	logger       *slog.Logger
}

// New constructs an ab-av1 client from encoder configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	binary := strings.TrimSpace(cfg.Encoder.Binary)
	if binary == "" {
		return nil, errors.New("ab-av1 binary required")
	}
	client := &Client{
		binary:       binary,
		preset:       cfg.Encoder.Preset,
		vmafTarget:   cfg.Encoder.VMAFTarget,
		fallbackStep: cfg.Encoder.VMAFFallbackStep,
		vmafFloor:    cfg.Encoder.VMAFFloor,
		exec:         commandExecutor{},
		logger:       logging.NewComponentLogger(logger, "abav1"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Analyze runs a CRF search against the configured VMAF target. When
// the search reports that no suitable CRF exists, the target is lowered
// by the fallback step and retried until the floor; past the floor the
// file is declared not worthwhile.
func (c *Client) Analyze(ctx context.Context, path string, onProgress func(Progress)) (AnalyzeResult, error) {
	if strings.TrimSpace(path) == "" {
		return AnalyzeResult{}, services.Wrap(services.ErrInput, "abav1", "crf-search", "empty input path", nil)
	}

	for target := c.vmafTarget; target >= c.vmafFloor; target -= c.fallbackStep {
		if target != c.vmafTarget {
			c.logger.Info("retrying crf search with lowered target",
				logging.String("file", filepath.Base(path)),
				logging.Int("vmaf_target", target))
		}

		parser := newOutputParser()
		args := []string{
			"crf-search",
			"-i", path,
			"--preset", strconv.Itoa(c.preset),
			"--min-vmaf", strconv.Itoa(target),
		}
		runErr := c.exec.Run(ctx, c.binary, args, func(line string) {
			if update, ok := parser.feed(line); ok && onProgress != nil {
				onProgress(update)
			}
		})

		if runErr == nil {
			crf, vmaf, ok := parser.best()
			if !ok {
				return AnalyzeResult{}, services.Wrap(services.ErrExternalTool, "abav1", "crf-search",
					"search finished without reporting a crf", nil)
			}
			result := AnalyzeResult{
				CRF:            crf,
				VMAFAchieved:   vmaf,
				VMAFTargetUsed: target,
			}
			if parser.haveOutputPct {
				result.PredictedSizePercent = parser.outputSizePct
			}
			return result, nil
		}

		if ctx.Err() != nil {
			return AnalyzeResult{}, ctx.Err()
		}
		if parser.searchFailed {
			continue
		}
		return AnalyzeResult{}, services.Wrap(services.ErrExternalTool, "abav1", "crf-search",
			fmt.Sprintf("search failed for vmaf target %d", target), runErr)
	}

	return AnalyzeResult{}, services.Wrap(services.ErrNotWorthwhile, "abav1", "crf-search",
		fmt.Sprintf("no suitable crf down to vmaf floor %d", c.vmafFloor), nil)
}

// Convert encodes inputPath to outputPath. A cached CRF runs a direct
// encode; without one a full auto-encode performs its own search, with
// the same fallback ladder as Analyze.
func (c *Client) Convert(ctx context.Context, inputPath, outputPath string, cachedCRF *int, onProgress func(Progress)) (ConvertResult, error) {
	if strings.TrimSpace(inputPath) == "" || strings.TrimSpace(outputPath) == "" {
		return ConvertResult{}, services.Wrap(services.ErrInput, "abav1", "encode", "empty input or output path", nil)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return ConvertResult{}, services.Wrap(services.ErrInput, "abav1", "encode", "create output directory", err)
	}

	start := time.Now()
	if cachedCRF != nil {
		result, err := c.encodeWithCRF(ctx, inputPath, outputPath, *cachedCRF, onProgress)
		if err != nil {
			return ConvertResult{}, err
		}
		result.Elapsed = time.Since(start)
		return result, nil
	}

	result, err := c.autoEncode(ctx, inputPath, outputPath, onProgress)
	if err != nil {
		return ConvertResult{}, err
	}
	result.Elapsed = time.Since(start)
	return result, nil
}

func (c *Client) encodeWithCRF(ctx context.Context, inputPath, outputPath string, crf int, onProgress func(Progress)) (ConvertResult, error) {
	parser := newOutputParser()
	parser.phase = PhaseEncoding
	args := []string{
		"encode",
		"-i", inputPath,
		"-o", outputPath,
		"--preset", strconv.Itoa(c.preset),
		"--crf", strconv.Itoa(crf),
	}
	if err := c.exec.Run(ctx, c.binary, args, func(line string) {
		if update, ok := parser.feed(line); ok && onProgress != nil {
			onProgress(update)
		}
	}); err != nil {
		if ctx.Err() != nil {
			return ConvertResult{}, ctx.Err()
		}
		return ConvertResult{}, services.Wrap(services.ErrExternalTool, "abav1", "encode",
			fmt.Sprintf("encode with crf %d failed", crf), err)
	}

	size, err := verifyOutput(outputPath)
	if err != nil {
		return ConvertResult{}, err
	}
	result := ConvertResult{
		OutputPath:      outputPath,
		OutputSizeBytes: size,
		FinalCRF:        crf,
		UsedCachedCRF:   true,
	}
	if parser.haveFinalVMAF {
		result.FinalVMAF = parser.finalVMAF
	}
	return result, nil
}

func (c *Client) autoEncode(ctx context.Context, inputPath, outputPath string, onProgress func(Progress)) (ConvertResult, error) {
	for target := c.vmafTarget; target >= c.vmafFloor; target -= c.fallbackStep {
		parser := newOutputParser()
		args := []string{
			"auto-encode",
			"-i", inputPath,
			"-o", outputPath,
			"--preset", strconv.Itoa(c.preset),
			"--min-vmaf", strconv.Itoa(target),
		}
		runErr := c.exec.Run(ctx, c.binary, args, func(line string) {
			if update, ok := parser.feed(line); ok && onProgress != nil {
				onProgress(update)
			}
		})

		if runErr == nil {
			size, err := verifyOutput(outputPath)
			if err != nil {
				return ConvertResult{}, err
			}
			crf, vmaf, _ := parser.best()
			return ConvertResult{
				OutputPath:      outputPath,
				OutputSizeBytes: size,
				FinalCRF:        crf,
				FinalVMAF:       vmaf,
				VMAFTargetUsed:  target,
			}, nil
		}

		if ctx.Err() != nil {
			return ConvertResult{}, ctx.Err()
		}
		if parser.searchFailed {
			c.logger.Info("auto-encode found no suitable crf, lowering target",
				logging.String("file", filepath.Base(inputPath)),
				logging.Int("vmaf_target", target-c.fallbackStep))
			continue
		}
		return ConvertResult{}, services.Wrap(services.ErrExternalTool, "abav1", "auto-encode",
			fmt.Sprintf("encode failed for vmaf target %d", target), runErr)
	}

	return ConvertResult{}, services.Wrap(services.ErrNotWorthwhile, "abav1", "auto-encode",
		fmt.Sprintf("no suitable crf down to vmaf floor %d", c.vmafFloor), nil)
}

func verifyOutput(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "abav1", "encode", "output file missing", err)
	}
	if info.Size() < minOutputBytes {
		_ = os.Remove(path)
		return 0, services.Wrap(services.ErrExternalTool, "abav1", "encode",
			fmt.Sprintf("output suspiciously small (%d bytes)", info.Size()), nil)
	}
	return info.Size(), nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if onLine != nil {
				onLine(scanner.Text())
			}
		}
	}
	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
