package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"av1ify/internal/config"
	"av1ify/internal/history"
	"av1ify/internal/logging"
	"av1ify/internal/media/ffprobe"
	"av1ify/internal/operation"
	"av1ify/internal/pathid"
	"av1ify/internal/queue"
	"av1ify/internal/services"
	"av1ify/internal/services/abav1"
)

// ErrAlreadyRunning is returned when a run starts while one is active.
var ErrAlreadyRunning = errors.New("a run is already active")

// Prober inspects a media file. Satisfied by ffprobe.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

type ffprobeProber struct {
	binary string
}

func (p ffprobeProber) Inspect(ctx context.Context, path string) (ffprobe.Result, error) {
	return ffprobe.Inspect(ctx, p.binary, path)
}

// Option configures the worker.
type Option func(*Worker)

// WithProber injects a custom media prober (primarily for tests).
func WithProber(p Prober) Option {
	return func(w *Worker) {
		if p != nil {
			w.prober = p
		}
	}
}

// Worker processes queue items strictly one at a time.
type Worker struct {
	cfg       *config.Config
	queue     *queue.Store
	history   *history.Store
	analyzer  abav1.Analyzer
	converter abav1.Converter
	session   *Session
	prober    Prober
	logger    *slog.Logger

	// OnProgress, when set, receives encoder progress for display.
	OnProgress func(item *queue.Item, file string, p abav1.Progress)
}

// New constructs a worker.
func New(cfg *config.Config, q *queue.Store, h *history.Store, analyzer abav1.Analyzer, converter abav1.Converter, session *Session, logger *slog.Logger, opts ...Option) *Worker {
	w := &Worker{
		cfg:       cfg,
		queue:     q,
		history:   h,
		analyzer:  analyzer,
		converter: converter,
		session:   session,
		prober:    ffprobeProber{binary: cfg.FFprobeBinary()},
		logger:    logging.NewComponentLogger(logger, "worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Session returns the run state shared with the interactive surface.
func (w *Worker) Session() *Session { return w.session }

// Run drains pending items in queue order until the queue is empty or a
// stop is requested. A file lock rejects concurrent runs from other
// processes; the session rejects them within this one.
func (w *Worker) Run(ctx context.Context) error {
	if !w.session.TryStart() {
		return ErrAlreadyRunning
	}
	defer w.session.Finish()

	lock := flock.New(w.cfg.RunLockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrPersistence, "worker", "run", "acquire run lock", err)
	}
	if !locked {
		return ErrAlreadyRunning
	}
	defer func() { _ = lock.Unlock() }()

	if reset, err := w.queue.ResetInterrupted(ctx); err != nil {
		return err
	} else if reset > 0 {
		w.logger.Warn("requeued items left running by a previous process", logging.Int64("count", reset))
	}

	processed := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if w.session.StopRequested() {
			w.logger.Info("stop requested, halting at item boundary", logging.Int("processed", processed))
			return nil
		}

		item, err := w.queue.NextPending(ctx)
		if err != nil {
			return err
		}
		if item == nil {
			w.logger.Info("queue drained", logging.Int("processed", processed))
			return nil
		}

		if err := w.processItem(ctx, item); err != nil {
			return err
		}
		processed++
	}
}

func (w *Worker) processItem(ctx context.Context, item *queue.Item) error {
	if _, err := w.queue.Transition(ctx, item.ID, queue.StatusRunning, ""); err != nil {
		return err
	}
	item.Status = queue.StatusRunning

	var (
		files   []string
		baseDir string
	)
	if item.IsFolder {
		expanded, err := w.expandFolder(item.SourcePath, w.cfg.Encoder.Extensions)
		if err != nil {
			return w.finishItem(ctx, item, queue.StatusError, err.Error())
		}
		files = expanded
		baseDir = item.SourcePath
		item.FilesTotal = len(files)
		// A requeued folder re-expands from scratch; stale counters
		// from the interrupted pass would double-count.
		item.FilesDone = 0
		if err := w.queue.Update(ctx, item); err != nil {
			return err
		}
		if len(files) == 0 {
			w.logger.Info("folder has no eligible files",
				logging.String("folder", pathid.AnonymizePath(item.SourcePath)))
			return w.finishItem(ctx, item, queue.StatusSkipped, "")
		}
	} else {
		files = []string{item.SourcePath}
	}

	var done, skipped, failed int
	var lastError string
	for i, file := range files {
		outcome, errMsg := w.processFile(ctx, item, file, baseDir)

		// Progress survives crashes only if every file's result hits
		// disk before the next one starts.
		if err := w.history.Save(); err != nil {
			w.logger.Error("history save failed, continuing with in-memory state", logging.Error(err))
		}

		switch outcome {
		case outcomeDone:
			done++
		case outcomeSkipped:
			skipped++
		case outcomeError:
			failed++
			lastError = errMsg
		}

		item.FilesDone++
		if item.IsFolder {
			if err := w.queue.Update(ctx, item); err != nil {
				return err
			}
		}

		if w.session.ForceStopRequested() {
			return w.finishItem(ctx, item, queue.StatusError, "force stopped")
		}
		// A graceful stop lets the current file finish, then returns
		// the folder to pending so a later run picks up the rest.
		// Finished files are filtered out at the next expansion.
		if w.session.StopRequested() && i < len(files)-1 {
			w.logger.Info("stop requested, returning item to pending",
				logging.Int("files_done", item.FilesDone), logging.Int("files_total", len(files)))
			return w.finishItem(ctx, item, queue.StatusPending, "")
		}
	}

	switch {
	case failed > 0 && len(files) == 1:
		return w.finishItem(ctx, item, queue.StatusError, lastError)
	case failed > 0:
		return w.finishItem(ctx, item, queue.StatusError,
			fmt.Sprintf("%d of %d files failed: %s", failed, len(files), lastError))
	case done == 0:
		return w.finishItem(ctx, item, queue.StatusSkipped, "")
	default:
		return w.finishItem(ctx, item, queue.StatusDone, "")
	}
}

func (w *Worker) finishItem(ctx context.Context, item *queue.Item, status queue.Status, errMsg string) error {
	_, err := w.queue.Transition(ctx, item.ID, status, errMsg)
	return err
}

type fileOutcome int

const (
	outcomeDone fileOutcome = iota
	outcomeSkipped
	outcomeError
)

// processFile runs one file through analyze and/or convert per the
// item's operation. History is updated on success and on the
// not-worthwhile outcome; genuine failures leave it untouched.
func (w *Worker) processFile(ctx context.Context, item *queue.Item, file, baseDir string) (fileOutcome, string) {
	display := pathid.AnonymizeFile(file)

	id, err := pathid.ForFile(file)
	if err != nil {
		return outcomeError, fmt.Sprintf("resolve identity: %v", err)
	}
	info, err := os.Stat(file)
	if err != nil {
		return outcomeError, fmt.Sprintf("stat input: %v", err)
	}

	record, haveRecord := w.history.Get(id)
	if !haveRecord {
		record = history.Record{ID: id, Status: history.StatusNotSeen}
	}
	if w.cfg.History.StorePaths {
		record.OriginalPath = file
	} else {
		record.OriginalPath = ""
	}

	// Cancellation for the in-flight external calls. A force stop
	// cancels this context; a graceful stop does not.
	fileCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.session.armCancel(cancel)
	defer w.session.disarmCancel()

	probe, err := w.prober.Inspect(fileCtx, file)
	if err != nil {
		return outcomeError, fmt.Sprintf("probe input: %v", err)
	}
	if probe.IsAV1() {
		w.logger.Info("already av1, skipping", logging.String("file", display))
		record.Status = history.StatusNotWorthwhile
		record.SizeBytes = info.Size()
		record.ModTime = info.ModTime()
		w.applyProbe(&record, probe)
		if err := w.history.Upsert(record); err != nil {
			return outcomeError, err.Error()
		}
		return outcomeSkipped, ""
	}

	// A usable cached search result satisfies the analyze step for every
	// operation. Re-analysis bypasses it here as well as clearing the
	// store, because folder items never go through the per-file
	// invalidation the CLI applies to single files.
	op := item.Operation
	cacheUsable := op != operation.ReanalyzeConvert &&
		record.CanReuseCRF(w.cfg.Encoder.Preset, w.cfg.Encoder.VMAFTarget) &&
		record.Unchanged(info.Size(), info.ModTime())
	needAnalyze := !cacheUsable

	if needAnalyze {
		w.logger.Info("analyzing", logging.String("file", display),
			logging.Int("vmaf_target", w.cfg.Encoder.VMAFTarget))
		result, err := w.analyzer.Analyze(fileCtx, file, w.progressSink(item, display))
		if err != nil {
			if services.IsNotWorthwhile(err) {
				record.Status = history.StatusNotWorthwhile
				record.ClearLayer2()
				record.SizeBytes = info.Size()
				record.ModTime = info.ModTime()
				w.applyProbe(&record, probe)
				if upsertErr := w.history.Upsert(record); upsertErr != nil {
					return outcomeError, upsertErr.Error()
				}
				w.logger.Info("conversion not worthwhile", logging.String("file", display))
				return outcomeSkipped, ""
			}
			return outcomeError, err.Error()
		}

		record.Status = history.StatusAnalyzed
		record.BestCRF = history.IntPtr(result.CRF)
		record.BestVMAFAchieved = history.Float64Ptr(result.VMAFAchieved)
		record.VMAFTargetWhenAnalyzed = result.VMAFTargetUsed
		record.PresetWhenAnalyzed = history.IntPtr(w.cfg.Encoder.Preset)
		if result.PredictedSizePercent > 0 {
			record.PredictedOutputSize = int64(float64(info.Size()) * result.PredictedSizePercent / 100)
			record.PredictedReductionPct = 100 - result.PredictedSizePercent
		}
		record.SizeBytes = info.Size()
		record.ModTime = info.ModTime()
		w.applyProbe(&record, probe)
		if err := w.history.Upsert(record); err != nil {
			return outcomeError, err.Error()
		}
		w.logger.Info("analysis complete", logging.String("file", display),
			logging.Int("crf", result.CRF), logging.Float64("vmaf", result.VMAFAchieved))
	}

	if !op.IncludesConvert() {
		return outcomeDone, ""
	}

	return w.convertFile(fileCtx, item, file, baseDir, display, info.Size(), &record)
}

func (w *Worker) convertFile(ctx context.Context, item *queue.Item, file, baseDir, display string, inputSize int64, record *history.Record) (fileOutcome, string) {
	plan, err := planOutput(file, item.OutputMode, item.OutputParam, baseDir)
	if err != nil {
		return outcomeError, err.Error()
	}

	if w.cfg.Encoder.MinFreeSpaceGiB > 0 {
		if err := w.checkFreeSpace(filepath.Dir(plan.encodePath)); err != nil {
			return outcomeError, err.Error()
		}
	}

	var cachedCRF *int
	if record.HasLayer2() {
		crf := *record.BestCRF
		cachedCRF = &crf
	}

	w.logger.Info("converting", logging.String("file", display),
		logging.Bool("cached_crf", cachedCRF != nil))
	start := time.Now()
	result, err := w.converter.Convert(ctx, file, plan.encodePath, cachedCRF, w.progressSink(item, display))
	if err != nil {
		plan.discard()
		if services.IsNotWorthwhile(err) {
			record.Status = history.StatusNotWorthwhile
			record.ClearLayer2()
			if upsertErr := w.history.Upsert(*record); upsertErr != nil {
				return outcomeError, upsertErr.Error()
			}
			return outcomeSkipped, ""
		}
		return outcomeError, err.Error()
	}

	finalPath, err := plan.finalize(file)
	if err != nil {
		return outcomeError, err.Error()
	}

	record.Status = history.StatusConverted
	if w.cfg.History.StorePaths {
		record.OutputPath = finalPath
	}
	record.OutputSizeBytes = result.OutputSizeBytes
	if inputSize > 0 {
		record.SizeReductionPct = 100 * float64(inputSize-result.OutputSizeBytes) / float64(inputSize)
	}
	// A cached-CRF encode skips the VMAF search, so its output carries
	// neither a target nor a measured score; the quality search already
	// measured both at this CRF.
	finalVMAF := result.FinalVMAF
	targetUsed := result.VMAFTargetUsed
	if cachedCRF != nil {
		if targetUsed == 0 {
			targetUsed = record.VMAFTargetWhenAnalyzed
		}
		if finalVMAF == 0 && record.BestVMAFAchieved != nil {
			finalVMAF = *record.BestVMAFAchieved
		}
	}
	record.FinalCRF = history.IntPtr(result.FinalCRF)
	record.FinalVMAF = history.Float64Ptr(finalVMAF)
	record.FinalVMAFTarget = targetUsed
	record.ConvertedAt = time.Now().UTC()
	record.ProcessingSeconds = time.Since(start).Seconds()
	if !record.HasLayer2() {
		// Auto-encode found its own CRF; keep it for any future re-runs.
		record.BestCRF = history.IntPtr(result.FinalCRF)
		record.BestVMAFAchieved = history.Float64Ptr(result.FinalVMAF)
		record.VMAFTargetWhenAnalyzed = result.VMAFTargetUsed
		record.PresetWhenAnalyzed = history.IntPtr(w.cfg.Encoder.Preset)
	}
	if err := w.history.Upsert(*record); err != nil {
		return outcomeError, err.Error()
	}

	w.logger.Info("conversion complete",
		logging.String("file", display),
		logging.String("output", filepath.Base(finalPath)),
		logging.Float64("reduction_pct", record.SizeReductionPct),
		logging.Duration("elapsed", result.Elapsed))
	return outcomeDone, ""
}

func (w *Worker) applyProbe(record *history.Record, probe ffprobe.Result) {
	width, height := probe.Dimensions()
	record.Media = history.MediaInfo{
		DurationSeconds: probe.DurationSeconds(),
		Width:           width,
		Height:          height,
		SourceCodec:     probe.VideoCodec(),
		BitrateBPS:      probe.BitRate(),
		AudioStreams:    probe.AudioStreamCount(),
	}
}

func (w *Worker) progressSink(item *queue.Item, file string) func(abav1.Progress) {
	if w.OnProgress == nil {
		return nil
	}
	return func(p abav1.Progress) {
		w.OnProgress(item, file, p)
	}
}
