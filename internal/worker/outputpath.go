package worker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"av1ify/internal/queue"
)

// outputPlan describes where an encode writes and what happens to the
// source afterwards.
type outputPlan struct {
	// encodePath is where ab-av1 writes. For replace mode this is a
	// temp file next to the source.
	encodePath string
	// finalPath is the path the output ends up at after finalize.
	finalPath string
	// removeSource is set for replace mode.
	removeSource bool
}

// planOutput computes the output location for a source file. baseDir is
// the enqueued folder for folder items (empty for single files) and
// anchors the mirrored subtree in separate_folder mode.
func planOutput(source string, mode queue.OutputMode, param, baseDir string) (outputPlan, error) {
	dir := filepath.Dir(source)
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))

	switch mode {
	case queue.OutputReplace:
		final := filepath.Join(dir, stem+".mkv")
		return outputPlan{
			encodePath:   filepath.Join(dir, "."+stem+".av1ify.part.mkv"),
			finalPath:    final,
			removeSource: true,
		}, nil

	case queue.OutputSuffix:
		suffix := strings.TrimSpace(param)
		if suffix == "" {
			return outputPlan{}, fmt.Errorf("suffix mode requires a suffix")
		}
		final := filepath.Join(dir, stem+suffix+".mkv")
		return outputPlan{encodePath: final, finalPath: final}, nil

	case queue.OutputSeparateFolder:
		destRoot := strings.TrimSpace(param)
		if destRoot == "" {
			return outputPlan{}, fmt.Errorf("separate_folder mode requires a destination")
		}
		rel := filepath.Base(source)
		if baseDir != "" {
			if r, err := filepath.Rel(baseDir, source); err == nil && !strings.HasPrefix(r, "..") {
				rel = r
			}
		}
		rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ".mkv"
		final := filepath.Join(destRoot, rel)
		return outputPlan{encodePath: final, finalPath: final}, nil
	}

	return outputPlan{}, fmt.Errorf("unknown output mode %q", mode)
}

// finalize moves a finished encode into place. In replace mode the
// source is deleted and the temp file renamed over its stem; the
// source is only removed after the rename target is in place, so a
// failure never leaves the user without a playable file.
func (p outputPlan) finalize(source string) (string, error) {
	if p.encodePath == p.finalPath {
		return p.finalPath, nil
	}
	if err := os.Rename(p.encodePath, p.finalPath); err != nil {
		_ = os.Remove(p.encodePath)
		return "", fmt.Errorf("move encode into place: %w", err)
	}
	if p.removeSource && source != p.finalPath {
		if err := os.Remove(source); err != nil {
			return "", fmt.Errorf("remove replaced source: %w", err)
		}
	}
	return p.finalPath, nil
}

// discard removes a partial encode after a failure or abort.
func (p outputPlan) discard() {
	_ = os.Remove(p.encodePath)
}
