package worker

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"av1ify/internal/history"
	"av1ify/internal/logging"
	"av1ify/internal/pathid"
)

// expandFolder walks a queued folder and returns the files eligible for
// processing, sorted for deterministic order. Files whose history says
// the work is already finished are filtered out here so the run never
// touches them.
func (w *Worker) expandFolder(root string, extensions []string) ([]string, error) {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed["."+strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.logger.Warn("skipping unreadable entry",
				logging.String("path", pathid.AnonymizePath(path)), logging.Error(walkErr))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		if w.alreadyHandled(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("expand folder: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

// alreadyHandled reports whether history says this file needs no work:
// converted already, or analysis concluded conversion is not
// worthwhile.
func (w *Worker) alreadyHandled(path string) bool {
	id, err := pathid.ForFile(path)
	if err != nil {
		return false
	}
	record, ok := w.history.Get(id)
	if !ok {
		return false
	}
	switch record.Status {
	case history.StatusConverted, history.StatusNotWorthwhile:
		return true
	}
	return false
}
