//go:build unix

package worker

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"av1ify/internal/logging"
	"av1ify/internal/preflight"
)

// checkFreeSpace refuses to start an encode when the output volume is
// nearly full. Probe failures are not fatal; the encode itself will
// surface real I/O errors.
func (w *Worker) checkFreeSpace(dir string) error {
	free, err := preflight.FreeBytes(dir)
	if err != nil {
		w.logger.Warn("free space probe failed", logging.Error(err))
		return nil
	}
	required := uint64(w.cfg.Encoder.MinFreeSpaceGiB) * humanize.GiByte
	if free < required {
		return fmt.Errorf("insufficient free space: %s available, %s required",
			humanize.IBytes(free), humanize.IBytes(required))
	}
	return nil
}
