package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"av1ify/internal/queue"
)

func formatSize(bytes int64) string {
	if bytes <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(bytes))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatPercent(pct float64) string {
	if pct == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", pct)
}

func itemKind(item *queue.Item) string {
	if item.IsFolder {
		return "folder"
	}
	return "file"
}

func itemProgress(item *queue.Item) string {
	if !item.IsFolder || item.FilesTotal == 0 {
		return "-"
	}
	return strconv.Itoa(item.FilesDone) + "/" + strconv.Itoa(item.FilesTotal)
}

func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func parseItemID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid queue item id %q", arg)
	}
	return id, nil
}
