package queue

import (
	"strings"
	"time"

	"av1ify/internal/operation"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// InterruptedMessage is recorded on items found running at startup,
// meaning a previous run stopped without finishing them.
const InterruptedMessage = "interrupted by shutdown"

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusDone,
	StatusSkipped,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Running is only entered by the worker; terminal states are never
// left automatically.
var allowedTransitions = map[Status][]Status{
	StatusPending: {StatusRunning},
	StatusRunning: {StatusDone, StatusSkipped, StatusError, StatusPending},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status ends the item's lifecycle.
func (s Status) Terminal() bool {
	switch s {
	case StatusDone, StatusSkipped, StatusError:
		return true
	}
	return false
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// OutputMode selects where converted files are written.
type OutputMode string

const (
	OutputReplace        OutputMode = "replace"
	OutputSuffix         OutputMode = "suffix"
	OutputSeparateFolder OutputMode = "separate_folder"
)

// ParseOutputMode converts a string into a known OutputMode.
func ParseOutputMode(value string) (OutputMode, bool) {
	normalized := OutputMode(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case OutputReplace, OutputSuffix, OutputSeparateFolder:
		return normalized, true
	}
	return "", false
}

// Item represents a queue entry persisted in SQLite. OutputParam holds
// the suffix string or the destination folder, depending on OutputMode.
type Item struct {
	ID           int64
	UUID         string
	SourcePath   string
	IsFolder     bool
	Operation    operation.Choice
	OutputMode   OutputMode
	OutputParam  string
	Status       Status
	Position     int
	ErrorMessage string
	FilesDone    int
	FilesTotal   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
