package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExternalTool marks failures reported by ab-av1 or ffprobe.
	ErrExternalTool = errors.New("external tool error")
	// ErrInput marks problems with the source file or its path.
	ErrInput = errors.New("input error")
	// ErrNotWorthwhile marks files where no encode reaches the quality
	// floor. It is a terminal outcome, not a failure.
	ErrNotWorthwhile = errors.New("conversion not worthwhile")
	// ErrPersistence marks failures writing history or queue state.
	ErrPersistence = errors.New("persistence error")
	// ErrConfiguration marks invalid or missing configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks failures that may succeed on retry.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while
// tagging it with the provided marker for later classification. The
// marker should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsNotWorthwhile reports whether err represents the not-worthwhile
// outcome rather than a genuine failure.
func IsNotWorthwhile(err error) bool {
	return errors.Is(err, ErrNotWorthwhile)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
