package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(ErrExternalTool, "abav1", "crf-search", "search failed", cause)

	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("marker lost: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost: %v", err)
	}
	want := "external tool error: abav1: crf-search: search failed: exit status 1"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "history", "save", "", errors.New("disk full"))
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient marker: %v", err)
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(ErrConfiguration, "config", "", "output_dir missing", nil)
	want := "configuration error: config: output_dir missing"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestWrapEmptyDetail(t *testing.T) {
	err := Wrap(ErrPersistence, "", "", "", nil)
	if err.Error() != "persistence error: service failure" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestIsNotWorthwhile(t *testing.T) {
	err := Wrap(ErrNotWorthwhile, "abav1", "crf-search", "floor reached", nil)
	if !IsNotWorthwhile(err) {
		t.Fatalf("expected not-worthwhile classification: %v", err)
	}
	if IsNotWorthwhile(errors.New("other")) {
		t.Fatal("unrelated error misclassified")
	}
}
