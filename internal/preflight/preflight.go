package preflight

import (
	"fmt"
	"os/exec"
	"strings"

	"av1ify/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckBinary("ab-av1", cfg.Encoder.Binary),
		CheckBinary("ffprobe", cfg.FFprobeBinary()),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if cfg.Output.Mode == "separate_folder" {
		results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
		results = append(results, CheckFreeSpace("Output free space", cfg.Paths.OutputDir, cfg.Encoder.MinFreeSpaceGiB))
	}

	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}

// CheckBinary verifies an executable resolves via PATH (or is an
// absolute path that exists).
func CheckBinary(name, binary string) Result {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return Result{Name: name, Passed: false, Detail: "no binary configured"}
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return Result{Name: name, Passed: false, Detail: fmt.Sprintf("%s not found in PATH", binary)}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}
