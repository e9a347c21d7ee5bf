package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	minPreset = 0
	maxPreset = 13
	minVMAF   = 1
	maxVMAF   = 100
)

var validOutputModes = map[string]struct{}{
	"replace":         {},
	"suffix":          {},
	"separate_folder": {},
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must not be empty")
	}

	if c.Encoder.Preset < minPreset || c.Encoder.Preset > maxPreset {
		return fmt.Errorf("encoder.preset must be between %d and %d, got %d", minPreset, maxPreset, c.Encoder.Preset)
	}
	if c.Encoder.VMAFTarget < minVMAF || c.Encoder.VMAFTarget > maxVMAF {
		return fmt.Errorf("encoder.vmaf_target must be between %d and %d, got %d", minVMAF, maxVMAF, c.Encoder.VMAFTarget)
	}
	if c.Encoder.VMAFFloor < minVMAF || c.Encoder.VMAFFloor > c.Encoder.VMAFTarget {
		return fmt.Errorf("encoder.vmaf_fallback_floor must be between %d and encoder.vmaf_target (%d), got %d", minVMAF, c.Encoder.VMAFTarget, c.Encoder.VMAFFloor)
	}
	if c.Encoder.VMAFFallbackStep < 1 {
		return fmt.Errorf("encoder.vmaf_fallback_step must be positive, got %d", c.Encoder.VMAFFallbackStep)
	}
	if len(c.Encoder.Extensions) == 0 {
		return errors.New("encoder.extensions must list at least one file extension")
	}
	if c.Encoder.MinFreeSpaceGiB < 0 {
		return fmt.Errorf("encoder.min_free_space_gib must not be negative, got %d", c.Encoder.MinFreeSpaceGiB)
	}

	if _, ok := validOutputModes[c.Output.Mode]; !ok {
		return fmt.Errorf("output.mode must be one of replace, suffix, separate_folder; got %q", c.Output.Mode)
	}
	if c.Output.Mode == "suffix" && strings.TrimSpace(c.Output.Suffix) == "" {
		return errors.New("output.suffix must not be empty when output.mode is suffix")
	}
	if c.Output.Mode == "separate_folder" && strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set when output.mode is separate_folder")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}

	return nil
}
