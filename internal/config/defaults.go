package config

const (
	defaultStateDir         = "~/.local/share/av1ify"
	defaultLogDir           = "~/.local/share/av1ify/logs"
	defaultOutputDir        = "~/av1ify-output"
	defaultEncoderBinary    = "ab-av1"
	defaultEncoderPreset    = 6
	defaultVMAFTarget       = 95
	defaultVMAFFallbackStep = 5
	defaultVMAFFloor        = 85
	defaultMinFreeSpaceGiB  = 5
	defaultOutputMode       = "suffix"
	defaultOutputSuffix     = "_av1"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

func defaultExtensions() []string {
	return []string{"mp4", "mkv", "avi", "wmv", "mov", "webm"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			OutputDir: defaultOutputDir,
		},
		Encoder: Encoder{
			Binary:           defaultEncoderBinary,
			Preset:           defaultEncoderPreset,
			VMAFTarget:       defaultVMAFTarget,
			VMAFFallbackStep: defaultVMAFFallbackStep,
			VMAFFloor:        defaultVMAFFloor,
			Extensions:       defaultExtensions(),
			MinFreeSpaceGiB:  defaultMinFreeSpaceGiB,
		},
		Output: Output{
			Mode:   defaultOutputMode,
			Suffix: defaultOutputSuffix,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
