package config

const sampleConfig = `# av1ify configuration
#
# Place this file at ~/.config/av1ify/config.toml or pass --config.

[paths]
# Directory for the conversion history, queue database, and run lock.
state_dir = "~/.local/share/av1ify"
# Directory for log files.
log_dir = "~/.local/share/av1ify/logs"
# Destination root used by the separate_folder output mode.
output_dir = "~/av1ify-output"

[encoder]
# ab-av1 executable (name resolved via PATH, or an absolute path).
binary = "ab-av1"
# SVT-AV1 preset, 0 (slowest) to 13 (fastest).
preset = 6
# VMAF score the quality search aims for.
vmaf_target = 95
# When no CRF reaches the target, retry with the target lowered by this
# step until the floor is hit; below the floor the file is marked not
# worthwhile.
vmaf_fallback_step = 5
vmaf_fallback_floor = 85
# File extensions considered when expanding folders.
extensions = ["mp4", "mkv", "avi", "wmv", "mov", "webm"]
# Refuse to start a conversion when the output volume has less free
# space than this.
min_free_space_gib = 5

[output]
# replace: overwrite the source after a successful encode.
# suffix: write alongside the source with the suffix below.
# separate_folder: mirror the source tree under paths.output_dir.
mode = "suffix"
suffix = "_av1"

[history]
# Record original file paths in the history store. When false, records
# are identified by hash only.
store_paths = false

[logging]
# console or json
format = "console"
# debug, info, warn, or error
level = "info"
`
