// Package ffprobe wraps the ffprobe executable to inspect media files.
// Probe results feed history records (source codec, resolution,
// duration) and the folder expansion filter, which skips files that are
// already AV1.
package ffprobe
