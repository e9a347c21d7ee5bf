// Package preflight verifies the environment before a run: required
// binaries on PATH, writable state directories, and enough free disk
// space for encoding output.
package preflight
