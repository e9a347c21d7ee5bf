// Package hashfind recovers paths from anonymized history identifiers.
// It walks a directory tree, recomputes the identity of every file and
// folder, and reports entries whose identity matches a given prefix.
// This is a manual forensic tool; nothing in the conversion pipeline
// depends on it.
package hashfind
