// Package history persists per-file conversion state keyed by path
// identity. Records survive application runs so analysis and encoding
// work is never repeated: a cached quality-search result lets a later
// convert run skip straight to encoding. The store is a JSON file
// rewritten atomically on every save and loaded tolerantly, so a
// missing or damaged file degrades to an empty store instead of
// blocking startup.
package history
