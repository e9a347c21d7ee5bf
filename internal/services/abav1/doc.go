// Package abav1 wraps the ab-av1 binary for quality analysis and
// AV1 encoding. Analysis runs a CRF search against a VMAF target,
// stepping the target down when no suitable CRF exists until a
// configured floor declares the file not worthwhile. Encoding reuses a
// cached CRF when one is available and falls back to a full
// auto-encode otherwise.
package abav1
