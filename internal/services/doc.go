// Package services defines the shared error taxonomy for subsystems that
// call external tools or persist state. Errors are tagged with sentinel
// markers so callers can classify failures without string matching.
package services
