// Package operation owns the policy for which conversion operations a
// queued file may run, based on its cached quality-search state. All
// entry points that change an item's operation go through this package,
// so cache invalidation behaves the same everywhere. Display labels are
// generated from the enum and never parsed back.
package operation
