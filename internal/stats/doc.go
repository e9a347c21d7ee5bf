// Package stats derives aggregate views from conversion history
// records. All functions are pure and operate on snapshots returned by
// the history store; they never mutate records or touch disk.
package stats
