// Package queue persists the conversion queue in SQLite. Items are
// files or folders awaiting processing, ordered by a user-controlled
// position. Status transitions are guarded: only the worker moves an
// item into running, and terminal items never leave their state.
package queue
