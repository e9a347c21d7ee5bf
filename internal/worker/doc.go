// Package worker drains the conversion queue one item at a time. The
// encoder is CPU-bound, so items never run concurrently; a file lock
// additionally prevents two processes from draining the same queue.
// Folder items expand into their eligible files at processing time, and
// the history store is saved after every file so progress survives a
// crash or forced stop.
package worker
