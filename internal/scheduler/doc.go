// Package scheduler provides the deferred task queue that carries lifecycle
// reactions, deferred upgrades, and piecemeal subtree visits.
//
// # How It Works
//
// Enqueuing is always synchronous: Defer and Enqueue only append to the queue.
// Flush runs the tasks that were queued when it started, in FIFO order. Tasks
// queued while a flush is running (a reaction that mutates state, a subtree
// visit that schedules its children) wait for the next flush, so a flush is
// never re-entered and never runs work inline. Drain flushes until the queue
// is empty.
//
// # Failure Handling
//
// A task that returns an error or panics is reported to the error observer
// and the flush continues with the next task. Nothing is retried.
package scheduler
