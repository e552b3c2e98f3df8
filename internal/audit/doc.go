// Package audit carries structured audit events from the session Manager to
// pluggable sinks through an asynchronous, bounded dispatcher.
//
// # Architecture boundaries
//
// This package owns the event model, the sink contracts, and dispatch
// buffering. Event naming and emission policy live in authcore; sinks are
// supplied by the embedding application.
//
// # What this package must NOT do
//
//   - Block Manager operations when the buffer is full and DropIfFull is set.
//   - Import authcore or any sibling package.
package audit
