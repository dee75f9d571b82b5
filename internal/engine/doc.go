// Package engine reconstructs typed domain events from raw game log text.
//
// # Record Splitting
//
// Chunks arrive as arbitrary byte-aligned slices of a log file. The splitter
// anchors on the date-stamped line prefix the game writes at the start of
// every log message, so one chunk may yield zero or more records and a record
// may span many lines, including an embedded JSON object delimited by a bare
// "{" at line start through a bare "}" at line start.
//
// # Marker Dispatch
//
// Each record's body runs through a chain of independent substring checks in
// a fixed precedence. The underlying format has no single schema: a record
// matching several markers publishes several events, deliberately. Session
// mode and profile selection short-circuit the chain, and records from the
// initial historic replay only rebuild profile and session identity; they
// never publish live events.
//
// Malformed input (failed regex capture, bad JSON) is contained per record:
// a MonitorError event is published and processing continues with the next
// record; session state is left unchanged on failure.
//
// # Ordering
//
// Consume is single-consumer: records within one file are processed in file
// order. Chunks from different log kinds interleave in arrival order with no
// cross-file timestamp ordering; only the replay package merges across files.
package engine
