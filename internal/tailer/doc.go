// Package tailer incrementally surfaces appended bytes of one log file as
// text chunks, polling for growth on a fixed interval.
//
// # Behavior
//
// A Tailer never holds the file open across polls: each cycle it stats the
// file, and only when it has grown does it open, seek to the last-read
// offset, read to exhaustion in small fixed-size reads, and close. The game
// process keeps writing to the same file concurrently, so opens are
// read-only and short-lived.
//
// The first offset depends on the log kind: the application log is read from
// byte zero so session history can be replayed into the engine, while
// notification and trace logs attach at the current end of file so stale
// notifications are never reported as new.
//
// Chunks produced by a read that began at offset zero are flagged as the
// initial read; the engine suppresses live side effects for those. After the
// first successful poll (even one that read nothing) the Ready channel is
// closed exactly once so consumers know historic replay is finished.
//
// # Failure Semantics
//
// I/O errors during a poll are reported on the Errors channel and the loop
// simply tries again next interval; transient errors never stop monitoring.
// Stop is cooperative: the loop observes it after its current sleep.
package tailer
