// Package discovery locates the game's active log session folder and manages
// the lifecycle of one tailer per recognized log kind.
//
// # Session Folders
//
// The game writes each client session into a fresh subfolder of the logs
// root, named with an embedded timestamp (log_2006.01.02_15-04-05_<version>).
// On start the newest folder wins. The logs root is then watched with
// fsnotify: when the game creates a new session folder or a new per-session
// log file mid-run, the monitor reacts by replacing the tailer for that log
// kind. The old tailer is stopped before the new one starts, so at most one
// tailer per kind is ever active.
//
// Trace logs are recognized so their creation is not treated as unknown, but
// they are intentionally never tailed.
//
// # Aggregate Ready Signal
//
// Every tailer owes one initial-read-complete signal. The monitor counts the
// outstanding ones and closes its Ready channel exactly once per run, after
// all tailers present at that moment have finished their first read.
package discovery
