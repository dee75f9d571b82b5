// Package ui renders the raidwatch terminal interface.
//
// The UI is a Bubble Tea program with three regions: a header showing the
// active profile and raid phase, a scrollable feed of recent events, and a
// command bar. It never talks to the engine directly; a ticker polls the
// state store for snapshots, so the render path and the log-processing path
// only share the store's mutex.
package ui
