// Package app wires together the raidwatch components.
//
// Run loads configuration, constructs the event bus, engine, and optional
// stats and webhook sinks, starts the log discovery monitor, and then blocks
// in either the terminal UI or a headless wait. It is the only package that
// knows about every other internal package.
package app
