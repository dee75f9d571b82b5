// Package state holds the shared snapshot the UI renders from.
//
// The engine's dispatch goroutine is the single writer; the UI reads a
// cloned snapshot on every tick, so subscribers never observe a partially
// updated view and never hold the lock while rendering.
package state
