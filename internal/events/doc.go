// Package events defines the typed domain events reconstructed from the game
// client's logs, plus the synchronous Bus they are published on.
//
// # Event Model
//
// Each event is a concrete struct carrying the Profile that was active at the
// moment its source record was parsed. The engine captures the profile
// eagerly when constructing the event, so a profile switch later in the
// stream never retroactively changes an already-published event.
//
// # Bus Semantics
//
// The Bus fans out synchronously: Publish calls every subscriber for the
// event's kind (and every catch-all subscriber) on the caller's goroutine,
// in registration order. One parsed record may publish several events in a
// fixed precedence order; subscribers must treat event payloads as
// read-only and must not mutate engine state.
package events
