package state

import (
	"sync"
	"time"

	"github.com/raidwatch/raidwatch/internal/events"
)

// feedLimit bounds the recent-event feed kept for the UI.
const feedLimit = 200

// FeedEntry is one rendered line of the event feed.
type FeedEntry struct {
	Time time.Time
	Kind events.Kind
	Text string
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Profile     events.Profile
	Raid        events.Raid
	Group       []events.GroupMember
	Feed        []FeedEntry
	Ready       bool // initial log replay finished
	LastError   error
	LastUpdated time.Time
}

// Store coordinates concurrent updates to the snapshot. The engine's
// dispatch goroutine writes, the UI reads.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// SetSession replaces the profile, raid, and group views.
func (s *Store) SetSession(profile events.Profile, raid events.Raid, group []events.GroupMember) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Profile = profile
	s.snapshot.Raid = raid
	s.snapshot.Group = cloneGroup(group)
	s.snapshot.LastUpdated = time.Now()
}

// Append adds one entry to the event feed, trimming the oldest past the limit.
func (s *Store) Append(entry FeedEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Feed = append(s.snapshot.Feed, entry)
	if over := len(s.snapshot.Feed) - feedLimit; over > 0 {
		s.snapshot.Feed = append([]FeedEntry(nil), s.snapshot.Feed[over:]...)
	}
	s.snapshot.LastUpdated = time.Now()
}

// SetReady marks the initial log replay as finished.
func (s *Store) SetReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Ready = true
	s.snapshot.LastUpdated = time.Now()
}

// SetError records the most recent monitoring error for visibility. Previous
// data is kept.
func (s *Store) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LastError = err
	s.snapshot.LastUpdated = time.Now()
}

// Snapshot returns an independent copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Feed = append([]FeedEntry(nil), s.snapshot.Feed...)
	snap.Group = cloneGroup(s.snapshot.Group)
	return snap
}

func cloneGroup(members []events.GroupMember) []events.GroupMember {
	if len(members) == 0 {
		return nil
	}
	dup := make([]events.GroupMember, len(members))
	copy(dup, members)
	return dup
}
