package engine

import (
	"time"

	"github.com/raidwatch/raidwatch/internal/events"
)

// pmcCountdownThreshold separates the two raid start signatures: PMC raids
// show a countdown between GameStarting and GameStarted, scav raids begin
// almost immediately. Tuned constant.
const pmcCountdownThreshold = 3 * time.Second

// raidIDTableLimit bounds the reconnection lookup table. A play session's
// working set of recent raid ids is tiny; the table only needs to live long
// enough to recognize the game re-announcing a raid the player is already in.
const raidIDTableLimit = 32

// RaidSession tracks the lifecycle of one raid, keyed by its short id once
// matchmaking completes.
type RaidSession struct {
	RaidID         string
	Map            string
	Online         bool
	QueueSeconds   float64
	MapLoadSeconds float64
	Reconnected    bool
	StartingAt     time.Time
	StartedAt      time.Time
	EndedAt        time.Time
	ProfileType    events.ProfileType
	Screenshots    []string
}

// Type derives the raid type from session fields; it is never stored.
func (r *RaidSession) Type() events.RaidType {
	if r.ProfileType == events.ProfilePVE {
		return events.RaidPVE
	}
	if r.StartedAt.IsZero() {
		return events.RaidUnknown
	}
	if r.StartedAt.Sub(r.StartingAt) > pmcCountdownThreshold {
		return events.RaidPMC
	}
	return events.RaidScav
}

// started reports whether the raid is in progress and not yet ended.
func (r *RaidSession) started() bool {
	return !r.StartedAt.IsZero() && r.EndedAt.IsZero()
}

// sessionTable retains recent sessions by raid id so a repeated
// NetworkGameCreate announcement is recognized as a reconnection. Bounded
// FIFO: oldest ids fall out once the limit is reached.
type sessionTable struct {
	byID  map[string]*RaidSession
	order []string
	limit int
}

func newSessionTable(limit int) *sessionTable {
	return &sessionTable{
		byID:  make(map[string]*RaidSession),
		limit: limit,
	}
}

func (t *sessionTable) lookup(raidID string) (*RaidSession, bool) {
	s, ok := t.byID[raidID]
	return s, ok
}

func (t *sessionTable) register(raidID string, s *RaidSession) {
	if _, exists := t.byID[raidID]; !exists {
		t.order = append(t.order, raidID)
		for len(t.order) > t.limit {
			delete(t.byID, t.order[0])
			t.order = t.order[1:]
		}
	}
	t.byID[raidID] = s
}

// groupState holds the current party roster. The stale flag marks residue
// from a finished raid: the next member update clears the roster first, so a
// new raid's ready sequence is not mixed with the previous raid's members.
type groupState struct {
	members map[string]events.GroupMember
	stale   bool
}

func newGroupState() *groupState {
	return &groupState{members: make(map[string]events.GroupMember)}
}

func (g *groupState) add(m events.GroupMember) {
	if g.stale {
		g.clear()
	}
	g.members[m.Nickname] = m
}

func (g *groupState) remove(nickname string) {
	delete(g.members, nickname)
}

func (g *groupState) clear() {
	g.members = make(map[string]events.GroupMember)
	g.stale = false
}
