package app

import (
	"fmt"

	"github.com/raidwatch/raidwatch/internal/engine"
	"github.com/raidwatch/raidwatch/internal/events"
	"github.com/raidwatch/raidwatch/internal/state"
)

// attachStore mirrors published events into the UI state store. Session
// snapshots are read from the engine, which is safe because bus handlers run
// synchronously on the engine's dispatch goroutine.
func attachStore(bus *events.Bus, store *state.Store, eng *engine.Engine) {
	bus.SubscribeAll(func(ev events.Event) {
		switch ev.Kind() {
		case events.KindMonitorError:
			if me, ok := ev.(events.MonitorError); ok {
				store.SetError(me.Err)
			}
		case events.KindInitialLoadDone:
			store.SetReady()
		default:
			store.SetSession(eng.Profile(), eng.CurrentRaid(), eng.GroupMembers())
		}
		store.Append(state.FeedEntry{Time: ev.When(), Kind: ev.Kind(), Text: describe(ev)})
	})
}

// describe renders the detail column of a feed entry. Events with nothing
// beyond their kind return an empty string.
func describe(ev events.Event) string {
	switch e := ev.(type) {
	case events.MatchingStarted:
		return fmt.Sprintf("map loaded in %.1fs", e.MapLoadSeconds)
	case events.MatchFound:
		return fmt.Sprintf("%s after %.1fs in queue", mapLabel(e.Raid), e.Raid.QueueSeconds)
	case events.MapLoaded:
		return fmt.Sprintf("%s raid %s", mapLabel(e.Raid), e.Raid.RaidID)
	case events.RaidStarting:
		return mapLabel(e.Raid)
	case events.RaidStarted:
		return fmt.Sprintf("%s as %s", mapLabel(e.Raid), e.Raid.Type)
	case events.RaidExited:
		return fmt.Sprintf("%s raid %s", e.Map, e.RaidID)
	case events.RaidEnded:
		return mapLabel(e.Raid)
	case events.GroupInviteAccepted:
		return memberLabel(e.Member)
	case events.GroupMemberLeft:
		return e.Nickname
	case events.GroupRaidReady:
		return memberLabel(e.Member)
	case events.GroupRaidSettings:
		return fmt.Sprintf("%s %s %s", e.Raid, e.Side, e.Time)
	case events.FleaSold:
		return fmt.Sprintf("%s x%d to %s", e.SoldID, e.SoldCount, e.Buyer)
	case events.FleaOfferExpired:
		return fmt.Sprintf("%s x%d", e.ItemID, e.Count)
	case events.TaskEvent:
		if e.TaskName != "" {
			return e.TaskName
		}
		return e.TaskID
	case events.MonitorError:
		return fmt.Sprintf("%s: %v", e.Context, e.Err)
	default:
		return ""
	}
}

func mapLabel(raid events.Raid) string {
	if raid.MapName != "" {
		return raid.MapName
	}
	return raid.Map
}

func memberLabel(m events.GroupMember) string {
	label := m.Nickname
	if m.Level > 0 {
		label = fmt.Sprintf("%s (lvl %d %s)", m.Nickname, m.Level, m.Side)
	}
	if m.Leader {
		label += " leader"
	}
	return label
}
