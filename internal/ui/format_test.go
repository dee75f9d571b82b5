package ui

import (
	"testing"
	"time"

	"github.com/raidwatch/raidwatch/internal/events"
	"github.com/raidwatch/raidwatch/internal/state"
)

func TestRaidPhase(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		raid events.Raid
		want string
	}{
		{"idle", events.Raid{}, "idle"},
		{"matching", events.Raid{Map: "bigmap"}, "matching"},
		{"starting", events.Raid{Map: "bigmap", StartingAt: now}, "starting"},
		{"in raid", events.Raid{Map: "bigmap", StartingAt: now, StartedAt: now}, "in raid"},
		{"finished", events.Raid{Map: "bigmap", StartedAt: now, EndedAt: now}, "finished"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := raidPhase(tt.raid); got != tt.want {
				t.Errorf("raidPhase = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRaidSummary(t *testing.T) {
	now := time.Now()
	raid := events.Raid{
		Map:       "bigmap",
		MapName:   "Customs",
		RaidID:    "AB12CD",
		StartedAt: now,
		Type:      events.RaidPMC,
	}
	if got, want := raidSummary(raid), "Customs (AB12CD) in raid pmc"; got != want {
		t.Errorf("raidSummary = %q, want %q", got, want)
	}

	if got := raidSummary(events.Raid{}); got != "no raid" {
		t.Errorf("empty raid summary = %q", got)
	}

	// Without refdata the internal map id is shown instead.
	if got := raidSummary(events.Raid{Map: "bigmap"}); got != "bigmap matching" {
		t.Errorf("unresolved map summary = %q", got)
	}
}

func TestProfileLabel(t *testing.T) {
	if got := profileLabel(events.Profile{}); got != "no profile" {
		t.Errorf("profileLabel = %q", got)
	}
	p := events.Profile{ID: "abc123", Type: events.ProfilePVE}
	if got := profileLabel(p); got != "abc123 [pve]" {
		t.Errorf("profileLabel = %q", got)
	}
}

func TestFormatFeedEntry(t *testing.T) {
	entry := state.FeedEntry{
		Time: time.Date(2026, 8, 30, 12, 30, 5, 0, time.UTC),
		Kind: events.KindFleaSold,
		Text: "sold to buyer",
	}
	if got, want := formatFeedEntry(entry), "12:30:05  flea sold  sold to buyer"; got != want {
		t.Errorf("formatFeedEntry = %q, want %q", got, want)
	}
}

func TestThemeByNameFallsBackToDark(t *testing.T) {
	if got := ThemeByName("nope").Name; got != "dark" {
		t.Errorf("fallback theme = %q", got)
	}
	if got := ThemeByName("light").Name; got != "light" {
		t.Errorf("theme = %q", got)
	}
}
