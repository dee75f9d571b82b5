package ui

import (
	"fmt"
	"strings"

	"github.com/raidwatch/raidwatch/internal/events"
	"github.com/raidwatch/raidwatch/internal/state"
)

// raidPhase describes where the current raid session is in its lifecycle.
func raidPhase(raid events.Raid) string {
	switch {
	case !raid.EndedAt.IsZero():
		return "finished"
	case !raid.StartedAt.IsZero():
		return "in raid"
	case !raid.StartingAt.IsZero():
		return "starting"
	case raid.Map != "":
		return "matching"
	default:
		return "idle"
	}
}

// raidSummary renders the raid portion of the header, e.g.
// "Customs (AB12CD) in raid pmc".
func raidSummary(raid events.Raid) string {
	phase := raidPhase(raid)
	if phase == "idle" {
		return "no raid"
	}

	name := raid.MapName
	if name == "" {
		name = raid.Map
	}
	var b strings.Builder
	b.WriteString(name)
	if raid.RaidID != "" {
		fmt.Fprintf(&b, " (%s)", raid.RaidID)
	}
	b.WriteString(" " + phase)
	if raid.Type != events.RaidUnknown {
		b.WriteString(" " + string(raid.Type))
	}
	if raid.Reconnected {
		b.WriteString(" reconnected")
	}
	return b.String()
}

// profileLabel renders the active profile for the header.
func profileLabel(p events.Profile) string {
	if p.ID == "" {
		return "no profile"
	}
	label := p.ID
	if p.Type == events.ProfilePVE {
		label += " [pve]"
	}
	return label
}

// formatFeedEntry renders one feed line for the event viewport.
func formatFeedEntry(e state.FeedEntry) string {
	line := e.Time.Format("15:04:05") + "  " + feedKindLabel(e.Kind)
	if e.Text != "" {
		line += "  " + e.Text
	}
	return line
}

// feedKindLabel turns a wire-style kind into a human label.
func feedKindLabel(kind events.Kind) string {
	return strings.ReplaceAll(string(kind), "_", " ")
}
