package events

import "time"

// Kind identifies a domain event type.
type Kind string

const (
	KindMapLoading         Kind = "map_loading"
	KindMatchingStarted    Kind = "matching_started"
	KindMatchFound         Kind = "match_found"
	KindMapLoaded          Kind = "map_loaded"
	KindRaidStarting       Kind = "raid_starting"
	KindRaidStarted        Kind = "raid_started"
	KindMatchingAborted    Kind = "matching_aborted"
	KindRaidExited         Kind = "raid_exited"
	KindRaidEnded          Kind = "raid_ended"
	KindExitedPostRaid     Kind = "exited_post_raid_menus"
	KindProfileChanged     Kind = "profile_changed"
	KindGroupInviteAccept  Kind = "group_invite_accepted"
	KindGroupMemberLeft    Kind = "group_member_left"
	KindGroupDisbanded     Kind = "group_disbanded"
	KindGroupRaidReady     Kind = "group_raid_ready"
	KindGroupRaidSettings  Kind = "group_raid_settings"
	KindFleaSold           Kind = "flea_sold"
	KindFleaOfferExpired   Kind = "flea_offer_expired"
	KindTaskModified       Kind = "task_modified"
	KindTaskStarted        Kind = "task_started"
	KindTaskFailed         Kind = "task_failed"
	KindTaskFinished       Kind = "task_finished"
	KindMonitorError       Kind = "monitor_error"
	KindInitialLoadDone    Kind = "initial_load_done"
)

// ProfileType distinguishes the two account session modes the game reports.
type ProfileType string

const (
	ProfileRegular ProfileType = "regular"
	ProfilePVE     ProfileType = "pve"
)

// Profile identifies the active player session.
type Profile struct {
	ID   string
	Type ProfileType
}

// RaidType is derived from raid timing, never stored.
type RaidType string

const (
	RaidUnknown RaidType = "unknown"
	RaidPMC     RaidType = "pmc"
	RaidScav    RaidType = "scav"
	RaidPVE     RaidType = "pve"
)

// Raid is the read-only view of a raid session attached to lifecycle events.
type Raid struct {
	RaidID           string
	Map              string
	MapName          string // display name resolved via refdata, may be empty
	Online           bool
	QueueSeconds     float64
	MapLoadSeconds   float64
	Reconnected      bool
	StartingAt       time.Time
	StartedAt        time.Time
	EndedAt          time.Time
	ProfileType      ProfileType
	Type             RaidType
	SpecialEncounter bool
	Screenshots      []string
}

// Event is implemented by every domain event.
type Event interface {
	Kind() Kind
	When() time.Time
}

// Meta carries the fields shared by all events.
type Meta struct {
	Time    time.Time
	Profile Profile
}

// When returns the timestamp of the log record the event was parsed from.
func (m Meta) When() time.Time { return m.Time }

// ProfileOf returns the profile that was active when the event was parsed.
func (m Meta) ProfileOf() Profile { return m.Profile }

// MapLoading fires when the client begins loading toward matchmaking.
type MapLoading struct{ Meta }

func (MapLoading) Kind() Kind { return KindMapLoading }

// MatchingStarted fires when the location finished loading and queueing begins.
type MatchingStarted struct {
	Meta
	MapLoadSeconds float64
}

func (MatchingStarted) Kind() Kind { return KindMatchingStarted }

// MatchFound fires when an online match with a non-zero queue time was found.
type MatchFound struct {
	Meta
	Raid Raid
}

func (MatchFound) Kind() Kind { return KindMatchFound }

// MapLoaded fires once the raid id and map are known.
type MapLoaded struct {
	Meta
	Raid Raid
}

func (MapLoaded) Kind() Kind { return KindMapLoaded }

// RaidStarting fires at the pre-raid countdown.
type RaidStarting struct {
	Meta
	Raid Raid
}

func (RaidStarting) Kind() Kind { return KindRaidStarting }

// RaidStarted fires when the raid actually begins.
type RaidStarted struct {
	Meta
	Raid Raid
}

func (RaidStarted) Kind() Kind { return KindRaidStarted }

// MatchingAborted fires when the player cancels matchmaking.
type MatchingAborted struct {
	Meta
	Raid Raid
}

func (MatchingAborted) Kind() Kind { return KindMatchingAborted }

// RaidExited fires when the player leaves the raid.
type RaidExited struct {
	Meta
	Map    string
	RaidID string
}

func (RaidExited) Kind() Kind { return KindRaidExited }

// RaidEnded fires when a raid in progress is implicitly closed by a profile
// switch back to the menus.
type RaidEnded struct {
	Meta
	Raid Raid
}

func (RaidEnded) Kind() Kind { return KindRaidEnded }

// ExitedPostRaidMenus fires when the client re-initializes after a finished raid.
type ExitedPostRaidMenus struct {
	Meta
	Raid Raid
}

func (ExitedPostRaidMenus) Kind() Kind { return KindExitedPostRaid }

// ProfileChanged fires when a new profile is selected outside a raid.
type ProfileChanged struct{ Meta }

func (ProfileChanged) Kind() Kind { return KindProfileChanged }

// GroupMember is one member of the current group.
type GroupMember struct {
	Nickname string
	Level    int
	Side     string
	Leader   bool
}

// GroupInviteAccepted fires when a player accepts a group invite.
type GroupInviteAccepted struct {
	Meta
	Member GroupMember
}

func (GroupInviteAccepted) Kind() Kind { return KindGroupInviteAccept }

// GroupMemberLeft fires when a member leaves the group.
type GroupMemberLeft struct {
	Meta
	Nickname string
}

func (GroupMemberLeft) Kind() Kind { return KindGroupMemberLeft }

// GroupDisbanded fires when the group is removed.
type GroupDisbanded struct{ Meta }

func (GroupDisbanded) Kind() Kind { return KindGroupDisbanded }

// GroupRaidReady fires per member when the group readies up for a raid.
type GroupRaidReady struct {
	Meta
	Member GroupMember
}

func (GroupRaidReady) Kind() Kind { return KindGroupRaidReady }

// GroupRaidSettings fires when the group leader changes raid settings.
type GroupRaidSettings struct {
	Meta
	Raid string
	Side string
	Time string
}

func (GroupRaidSettings) Kind() Kind { return KindGroupRaidSettings }

// SoldItem describes one item received in a flea-market sale.
type SoldItem struct {
	ID    string
	Count int
}

// FleaSold fires when a flea-market offer sells.
type FleaSold struct {
	Meta
	Buyer     string
	SoldID    string
	SoldCount int
	Received  []SoldItem
}

func (FleaSold) Kind() Kind { return KindFleaSold }

// FleaOfferExpired fires when a flea-market listing expires unsold.
type FleaOfferExpired struct {
	Meta
	ItemID string
	Count  int
}

func (FleaOfferExpired) Kind() Kind { return KindFleaOfferExpired }

// TaskStatus is the numeric quest status code carried by task messages.
type TaskStatus int

const (
	TaskStatusStarted  TaskStatus = 10
	TaskStatusFailed   TaskStatus = 11
	TaskStatusFinished TaskStatus = 12
)

// TaskEvent carries a quest status change. A generic TaskModified is always
// published, followed by the specific started/failed/finished kind.
type TaskEvent struct {
	Meta
	EventKind   Kind
	TaskID      string
	TaskName    string // resolved via refdata, may be empty
	Status      TaskStatus
	Restartable bool
}

func (e TaskEvent) Kind() Kind { return e.EventKind }

// MonitorError is the catch-all error event for parse and I/O failures.
type MonitorError struct {
	Meta
	Context string
	Err     error
}

func (MonitorError) Kind() Kind { return KindMonitorError }

// InitialLoadDone fires once all tailers have completed their first read.
type InitialLoadDone struct{ Meta }

func (InitialLoadDone) Kind() Kind { return KindInitialLoadDone }
