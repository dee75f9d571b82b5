package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/raidwatch/raidwatch/internal/events"
	"github.com/raidwatch/raidwatch/internal/tailer"
)

// RefData resolves reference game data. Lookups are synchronous against
// already-populated in-memory tables; a nil RefData disables resolution.
type RefData interface {
	MapName(id string) string
	MapHasSpecialEncounter(id string) bool
	TaskName(id string) string
	TaskRestartable(id string) bool
}

var (
	sessionModeRe       = regexp.MustCompile(`Session mode: (\w+)`)
	selectProfileRe     = regexp.MustCompile(`SelectProfile ProfileId:([A-Za-z0-9]+)`)
	locationLoadedRe    = regexp.MustCompile(`LocationLoaded:[\d.,]+ real:([\d.,]+)`)
	matchingCompletedRe = regexp.MustCompile(`MatchingCompleted:[\d.,]+ real:([\d.,]+)`)
	gameLocationRe      = regexp.MustCompile(`Location: ([^,\s]+)`)
	raidModeRe          = regexp.MustCompile(`RaidMode: (\w+)`)
	shortIDRe           = regexp.MustCompile(`shortId: ([A-Za-z0-9]{6})`)
)

// Engine is the stateful event reconstruction core. All mutable state lives
// on the instance; construct one per log stream (or per test).
type Engine struct {
	bus *events.Bus
	ref RefData

	profile events.Profile
	raid    *RaidSession
	table   *sessionTable
	group   *groupState
}

// New creates an Engine publishing to bus. ref may be nil.
func New(bus *events.Bus, ref RefData) *Engine {
	e := &Engine{
		bus:     bus,
		ref:     ref,
		profile: events.Profile{Type: events.ProfileRegular},
		table:   newSessionTable(raidIDTableLimit),
		group:   newGroupState(),
	}
	e.raid = &RaidSession{ProfileType: e.profile.Type}
	return e
}

// Profile returns the active profile snapshot.
func (e *Engine) Profile() events.Profile { return e.profile }

// CurrentRaid returns a read-only view of the current raid session.
func (e *Engine) CurrentRaid() events.Raid { return e.raidView() }

// GroupMembers returns the current party roster sorted by nickname.
func (e *Engine) GroupMembers() []events.GroupMember {
	out := make([]events.GroupMember, 0, len(e.group.members))
	for _, m := range e.group.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nickname < out[j].Nickname })
	return out
}

// Run consumes chunks until the channel closes or ctx is cancelled. It is
// the single ordered consumer: chunks from different files interleave in
// arrival order, records within a chunk are processed in file order.
func (e *Engine) Run(ctx context.Context, chunks <-chan tailer.Chunk) {
	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-chunks:
			if !ok {
				return
			}
			e.Consume(chunk)
		}
	}
}

// Consume splits one chunk into records and processes each in order.
func (e *Engine) Consume(chunk tailer.Chunk) {
	for _, rec := range SplitRecords(chunk.Text) {
		e.ProcessRecord(rec, chunk.InitialRead)
	}
}

// ProcessRecord applies the marker chain to one record. initial marks
// historic replay: such records only rebuild profile and session identity
// and never publish live events.
func (e *Engine) ProcessRecord(rec Record, initial bool) {
	body := rec.Body

	// Session mode has top precedence and short-circuits the chain.
	if m := sessionModeRe.FindStringSubmatch(body); m != nil {
		e.applySessionMode(m[1])
		return
	}

	if m := selectProfileRe.FindStringSubmatch(body); m != nil {
		e.applyProfileSelect(rec, m[1], initial)
		return
	}

	if initial {
		return
	}

	payload := rec.Payload
	if payload == nil {
		payload = json.RawMessage("{}")
	}

	// Independent marker checks: a record matching several markers publishes
	// several events. Order is fixed, matches are not mutually exclusive.
	if strings.Contains(body, "GroupMatchInviteAccept") {
		e.guard(rec, "group invite accepted", e.handleGroupInvite(rec, payload))
	}
	if strings.Contains(body, "GroupMatchUserLeave") {
		e.guard(rec, "group member left", e.handleGroupLeave(rec, payload))
	}
	if strings.Contains(body, "GroupMatchWasRemoved") {
		e.handleGroupDisbanded(rec)
	}
	if strings.Contains(body, "GroupMatchRaidReady") {
		e.guard(rec, "group raid ready", e.handleGroupRaidReady(rec, payload))
	}
	if strings.Contains(body, "GroupMatchRaidSettings") {
		e.guard(rec, "group raid settings", e.handleGroupRaidSettings(rec, payload))
	}
	if strings.Contains(body, "Matching with group id") {
		e.bus.Publish(events.MapLoading{Meta: e.meta(rec)})
	}
	if strings.Contains(body, "LocationLoaded") {
		e.guard(rec, "location loaded", e.handleLocationLoaded(rec, body))
	}
	if strings.Contains(body, "MatchingCompleted") {
		e.guard(rec, "matching completed", e.handleMatchingCompleted(body))
	}
	if strings.Contains(body, "NetworkGameCreate") && strings.Contains(body, "profileStatus") {
		e.guard(rec, "network game create", e.handleGameCreate(rec, body))
	}
	if strings.Contains(body, "GameStarting") {
		e.handleGameStarting(rec)
	}
	if strings.Contains(body, "GameStarted") {
		e.handleGameStarted(rec)
	}
	if strings.Contains(body, "matching aborted") || strings.Contains(body, "matching cancelled") {
		e.handleMatchingAborted(rec)
	}
	if strings.Contains(body, "UserMatchOver") {
		e.guard(rec, "raid exited", e.handleMatchOver(rec, payload, body))
	}
	if strings.Contains(body, "Init: pstrGameVersion") {
		e.handleGameInit(rec)
	}
	if strings.Contains(body, "ChatMessageReceived") {
		e.guard(rec, "chat message", e.handleChatMessage(rec, payload))
	}
}

func (e *Engine) applySessionMode(token string) {
	if strings.EqualFold(token, "pve") {
		e.profile.Type = events.ProfilePVE
	} else {
		e.profile.Type = events.ProfileRegular
	}
	e.raid.ProfileType = e.profile.Type
}

func (e *Engine) applyProfileSelect(rec Record, id string, initial bool) {
	e.profile.ID = id
	if initial {
		return
	}
	if e.raid.started() {
		// Returning to profile selection mid-raid means the raid is over
		// even though no explicit end marker was logged.
		e.raid.EndedAt = rec.Timestamp
		e.bus.Publish(events.RaidEnded{Meta: e.meta(rec), Raid: e.raidView()})
		return
	}
	e.bus.Publish(events.ProfileChanged{Meta: e.meta(rec)})
}

func (e *Engine) handleGroupInvite(rec Record, payload json.RawMessage) error {
	var p groupInvitePayload
	if err := decodeJSON(payload, &p); err != nil {
		return err
	}
	member := events.GroupMember{
		Nickname: p.Info.Nickname,
		Level:    p.Info.Level,
		Side:     p.Info.Side,
	}
	e.group.add(member)
	e.bus.Publish(events.GroupInviteAccepted{Meta: e.meta(rec), Member: member})
	return nil
}

func (e *Engine) handleGroupLeave(rec Record, payload json.RawMessage) error {
	var p groupUserLeavePayload
	if err := decodeJSON(payload, &p); err != nil {
		return err
	}
	e.group.remove(p.Nickname)
	e.bus.Publish(events.GroupMemberLeft{Meta: e.meta(rec), Nickname: p.Nickname})
	return nil
}

func (e *Engine) handleGroupDisbanded(rec Record) {
	e.group.clear()
	e.bus.Publish(events.GroupDisbanded{Meta: e.meta(rec)})
}

func (e *Engine) handleGroupRaidReady(rec Record, payload json.RawMessage) error {
	var p groupRaidReadyPayload
	if err := decodeJSON(payload, &p); err != nil {
		return err
	}
	member := events.GroupMember{
		Nickname: p.Profile.Info.Nickname,
		Level:    p.Profile.Info.Level,
		Side:     p.Profile.Info.Side,
		Leader:   p.Profile.IsLeader,
	}
	e.group.add(member)
	e.bus.Publish(events.GroupRaidReady{Meta: e.meta(rec), Member: member})
	return nil
}

func (e *Engine) handleGroupRaidSettings(rec Record, payload json.RawMessage) error {
	var p groupRaidSettingsPayload
	if err := decodeJSON(payload, &p); err != nil {
		return err
	}
	e.bus.Publish(events.GroupRaidSettings{
		Meta: e.meta(rec),
		Raid: p.RaidSettings.Location,
		Side: p.RaidSettings.Side,
		Time: p.RaidSettings.RaidTime,
	})
	return nil
}

func (e *Engine) handleLocationLoaded(rec Record, body string) error {
	m := locationLoadedRe.FindStringSubmatch(body)
	if m == nil {
		return fmt.Errorf("no load duration in %q", body)
	}
	seconds, err := parseSeconds(m[1])
	if err != nil {
		return fmt.Errorf("parse map load time: %w", err)
	}
	// A fresh map load discards any previous unterminated session.
	e.raid = &RaidSession{
		ProfileType:    e.profile.Type,
		MapLoadSeconds: seconds,
	}
	e.bus.Publish(events.MatchingStarted{Meta: e.meta(rec), MapLoadSeconds: seconds})
	return nil
}

func (e *Engine) handleMatchingCompleted(body string) error {
	m := matchingCompletedRe.FindStringSubmatch(body)
	if m == nil {
		return fmt.Errorf("no queue duration in %q", body)
	}
	seconds, err := parseSeconds(m[1])
	if err != nil {
		return fmt.Errorf("parse queue time: %w", err)
	}
	e.raid.QueueSeconds = seconds
	return nil
}

func (e *Engine) handleGameCreate(rec Record, body string) error {
	idMatch := shortIDRe.FindStringSubmatch(body)
	if idMatch == nil {
		return fmt.Errorf("no raid short id in %q", body)
	}
	raidID := idMatch[1]

	mapID := ""
	if m := gameLocationRe.FindStringSubmatch(body); m != nil {
		mapID = m[1]
	}
	online := false
	if m := raidModeRe.FindStringSubmatch(body); m != nil {
		online = strings.EqualFold(m[1], "Online")
	}

	if existing, ok := e.table.lookup(raidID); ok {
		// The game re-announced a raid the player is already in: adopt the
		// stored session instead of starting over.
		existing.Reconnected = true
		e.raid = existing
	} else {
		e.raid.RaidID = raidID
		e.raid.Map = mapID
		e.raid.Online = online
		e.table.register(raidID, e.raid)
	}

	if !e.raid.Reconnected && e.raid.Online && e.raid.QueueSeconds > 0 {
		e.bus.Publish(events.MatchFound{Meta: e.meta(rec), Raid: e.raidView()})
	}
	e.bus.Publish(events.MapLoaded{Meta: e.meta(rec), Raid: e.raidView()})
	return nil
}

func (e *Engine) handleGameStarting(rec Record) {
	if !e.raid.Reconnected {
		e.raid.StartingAt = rec.Timestamp
	}
	e.bus.Publish(events.RaidStarting{Meta: e.meta(rec), Raid: e.raidView()})
}

func (e *Engine) handleGameStarted(rec Record) {
	if !e.raid.Reconnected {
		e.raid.StartedAt = rec.Timestamp
	}
	// The roster was consumed by this raid; the next ready sequence belongs
	// to a new raid and clears it first.
	e.group.stale = true
	e.bus.Publish(events.RaidStarted{Meta: e.meta(rec), Raid: e.raidView()})
}

func (e *Engine) handleMatchingAborted(rec Record) {
	e.bus.Publish(events.MatchingAborted{Meta: e.meta(rec), Raid: e.raidView()})
	e.resetRaid()
}

func (e *Engine) handleMatchOver(rec Record, payload json.RawMessage, body string) error {
	var p matchOverPayload
	if err := decodeJSON(payload, &p); err != nil {
		return err
	}
	if p.ShortID == "" {
		// Typed fallback: older client builds omit the payload field but
		// still print the id in the line text.
		if m := shortIDRe.FindStringSubmatch(body); m != nil {
			p.ShortID = m[1]
		}
	}
	e.bus.Publish(events.RaidExited{
		Meta:   e.meta(rec),
		Map:    p.Location,
		RaidID: p.ShortID,
	})
	e.resetRaid()
	return nil
}

func (e *Engine) handleGameInit(rec Record) {
	if e.raid.EndedAt.IsZero() {
		return
	}
	e.bus.Publish(events.ExitedPostRaidMenus{Meta: e.meta(rec), Raid: e.raidView()})
	e.resetRaid()
}

func (e *Engine) handleChatMessage(rec Record, payload json.RawMessage) error {
	var envelope chatEnvelope
	if err := decodeJSON(payload, &envelope); err != nil {
		return err
	}
	if envelope.Message.Type == messageTypePlayer {
		return nil
	}

	var system systemChatPayload
	if err := decodeJSON(payload, &system); err != nil {
		return err
	}
	msg := system.Message

	switch {
	case msg.TemplateID == fleaSoldTemplateID:
		e.publishFleaSold(rec, msg)
	case msg.TemplateID == fleaExpiredTemplateID:
		itemID, count := "", 0
		if len(msg.Items.Data) > 0 {
			itemID = msg.Items.Data[0].Template
			count = msg.Items.Data[0].Upd.StackObjectsCount
		}
		e.bus.Publish(events.FleaOfferExpired{Meta: e.meta(rec), ItemID: itemID, Count: count})
	case strings.Contains(msg.Text, fleaSoldPhrase):
		// Template id drifted across client builds; fall back to the sale
		// phrase in the message text.
		e.publishFleaSold(rec, msg)
	}

	if msg.Type >= int(events.TaskStatusStarted) && msg.Type <= int(events.TaskStatusFinished) {
		e.publishTaskEvents(rec, msg.TemplateID, events.TaskStatus(msg.Type))
	}
	return nil
}

func (e *Engine) publishFleaSold(rec Record, msg systemChatMessage) {
	received := make([]events.SoldItem, 0, len(msg.Items.Data))
	for _, item := range msg.Items.Data {
		count := item.Upd.StackObjectsCount
		if count == 0 {
			count = 1
		}
		received = append(received, events.SoldItem{ID: item.Template, Count: count})
	}
	e.bus.Publish(events.FleaSold{
		Meta:      e.meta(rec),
		Buyer:     msg.SystemData.BuyerNickname,
		SoldID:    msg.SystemData.SoldItem,
		SoldCount: msg.SystemData.ItemCount,
		Received:  received,
	})
}

func (e *Engine) publishTaskEvents(rec Record, templateID string, status events.TaskStatus) {
	taskID := taskIDFromTemplate(templateID)
	name := ""
	restartable := false
	if e.ref != nil && taskID != "" {
		name = e.ref.TaskName(taskID)
		restartable = e.ref.TaskRestartable(taskID)
	}

	base := events.TaskEvent{
		Meta:        e.meta(rec),
		TaskID:      taskID,
		TaskName:    name,
		Status:      status,
		Restartable: restartable,
	}

	generic := base
	generic.EventKind = events.KindTaskModified
	e.bus.Publish(generic)

	specific := base
	switch status {
	case events.TaskStatusStarted:
		specific.EventKind = events.KindTaskStarted
	case events.TaskStatusFailed:
		specific.EventKind = events.KindTaskFailed
	case events.TaskStatusFinished:
		specific.EventKind = events.KindTaskFinished
	default:
		return
	}
	e.bus.Publish(specific)
}

// taskIDFromTemplate extracts the task id from a quest message template id
// of the form "<taskId> <messageKey> ...".
func taskIDFromTemplate(templateID string) string {
	fields := strings.Fields(templateID)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func (e *Engine) resetRaid() {
	e.raid = &RaidSession{ProfileType: e.profile.Type}
	e.group.stale = true
}

func (e *Engine) meta(rec Record) events.Meta {
	return events.Meta{Time: rec.Timestamp, Profile: e.profile}
}

func (e *Engine) raidView() events.Raid {
	r := e.raid
	view := events.Raid{
		RaidID:         r.RaidID,
		Map:            r.Map,
		Online:         r.Online,
		QueueSeconds:   r.QueueSeconds,
		MapLoadSeconds: r.MapLoadSeconds,
		Reconnected:    r.Reconnected,
		StartingAt:     r.StartingAt,
		StartedAt:      r.StartedAt,
		EndedAt:        r.EndedAt,
		ProfileType:    r.ProfileType,
		Type:           r.Type(),
	}
	if len(r.Screenshots) > 0 {
		view.Screenshots = append([]string(nil), r.Screenshots...)
	}
	if e.ref != nil && r.Map != "" {
		view.MapName = e.ref.MapName(r.Map)
		view.SpecialEncounter = e.ref.MapHasSpecialEncounter(r.Map)
	}
	return view
}

func (e *Engine) guard(rec Record, context string, err error) {
	if err == nil {
		return
	}
	log.Printf("%s: %v", context, err)
	e.bus.Publish(events.MonitorError{
		Meta:    e.meta(rec),
		Context: context,
		Err:     err,
	})
}
