package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/raidwatch/raidwatch/internal/events"
	"github.com/raidwatch/raidwatch/internal/tailer"
)

type capture struct {
	events []events.Event
}

func (c *capture) kinds() []events.Kind {
	out := make([]events.Kind, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.Kind()
	}
	return out
}

func (c *capture) find(k events.Kind) events.Event {
	for _, ev := range c.events {
		if ev.Kind() == k {
			return ev
		}
	}
	return nil
}

func (c *capture) count(k events.Kind) int {
	n := 0
	for _, ev := range c.events {
		if ev.Kind() == k {
			n++
		}
	}
	return n
}

func newTestEngine() (*Engine, *capture) {
	bus := events.NewBus()
	cap := &capture{}
	bus.SubscribeAll(func(ev events.Event) { cap.events = append(cap.events, ev) })
	return New(bus, nil), cap
}

func stamp(sec int) string {
	return fmt.Sprintf("2026-08-30 12:%02d:%02d.000 +00:00", sec/60, sec%60)
}

func line(sec int, body string) string {
	return stamp(sec) + "|" + body + "\n"
}

func feed(e *Engine, text string) {
	e.Consume(tailer.Chunk{Kind: tailer.Application, Text: text})
}

func feedInitial(e *Engine, text string) {
	e.Consume(tailer.Chunk{Kind: tailer.Application, Text: text, InitialRead: true})
}

const gameCreateLine = "application|TRACE-NetworkGameCreate profileStatus: 'Status: Busy, RaidMode: Online, Ip: 192.168.1.10, Port: 17000, Location: bigmap, Sid: s-01, shortId: AB12CD'"

func TestProfileMutatedOnlyByItsMarkers(t *testing.T) {
	e, _ := newTestEngine()

	feed(e, line(0, "application|Session mode: PVE"))
	if e.Profile().Type != events.ProfilePVE {
		t.Fatalf("profile type = %v, want pve", e.Profile().Type)
	}

	feed(e, line(1, "application|SelectProfile ProfileId:abc123def456 AccountId:9999"))
	if e.Profile().ID != "abc123def456" {
		t.Fatalf("profile id = %q", e.Profile().ID)
	}

	// No other marker touches profile identity.
	feed(e, line(2, "application|LocationLoaded:12.3 real:4,5"))
	feed(e, line(3, gameCreateLine))
	feed(e, line(4, "application|GameStarted"))
	if got := e.Profile(); got.ID != "abc123def456" || got.Type != events.ProfilePVE {
		t.Errorf("profile mutated by non-profile markers: %+v", got)
	}
}

func TestMatchingScenarioEndToEnd(t *testing.T) {
	e, cap := newTestEngine()

	feed(e, line(0, "application|LocationLoaded:12.3 real:4,5"))
	feed(e, line(30, "application|MatchingCompleted:0.0 real:30,2")+line(31, gameCreateLine))

	want := []events.Kind{
		events.KindMatchingStarted,
		events.KindMatchFound,
		events.KindMapLoaded,
	}
	got := cap.kinds()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}

	started := cap.find(events.KindMatchingStarted).(events.MatchingStarted)
	if started.MapLoadSeconds != 4.5 {
		t.Errorf("map load seconds = %v, want 4.5", started.MapLoadSeconds)
	}

	loaded := cap.find(events.KindMapLoaded).(events.MapLoaded)
	if loaded.Raid.Map != "bigmap" {
		t.Errorf("map = %q, want bigmap", loaded.Raid.Map)
	}
	if loaded.Raid.RaidID != "AB12CD" {
		t.Errorf("raid id = %q, want AB12CD", loaded.Raid.RaidID)
	}
	if loaded.Raid.QueueSeconds != 30.2 {
		t.Errorf("queue seconds = %v, want 30.2", loaded.Raid.QueueSeconds)
	}
	if !loaded.Raid.Online {
		t.Error("raid should be online")
	}
}

func TestReconnectionReusesSession(t *testing.T) {
	e, cap := newTestEngine()

	// First raid: full start.
	feed(e, line(0, "application|LocationLoaded:0.0 real:3,0"))
	feed(e, line(1, "application|MatchingCompleted:0.0 real:12,0"))
	feed(e, line(2, gameCreateLine))
	feed(e, line(3, "application|GameStarting"))
	feed(e, line(9, "application|GameStarted"))

	firstStarted := cap.find(events.KindRaidStarted).(events.RaidStarted)
	if firstStarted.Raid.Type != events.RaidPMC {
		t.Fatalf("raid type = %v, want pmc (6s countdown)", firstStarted.Raid.Type)
	}
	originalStartedAt := firstStarted.Raid.StartedAt

	// Player drops and the game re-announces the same raid.
	feed(e, line(20, "application|UserMatchOver")+
		"{\n  \"location\": \"bigmap\",\n  \"shortId\": \"AB12CD\"\n}\n")
	cap.events = nil

	feed(e, line(30, gameCreateLine))
	loaded := cap.find(events.KindMapLoaded).(events.MapLoaded)
	if !loaded.Raid.Reconnected {
		t.Fatal("second announcement of the same raid id must flag reconnected")
	}
	if cap.find(events.KindMatchFound) != nil {
		t.Error("MatchFound must not fire on reconnection")
	}

	// Starting/Started markers after a reconnection must not re-stamp.
	feed(e, line(31, "application|GameStarting"))
	feed(e, line(32, "application|GameStarted"))
	restarted := cap.find(events.KindRaidStarted).(events.RaidStarted)
	if !restarted.Raid.StartedAt.Equal(originalStartedAt) {
		t.Errorf("StartedAt re-stamped on reconnect: %v, want %v",
			restarted.Raid.StartedAt, originalStartedAt)
	}
}

func TestInitialReplayOnlyRebuildsIdentity(t *testing.T) {
	e, cap := newTestEngine()

	replay := line(0, "application|Session mode: regular") +
		line(1, "application|SelectProfile ProfileId:replayid99 AccountId:1") +
		line(2, "application|LocationLoaded:0.0 real:4,5") +
		line(3, gameCreateLine) +
		line(4, "application|GameStarted") +
		line(5, "notifications|ChatMessageReceived") // marker without payload

	feedInitial(e, replay)

	if len(cap.events) != 0 {
		t.Fatalf("initial replay published events: %v", cap.kinds())
	}
	if e.Profile().ID != "replayid99" {
		t.Errorf("profile id not rebuilt from replay: %q", e.Profile().ID)
	}
	if e.Profile().Type != events.ProfileRegular {
		t.Errorf("profile type not rebuilt from replay: %v", e.Profile().Type)
	}
}

func TestProfileSelectDuringRaidEndsIt(t *testing.T) {
	e, cap := newTestEngine()

	feed(e, line(0, "application|LocationLoaded:0.0 real:2,0"))
	feed(e, line(1, gameCreateLine))
	feed(e, line(2, "application|GameStarting"))
	feed(e, line(3, "application|GameStarted"))
	cap.events = nil

	feed(e, line(40, "application|SelectProfile ProfileId:other123 AccountId:1"))
	ended, ok := cap.find(events.KindRaidEnded).(events.RaidEnded)
	if !ok {
		t.Fatalf("expected RaidEnded, got %v", cap.kinds())
	}
	if ended.Raid.EndedAt.IsZero() {
		t.Error("RaidEnded without EndedAt stamp")
	}
	if cap.find(events.KindProfileChanged) != nil {
		t.Error("ProfileChanged must not fire when the select ends a raid")
	}

	// Post-raid menu exit resets the session.
	cap.events = nil
	feed(e, line(50, "application|Init: pstrGameVersion 0.16.1.3.35392"))
	if cap.find(events.KindExitedPostRaid) == nil {
		t.Fatalf("expected ExitedPostRaidMenus, got %v", cap.kinds())
	}
	if raid := e.CurrentRaid(); raid.RaidID != "" || !raid.EndedAt.IsZero() {
		t.Errorf("session not reset after post-raid menus: %+v", raid)
	}
}

func TestProfileSelectOutsideRaidEmitsProfileChanged(t *testing.T) {
	e, cap := newTestEngine()
	feed(e, line(0, "application|SelectProfile ProfileId:fresh12 AccountId:1"))
	if cap.find(events.KindProfileChanged) == nil {
		t.Fatalf("expected ProfileChanged, got %v", cap.kinds())
	}
}

func TestMatchingAbortedResetsSession(t *testing.T) {
	e, cap := newTestEngine()

	feed(e, line(0, "application|LocationLoaded:0.0 real:7,5"))
	feed(e, line(5, "application|matching aborted"))

	aborted, ok := cap.find(events.KindMatchingAborted).(events.MatchingAborted)
	if !ok {
		t.Fatalf("expected MatchingAborted, got %v", cap.kinds())
	}
	if aborted.Raid.MapLoadSeconds != 7.5 {
		t.Errorf("aborted raid view lost map load time: %v", aborted.Raid.MapLoadSeconds)
	}
	if raid := e.CurrentRaid(); raid.MapLoadSeconds != 0 {
		t.Errorf("session not reset after abort: %+v", raid)
	}
}

func chatLine(sec int, payload string) string {
	return line(sec, "notifications|ChatMessageReceived") + payload
}

func TestFleaSoldByTemplateID(t *testing.T) {
	e, cap := newTestEngine()

	payload := "{\n" +
		"  \"message\": {\n" +
		"    \"type\": 4,\n" +
		"    \"templateId\": \"" + fleaSoldTemplateID + "\",\n" +
		"    \"systemData\": {\"buyerNickname\": \"Trader-Joe\", \"soldItem\": \"item-tpl-1\", \"itemCount\": 3},\n" +
		"    \"items\": {\"data\": [{\"_tpl\": \"roubles\", \"upd\": {\"StackObjectsCount\": 42000}}]}\n" +
		"  }\n" +
		"}\n"
	feed(e, chatLine(0, payload))

	sold, ok := cap.find(events.KindFleaSold).(events.FleaSold)
	if !ok {
		t.Fatalf("expected FleaSold, got %v", cap.kinds())
	}
	if sold.Buyer != "Trader-Joe" || sold.SoldID != "item-tpl-1" || sold.SoldCount != 3 {
		t.Errorf("sale fields = %+v", sold)
	}
	if len(sold.Received) != 1 || sold.Received[0].ID != "roubles" || sold.Received[0].Count != 42000 {
		t.Errorf("received items = %+v", sold.Received)
	}
}

func TestFleaSoldPhraseFallback(t *testing.T) {
	e, cap := newTestEngine()

	// Unrecognized template id, but the message text carries the sale phrase.
	payload := "{\n" +
		"  \"message\": {\n" +
		"    \"type\": 4,\n" +
		"    \"templateId\": \"ffffffffffffffffffffffff 9\",\n" +
		"    \"text\": \"Your offer Salewa was bought by SomeScav\",\n" +
		"    \"systemData\": {\"buyerNickname\": \"SomeScav\", \"soldItem\": \"salewa-tpl\", \"itemCount\": 1}\n" +
		"  }\n" +
		"}\n"
	feed(e, chatLine(0, payload))

	if cap.find(events.KindFleaSold) == nil {
		t.Fatalf("fallback phrase match should emit FleaSold, got %v", cap.kinds())
	}
}

func TestFleaOfferExpired(t *testing.T) {
	e, cap := newTestEngine()

	payload := "{\n" +
		"  \"message\": {\n" +
		"    \"type\": 4,\n" +
		"    \"templateId\": \"" + fleaExpiredTemplateID + "\",\n" +
		"    \"items\": {\"data\": [{\"_tpl\": \"salewa-tpl\", \"upd\": {\"StackObjectsCount\": 2}}]}\n" +
		"  }\n" +
		"}\n"
	feed(e, chatLine(0, payload))

	expired, ok := cap.find(events.KindFleaOfferExpired).(events.FleaOfferExpired)
	if !ok {
		t.Fatalf("expected FleaOfferExpired, got %v", cap.kinds())
	}
	if expired.ItemID != "salewa-tpl" || expired.Count != 2 {
		t.Errorf("expired fields = %+v", expired)
	}
}

func TestPlayerChatIgnored(t *testing.T) {
	e, cap := newTestEngine()
	payload := "{\n  \"message\": {\"type\": 1, \"text\": \"hey, was bought by me\"}\n}\n"
	feed(e, chatLine(0, payload))
	if len(cap.events) != 0 {
		t.Errorf("player messages must be ignored, got %v", cap.kinds())
	}
}

func TestTaskStatusEvents(t *testing.T) {
	tests := []struct {
		status int
		want   events.Kind
	}{
		{10, events.KindTaskStarted},
		{11, events.KindTaskFailed},
		{12, events.KindTaskFinished},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			e, cap := newTestEngine()
			payload := fmt.Sprintf("{\n  \"message\": {\"type\": %d, \"templateId\": \"task-id-007 successMessageText\"}\n}\n", tt.status)
			feed(e, chatLine(0, payload))

			if cap.count(events.KindTaskModified) != 1 {
				t.Fatalf("expected one TaskModified, got %v", cap.kinds())
			}
			specific, ok := cap.find(tt.want).(events.TaskEvent)
			if !ok {
				t.Fatalf("expected %v, got %v", tt.want, cap.kinds())
			}
			if specific.TaskID != "task-id-007" {
				t.Errorf("task id = %q", specific.TaskID)
			}
		})
	}
}

func TestMalformedPayloadContained(t *testing.T) {
	e, cap := newTestEngine()

	bad := line(0, "notifications|GroupMatchInviteAccept") +
		"{\n  \"Info\": 5\n}\n"
	feed(e, bad)

	if cap.find(events.KindMonitorError) == nil {
		t.Fatalf("expected MonitorError, got %v", cap.kinds())
	}

	// Engine keeps going after the bad record.
	cap.events = nil
	feed(e, line(1, "application|LocationLoaded:0.0 real:1,0"))
	if cap.find(events.KindMatchingStarted) == nil {
		t.Errorf("engine stopped after malformed record: %v", cap.kinds())
	}
}

func TestGroupLifecycle(t *testing.T) {
	e, cap := newTestEngine()

	invite := line(0, "notifications|GroupMatchInviteAccept") +
		"{\n  \"Info\": {\"Nickname\": \"mate-one\", \"Side\": \"Usec\", \"Level\": 42}\n}\n"
	feed(e, invite)
	if got := e.GroupMembers(); len(got) != 1 || got[0].Nickname != "mate-one" {
		t.Fatalf("members after invite = %+v", got)
	}

	ready := line(1, "notifications|GroupMatchRaidReady") +
		"{\n  \"profile\": {\"isLeader\": true, \"Info\": {\"Nickname\": \"mate-two\", \"Side\": \"Bear\", \"Level\": 18}}\n}\n"
	feed(e, ready)
	readyEv, ok := cap.find(events.KindGroupRaidReady).(events.GroupRaidReady)
	if !ok {
		t.Fatalf("expected GroupRaidReady, got %v", cap.kinds())
	}
	if !readyEv.Member.Leader {
		t.Error("leader flag lost")
	}

	leave := line(2, "notifications|GroupMatchUserLeave") +
		"{\n  \"Nickname\": \"mate-one\"\n}\n"
	feed(e, leave)
	if got := e.GroupMembers(); len(got) != 1 || got[0].Nickname != "mate-two" {
		t.Fatalf("members after leave = %+v", got)
	}

	feed(e, line(3, "notifications|GroupMatchWasRemoved"))
	if got := e.GroupMembers(); len(got) != 0 {
		t.Fatalf("members after disband = %+v", got)
	}
	if cap.find(events.KindGroupDisbanded) == nil {
		t.Errorf("expected GroupDisbanded, got %v", cap.kinds())
	}
}

func TestEventsCarryProfileSnapshot(t *testing.T) {
	e, cap := newTestEngine()

	feed(e, line(0, "application|SelectProfile ProfileId:firstpid AccountId:1"))
	feed(e, line(1, "application|LocationLoaded:0.0 real:1,0"))
	feed(e, line(2, "application|SelectProfile ProfileId:secondpid AccountId:1"))

	started := cap.find(events.KindMatchingStarted).(events.MatchingStarted)
	if started.Profile.ID != "firstpid" {
		t.Errorf("event carries profile %q, want the one active when parsed", started.Profile.ID)
	}
}

func TestRecordTimestampOnEvents(t *testing.T) {
	e, cap := newTestEngine()
	feed(e, line(90, "application|LocationLoaded:0.0 real:1,0"))

	started := cap.find(events.KindMatchingStarted).(events.MatchingStarted)
	want := time.Date(2026, 8, 30, 12, 1, 30, 0, time.UTC)
	if !started.When().Equal(want) {
		t.Errorf("event time = %v, want %v", started.When(), want)
	}
}
