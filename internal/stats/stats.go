// Package stats persists raid history to a local SQLite database.
//
// The store subscribes to raid lifecycle events on the bus and records one
// row per raid outcome. Persistence is an optional collaborator: opening the
// database can be skipped entirely (empty path in config) and write failures
// degrade to log messages, never blocking event dispatch.
package stats

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/raidwatch/raidwatch/internal/events"
)

const schema = `
CREATE TABLE IF NOT EXISTS raids (
    id            TEXT PRIMARY KEY,
    raid_id       TEXT NOT NULL,
    map           TEXT,
    map_name      TEXT,
    profile_id    TEXT,
    profile_type  TEXT NOT NULL,
    raid_type     TEXT NOT NULL,
    online        INTEGER NOT NULL,
    reconnected   INTEGER NOT NULL,
    queue_seconds REAL,
    load_seconds  REAL,
    started_at    INTEGER,
    ended_at      INTEGER,
    outcome       TEXT NOT NULL,
    recorded_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_raids_started ON raids(started_at);
CREATE INDEX IF NOT EXISTS idx_raids_map ON raids(map, started_at);
`

// Store is the SQLite raid-history store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Attach subscribes the store to raid outcomes on the bus.
func (s *Store) Attach(bus *events.Bus) {
	bus.Subscribe(events.KindRaidStarted, func(ev events.Event) {
		started := ev.(events.RaidStarted)
		s.record(started.Profile, started.Raid, "started")
	})
	bus.Subscribe(events.KindRaidEnded, func(ev events.Event) {
		ended := ev.(events.RaidEnded)
		s.record(ended.Profile, ended.Raid, "ended")
	})
	bus.Subscribe(events.KindRaidExited, func(ev events.Event) {
		exited := ev.(events.RaidExited)
		s.record(exited.Profile, events.Raid{RaidID: exited.RaidID, Map: exited.Map}, "exited")
	})
}

func (s *Store) record(profile events.Profile, raid events.Raid, outcome string) {
	if err := s.Record(profile, raid, outcome); err != nil {
		log.Printf("stats: record raid %s: %v", raid.RaidID, err)
	}
}

// Record inserts one raid outcome row.
func (s *Store) Record(profile events.Profile, raid events.Raid, outcome string) error {
	_, err := s.db.Exec(`
		INSERT INTO raids (
			id, raid_id, map, map_name, profile_id, profile_type, raid_type,
			online, reconnected, queue_seconds, load_seconds,
			started_at, ended_at, outcome, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		raid.RaidID,
		raid.Map,
		raid.MapName,
		profile.ID,
		string(profile.Type),
		string(raid.Type),
		boolInt(raid.Online),
		boolInt(raid.Reconnected),
		raid.QueueSeconds,
		raid.MapLoadSeconds,
		unixOrNil(raid.StartedAt),
		unixOrNil(raid.EndedAt),
		outcome,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert raid: %w", err)
	}
	return nil
}

// RaidRow is one persisted raid outcome.
type RaidRow struct {
	RaidID      string
	Map         string
	RaidType    string
	Outcome     string
	Reconnected bool
}

// Recent returns the latest n raid rows, newest first.
func (s *Store) Recent(n int) ([]RaidRow, error) {
	rows, err := s.db.Query(`
		SELECT raid_id, COALESCE(map, ''), raid_type, outcome, reconnected
		FROM raids ORDER BY recorded_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query raids: %w", err)
	}
	defer rows.Close()

	var out []RaidRow
	for rows.Next() {
		var r RaidRow
		var reconnected int
		if err := rows.Scan(&r.RaidID, &r.Map, &r.RaidType, &r.Outcome, &reconnected); err != nil {
			return nil, fmt.Errorf("scan raid row: %w", err)
		}
		r.Reconnected = reconnected != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unixOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Unix()
}
