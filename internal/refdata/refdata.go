// Package refdata loads the read-only reference tables the engine consults:
// map id to display name (plus special-encounter flag) and task id to display
// name (plus restartable flag). Tables are populated once at startup from
// JSON files on disk; lookups are synchronous and never touch the network.
package refdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Map is one playable location.
type Map struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	SpecialEncounter bool   `json:"specialEncounter"`
}

// Task is one quest definition.
type Task struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Restartable bool   `json:"restartable"`
}

// Tables holds the in-memory lookup tables.
type Tables struct {
	maps  map[string]Map
	tasks map[string]Task
}

// Load reads maps.json and tasks.json from dir. Missing files yield empty
// tables rather than errors: reference data is an enrichment, not a
// prerequisite for monitoring.
func Load(dir string) (*Tables, error) {
	t := &Tables{
		maps:  make(map[string]Map),
		tasks: make(map[string]Task),
	}
	if dir == "" {
		return t, nil
	}

	var maps []Map
	if err := loadJSON(filepath.Join(dir, "maps.json"), &maps); err != nil {
		return nil, err
	}
	for _, m := range maps {
		t.maps[m.ID] = m
	}

	var tasks []Task
	if err := loadJSON(filepath.Join(dir, "tasks.json"), &tasks); err != nil {
		return nil, err
	}
	for _, task := range tasks {
		t.tasks[task.ID] = task
	}
	return t, nil
}

func loadJSON(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// MapName returns the display name for a map id, or empty when unknown.
func (t *Tables) MapName(id string) string {
	return t.maps[id].Name
}

// MapHasSpecialEncounter reports whether a map can host a special encounter.
func (t *Tables) MapHasSpecialEncounter(id string) bool {
	return t.maps[id].SpecialEncounter
}

// TaskName returns the display name for a task id, or empty when unknown.
func (t *Tables) TaskName(id string) string {
	return t.tasks[id].Name
}

// TaskRestartable reports whether a failed task can be restarted.
func (t *Tables) TaskRestartable(id string) bool {
	return t.tasks[id].Restartable
}

// MapCount returns the number of loaded maps.
func (t *Tables) MapCount() int { return len(t.maps) }

// TaskCount returns the number of loaded tasks.
func (t *Tables) TaskCount() int { return len(t.tasks) }
