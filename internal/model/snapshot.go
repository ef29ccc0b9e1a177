package model

import (
	"errors"
	"fmt"
)

const (
	DatasetName   = "PaperLoad_Dataset"
	SchemaVersion = 1
	SortieTable   = "Sortie"
	AircraftTable = "Aircraft"
	RelationName  = "MissionNumber"
)

// Schema describes the two tables and their relation inside a working file.
type Schema struct {
	Name     string        `json:"name"`
	Version  int           `json:"version"`
	Tables   []TableSchema `json:"tables"`
	Relation Relation      `json:"relation"`
}

type TableSchema struct {
	Name    string   `json:"name"`
	Key     string   `json:"key"`
	Columns []string `json:"columns"`
}

// Relation links the parent key column to the child foreign key column.
type Relation struct {
	Name   string `json:"name"`
	Parent string `json:"parent"`
	Child  string `json:"child"`
	Column string `json:"column"`
	Nested bool   `json:"nested"`
}

// DefaultSchema returns the schema every working file is written with.
func DefaultSchema() Schema {
	return Schema{
		Name:    DatasetName,
		Version: SchemaVersion,
		Tables: []TableSchema{
			{
				Name: SortieTable,
				Key:  "missionNumber",
				Columns: []string{
					"missionNumber", "isMissionSubmitted", "missionId", "date",
					"rangeStart", "rangeEnd", "projectNumber", "numberOfCDs",
					"recordedStations", "haaCount", "laaCount", "notes", "auditoriums",
				},
			},
			{
				Name: AircraftTable,
				Key:  "playerNumber",
				Columns: []string{
					"missionNumber", "playerNumber", "isPlayerSubmitted", "isLowActivity",
					"unit", "callsign", "type", "station", "tailNumber", "iff",
					"podSerial", "trackStatus",
				},
			},
		},
		Relation: Relation{
			Name:   RelationName,
			Parent: SortieTable,
			Child:  AircraftTable,
			Column: "missionNumber",
			Nested: true,
		},
	}
}

// Hold is operator state that spans commands: an aircraft taken out of the
// open mission for correction, and whether the sortie values are unlocked.
type Hold struct {
	Editing   *Aircraft `json:"editing,omitempty"`
	Modifying bool      `json:"modifying,omitempty"`
}

// Empty reports whether nothing is held.
func (h Hold) Empty() bool {
	return h.Editing == nil && !h.Modifying
}

// Snapshot is the full working set: both tables in insertion order, the
// operator hold and the schema.
type Snapshot struct {
	Schema   Schema
	Missions []Mission
	Aircraft []Aircraft
	Hold     Hold
}

// NewSnapshot returns an empty snapshot carrying the default schema.
func NewSnapshot() Snapshot {
	return Snapshot{Schema: DefaultSchema()}
}

var errSchema = errors.New("schema mismatch")

// Validate checks the schema name and both tables' key and foreign key integrity.
func (s Snapshot) Validate() error {
	if s.Schema.Name != DatasetName {
		return fmt.Errorf("%w: dataset %q", errSchema, s.Schema.Name)
	}
	if s.Schema.Version > SchemaVersion {
		return fmt.Errorf("%w: version %d is newer than %d", errSchema, s.Schema.Version, SchemaVersion)
	}

	missions := make(map[int]bool, len(s.Missions))
	open := 0
	for _, m := range s.Missions {
		if m.MissionNumber < 1 {
			return fmt.Errorf("sortie with mission number %d", m.MissionNumber)
		}
		if missions[m.MissionNumber] {
			return fmt.Errorf("duplicate mission number %d", m.MissionNumber)
		}
		missions[m.MissionNumber] = true
		if m.Open() {
			open++
		}
	}
	if open > 1 {
		return fmt.Errorf("%d open missions, at most one allowed", open)
	}

	players := make(map[int]bool, len(s.Aircraft))
	for _, a := range s.Aircraft {
		if players[a.PlayerNumber] {
			return fmt.Errorf("duplicate player number %d", a.PlayerNumber)
		}
		players[a.PlayerNumber] = true
		if !missions[a.MissionNumber] {
			return fmt.Errorf("aircraft %d references missing mission %d", a.PlayerNumber, a.MissionNumber)
		}
	}

	if held := s.Hold.Editing; held != nil {
		if players[held.PlayerNumber] {
			return fmt.Errorf("held aircraft %d is also stored", held.PlayerNumber)
		}
		if !missions[held.MissionNumber] {
			return fmt.Errorf("held aircraft %d references missing mission %d", held.PlayerNumber, held.MissionNumber)
		}
	}
	if (s.Hold.Editing != nil || s.Hold.Modifying) && open == 0 {
		return errors.New("hold without an open mission")
	}
	return nil
}
