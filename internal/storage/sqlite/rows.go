package sqlitestorage

import (
	"encoding/json"
	"time"

	"github.com/nellis-lmt/paperload/internal/model"
	"gorm.io/datatypes"
)

////////////////////////
// TABLES
////////////////////////

// SchemaInfo is the single-row table carrying the dataset descriptor.
type SchemaInfo struct {
	ID         uint           `gorm:"primaryKey"`
	Name       string         `gorm:"size:64;not null"`
	Version    int            `gorm:"not null"`
	Descriptor datatypes.JSON `gorm:"not null"`
}

func (*SchemaInfo) TableName() string {
	return "schema_info"
}

// Sortie is the parent table. Seq preserves insertion order.
type Sortie struct {
	MissionNumber      int       `gorm:"primaryKey;autoIncrement:false"`
	Seq                int       `gorm:"not null;index"`
	IsMissionSubmitted bool      `gorm:"not null;default:false"`
	MissionID          string    `gorm:"size:32"`
	Date               time.Time `gorm:"type:datetime"`
	RangeStart         time.Time `gorm:"type:datetime"`
	RangeEnd           time.Time `gorm:"type:datetime"`
	ProjectNumber      string    `gorm:"size:32"`
	NumberOfCDs        int
	RecordedStations   string `gorm:"size:64"`
	HAACount           int    `gorm:"column:haa_count"`
	LAACount           int    `gorm:"column:laa_count"`
	Notes              string
	Auditoriums        string

	Aircraft []Aircraft `gorm:"foreignKey:MissionNumber;references:MissionNumber;constraint:OnDelete:CASCADE"`
}

func (*Sortie) TableName() string {
	return "sorties"
}

// Aircraft is the child table.
type Aircraft struct {
	PlayerNumber      int    `gorm:"primaryKey;autoIncrement:false"`
	MissionNumber     int    `gorm:"not null;index"`
	Seq               int    `gorm:"not null;index"`
	IsPlayerSubmitted bool   `gorm:"not null;default:false"`
	IsLowActivity     bool   `gorm:"not null;default:false"`
	Unit              string `gorm:"size:32"`
	Callsign          string `gorm:"size:32"`
	Type              string `gorm:"size:32"`
	Station           string `gorm:"size:16"`
	TailNumber        string `gorm:"size:32"`
	IFF               int    `gorm:"column:iff"`
	PodSerial         string `gorm:"size:16"`
	TrackStatus       string `gorm:"size:8"`
}

func (*Aircraft) TableName() string {
	return "aircraft"
}

// Hold is the single-row table carrying the operator hold. Editing is the
// held aircraft as JSON, or null.
type Hold struct {
	ID        uint `gorm:"primaryKey"`
	Modifying bool `gorm:"not null;default:false"`
	Editing   datatypes.JSON
}

func (*Hold) TableName() string {
	return "hold"
}

// Tables lists the models migrated into every working file.
var Tables = []any{
	&SchemaInfo{},
	&Sortie{},
	&Aircraft{},
	&Hold{},
}

////////////////////////
// CONVERSION
////////////////////////

func schemaToRow(s model.Schema) (SchemaInfo, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return SchemaInfo{}, err
	}
	return SchemaInfo{ID: 1, Name: s.Name, Version: s.Version, Descriptor: datatypes.JSON(data)}, nil
}

func rowToSchema(r SchemaInfo) (model.Schema, error) {
	var s model.Schema
	if err := json.Unmarshal(r.Descriptor, &s); err != nil {
		return model.Schema{}, err
	}
	return s, nil
}

func missionToRow(m model.Mission, seq int) Sortie {
	return Sortie{
		MissionNumber:      m.MissionNumber,
		Seq:                seq,
		IsMissionSubmitted: m.IsMissionSubmitted,
		MissionID:          m.MissionID,
		Date:               m.Date.UTC(),
		RangeStart:         m.RangeStart.UTC(),
		RangeEnd:           m.RangeEnd.UTC(),
		ProjectNumber:      m.ProjectNumber,
		NumberOfCDs:        m.NumberOfCDs,
		RecordedStations:   m.RecordedStations,
		HAACount:           m.HAACount,
		LAACount:           m.LAACount,
		Notes:              m.Notes,
		Auditoriums:        m.Auditoriums,
	}
}

func rowToMission(r Sortie) model.Mission {
	return model.Mission{
		MissionNumber:      r.MissionNumber,
		IsMissionSubmitted: r.IsMissionSubmitted,
		MissionID:          r.MissionID,
		Date:               r.Date.UTC(),
		RangeStart:         r.RangeStart.UTC(),
		RangeEnd:           r.RangeEnd.UTC(),
		ProjectNumber:      r.ProjectNumber,
		NumberOfCDs:        r.NumberOfCDs,
		RecordedStations:   r.RecordedStations,
		HAACount:           r.HAACount,
		LAACount:           r.LAACount,
		Notes:              r.Notes,
		Auditoriums:        r.Auditoriums,
	}
}

func aircraftToRow(a model.Aircraft, seq int) Aircraft {
	return Aircraft{
		PlayerNumber:      a.PlayerNumber,
		MissionNumber:     a.MissionNumber,
		Seq:               seq,
		IsPlayerSubmitted: a.IsPlayerSubmitted,
		IsLowActivity:     a.IsLowActivity,
		Unit:              a.Unit,
		Callsign:          a.Callsign,
		Type:              a.Type,
		Station:           a.Station,
		TailNumber:        a.TailNumber,
		IFF:               a.IFF,
		PodSerial:         a.PodSerial,
		TrackStatus:       string(a.TrackStatus),
	}
}

func rowToAircraft(r Aircraft) model.Aircraft {
	return model.Aircraft{
		MissionNumber:     r.MissionNumber,
		PlayerNumber:      r.PlayerNumber,
		IsPlayerSubmitted: r.IsPlayerSubmitted,
		IsLowActivity:     r.IsLowActivity,
		Unit:              r.Unit,
		Callsign:          r.Callsign,
		Type:              r.Type,
		Station:           r.Station,
		TailNumber:        r.TailNumber,
		IFF:               r.IFF,
		PodSerial:         r.PodSerial,
		TrackStatus:       model.TrackStatus(r.TrackStatus),
	}
}

func holdToRow(h model.Hold) (Hold, error) {
	row := Hold{ID: 1, Modifying: h.Modifying}
	if h.Editing != nil {
		data, err := json.Marshal(h.Editing)
		if err != nil {
			return Hold{}, err
		}
		row.Editing = datatypes.JSON(data)
	}
	return row, nil
}

func rowToHold(r Hold) (model.Hold, error) {
	h := model.Hold{Modifying: r.Modifying}
	if len(r.Editing) > 0 && string(r.Editing) != "null" {
		var a model.Aircraft
		if err := json.Unmarshal(r.Editing, &a); err != nil {
			return model.Hold{}, err
		}
		h.Editing = &a
	}
	return h, nil
}
