package model

import (
	"strings"
	"time"
	"unicode"
)

// NotApplicable fills the tail number, station and pod serial of low-activity aircraft.
const NotApplicable = "N/A"

////////////////////////
// TRACK STATUS
////////////////////////

// TrackStatus is the recording outcome of one aircraft on a sortie.
type TrackStatus string

const (
	TrackGood      TrackStatus = "GT"
	TrackBad       TrackStatus = "BT"
	TrackNone      TrackStatus = "NT"
	TrackCancelled TrackStatus = "CNX"
)

// TrackStatuses lists the statuses available to an activity tier, in display order.
func TrackStatuses(lowActivity bool) []TrackStatus {
	if lowActivity {
		return []TrackStatus{TrackGood, TrackCancelled}
	}
	return []TrackStatus{TrackGood, TrackBad, TrackNone, TrackCancelled}
}

// Valid reports whether the status may be assigned to an aircraft of the given tier.
func (t TrackStatus) Valid(lowActivity bool) bool {
	for _, s := range TrackStatuses(lowActivity) {
		if s == t {
			return true
		}
	}
	return false
}

// NonEffective reports whether the status counts against a high-activity aircraft.
func (t TrackStatus) NonEffective() bool {
	return t == TrackBad || t == TrackNone
}

////////////////////////
// RECORDS
////////////////////////

// Aircraft is one participating aircraft ("player") of a mission.
type Aircraft struct {
	MissionNumber     int         `json:"missionNumber"`
	PlayerNumber      int         `json:"playerNumber"`
	IsPlayerSubmitted bool        `json:"isPlayerSubmitted"`
	IsLowActivity     bool        `json:"isLowActivity"`
	Unit              string      `json:"unit"`
	Callsign          string      `json:"callsign"`
	Type              string      `json:"type"`
	Station           string      `json:"station"`
	TailNumber        string      `json:"tailNumber"`
	IFF               int         `json:"iff"`
	PodSerial         string      `json:"podSerial"`
	TrackStatus       TrackStatus `json:"trackStatus"`
}

// Podded reports whether the aircraft carries a pod from the serial inventory.
func (a Aircraft) Podded() bool {
	return !a.IsLowActivity && a.PodSerial != "" && a.PodSerial != NotApplicable
}

// Normalize applies the stored form: letters-only callsign, upper-cased tail
// number, space-free pod serial, and N/A placeholders for low activity.
func (a Aircraft) Normalize() Aircraft {
	a.Callsign = NormalizeCallsign(a.Callsign)
	a.TailNumber = NormalizeUpper(a.TailNumber)
	a.PodSerial = StripSpaces(a.PodSerial)
	a.TrackStatus = TrackStatus(NormalizeUpper(string(a.TrackStatus)))
	if a.IsLowActivity {
		a.TailNumber = NotApplicable
		a.Station = NotApplicable
		a.PodSerial = NotApplicable
	}
	return a
}

// MissingFields lists the labels of absent or malformed aircraft values in report order.
func (a Aircraft) MissingFields() []string {
	var out []string
	if strings.TrimSpace(a.Unit) == "" {
		out = append(out, FieldUnit)
	}
	if NormalizeCallsign(a.Callsign) == "" {
		out = append(out, FieldCallsign)
	}
	if strings.TrimSpace(a.Type) == "" {
		out = append(out, FieldType)
	}
	if strings.TrimSpace(a.Station) == "" {
		out = append(out, FieldStation)
	}
	if NormalizeUpper(a.TailNumber) == "" {
		out = append(out, FieldTailNumber)
	}
	if a.IFF < 0 || a.IFF > MaxIFF {
		out = append(out, FieldIFF)
	}
	if StripSpaces(a.PodSerial) == "" {
		out = append(out, FieldPodSerial)
	}
	if !a.TrackStatus.Valid(a.IsLowActivity) {
		out = append(out, FieldTrackStatus)
	}
	return out
}

// Mission is one sortie: the parent row of its aircraft.
type Mission struct {
	MissionNumber      int       `json:"missionNumber"`
	IsMissionSubmitted bool      `json:"isMissionSubmitted"`
	MissionID          string    `json:"missionId"`
	Date               time.Time `json:"date"`
	RangeStart         time.Time `json:"rangeStart"`
	RangeEnd           time.Time `json:"rangeEnd"`
	ProjectNumber      string    `json:"projectNumber"`
	NumberOfCDs        int       `json:"numberOfCDs"`
	RecordedStations   string    `json:"recordedStations"`
	HAACount           int       `json:"haaCount"`
	LAACount           int       `json:"laaCount"`
	Notes              string    `json:"notes"`
	Auditoriums        string    `json:"auditoriums"`
}

// Open reports whether the mission still accepts aircraft.
func (m Mission) Open() bool {
	return !m.IsMissionSubmitted
}

////////////////////////
// NORMALIZATION
////////////////////////

// NormalizeCallsign keeps letters only and upper-cases them.
func NormalizeCallsign(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// StripSpaces removes every space from s.
func StripSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// NormalizeUpper removes spaces and upper-cases s. Used for tail and project numbers.
func NormalizeUpper(s string) string {
	return strings.ToUpper(StripSpaces(s))
}
