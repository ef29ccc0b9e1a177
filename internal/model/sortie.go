package model

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Unset marks a numeric field the operator left blank.
const Unset = -1

// Field labels reported by the completeness check, in report order.
const (
	FieldMissionID     = "Sortie Mission ID"
	FieldDate          = "Sortie Date"
	FieldRangeStart    = "Range Start Time"
	FieldRangeEnd      = "Range End Time"
	FieldProjectNumber = "Project Number"
	FieldNumberOfCDs   = "Number of CDs"
	FieldStations      = "Recorded Stations"
	FieldUnit          = "Aircraft Unit"
	FieldCallsign      = "Aircraft Callsign"
	FieldType          = "Aircraft Type"
	FieldStation       = "Aircraft Station"
	FieldTailNumber    = "Aircraft Tail Number"
	FieldIFF           = "Aircraft IFF"
	FieldPodSerial     = "Aircraft Pod Serial"
	FieldTrackStatus   = "Aircraft Track Status"
)

// MaxIFF is the largest transponder code an aircraft may carry.
const MaxIFF = 9999

////////////////////////
// CLOCK
////////////////////////

// Clock is a 24-hour HHMM wall time stored as minutes past midnight.
type Clock int

// NoClock is a blank clock field.
const NoClock Clock = Unset

// ParseClock reads a four digit HHMM value. 0000 through 2359 with minutes below 60.
func ParseClock(s string) (Clock, error) {
	s = StripSpaces(s)
	if len(s) != 4 {
		return NoClock, fmt.Errorf("clock %q: want 4 digits", s)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return NoClock, fmt.Errorf("clock %q: not a number", s)
	}
	h, m := n/100, n%100
	if n > 2359 || m > 59 {
		return NoClock, fmt.Errorf("clock %q: out of range", s)
	}
	return Clock(h*60 + m), nil
}

// MustClock is ParseClock for literals; it panics on malformed input.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) Valid() bool { return c >= 0 && c < 24*60 }

func (c Clock) Duration() time.Duration { return time.Duration(c) * time.Minute }

// String renders the clock as HHMM.
func (c Clock) String() string {
	if !c.Valid() {
		return ""
	}
	return fmt.Sprintf("%02d%02d", int(c)/60, int(c)%60)
}

// ClockOf returns the wall time of t.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

////////////////////////
// RECORDED STATIONS
////////////////////////

// StationTokens are the selectable recording stations in encoding order.
var StationTokens = []string{"M", "2", "3", "4", "5", "6", "7", "8", "9", "10"}

// DefaultDash is the mission header dash variant used when none is chosen.
const DefaultDash = 3

// RecordedStations is the station set recorded on a sortie plus the dash variant tag.
type RecordedStations struct {
	Stations []string
	Dash     int
}

// NewRecordedStations orders and validates the station tokens. A dash of zero means DefaultDash.
func NewRecordedStations(stations []string, dash int) (RecordedStations, error) {
	if dash == 0 {
		dash = DefaultDash
	}
	if dash < 1 || dash > 3 {
		return RecordedStations{}, fmt.Errorf("dash variant %d: want 1-3", dash)
	}
	seen := make(map[string]bool, len(stations))
	for _, s := range stations {
		s = strings.ToUpper(StripSpaces(s))
		if !slices.Contains(StationTokens, s) {
			return RecordedStations{}, fmt.Errorf("unknown recording station %q", s)
		}
		seen[s] = true
	}
	out := RecordedStations{Dash: dash}
	for _, tok := range StationTokens {
		if seen[tok] {
			out.Stations = append(out.Stations, tok)
		}
	}
	return out, nil
}

func (r RecordedStations) Empty() bool { return len(r.Stations) == 0 }

// Encode renders "CS,<stations>:(-<dash>)". No stations encodes as "".
func (r RecordedStations) Encode() string {
	if r.Empty() {
		return ""
	}
	dash := r.Dash
	if dash == 0 {
		dash = DefaultDash
	}
	return "CS," + strings.Join(r.Stations, ",") + fmt.Sprintf(":(-%d)", dash)
}

// ParseRecordedStations decodes an Encode result.
func ParseRecordedStations(s string) (RecordedStations, error) {
	if s == "" {
		return RecordedStations{Dash: DefaultDash}, nil
	}
	body, ok := strings.CutPrefix(s, "CS,")
	if !ok {
		return RecordedStations{}, fmt.Errorf("recorded stations %q: missing CS prefix", s)
	}
	list, tag, ok := strings.Cut(body, ":")
	if !ok {
		return RecordedStations{}, fmt.Errorf("recorded stations %q: missing dash tag", s)
	}
	var dash int
	if _, err := fmt.Sscanf(tag, "(-%d)", &dash); err != nil {
		return RecordedStations{}, fmt.Errorf("recorded stations %q: bad dash tag", s)
	}
	return NewRecordedStations(strings.Split(list, ","), dash)
}

////////////////////////
// SORTIE FIELDS
////////////////////////

// SortieFields are the operator-supplied values describing one sortie.
type SortieFields struct {
	MissionTime   string
	Date          time.Time
	RangeStart    Clock
	RangeEnd      Clock
	ProjectNumber string
	NumberOfCDs   int
	Stations      RecordedStations
}

// MissingFields lists the labels of absent or malformed sortie values in report order.
func (f SortieFields) MissingFields() []string {
	var out []string
	if len(StripSpaces(f.MissionTime)) != 4 {
		out = append(out, FieldMissionID)
	}
	if f.Date.IsZero() {
		out = append(out, FieldDate)
	}
	if !f.RangeStart.Valid() {
		out = append(out, FieldRangeStart)
	}
	if !f.RangeEnd.Valid() {
		out = append(out, FieldRangeEnd)
	}
	if NormalizeUpper(f.ProjectNumber) == "" {
		out = append(out, FieldProjectNumber)
	}
	if f.NumberOfCDs < 0 {
		out = append(out, FieldNumberOfCDs)
	}
	if f.Stations.Empty() {
		out = append(out, FieldStations)
	}
	return out
}

// Range resolves the sortie's start and end instants.
func (f SortieFields) Range() (time.Time, time.Time) {
	return ResolveRange(f.Date, f.RangeStart, f.RangeEnd)
}

// Apply writes the sortie values onto m, keeping its number, flags, counts and free text.
func (f SortieFields) Apply(m *Mission) {
	m.MissionID = MissionID(f.Date, f.MissionTime, m.MissionNumber)
	m.Date = DateOf(f.Date)
	m.RangeStart, m.RangeEnd = f.Range()
	m.ProjectNumber = NormalizeUpper(f.ProjectNumber)
	m.NumberOfCDs = f.NumberOfCDs
	m.RecordedStations = f.Stations.Encode()
}

// FieldsFromMission restores the editable sortie values from a stored row.
func FieldsFromMission(m Mission) SortieFields {
	f := SortieFields{
		Date:          DateOf(m.Date),
		RangeStart:    ClockOf(m.RangeStart),
		RangeEnd:      ClockOf(m.RangeEnd),
		ProjectNumber: m.ProjectNumber,
		NumberOfCDs:   m.NumberOfCDs,
	}
	if parts := strings.Split(m.MissionID, "-"); len(parts) == 3 {
		f.MissionTime = parts[1]
	}
	if rs, err := ParseRecordedStations(m.RecordedStations); err == nil {
		f.Stations = rs
	}
	return f
}

////////////////////////
// DATES AND IDS
////////////////////////

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ResolveRange places start and end on date. An end clock numerically before the start rolls to the next day.
func ResolveRange(date time.Time, start, end Clock) (time.Time, time.Time) {
	day := DateOf(date)
	s := day.Add(start.Duration())
	e := day.Add(end.Duration())
	if end < start {
		e = e.AddDate(0, 0, 1)
	}
	return s, e
}

// JulianID is "M", the last digit of the year and the zero-padded day of year.
func JulianID(date time.Time) string {
	return fmt.Sprintf("M%d%03d", date.Year()%10, date.YearDay())
}

// MissionID composes "<julian>-<missionTime>-<missionNumber>".
func MissionID(date time.Time, missionTime string, missionNumber int) string {
	return fmt.Sprintf("%s-%s-%d", JulianID(date), NormalizeUpper(missionTime), missionNumber)
}

// FileDate formats a date the way working and roster file names carry it, e.g. "2-MAY-24".
func FileDate(t time.Time) string {
	return strings.ToUpper(t.Format("2-Jan-06"))
}
