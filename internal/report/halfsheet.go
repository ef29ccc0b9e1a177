package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/nellis-lmt/paperload/internal/catalog"
	"github.com/nellis-lmt/paperload/internal/model"
)

// Half Sheet limits.
const (
	RosterLines        = 5
	RosterLineLimit    = 100
	TDYSegments        = 5
	TDYSegmentLimit    = 83
	NonEffectiveRows   = 10
	FieldHalfSheetInit = "Half Sheet Initials"
)

// UnitPriority is the order unit strings are packed into the roster lines.
// TDY segments always come last.
var UnitPriority = []string{
	"64 AGRS", "65 AGRS", "TOP ACES", "16 WPS", "17 WPS", "66 WPS",
	"6 WPS", "433 WPS", "422 TES", "34 WPS", "26 WPS",
}

// HalfSheet is the one-page summary of a single sortie.
type HalfSheet struct {
	MissionID        string
	Date             time.Time
	RangeStart       time.Time
	RangeEnd         time.Time
	ProjectNumber    string
	NumberOfCDs      int
	RecordedStations string

	Lines [RosterLines]string

	HighCount        int
	LowCount         int
	HighCNX          int
	LowCNX           int
	HighNonEffective int

	// NonEffective holds at most NonEffectiveRows high-activity BT/NT aircraft.
	NonEffective []model.Aircraft

	Notes    string
	Initials string
	Warnings []string
}

func (h HalfSheet) HighEffective() int { return h.HighCount - h.HighCNX - h.HighNonEffective }

func (h HalfSheet) LowEffective() int { return h.LowCount - h.LowCNX }

// RangeText renders the range as "HHmm-HHmm".
func (h HalfSheet) RangeText() string {
	return h.RangeStart.Format("1504") + "-" + h.RangeEnd.Format("1504")
}

// FileName is "<missionId>.xlsx".
func (h HalfSheet) FileName() string {
	return h.MissionID + ".xlsx"
}

// NormalizeInitials strips spaces and upper-cases the approver initials.
func NormalizeInitials(s string) string {
	return model.NormalizeUpper(s)
}

// BuildHalfSheet summarizes one sortie. Initials are required.
func BuildHalfSheet(m model.Mission, children []model.Aircraft, initials string) (HalfSheet, error) {
	initials = NormalizeInitials(initials)
	if initials == "" {
		return HalfSheet{}, model.NewValidationError(FieldHalfSheetInit)
	}

	h := HalfSheet{
		MissionID:        m.MissionID,
		Date:             m.Date,
		RangeStart:       m.RangeStart,
		RangeEnd:         m.RangeEnd,
		ProjectNumber:    m.ProjectNumber,
		NumberOfCDs:      m.NumberOfCDs,
		RecordedStations: m.RecordedStations,
		Notes:            m.Notes,
		Initials:         initials,
	}

	for _, a := range children {
		if a.IsLowActivity {
			h.LowCount++
			if a.TrackStatus == model.TrackCancelled {
				h.LowCNX++
			}
			continue
		}
		h.HighCount++
		switch {
		case a.TrackStatus == model.TrackCancelled:
			h.HighCNX++
		case a.TrackStatus.NonEffective():
			if h.HighNonEffective < NonEffectiveRows {
				h.NonEffective = append(h.NonEffective, a)
			}
			h.HighNonEffective++
		}
	}
	if extra := h.HighNonEffective - NonEffectiveRows; extra > 0 {
		h.Warnings = append(h.Warnings, fmt.Sprintf(
			"%d non-effective aircraft do not fit the Half Sheet table, add them to the notes section", extra))
	}

	units, warnings := unitStrings(children)
	h.Warnings = append(h.Warnings, warnings...)

	lines := NewPacker(RosterLines, RosterLineLimit, "")
	for _, u := range units {
		lines.Place(u)
	}
	copy(h.Lines[:], lines.Bins)
	for _, u := range lines.Dropped {
		h.Warnings = append(h.Warnings, fmt.Sprintf(
			"unit callsigns %q do not fit the Half Sheet, add them to the notes section", strings.TrimSpace(u)))
	}
	return h, nil
}

// unitStrings builds the "UNIT: CS1/CS2; " strings in UnitPriority order
// followed by the TDY segments. A callsign is listed once across all non-TDY
// units; TDY keeps its own list. Only TDY overflows into extra segments.
func unitStrings(children []model.Aircraft) ([]string, []string) {
	var warnings []string
	perUnit := make(map[string][]string)
	seen := make(map[string]bool)
	seenTDY := make(map[string]bool)
	tdy := NewPacker(TDYSegments, TDYSegmentLimit, catalog.TDY+": ")

	for _, a := range children {
		switch {
		case a.Unit == catalog.TDY:
			if seenTDY[a.Callsign] {
				continue
			}
			seenTDY[a.Callsign] = true
			if !tdy.Place(a.Callsign + "/") {
				warnings = append(warnings, fmt.Sprintf(
					"TDY callsign %s does not fit the Half Sheet, add it to the notes section", a.Callsign))
			}
		case catalog.KnownUnit(a.Unit):
			if seen[a.Callsign] {
				continue
			}
			seen[a.Callsign] = true
			perUnit[a.Unit] = append(perUnit[a.Unit], a.Callsign)
		}
	}

	var out []string
	for _, unit := range UnitPriority {
		if cs := perUnit[unit]; len(cs) > 0 {
			out = append(out, unit+": "+strings.Join(cs, "/")+"; ")
		}
	}
	for _, seg := range tdy.Used() {
		out = append(out, strings.TrimSuffix(seg, "/")+"; ")
	}
	return out, warnings
}
