// Package report turns stored sorties into the two export shapes. Every
// function here is pure: it reads records and returns cell values.
package report

import (
	"slices"
	"strconv"
	"time"

	"github.com/nellis-lmt/paperload/internal/model"
)

// RosterColumns is the fixed header of both roster sheets.
var RosterColumns = []string{
	"MISSION_ID", "SERNO", "AC_TAILNO", "SORTIE_DATE", "AC_STATION", "AC_TYPE",
	"CURR_UNIT", "ASSG_UNIT", "RANGE", "SORTIE_EFFECT", "IS_NON_PODDED",
	"IS_DEBRIEF", "IS_LIVE_MONITOR", "REASON", "REMARKS",
}

// Sortie effect values, ordered so a descending sort lists OTHER first.
const (
	EffectOther        = "OTHER"
	EffectNonEffective = "NON-EFFECTIVE"
	EffectEffective    = "EFFECTIVE"
)

// Blank is written into empty REASON and REMARKS cells; the roster importer rejects truly empty ones.
const Blank = " "

// SheetDateLayout formats SORTIE_DATE and the Half Sheet date cell.
const SheetDateLayout = "2-Jan-06"

// RosterOptions are the fixed values stamped on every row.
type RosterOptions struct {
	Wing  string
	Range string
}

// Roster is the flattened export of every sortie.
type Roster struct {
	Date time.Time
	High [][]string
	Low  [][]string
}

// HighFileName is the high-activity workbook name, e.g. "1-MAY-24.xlsx".
func (r Roster) HighFileName() string {
	return model.FileDate(r.Date) + ".xlsx"
}

// LowFileName is the low-activity workbook name, e.g. "1-MAY-24 LOWACT.xlsx".
func (r Roster) LowFileName() string {
	return model.FileDate(r.Date) + " LOWACT.xlsx"
}

// Effect classifies a track status for the roster.
func Effect(status model.TrackStatus, lowActivity bool) string {
	switch {
	case status == model.TrackCancelled:
		return EffectOther
	case !lowActivity && status.NonEffective():
		return EffectNonEffective
	default:
		return EffectEffective
	}
}

// BuildRoster flattens every aircraft of every sortie into high and low
// activity rows. Each sheet starts with RosterColumns; data rows are sorted
// by effect, descending, keeping sortie order within an effect. The file date
// is the first sortie's date.
func BuildRoster(missions []model.Mission, children func(missionNumber int) []model.Aircraft, opts RosterOptions) Roster {
	var r Roster
	if len(missions) > 0 {
		r.Date = missions[0].Date
	}

	var high, low [][]string
	for _, m := range missions {
		date := m.Date.Format(SheetDateLayout)
		for _, a := range children(m.MissionNumber) {
			row := rosterRow(m, a, date, opts)
			if a.IsLowActivity {
				low = append(low, row)
			} else {
				high = append(high, row)
			}
		}
	}

	sortByEffect(high)
	sortByEffect(low)
	r.High = append([][]string{slices.Clone(RosterColumns)}, high...)
	r.Low = append([][]string{slices.Clone(RosterColumns)}, low...)
	return r
}

func rosterRow(m model.Mission, a model.Aircraft, date string, opts RosterOptions) []string {
	effect := Effect(a.TrackStatus, a.IsLowActivity)
	reason, remarks := Blank, Blank
	if effect != EffectEffective {
		reason = string(a.TrackStatus)
		remarks = string(a.TrackStatus)
	}

	serno, tail, station, nonPodded := "P"+a.PodSerial+"A", a.TailNumber, a.Station, "N"
	if a.IsLowActivity {
		serno, tail, station, nonPodded = "", strconv.Itoa(a.IFF), "", "Y"
	}

	return []string{
		m.MissionID, serno, tail, date, station, a.Type,
		opts.Wing, opts.Wing, opts.Range, effect, nonPodded,
		"Y", "Y", reason, remarks,
	}
}

const effectColumn = 9

func sortByEffect(rows [][]string) {
	slices.SortStableFunc(rows, func(a, b []string) int {
		switch {
		case a[effectColumn] > b[effectColumn]:
			return -1
		case a[effectColumn] < b[effectColumn]:
			return 1
		default:
			return 0
		}
	})
}
