// Package catalog holds the reference lists aircraft are validated against:
// units and their callsigns, aircraft types per activity tier, and the
// stations each type can carry a pod on.
package catalog

import (
	"slices"

	"github.com/nellis-lmt/paperload/internal/model"
)

// TDY is the unit for visiting aircraft. It has no fixed callsigns.
const TDY = "TDY"

// Unit is a flying unit and the callsigns it flies under.
type Unit struct {
	Name      string
	Callsigns []string
}

// Units lists the known units in display order.
var Units = []Unit{
	{"16 WPS", []string{"SNAKE", "COBRA", "WOLF", "PYTHON", "WEASEL"}},
	{"17 WPS", []string{"HOSS", "HOOTR"}},
	{"6 WPS", []string{"BONG", "SCAT", "GRAVE", "PAPPY", "SHOCK", "SKULL"}},
	{"64 AGRS", []string{"MIG", "IVAN", "GOMER", "DRAGO"}},
	{"65 AGRS", []string{"DRAGON"}},
	{"66 WPS", []string{"HOG", "CANNON", "GUNN", "RIFLE", "SANDY", "NAIL"}},
	{"422 TES", []string{"VIPER", "VENOM", "STRIKE", "RAPTOR", "BOLT", "BOAR", "EAGLE"}},
	{"433 WPS", []string{"SATAN", "DEMON", "RAMBO", "CONAN"}},
	{"34 WPS", []string{"STING", "ROYAL"}},
	{"26 WPS", []string{"SAVAGE", "MUSTANG"}},
	{"TOP ACES", []string{"ACES"}},
	{TDY, nil},
}

// HighActivityTypes are the types that can carry a pod.
var HighActivityTypes = []string{
	"A-4", "A-10", "AV-8", "B-52H", "F-15", "F-16", "F-18", "F-18EF", "L-159", "M2000D", "TORNADO",
}

// LowActivityTypes extend HighActivityTypes for aircraft flown without a pod.
var LowActivityTypes = []string{
	"B-1B", "B-2", "C-130", "C-17A", "CV-22A", "E-2C", "E-3", "F-22A", "F-35A", "F-35B", "F-35C",
	"F-5", "H-60", "KC-135", "MF-1", "MQ-9", "T-38",
}

var stationsByType = map[string][]string{
	"A-10":    {"1I", "1O", "11I", "11O"},
	"F-15":    {"2I", "2O", "8I", "8O"},
	"F-16":    {"1", "2A", "8A", "9"},
	"F-18EF":  {"1", "2", "10", "11"},
	"L-159":   {"R", "L"},
	"TORNADO": {"R", "L"},
	"B-52H":   {"R", "L"},
}

var defaultStations = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"}

var defaultTypeByUnit = map[string]string{
	"64 AGRS":  "F-16",
	"16 WPS":   "F-16",
	"TOP ACES": "F-16",
	"17 WPS":   "F-15",
	"6 WPS":    "F-35A",
	"65 AGRS":  "F-35A",
	"66 WPS":   "A-10",
	"433 WPS":  "F-22A",
	"26 WPS":   "MQ-9",
}

// 422 TES flies several types; the callsign picks one.
var defaultTypeByCallsign = map[string]string{
	"STRIKE": "F-15",
	"EAGLE":  "F-15",
	"RAPTOR": "F-22A",
	"BOLT":   "F-35A",
	"VIPER":  "F-16",
	"VENOM":  "F-16",
	"BOAR":   "A-10",
}

// UnitNames returns the unit names in display order.
func UnitNames() []string {
	out := make([]string, 0, len(Units))
	for _, u := range Units {
		out = append(out, u.Name)
	}
	return out
}

// KnownUnit reports whether name is a catalog unit, TDY included.
func KnownUnit(name string) bool {
	return slices.ContainsFunc(Units, func(u Unit) bool { return u.Name == name })
}

// Callsigns returns the fixed callsigns of a unit.
func Callsigns(unit string) []string {
	for _, u := range Units {
		if u.Name == unit {
			return u.Callsigns
		}
	}
	return nil
}

// Types returns the aircraft types selectable for an activity tier.
func Types(lowActivity bool) []string {
	if !lowActivity {
		return HighActivityTypes
	}
	return append(slices.Clone(HighActivityTypes), LowActivityTypes...)
}

// Stations returns the pod stations of an aircraft type.
func Stations(aircraftType string) []string {
	if s, ok := stationsByType[aircraftType]; ok {
		return s
	}
	return defaultStations
}

// DefaultType suggests a type from the unit, or from the callsign for 422 TES.
// It returns "" when the suggestion is not available in the activity tier.
func DefaultType(unit, callsign string, lowActivity bool) string {
	t := defaultTypeByUnit[unit]
	if unit == "422 TES" {
		t = defaultTypeByCallsign[model.NormalizeCallsign(callsign)]
	}
	if t == "" || !slices.Contains(Types(lowActivity), t) {
		return ""
	}
	return t
}

// Validate lists the aircraft fields whose values fall outside the catalog.
// Blank values are left to the completeness check.
func Validate(a model.Aircraft) []string {
	var out []string
	if a.Unit != "" && !KnownUnit(a.Unit) {
		out = append(out, model.FieldUnit)
	}
	if a.Type != "" && !slices.Contains(Types(a.IsLowActivity), a.Type) {
		out = append(out, model.FieldType)
	}
	if !a.IsLowActivity && a.Station != "" && slices.Contains(HighActivityTypes, a.Type) &&
		!slices.Contains(Stations(a.Type), a.Station) {
		out = append(out, model.FieldStation)
	}
	return out
}
