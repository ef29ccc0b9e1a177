package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/nellis-lmt/paperload/internal/model"
)

// SortieArgs is the argument count of a sortie block.
const SortieArgs = 8

// DateLayout is the operator date format.
const DateLayout = "2006-01-02"

// ParseSortie parses the sortie block:
//
//	0: missionTime  1: date (YYYY-MM-DD)  2: range start (HHMM)  3: range end (HHMM)
//	4: projectNumber  5: numberOfCDs  6: stations ("M,2,3")  7: dash variant (1-3)
//
// Blank values stay unset for the completeness check. Values that are present
// but malformed are reported together as a *model.ValidationError.
func (p *Parser) ParseSortie(data []string) (model.SortieFields, error) {
	var f model.SortieFields
	if err := expectArgs("sortie", data, SortieArgs); err != nil {
		return f, err
	}
	clean(data)

	var bad []string

	f.MissionTime = data[0]

	if data[1] != "" {
		d, err := time.Parse(DateLayout, data[1])
		if err != nil {
			bad = append(bad, model.FieldDate)
		} else {
			f.Date = d
		}
	}

	f.RangeStart = model.NoClock
	if data[2] != "" {
		c, err := model.ParseClock(data[2])
		if err != nil {
			bad = append(bad, model.FieldRangeStart)
		} else {
			f.RangeStart = c
		}
	}

	f.RangeEnd = model.NoClock
	if data[3] != "" {
		c, err := model.ParseClock(data[3])
		if err != nil {
			bad = append(bad, model.FieldRangeEnd)
		} else {
			f.RangeEnd = c
		}
	}

	f.ProjectNumber = data[4]

	f.NumberOfCDs = model.Unset
	if data[5] != "" {
		n, err := parseIntFromFloat(data[5])
		if err != nil || n < 0 {
			bad = append(bad, model.FieldNumberOfCDs)
		} else {
			f.NumberOfCDs = n
		}
	}

	if data[6] != "" {
		dash := 0
		if data[7] != "" {
			n, err := strconv.Atoi(data[7])
			if err != nil {
				n = -1
			}
			dash = n
		}
		rs, err := model.NewRecordedStations(splitList(data[6]), dash)
		if err != nil {
			bad = append(bad, model.FieldStations)
		} else {
			f.Stations = rs
		}
	}

	if err := model.NewValidationError(bad...); err != nil {
		p.logger.Debug("Rejected sortie args", "fields", bad)
		return f, err
	}

	p.logger.Debug("Parsed sortie fields",
		"missionTime", f.MissionTime,
		"date", data[1],
		"stations", f.Stations.Encode())
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}
