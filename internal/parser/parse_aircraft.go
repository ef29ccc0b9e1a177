package parser

import (
	"fmt"

	"github.com/nellis-lmt/paperload/internal/model"
)

// AircraftArgs is the argument count of an aircraft block.
const AircraftArgs = 9

// ParseAircraft parses the aircraft block:
//
//	0: lowActivity (true/false)  1: unit  2: callsign  3: type  4: station
//	5: tailNumber  6: iff  7: podSerial  8: trackStatus
//
// Mission and player numbers are assigned by the workflow. The result is
// normalized; a blank IFF stays out of range for the completeness check.
func (p *Parser) ParseAircraft(data []string) (model.Aircraft, error) {
	var a model.Aircraft
	if err := expectArgs("aircraft", data, AircraftArgs); err != nil {
		return a, err
	}
	clean(data)

	low, err := parseFlag(data[0])
	if err != nil {
		return a, fmt.Errorf("invalid low activity flag %q", data[0])
	}
	a.IsLowActivity = low

	a.Unit = data[1]
	a.Callsign = data[2]
	a.Type = data[3]
	a.Station = data[4]
	a.TailNumber = data[5]
	a.PodSerial = data[7]
	a.TrackStatus = model.TrackStatus(data[8])

	a.IFF = model.Unset
	if data[6] != "" {
		iff, err := parseIntFromFloat(data[6])
		if err != nil {
			p.logger.Debug("Rejected aircraft args", "fields", []string{model.FieldIFF})
			return a, model.NewValidationError(model.FieldIFF)
		}
		a.IFF = iff
	}

	a = a.Normalize()
	p.logger.Debug("Parsed aircraft",
		"unit", a.Unit,
		"callsign", a.Callsign,
		"lowActivity", a.IsLowActivity)
	return a, nil
}
