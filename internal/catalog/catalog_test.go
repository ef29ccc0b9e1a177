package catalog

import (
	"testing"

	"github.com/nellis-lmt/paperload/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestUnits(t *testing.T) {
	names := UnitNames()
	assert.Len(t, names, 12)
	assert.Equal(t, "16 WPS", names[0])
	assert.Equal(t, TDY, names[len(names)-1])
	assert.True(t, KnownUnit("TOP ACES"))
	assert.False(t, KnownUnit("99 FS"))
	assert.Equal(t, []string{"HOSS", "HOOTR"}, Callsigns("17 WPS"))
	assert.Nil(t, Callsigns(TDY))
}

func TestTypes(t *testing.T) {
	assert.Len(t, Types(false), 11)
	assert.Len(t, Types(true), 28)
	assert.NotContains(t, Types(false), "F-35A")
	assert.Contains(t, Types(true), "F-35A")
	// appending the tier must not alias the shared list
	assert.Len(t, HighActivityTypes, 11)
}

func TestStations(t *testing.T) {
	assert.Equal(t, []string{"1I", "1O", "11I", "11O"}, Stations("A-10"))
	assert.Equal(t, []string{"R", "L"}, Stations("TORNADO"))
	assert.Len(t, Stations("A-4"), 11)
}

func TestDefaultType(t *testing.T) {
	tests := []struct {
		unit, callsign string
		low            bool
		want           string
	}{
		{"16 WPS", "SNAKE", false, "F-16"},
		{"17 WPS", "HOSS", false, "F-15"},
		{"66 WPS", "HOG", false, "A-10"},
		{"6 WPS", "BONG", false, ""},
		{"6 WPS", "BONG", true, "F-35A"},
		{"422 TES", "raptor 1", true, "F-22A"},
		{"422 TES", "BOAR", false, "A-10"},
		{"422 TES", "UNKNOWN", false, ""},
		{TDY, "BONE", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.unit+"/"+tt.callsign, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultType(tt.unit, tt.callsign, tt.low))
		})
	}
}

func TestValidate(t *testing.T) {
	ok := model.Aircraft{Unit: "16 WPS", Type: "F-16", Station: "2A"}
	assert.Empty(t, Validate(ok))

	bad := model.Aircraft{Unit: "99 FS", Type: "F-35A", Station: "2A"}
	assert.Equal(t, []string{model.FieldUnit, model.FieldType}, Validate(bad))

	wrongStation := model.Aircraft{Unit: "17 WPS", Type: "F-15", Station: "1"}
	assert.Equal(t, []string{model.FieldStation}, Validate(wrongStation))

	low := model.Aircraft{IsLowActivity: true, Unit: TDY, Type: "B-1B", Station: model.NotApplicable}
	assert.Empty(t, Validate(low))
}
