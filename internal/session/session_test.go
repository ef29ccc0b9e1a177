package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nellis-lmt/paperload/internal/gate"
	"github.com/nellis-lmt/paperload/internal/inventory"
	"github.com/nellis-lmt/paperload/internal/model"
	"github.com/nellis-lmt/paperload/internal/storage/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var may1 = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func fields(t *testing.T) model.SortieFields {
	t.Helper()
	rs, err := model.NewRecordedStations([]string{"M"}, 0)
	require.NoError(t, err)
	return model.SortieFields{
		MissionTime: "0800", Date: may1,
		RangeStart: model.MustClock("0800"), RangeEnd: model.MustClock("1000"),
		ProjectNumber: "P1", NumberOfCDs: 1, Stations: rs,
	}
}

func aircraft(mission, player, iff int, pod string) model.Aircraft {
	return model.Aircraft{
		MissionNumber: mission, PlayerNumber: player, Unit: "16 WPS", Callsign: "SNAKE",
		Type: "F-16", Station: "1", TailNumber: "T1", IFF: iff, PodSerial: pod,
		TrackStatus: model.TrackGood,
	}
}

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := Open(document.New(document.Config{}), gate.DefaultPolicy, inventory.NewPool(nil), t.TempDir(), may1)
	require.NoError(t, err)
	return s
}

func TestOpenNamesWorkingFile(t *testing.T) {
	s := newSession(t)
	assert.Equal(t, "1-MAY-24.json", filepath.Base(s.Store.Path()))
	assert.Equal(t, s.Store.Path(), s.WorkingPath(may1))
	assert.Equal(t, 1, s.MissionNumber())
	assert.Equal(t, 1, s.PlayerNumber())
	_, pinned := s.PinnedDate(0)
	assert.False(t, pinned)
}

func TestDeriveKeepsOpenMissionAndPool(t *testing.T) {
	s := newSession(t)
	_, err := s.Store.AddOrGetOpenMission(1, fields(t))
	require.NoError(t, err)
	require.NoError(t, s.Store.AddAircraft(aircraft(1, 4, 1200, "50001")))

	s.Derive()
	assert.Equal(t, 1, s.MissionNumber())
	assert.Equal(t, 5, s.PlayerNumber())
	assert.False(t, s.Pool.Available("50001"))

	require.NoError(t, s.Store.SubmitMission(1, 1, 0))
	s.Derive()
	assert.Equal(t, 2, s.MissionNumber())
	assert.True(t, s.Pool.Available("50001"))
}

func TestEditHoldsPlayerNumber(t *testing.T) {
	s := newSession(t)
	_, err := s.Store.AddOrGetOpenMission(1, fields(t))
	require.NoError(t, err)
	require.NoError(t, s.Store.AddAircraft(aircraft(1, 1, 1200, "50001")))
	require.NoError(t, s.Store.AddAircraft(aircraft(1, 2, 1300, "50002")))
	s.Accepted(1)
	s.Accepted(2)
	assert.Equal(t, 3, s.NextPlayer())

	_, err = s.Store.HoldForEdit(1)
	require.NoError(t, err)
	assert.Equal(t, 1, s.NextPlayer())
	got, ok := s.Editing()
	require.True(t, ok)
	assert.Equal(t, 1200, got.IFF)

	require.NoError(t, s.Store.AddAircraft(got))
	s.Accepted(1)
	_, ok = s.Editing()
	assert.False(t, ok)
	// re-adding an older number never moves the counter back
	assert.Equal(t, 3, s.NextPlayer())
}

func TestHoldSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	backend := document.New(document.Config{})
	s, err := Open(backend, gate.DefaultPolicy, inventory.NewPool(nil), dir, may1)
	require.NoError(t, err)
	_, err = s.Store.AddOrGetOpenMission(1, fields(t))
	require.NoError(t, err)
	require.NoError(t, s.Store.AddAircraft(aircraft(1, 1, 1200, "50001")))
	require.NoError(t, s.Store.AddAircraft(aircraft(1, 2, 1300, "50002")))
	_, err = s.Store.HoldForEdit(2)
	require.NoError(t, err)
	require.NoError(t, s.Store.SetModifying(true))

	again, err := Open(backend, gate.DefaultPolicy, inventory.NewPool(nil), dir, may1)
	require.NoError(t, err)
	held, ok := again.Editing()
	require.True(t, ok)
	assert.Equal(t, 1300, held.IFF)
	assert.True(t, again.Modifying())
	assert.Equal(t, 2, again.NextPlayer())
	assert.Equal(t, 3, again.PlayerNumber(), "the held number is not handed out again")
}

func TestPinnedDate(t *testing.T) {
	s := newSession(t)
	_, err := s.Store.AddOrGetOpenMission(1, fields(t))
	require.NoError(t, err)
	_, pinned := s.PinnedDate(0)
	assert.False(t, pinned, "an empty mission does not pin")

	require.NoError(t, s.Store.AddAircraft(aircraft(1, 1, 1200, "50001")))
	date, pinned := s.PinnedDate(0)
	require.True(t, pinned)
	assert.Equal(t, may1, date)

	_, pinned = s.PinnedDate(1)
	assert.False(t, pinned)
}

func TestClear(t *testing.T) {
	s := newSession(t)
	s.Accepted(7)
	s.SetMissionNumber(3)
	require.True(t, s.Pool.Remove("50001"))

	s.Clear()
	assert.Equal(t, 1, s.MissionNumber())
	assert.Equal(t, 1, s.PlayerNumber())
	assert.True(t, s.Pool.Available("50001"))
}
