package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nellis-lmt/paperload/internal/gate"
	"github.com/nellis-lmt/paperload/internal/model"
	"github.com/nellis-lmt/paperload/internal/storage/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFields(t *testing.T) model.SortieFields {
	t.Helper()
	rs, err := model.NewRecordedStations([]string{"M", "2"}, 0)
	require.NoError(t, err)
	return model.SortieFields{
		MissionTime:   "0800",
		Date:          time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		RangeStart:    model.MustClock("0800"),
		RangeEnd:      model.MustClock("1000"),
		ProjectNumber: "ab12",
		NumberOfCDs:   1,
		Stations:      rs,
	}
}

func testAircraft(mission, player, iff int, pod string) model.Aircraft {
	return model.Aircraft{
		MissionNumber: mission,
		PlayerNumber:  player,
		Unit:          "16 WPS",
		Callsign:      "snake",
		Type:          "F-16",
		Station:       "1",
		TailNumber:    "af 1",
		IFF:           iff,
		PodSerial:     pod,
		TrackStatus:   model.TrackGood,
	}
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "1-MAY-24.json")
	s, err := Open(document.New(document.Config{}), gate.DefaultPolicy, path)
	require.NoError(t, err)
	return s, path
}

func reload(t *testing.T, path string) model.Snapshot {
	t.Helper()
	snap, err := document.New(document.Config{}).Load(path)
	require.NoError(t, err)
	return snap
}

func TestOpen_MissingWritesEmptyFile(t *testing.T) {
	_, path := newTestStore(t)

	_, err := os.Stat(path)
	require.NoError(t, err)
	snap := reload(t, path)
	assert.Empty(t, snap.Missions)
}

func TestOpen_MalformedIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0644))

	_, err := Open(document.New(document.Config{}), gate.DefaultPolicy, path)
	var pe *model.PersistenceError
	require.True(t, errors.As(err, &pe))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{{{", string(body))
}

func TestAddAircraft_DuplicateIFF(t *testing.T) {
	s, path := newTestStore(t)
	_, err := s.AddOrGetOpenMission(1, testFields(t))
	require.NoError(t, err)

	require.NoError(t, s.AddAircraft(testAircraft(1, 1, 1200, "50001")))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	err = s.AddAircraft(testAircraft(1, 2, 1200, "50002"))
	var dup *model.DuplicateError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "IFF", dup.Field)

	assert.Len(t, s.ChildrenOf(1), 1)
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAddAircraft_DuplicatePodAndLowActivity(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.AddOrGetOpenMission(1, testFields(t))
	require.NoError(t, err)

	require.NoError(t, s.AddAircraft(testAircraft(1, 1, 1200, "50001")))
	assert.Error(t, s.AddAircraft(testAircraft(1, 2, 1300, "50001")))

	low := testAircraft(1, 2, 1300, "")
	low.IsLowActivity = true
	require.NoError(t, s.AddAircraft(low))
	low2 := testAircraft(1, 3, 1400, "")
	low2.IsLowActivity = true
	require.NoError(t, s.AddAircraft(low2))

	kids := s.ChildrenOf(1)
	require.Len(t, kids, 3)
	assert.Equal(t, model.NotApplicable, kids[1].PodSerial)
	assert.Equal(t, "SNAKE", kids[0].Callsign)
	assert.Equal(t, "AF1", kids[0].TailNumber)
}

func TestAddAircraft_Preconditions(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.AddAircraft(testAircraft(1, 1, 1200, "50001"))
	assert.ErrorIs(t, err, model.ErrMissionNotFound)

	_, err = s.AddOrGetOpenMission(1, testFields(t))
	require.NoError(t, err)
	require.NoError(t, s.AddAircraft(testAircraft(1, 1, 1200, "50001")))

	var dup *model.DuplicateError
	require.True(t, errors.As(s.AddAircraft(testAircraft(1, 1, 1300, "50002")), &dup))
	assert.Equal(t, "Player Number", dup.Field)

	require.NoError(t, s.SubmitMission(1, 1, 0))
	assert.ErrorIs(t, s.AddAircraft(testAircraft(1, 2, 1300, "50002")), model.ErrMissionSubmitted)
}

func TestAddOrGetOpenMission(t *testing.T) {
	s, _ := newTestStore(t)
	f := testFields(t)

	m, err := s.AddOrGetOpenMission(1, f)
	require.NoError(t, err)
	assert.Equal(t, "M4122-0800-1", m.MissionID)

	// empty shell takes new values
	f.ProjectNumber = "zz9"
	m, err = s.AddOrGetOpenMission(1, f)
	require.NoError(t, err)
	assert.Equal(t, "ZZ9", m.ProjectNumber)

	// with children the stored row wins
	require.NoError(t, s.AddAircraft(testAircraft(1, 1, 1200, "50001")))
	f.ProjectNumber = "other"
	m, err = s.AddOrGetOpenMission(1, f)
	require.NoError(t, err)
	assert.Equal(t, "ZZ9", m.ProjectNumber)

	_, err = s.AddOrGetOpenMission(2, f)
	assert.ErrorIs(t, err, model.ErrMissionOpen)
}

func TestDeleteMission_Cascades(t *testing.T) {
	s, path := newTestStore(t)
	_, err := s.AddOrGetOpenMission(1, testFields(t))
	require.NoError(t, err)
	require.NoError(t, s.AddAircraft(testAircraft(1, 1, 1200, "50001")))
	require.NoError(t, s.AddAircraft(testAircraft(1, 2, 1300, "50002")))

	removed, err := s.DeleteMission(1)
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	assert.Empty(t, s.Missions())
	assert.Zero(t, s.AircraftCount())

	snap := reload(t, path)
	assert.Empty(t, snap.Missions)
	assert.Empty(t, snap.Aircraft)

	_, err = s.DeleteMission(1)
	assert.ErrorIs(t, err, model.ErrMissionNotFound)
}

func TestDeleteAircraft(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.AddOrGetOpenMission(1, testFields(t))
	require.NoError(t, err)
	require.NoError(t, s.AddAircraft(testAircraft(1, 1, 1200, "50001")))
	low := testAircraft(1, 2, 1300, "")
	low.IsLowActivity = true
	require.NoError(t, s.AddAircraft(low))
	require.NoError(t, s.SubmitMission(1, 1, 1))

	a, err := s.DeleteAircraft(2)
	require.NoError(t, err)
	assert.Equal(t, 1300, a.IFF)

	m, _ := s.Mission(1)
	assert.Equal(t, 1, m.HAACount)
	assert.Equal(t, 0, m.LAACount)

	_, err = s.DeleteAircraft(2)
	assert.ErrorIs(t, err, model.ErrAircraftNotFound)
}

func TestSubmitAndReopen(t *testing.T) {
	s, path := newTestStore(t)
	_, err := s.AddOrGetOpenMission(1, testFields(t))
	require.NoError(t, err)
	require.NoError(t, s.AddAircraft(testAircraft(1, 1, 1200, "50001")))

	require.NoError(t, s.SubmitMission(1, 1, 0))
	assert.Zero(t, s.OutstandingCount())
	_, open := s.OpenMission()
	assert.False(t, open)
	assert.ErrorIs(t, s.SubmitMission(1, 1, 0), model.ErrMissionSubmitted)

	snap := reload(t, path)
	assert.True(t, snap.Missions[0].IsMissionSubmitted)
	assert.True(t, snap.Aircraft[0].IsPlayerSubmitted)

	// an empty open shell is discarded by the reopen
	_, err = s.AddOrGetOpenMission(2, testFields(t))
	require.NoError(t, err)
	require.NoError(t, s.ReopenMission(1))
	_, ok := s.Mission(2)
	assert.False(t, ok)
	assert.Equal(t, 1, s.OutstandingCount())

	m, open := s.OpenMission()
	require.True(t, open)
	assert.Equal(t, 1, m.MissionNumber)
}

func TestReopen_BlockedByOutstanding(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.AddOrGetOpenMission(1, testFields(t))
	require.NoError(t, err)
	require.NoError(t, s.AddAircraft(testAircraft(1, 1, 1200, "50001")))
	require.NoError(t, s.SubmitMission(1, 1, 0))

	_, err = s.AddOrGetOpenMission(2, testFields(t))
	require.NoError(t, err)
	require.NoError(t, s.AddAircraft(testAircraft(2, 2, 1200, "50001")))

	assert.ErrorIs(t, s.ReopenMission(1), model.ErrOutstandingAircraft)
	m, _ := s.Mission(1)
	assert.True(t, m.IsMissionSubmitted)
}

func TestNotesAndAuditoriums(t *testing.T) {
	s, path := newTestStore(t)
	_, err := s.AddOrGetOpenMission(1, testFields(t))
	require.NoError(t, err)

	require.NoError(t, s.SetNotes(1, "tanker late"))
	require.NoError(t, s.SetAuditoriums(1, "AUD 3"))
	snap := reload(t, path)
	assert.Equal(t, "tanker late", snap.Missions[0].Notes)
	assert.Equal(t, "AUD 3", snap.Missions[0].Auditoriums)

	assert.ErrorIs(t, s.SetNotes(9, "x"), model.ErrMissionNotFound)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, path := newTestStore(t)
	_, err := s.AddOrGetOpenMission(1, testFields(t))
	require.NoError(t, err)
	require.NoError(t, s.AddAircraft(testAircraft(1, 1, 1200, "50001")))
	require.NoError(t, s.AddAircraft(testAircraft(1, 2, 1300, "50002")))
	require.NoError(t, s.SubmitMission(1, 2, 0))
	_, err = s.AddOrGetOpenMission(2, testFields(t))
	require.NoError(t, err)
	require.NoError(t, s.AddAircraft(testAircraft(2, 3, 1200, "50001")))

	want := s.Snapshot()

	other := New(document.New(document.Config{}), gate.DefaultPolicy, "")
	require.NoError(t, other.Load(path))
	assert.Equal(t, want, other.Snapshot())
	assert.Equal(t, path, other.Path())

	copyPath := filepath.Join(t.TempDir(), "copy.json")
	require.NoError(t, other.Save(copyPath))
	assert.Equal(t, want, reload(t, copyPath))
	assert.Equal(t, 2, other.MaxMissionNumber())
	assert.Equal(t, 3, other.MaxPlayerNumber())
}

type failingBackend struct {
	document.Backend
	fail bool
}

func (f *failingBackend) Save(path string, snap model.Snapshot) error {
	if f.fail {
		return &model.PersistenceError{Op: "save", Path: path, Err: errors.New("disk full")}
	}
	return f.Backend.Save(path, snap)
}

func TestMutate_RollsBackOnSaveFailure(t *testing.T) {
	fb := &failingBackend{Backend: *document.New(document.Config{})}
	path := filepath.Join(t.TempDir(), "w.json")
	s, err := Open(fb, gate.DefaultPolicy, path)
	require.NoError(t, err)
	_, err = s.AddOrGetOpenMission(1, testFields(t))
	require.NoError(t, err)

	before := s.Snapshot()
	fb.fail = true
	err = s.AddAircraft(testAircraft(1, 1, 1200, "50001"))
	var pe *model.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, before, s.Snapshot())

	err = s.Reset(filepath.Join(t.TempDir(), "new.json"))
	require.Error(t, err)
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, path, s.Path())
}

func TestReset(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.AddOrGetOpenMission(1, testFields(t))
	require.NoError(t, err)

	next := filepath.Join(t.TempDir(), "2-MAY-24.json")
	require.NoError(t, s.Reset(next))
	assert.Empty(t, s.Missions())
	assert.Equal(t, next, s.Path())
	assert.Empty(t, reload(t, next).Missions)
}

func TestHoldForEdit(t *testing.T) {
	s, path := newTestStore(t)
	_, err := s.AddOrGetOpenMission(1, testFields(t))
	require.NoError(t, err)
	require.NoError(t, s.AddAircraft(testAircraft(1, 1, 1200, "50001")))
	require.NoError(t, s.AddAircraft(testAircraft(1, 2, 1300, "50002")))

	held, err := s.HoldForEdit(2)
	require.NoError(t, err)
	assert.Equal(t, 1300, held.IFF)
	assert.Equal(t, 1, s.AircraftCount())
	assert.Equal(t, 2, s.MaxPlayerNumber(), "the held number stays taken")

	// hold and removal land in the file together
	snap := reload(t, path)
	assert.Len(t, snap.Aircraft, 1)
	require.NotNil(t, snap.Hold.Editing)
	assert.Equal(t, 2, snap.Hold.Editing.PlayerNumber)

	_, err = s.HoldForEdit(1)
	assert.ErrorIs(t, err, model.ErrEditInProgress)

	// reopening the file resumes the edit
	again, err := Open(document.New(document.Config{}), gate.DefaultPolicy, path)
	require.NoError(t, err)
	back, err := again.CancelEdit()
	require.NoError(t, err)
	assert.Equal(t, held, back)
	assert.Nil(t, again.Hold().Editing)
	assert.Equal(t, 2, again.AircraftCount())
	assert.True(t, reload(t, path).Hold.Empty())

	_, err = again.CancelEdit()
	assert.ErrorIs(t, err, model.ErrNotEditable)
}

func TestAddAircraft_ReleasesHold(t *testing.T) {
	s, path := newTestStore(t)
	_, err := s.AddOrGetOpenMission(1, testFields(t))
	require.NoError(t, err)
	require.NoError(t, s.AddAircraft(testAircraft(1, 1, 1200, "50001")))

	held, err := s.HoldForEdit(1)
	require.NoError(t, err)
	held.IFF = 1250
	require.NoError(t, s.AddAircraft(held))

	assert.True(t, s.Hold().Empty())
	a, ok := s.Aircraft(1)
	require.True(t, ok)
	assert.Equal(t, 1250, a.IFF)
	assert.True(t, reload(t, path).Hold.Empty())
}

func TestSetModifying(t *testing.T) {
	s, path := newTestStore(t)
	require.Error(t, s.SetModifying(true), "nothing to modify without an open mission")

	_, err := s.AddOrGetOpenMission(1, testFields(t))
	require.NoError(t, err)
	require.NoError(t, s.SetModifying(true))
	assert.True(t, reload(t, path).Hold.Modifying)

	// deleting the open mission ends modify mode
	_, err = s.DeleteMission(1)
	require.NoError(t, err)
	assert.False(t, s.Hold().Modifying)
	assert.False(t, reload(t, path).Hold.Modifying)
}

func TestReset_ClearsHold(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.AddOrGetOpenMission(1, testFields(t))
	require.NoError(t, err)
	require.NoError(t, s.SetModifying(true))

	next := filepath.Join(t.TempDir(), "2-MAY-24.json")
	require.NoError(t, s.Reset(next))
	assert.True(t, s.Hold().Empty())
	assert.True(t, reload(t, next).Hold.Empty())
}
