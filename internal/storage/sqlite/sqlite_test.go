package sqlitestorage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nellis-lmt/paperload/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() model.Snapshot {
	snap := model.NewSnapshot()
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	snap.Missions = []model.Mission{
		{
			MissionNumber: 2, IsMissionSubmitted: true, MissionID: "M4122-0800-2",
			Date: day, RangeStart: day.Add(8 * time.Hour), RangeEnd: day.Add(30 * time.Hour),
			ProjectNumber: "AB12", NumberOfCDs: 2, RecordedStations: "CS,M:(-1)",
			HAACount: 1, LAACount: 0, Notes: "n", Auditoriums: "A1",
		},
		{MissionNumber: 3, MissionID: "M4122-1200-3", Date: day},
	}
	snap.Aircraft = []model.Aircraft{
		{MissionNumber: 3, PlayerNumber: 7, Unit: "66 WPS", Callsign: "HOG", Type: "A-10", Station: "1I", TailNumber: "AF1", IFF: 0, PodSerial: "50014", TrackStatus: model.TrackNone},
		{MissionNumber: 2, PlayerNumber: 4, IsPlayerSubmitted: true, Unit: "16 WPS", Callsign: "SNAKE", Type: "F-16", Station: "1", TailNumber: "AF2", IFF: 1200, PodSerial: "50001", TrackStatus: model.TrackGood},
	}
	return snap
}

func TestRoundTrip(t *testing.T) {
	b := New()
	path := filepath.Join(t.TempDir(), "work dir", "1-MAY-24"+b.Ext())

	want := sampleSnapshot()
	require.NoError(t, b.Save(path, want))

	got, err := b.Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// overwrite in place
	want.Missions[1].Notes = "second save"
	require.NoError(t, b.Save(path, want))
	got, err = b.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "second save", got.Missions[1].Notes)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEmptySnapshot(t *testing.T) {
	b := New()
	path := filepath.Join(t.TempDir(), "empty.db")
	require.NoError(t, b.Save(path, model.NewSnapshot()))

	got, err := b.Load(path)
	require.NoError(t, err)
	assert.Empty(t, got.Missions)
	assert.Empty(t, got.Aircraft)
	assert.Equal(t, model.DatasetName, got.Schema.Name)
}

func TestLoad_Missing(t *testing.T) {
	_, err := New().Load(filepath.Join(t.TempDir(), "none.db"))
	var pe *model.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoad_NotADatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not sqlite"), 0644))

	_, err := New().Load(path)
	var pe *model.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.False(t, errors.Is(err, fs.ErrNotExist))
}

func TestSave_RejectsOrphans(t *testing.T) {
	snap := sampleSnapshot()
	snap.Aircraft = append(snap.Aircraft, model.Aircraft{MissionNumber: 99, PlayerNumber: 100})

	path := filepath.Join(t.TempDir(), "orphan.db")
	err := New().Save(path, snap)
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, fs.ErrNotExist))
}

func TestRowConversion(t *testing.T) {
	snap := sampleSnapshot()
	row := aircraftToRow(snap.Aircraft[0], 5)
	assert.Equal(t, 5, row.Seq)
	assert.Equal(t, "NT", row.TrackStatus)
	assert.Equal(t, snap.Aircraft[0], rowToAircraft(row))

	info, err := schemaToRow(snap.Schema)
	require.NoError(t, err)
	assert.Equal(t, model.DatasetName, info.Name)
	back, err := rowToSchema(info)
	require.NoError(t, err)
	assert.Equal(t, snap.Schema, back)
}

func TestHoldRoundTrip(t *testing.T) {
	b := New()
	path := filepath.Join(t.TempDir(), "1-MAY-24.db")

	want := sampleSnapshot()
	held := model.Aircraft{MissionNumber: 3, PlayerNumber: 8, Unit: "66 WPS", Callsign: "HOG", Type: "A-10", Station: "1I", TailNumber: "AF3", IFF: 0, PodSerial: "50015", TrackStatus: model.TrackNone}
	want.Hold = model.Hold{Editing: &held, Modifying: true}
	require.NoError(t, b.Save(path, want))

	got, err := b.Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	want.Hold = model.Hold{}
	require.NoError(t, b.Save(path, want))
	got, err = b.Load(path)
	require.NoError(t, err)
	assert.True(t, got.Hold.Empty())
}
