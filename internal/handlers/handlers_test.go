package handlers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nellis-lmt/paperload/internal/config"
	"github.com/nellis-lmt/paperload/internal/dispatcher"
	"github.com/nellis-lmt/paperload/internal/gate"
	"github.com/nellis-lmt/paperload/internal/inventory"
	"github.com/nellis-lmt/paperload/internal/logging"
	"github.com/nellis-lmt/paperload/internal/model"
	"github.com/nellis-lmt/paperload/internal/parser"
	"github.com/nellis-lmt/paperload/internal/session"
	"github.com/nellis-lmt/paperload/internal/storage/document"
	"github.com/nellis-lmt/paperload/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sortieArgs = []string{
	"0800",       // 0: missionTime
	"2024-05-01", // 1: date
	"0800",       // 2: range start
	"1000",       // 3: range end
	"P1",         // 4: projectNumber
	"2",          // 5: numberOfCDs
	"M,2,3",      // 6: stations
	"1",          // 7: dash
}

func aircraftArgs(iff, pod string) []string {
	return []string{
		"false",  // 0: lowActivity
		"16 WPS", // 1: unit
		"SNAKE",  // 2: callsign
		"F-16",   // 3: type
		"2A",     // 4: station
		"T1",     // 5: tailNumber
		iff,      // 6: iff
		pod,      // 7: podSerial
		"GT",     // 8: trackStatus
	}
}

func addArgs(iff, pod string) []string {
	return append(append([]string{}, sortieArgs...), aircraftArgs(iff, pod)...)
}

type testEnv struct {
	svc  *Service
	d    *dispatcher.Dispatcher
	root string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	unprocessed := filepath.Join(root, "unprocessed")
	require.NoError(t, os.MkdirAll(unprocessed, 0755))

	logManager := logging.NewSlogManager()
	logManager.Setup(nil, "info")

	sess, err := session.Open(document.New(document.Config{}), gate.DefaultPolicy,
		inventory.NewPool(nil), unprocessed, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	ctl := workflow.New(sess, workflow.Options{
		Export: config.ExportConfig{
			RosterDir:    filepath.Join(root, "roster"),
			HalfSheetDir: filepath.Join(root, "halfsheet"),
		},
		ProcessedDir: filepath.Join(root, "processed"),
		Logger:       logManager.Logger(),
	})

	svc := NewService(Dependencies{
		Workflow:   ctl,
		Parser:     parser.NewParser(logManager.Logger()),
		LogManager: logManager,
	})

	d, err := dispatcher.New(logManager.Logger())
	require.NoError(t, err)
	svc.Register(d)

	return &testEnv{svc: svc, d: d, root: root}
}

func (e *testEnv) run(t *testing.T, cmd string, args ...string) (any, error) {
	t.Helper()
	return e.d.Dispatch(dispatcher.Event{Command: cmd, Args: args})
}

func TestNewService(t *testing.T) {
	svc := NewService(Dependencies{})
	require.NotNil(t, svc)
	// writeLog without a manager is a no-op
	svc.writeLog("test", "data", "INFO")
}

func TestRegisterBindsEveryCommand(t *testing.T) {
	env := newTestEnv(t)
	for _, cmd := range []string{
		CmdSortieState, CmdStatus, CmdAircraftAdd, CmdAircraftEdit, CmdAircraftCancel,
		CmdAircraftDelete, CmdMissionList, CmdMissionSubmit, CmdMissionReopen, CmdMissionDelete,
		CmdModifyBegin, CmdModifyEnd, CmdMissionNotes, CmdMissionAudit, CmdFileOpen,
		CmdExportRoster, CmdExportHalfSheet, CmdPodAvailable,
	} {
		assert.True(t, env.d.HasHandler(cmd), cmd)
	}
	assert.Contains(t, env.d.UsageOf(CmdAircraftAdd), "<callsign>")
}

func TestAddAircraftCommand(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.run(t, CmdAircraftAdd, addArgs("1200", "50001")...)
	require.NoError(t, err)
	a, ok := res.(model.Aircraft)
	require.True(t, ok)
	assert.Equal(t, 1, a.MissionNumber)
	assert.Equal(t, 1, a.PlayerNumber)

	pods, err := env.run(t, CmdPodAvailable)
	require.NoError(t, err)
	assert.NotContains(t, pods, "50001")

	res, err = env.run(t, CmdSortieState)
	require.NoError(t, err)
	state := res.(SortieState)
	assert.True(t, state.Locked)
	require.NotNil(t, state.Open)
	assert.Equal(t, "2024-05-01", state.Open.Date)
	assert.Equal(t, "0800", state.Open.RangeStart)
	assert.Equal(t, "1000", state.Open.RangeEnd)
	assert.Equal(t, "M,2,3", state.Open.Stations)
	assert.Equal(t, 1, state.Open.Dash)
}

func TestAddAircraftCommandEnumeratesBothBlocks(t *testing.T) {
	env := newTestEnv(t)

	args := addArgs("12x", "50001")
	args[1] = "05/01/2024"
	_, err := env.run(t, CmdAircraftAdd, args...)

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{model.FieldDate, model.FieldIFF}, verr.Fields)
	assert.Empty(t, env.svc.deps.Workflow.Session().Store.Missions())
}

func TestAddAircraftCommandArgCount(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, CmdAircraftAdd, sortieArgs...)
	assert.Error(t, err)
}

func TestSubmitAndListCommands(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, CmdAircraftAdd, addArgs("1200", "50001")...)
	require.NoError(t, err)

	res, err := env.run(t, CmdMissionSubmit)
	require.NoError(t, err)
	m := res.(model.Mission)
	assert.True(t, m.IsMissionSubmitted)
	assert.Equal(t, 1, m.HAACount)

	res, err = env.run(t, CmdMissionList)
	require.NoError(t, err)
	rows := res.([]MissionRow)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0].Aircraft, 1)
	assert.True(t, rows[0].Aircraft[0].IsPlayerSubmitted)
}

func TestNotesCommandJoinsText(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, CmdAircraftAdd, addArgs("1200", "50001")...)
	require.NoError(t, err)

	_, err = env.run(t, CmdMissionNotes, "1", "late", `"takeoff"`)
	require.NoError(t, err)

	m, ok := env.svc.deps.Workflow.Session().Store.Mission(1)
	require.True(t, ok)
	assert.Equal(t, "late takeoff", m.Notes)

	_, err = env.run(t, CmdMissionNotes)
	assert.Error(t, err)
}

func TestEditCommands(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, CmdAircraftAdd, addArgs("1200", "50001")...)
	require.NoError(t, err)

	res, err := env.run(t, CmdAircraftEdit, "1")
	require.NoError(t, err)
	assert.Equal(t, 1200, res.(model.Aircraft).IFF)

	_, err = env.run(t, CmdMissionSubmit)
	assert.ErrorIs(t, err, model.ErrEditInProgress)

	_, err = env.run(t, CmdAircraftCancel)
	require.NoError(t, err)

	_, err = env.run(t, CmdAircraftEdit, "x")
	assert.Error(t, err)
}

func TestModifyCommands(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, CmdAircraftAdd, addArgs("1200", "50001")...)
	require.NoError(t, err)

	res, err := env.run(t, CmdModifyBegin)
	require.NoError(t, err)
	assert.Equal(t, "P1", res.(SortieView).ProjectNumber)

	args := append([]string{}, sortieArgs...)
	args[4] = "P2"
	res, err = env.run(t, CmdModifyEnd, args...)
	require.NoError(t, err)
	assert.Equal(t, "P2", res.(model.Mission).ProjectNumber)
}

func TestExportHalfSheetCommand(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, CmdAircraftAdd, addArgs("1200", "50001")...)
	require.NoError(t, err)

	res, err := env.run(t, CmdExportHalfSheet, "1", "ab")
	require.NoError(t, err)
	path := res.(workflow.HalfSheetResult).Path
	assert.FileExists(t, path)

	_, err = env.run(t, CmdExportHalfSheet, "1")
	assert.Error(t, err)
}

func TestExportRosterCommand(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, CmdAircraftAdd, addArgs("1200", "50001")...)
	require.NoError(t, err)
	_, err = env.run(t, CmdMissionSubmit)
	require.NoError(t, err)

	_, err = env.run(t, CmdExportRoster, "a", "b")
	assert.Error(t, err)

	chosen := filepath.Join(env.root, "chosen dir")
	res, err := env.run(t, CmdExportRoster, `"`+chosen+`"`)
	require.NoError(t, err)
	out := res.(workflow.RosterResult)
	assert.Equal(t, filepath.Join(chosen, "1-MAY-24.xlsx"), out.HighPath)
	assert.FileExists(t, out.LowPath)
	assert.NoDirExists(t, filepath.Join(env.root, "roster"))
	assert.Contains(t, env.d.UsageOf(CmdExportRoster), "[dir]")
}

func TestStatusCommand(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.run(t, CmdStatus)
	require.NoError(t, err)
	st := res.(workflow.Status)
	assert.Equal(t, "empty", st.State)
	assert.Equal(t, 1, st.MissionNumber)
	assert.Equal(t, 1, st.PlayerNumber)
}
