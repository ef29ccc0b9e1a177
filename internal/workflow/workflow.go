// Package workflow drives the sortie lifecycle on top of a session: it
// validates operator input, assigns mission and player numbers, keeps the
// pod pool in step with the open mission and runs the exports.
package workflow

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/nellis-lmt/paperload/internal/catalog"
	"github.com/nellis-lmt/paperload/internal/config"
	"github.com/nellis-lmt/paperload/internal/export"
	"github.com/nellis-lmt/paperload/internal/model"
	"github.com/nellis-lmt/paperload/internal/report"
	"github.com/nellis-lmt/paperload/internal/session"
)

// State is the lifecycle position of the working set.
type State int

const (
	StateEmpty State = iota
	StateBuilding
	StateReadyToSubmit
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateBuilding:
		return "building"
	case StateReadyToSubmit:
		return "ready-to-submit"
	case StateSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Notifier receives the refresh signals the operator surface renders.
type Notifier interface {
	RowCounts(missions, aircraft int)
	SortieLock(locked bool)
	Warn(message string)
}

// NopNotifier discards every signal.
type NopNotifier struct{}

func (NopNotifier) RowCounts(int, int) {}
func (NopNotifier) SortieLock(bool)    {}
func (NopNotifier) Warn(string)        {}

// Options configure a Controller.
type Options struct {
	Export       config.ExportConfig
	ProcessedDir string
	Notifier     Notifier
	Logger       *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Controller is the single writer of a session.
type Controller struct {
	sess         *session.Session
	writer       *export.Writer
	exportCfg    config.ExportConfig
	processedDir string
	notify       Notifier
	logger       *slog.Logger
	now          func() time.Time
}

// New creates a controller over sess.
func New(sess *session.Session, opts Options) *Controller {
	c := &Controller{
		sess:         sess,
		writer:       export.NewWriter(opts.Export),
		exportCfg:    opts.Export,
		processedDir: opts.ProcessedDir,
		notify:       opts.Notifier,
		logger:       opts.Logger,
		now:          opts.Now,
	}
	if c.notify == nil {
		c.notify = NopNotifier{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Session returns the working set.
func (c *Controller) Session() *session.Session {
	return c.sess
}

////////////////////////
// STATE
////////////////////////

// State derives the lifecycle state from the store.
func (c *Controller) State() State {
	st := c.sess.Store
	open, ok := st.OpenMission()
	if !ok {
		if len(st.Missions()) == 0 {
			return StateEmpty
		}
		return StateSubmitted
	}
	if len(st.ChildrenOf(open.MissionNumber)) == 0 {
		if len(st.Missions()) == 1 {
			return StateEmpty
		}
		return StateBuilding
	}
	if len(model.FieldsFromMission(open).MissingFields()) > 0 {
		return StateBuilding
	}
	return StateReadyToSubmit
}

// SortieLocked reports whether the sortie fields are read-only: the open
// mission holds aircraft and modify mode is off.
func (c *Controller) SortieLocked() bool {
	if c.sess.Modifying() {
		return false
	}
	open, ok := c.sess.Store.OpenMission()
	return ok && len(c.sess.Store.ChildrenOf(open.MissionNumber)) > 0
}

// Status is a point-in-time summary of the working set.
type Status struct {
	State         string `json:"state"`
	WorkingFile   string `json:"workingFile"`
	MissionNumber int    `json:"missionNumber"`
	PlayerNumber  int    `json:"playerNumber"`
	Missions      int    `json:"missions"`
	Aircraft      int    `json:"aircraft"`
	Outstanding   int    `json:"outstanding"`
	SortieLocked  bool   `json:"sortieLocked"`
	Editing       bool   `json:"editing"`
	Modifying     bool   `json:"modifying"`
}

func (c *Controller) Status() Status {
	st := c.sess.Store
	_, editing := c.sess.Editing()
	return Status{
		State:         c.State().String(),
		WorkingFile:   st.Path(),
		MissionNumber: c.sess.MissionNumber(),
		PlayerNumber:  c.sess.NextPlayer(),
		Missions:      len(st.Missions()),
		Aircraft:      st.AircraftCount(),
		Outstanding:   st.OutstandingCount(),
		SortieLocked:  c.SortieLocked(),
		Editing:       editing,
		Modifying:     c.sess.Modifying(),
	}
}

// AvailablePods lists the pod serials free for the open mission.
func (c *Controller) AvailablePods() []string {
	return c.sess.Pool.Free()
}

func (c *Controller) refresh() {
	st := c.sess.Store
	c.notify.RowCounts(len(st.Missions()), st.AircraftCount())
	c.notify.SortieLock(c.SortieLocked())
}

func (c *Controller) warn(msg string, args ...any) {
	c.logger.Warn(msg, args...)
	c.notify.Warn(msg)
}

// guard refuses an operation while an edit or modify is in progress.
func (c *Controller) guard(allowModify bool) error {
	if _, ok := c.sess.Editing(); ok {
		return model.ErrEditInProgress
	}
	if !allowModify && c.sess.Modifying() {
		return model.ErrModifyInProgress
	}
	return nil
}

////////////////////////
// AIRCRAFT
////////////////////////

// AddAircraft validates the sortie and aircraft values, files the aircraft
// under the working mission and takes its pod out of the pool. The mission is
// created from fields on the first add; once it holds aircraft the stored
// sortie values are used. Any refusal leaves the store unchanged.
func (c *Controller) AddAircraft(fields model.SortieFields, a model.Aircraft) (model.Aircraft, error) {
	if c.sess.Modifying() {
		return model.Aircraft{}, model.ErrModifyInProgress
	}
	st := c.sess.Store

	missionNumber := c.sess.MissionNumber()
	_, existed := st.Mission(missionNumber)
	if open, ok := st.OpenMission(); ok && open.MissionNumber == missionNumber &&
		len(st.ChildrenOf(missionNumber)) > 0 {
		fields = model.FieldsFromMission(open)
	}

	a = a.Normalize()
	a.MissionNumber = missionNumber
	a.PlayerNumber = c.sess.NextPlayer()

	if err := c.validate(fields, &a, 0); err != nil {
		return model.Aircraft{}, err
	}
	if err := st.Check(a); err != nil {
		c.logger.Debug("aircraft rejected", "player", a.PlayerNumber, "error", err)
		return model.Aircraft{}, err
	}

	if _, err := st.AddOrGetOpenMission(missionNumber, fields); err != nil {
		return model.Aircraft{}, err
	}
	if err := st.AddAircraft(a); err != nil {
		if !existed {
			if _, derr := st.DeleteMission(missionNumber); derr != nil {
				c.logger.Error("failed to discard mission shell", "mission", missionNumber, "error", derr)
			}
		}
		return model.Aircraft{}, err
	}

	stored, _ := st.Aircraft(a.PlayerNumber)
	c.sess.Accepted(stored.PlayerNumber)
	if stored.Podded() {
		c.sess.Pool.Remove(stored.PodSerial)
	}
	c.logger.Info("aircraft added",
		"mission", missionNumber, "player", stored.PlayerNumber,
		"callsign", stored.Callsign, "iff", stored.IFF, "pod", stored.PodSerial)
	c.refresh()
	return stored, nil
}

var fieldOrder = []string{
	model.FieldMissionID, model.FieldDate, model.FieldRangeStart, model.FieldRangeEnd,
	model.FieldProjectNumber, model.FieldNumberOfCDs, model.FieldStations,
	model.FieldUnit, model.FieldCallsign, model.FieldType, model.FieldStation,
	model.FieldTailNumber, model.FieldIFF, model.FieldPodSerial, model.FieldTrackStatus,
}

// validate collects every offending field of fields and a into one
// ValidationError. A nil a skips the aircraft checks. Mission except does not
// pin the sortie date.
func (c *Controller) validate(fields model.SortieFields, a *model.Aircraft, except int) error {
	bad := make(map[string]bool)
	for _, f := range fields.MissingFields() {
		bad[f] = true
	}
	if pinned, ok := c.sess.PinnedDate(except); ok && !fields.Date.IsZero() &&
		!model.DateOf(fields.Date).Equal(pinned) {
		bad[model.FieldDate] = true
	}
	if a != nil {
		for _, f := range a.MissingFields() {
			bad[f] = true
		}
		for _, f := range catalog.Validate(*a) {
			bad[f] = true
		}
		if a.Podded() && !c.sess.Pool.Contains(a.PodSerial) {
			bad[model.FieldPodSerial] = true
		}
	}

	var out []string
	for _, f := range fieldOrder {
		if bad[f] {
			out = append(out, f)
		}
	}
	return model.NewValidationError(out...)
}

// BeginEdit takes an aircraft of the open mission out of the store for
// correction. Its pod returns to the pool and its player number is held for
// the re-add.
func (c *Controller) BeginEdit(playerNumber int) (model.Aircraft, error) {
	if err := c.guard(false); err != nil {
		return model.Aircraft{}, err
	}
	st := c.sess.Store
	a, ok := st.Aircraft(playerNumber)
	if !ok {
		return model.Aircraft{}, fmt.Errorf("player %d: %w", playerNumber, model.ErrAircraftNotFound)
	}
	if m, _ := st.Mission(a.MissionNumber); !m.Open() {
		return model.Aircraft{}, fmt.Errorf("player %d: %w", playerNumber, model.ErrNotEditable)
	}

	removed, err := st.HoldForEdit(playerNumber)
	if err != nil {
		return model.Aircraft{}, err
	}
	if removed.Podded() {
		c.sess.Pool.Restore(removed.PodSerial)
	}
	c.logger.Info("aircraft edit started", "player", playerNumber)
	c.refresh()
	return removed, nil
}

// CancelEdit puts the held aircraft back unchanged.
func (c *Controller) CancelEdit() (model.Aircraft, error) {
	held, err := c.sess.Store.CancelEdit()
	if err != nil {
		return model.Aircraft{}, err
	}
	c.sess.Accepted(held.PlayerNumber)
	if held.Podded() {
		c.sess.Pool.Remove(held.PodSerial)
	}
	c.logger.Info("aircraft edit cancelled", "player", held.PlayerNumber)
	c.refresh()
	return held, nil
}

// DeleteAircraft removes one aircraft. A pod held in the open mission goes
// back to the pool. Player numbers are not reused.
func (c *Controller) DeleteAircraft(playerNumber int) (model.Aircraft, error) {
	st := c.sess.Store
	a, err := st.DeleteAircraft(playerNumber)
	if err != nil {
		return model.Aircraft{}, err
	}
	if m, ok := st.Mission(a.MissionNumber); ok && m.Open() && a.Podded() {
		c.sess.Pool.Restore(a.PodSerial)
	}
	c.logger.Info("aircraft deleted", "mission", a.MissionNumber, "player", playerNumber)
	c.refresh()
	return a, nil
}

////////////////////////
// MISSIONS
////////////////////////

// DeleteMission removes a mission and its aircraft.
func (c *Controller) DeleteMission(missionNumber int) ([]model.Aircraft, error) {
	if err := c.guard(true); err != nil {
		return nil, err
	}
	st := c.sess.Store
	m, ok := st.Mission(missionNumber)
	if !ok {
		return nil, fmt.Errorf("mission %d: %w", missionNumber, model.ErrMissionNotFound)
	}
	removed, err := st.DeleteMission(missionNumber)
	if err != nil {
		return nil, err
	}
	if m.Open() {
		for _, a := range removed {
			if a.Podded() {
				c.sess.Pool.Restore(a.PodSerial)
			}
		}
		c.sess.SetMissionNumber(st.MaxMissionNumber() + 1)
	}
	c.logger.Info("mission deleted", "mission", missionNumber, "aircraft", len(removed))
	c.refresh()
	return removed, nil
}

// SubmitMission closes the open mission: it stamps the mission and its
// aircraft submitted, records the HAA/LAA counts and moves the working set
// to the next mission number.
func (c *Controller) SubmitMission() (model.Mission, error) {
	if err := c.guard(false); err != nil {
		return model.Mission{}, err
	}
	st := c.sess.Store
	open, ok := st.OpenMission()
	if !ok {
		return model.Mission{}, model.ErrNoAircraft
	}
	kids := st.ChildrenOf(open.MissionNumber)
	if len(kids) == 0 {
		return model.Mission{}, model.ErrNoAircraft
	}
	if err := model.NewValidationError(model.FieldsFromMission(open).MissingFields()...); err != nil {
		return model.Mission{}, err
	}

	var haa, laa int
	for _, a := range kids {
		if a.IsLowActivity {
			laa++
		} else {
			haa++
		}
	}
	if err := st.SubmitMission(open.MissionNumber, haa, laa); err != nil {
		return model.Mission{}, err
	}
	c.sess.Derive()

	submitted, _ := st.Mission(open.MissionNumber)
	c.logger.Info("mission submitted",
		"mission", submitted.MissionNumber, "missionId", submitted.MissionID, "haa", haa, "laa", laa)
	c.refresh()
	return submitted, nil
}

// ReopenMission makes a submitted mission the working mission again and
// returns its sortie values for the operator to review.
func (c *Controller) ReopenMission(missionNumber int) (model.SortieFields, error) {
	if err := c.guard(false); err != nil {
		return model.SortieFields{}, err
	}
	st := c.sess.Store
	if err := st.ReopenMission(missionNumber); err != nil {
		return model.SortieFields{}, err
	}
	c.sess.Derive()

	m, _ := st.Mission(missionNumber)
	c.logger.Info("mission reopened", "mission", missionNumber, "missionId", m.MissionID)
	c.refresh()
	return model.FieldsFromMission(m), nil
}

// BeginModify unlocks the sortie values of the open mission.
func (c *Controller) BeginModify() (model.SortieFields, error) {
	if err := c.guard(false); err != nil {
		return model.SortieFields{}, err
	}
	open, ok := c.sess.Store.OpenMission()
	if !ok {
		return model.SortieFields{}, fmt.Errorf("no open mission: %w", model.ErrMissionNotFound)
	}
	if err := c.sess.Store.SetModifying(true); err != nil {
		return model.SortieFields{}, err
	}
	c.logger.Info("sortie modify started", "mission", open.MissionNumber)
	c.refresh()
	return model.FieldsFromMission(open), nil
}

// EndModify stores the new sortie values and re-locks. Incomplete values
// keep modify mode active.
func (c *Controller) EndModify(fields model.SortieFields) (model.Mission, error) {
	if !c.sess.Modifying() {
		return model.Mission{}, fmt.Errorf("modify mode is not active: %w", model.ErrNotEditable)
	}
	st := c.sess.Store
	open, ok := st.OpenMission()
	if !ok {
		if err := st.SetModifying(false); err != nil {
			return model.Mission{}, err
		}
		return model.Mission{}, fmt.Errorf("no open mission: %w", model.ErrMissionNotFound)
	}
	if err := c.validate(fields, nil, open.MissionNumber); err != nil {
		return model.Mission{}, err
	}
	m, err := st.UpdateMission(open.MissionNumber, fields)
	if err != nil {
		return model.Mission{}, err
	}
	if err := st.SetModifying(false); err != nil {
		return model.Mission{}, err
	}
	c.logger.Info("sortie modified", "mission", m.MissionNumber, "missionId", m.MissionID)
	c.refresh()
	return m, nil
}

// SetNotes replaces the notes of a mission.
func (c *Controller) SetNotes(missionNumber int, notes string) error {
	if err := c.sess.Store.SetNotes(missionNumber, notes); err != nil {
		return err
	}
	c.logger.Debug("notes updated", "mission", missionNumber)
	return nil
}

// SetAuditoriums replaces the auditoriums of a mission.
func (c *Controller) SetAuditoriums(missionNumber int, auditoriums string) error {
	if err := c.sess.Store.SetAuditoriums(missionNumber, auditoriums); err != nil {
		return err
	}
	c.logger.Debug("auditoriums updated", "mission", missionNumber)
	return nil
}

////////////////////////
// FILES
////////////////////////

// Open replaces the working set with the content of path. When the file has
// an open mission its sortie values are returned.
func (c *Controller) Open(path string) (model.SortieFields, bool, error) {
	if err := c.guard(false); err != nil {
		return model.SortieFields{}, false, err
	}
	st := c.sess.Store
	if err := st.Load(path); err != nil {
		return model.SortieFields{}, false, err
	}
	c.sess.Derive()
	c.logger.Info("working file opened", "path", path, "missions", len(st.Missions()), "aircraft", st.AircraftCount())
	c.refresh()

	if open, ok := st.OpenMission(); ok {
		return model.FieldsFromMission(open), true, nil
	}
	return model.SortieFields{}, false, nil
}

// RosterResult lists the files a roster export touched.
type RosterResult struct {
	HighPath    string `json:"highPath"`
	LowPath     string `json:"lowPath"`
	ArchivePath string `json:"archivePath,omitempty"`
	WorkingFile string `json:"workingFile"`
}

// ExportRoster writes both roster workbooks into dir (the configured roster
// directory when empty), archives the working file and starts a new empty
// one. Every aircraft must be submitted. The new working file never replaces
// an existing one: when the archive fails, the records stay where they are
// and the session moves to a spare file.
func (c *Controller) ExportRoster(dir string) (RosterResult, error) {
	if err := c.guard(false); err != nil {
		return RosterResult{}, err
	}
	st := c.sess.Store
	if st.AircraftCount() == 0 {
		return RosterResult{}, model.ErrNothingToExport
	}
	if n := st.OutstandingCount(); n > 0 {
		return RosterResult{}, fmt.Errorf("%d aircraft: %w", n, model.ErrOutstandingAircraft)
	}

	r := report.BuildRoster(st.Missions(), st.ChildrenOf, report.RosterOptions{
		Wing:  c.exportCfg.Wing,
		Range: c.exportCfg.Range,
	})
	writer := c.writer
	if dir != "" {
		writer = writer.WithRosterDir(dir)
	}
	high, low, err := writer.WriteRoster(r)
	if err != nil {
		return RosterResult{}, err
	}
	res := RosterResult{HighPath: high, LowPath: low}
	c.logger.Info("roster exported", "high", high, "low", low, "rows", len(r.High)+len(r.Low)-2)

	now := c.now()
	old := st.Path()
	archived, err := export.Archive(old, c.processedDir, export.ArchiveName(r.Date, now, c.sess.Ext))
	if err != nil {
		c.warn("working file could not be archived, move it to the processed folder manually", "path", old, "error", err)
	} else {
		res.ArchivePath = archived
	}

	res.WorkingFile = c.freeWorkingPath(c.sess.WorkingPath(now))
	if err := st.Reset(res.WorkingFile); err != nil {
		return res, err
	}
	c.sess.Clear()
	c.refresh()
	return res, nil
}

// SpareName is the base name of the working file used when the dated one is taken.
const SpareName = "tempFile"

// freeWorkingPath returns preferred when nothing exists there, otherwise the
// first free spare name in the working directory.
func (c *Controller) freeWorkingPath(preferred string) string {
	if !exists(preferred) {
		return preferred
	}
	for i := 1; ; i++ {
		name := SpareName
		if i > 1 {
			name = fmt.Sprintf("%s %d", SpareName, i)
		}
		p := filepath.Join(c.sess.Dir, name+c.sess.Ext)
		if !exists(p) {
			c.logger.Warn("working file name taken, using a spare", "wanted", preferred, "path", p)
			return p
		}
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// HalfSheetResult is the written Half Sheet and the packing warnings.
type HalfSheetResult struct {
	Path     string   `json:"path"`
	Warnings []string `json:"warnings,omitempty"`
}

// ExportHalfSheet writes the Half Sheet of one mission. Initials are required.
func (c *Controller) ExportHalfSheet(missionNumber int, initials string) (HalfSheetResult, error) {
	if err := c.guard(false); err != nil {
		return HalfSheetResult{}, err
	}
	st := c.sess.Store
	m, ok := st.Mission(missionNumber)
	if !ok {
		return HalfSheetResult{}, fmt.Errorf("mission %d: %w", missionNumber, model.ErrMissionNotFound)
	}
	h, err := report.BuildHalfSheet(m, st.ChildrenOf(missionNumber), initials)
	if err != nil {
		return HalfSheetResult{}, err
	}
	path, err := c.writer.WriteHalfSheet(h)
	if err != nil {
		return HalfSheetResult{}, err
	}
	for _, w := range h.Warnings {
		c.warn(w, "mission", missionNumber)
	}
	c.logger.Info("half sheet exported", "mission", missionNumber, "path", path)
	return HalfSheetResult{Path: path, Warnings: slices.Clone(h.Warnings)}, nil
}
