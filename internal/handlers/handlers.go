package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nellis-lmt/paperload/internal/dispatcher"
	"github.com/nellis-lmt/paperload/internal/logging"
	"github.com/nellis-lmt/paperload/internal/model"
	"github.com/nellis-lmt/paperload/internal/parser"
	"github.com/nellis-lmt/paperload/internal/util"
	"github.com/nellis-lmt/paperload/internal/workflow"
)

// Operator commands.
const (
	CmdSortieState     = ":SORTIE:STATE:"
	CmdStatus          = ":STATUS:"
	CmdAircraftAdd     = ":AIRCRAFT:ADD:"
	CmdAircraftEdit    = ":AIRCRAFT:EDIT:"
	CmdAircraftCancel  = ":AIRCRAFT:EDIT:CANCEL:"
	CmdAircraftDelete  = ":AIRCRAFT:DELETE:"
	CmdMissionList     = ":MISSION:LIST:"
	CmdMissionSubmit   = ":MISSION:SUBMIT:"
	CmdMissionReopen   = ":MISSION:REOPEN:"
	CmdMissionDelete   = ":MISSION:DELETE:"
	CmdModifyBegin     = ":MISSION:MODIFY:BEGIN:"
	CmdModifyEnd       = ":MISSION:MODIFY:END:"
	CmdMissionNotes    = ":MISSION:NOTES:"
	CmdMissionAudit    = ":MISSION:AUDITORIUMS:"
	CmdFileOpen        = ":FILE:OPEN:"
	CmdExportRoster    = ":EXPORT:ROSTER:"
	CmdExportHalfSheet = ":EXPORT:HALFSHEET:"
	CmdPodAvailable    = ":POD:AVAILABLE:"
)

const (
	sortieUsage   = "<missionTime> <YYYY-MM-DD> <start HHMM> <end HHMM> <project> <cds> <stations M,2,3> <dash 1-3>"
	aircraftUsage = "<lowActivity> <unit> <callsign> <type> <station> <tail> <iff> <pod> <track>"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Workflow   *workflow.Controller
	Parser     *parser.Parser
	LogManager *logging.SlogManager
}

// Service turns operator commands into workflow calls.
type Service struct {
	deps         Dependencies
	writeLogFunc func(functionName, data, level string)
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	s := &Service{deps: deps}
	// Default writeLog function uses the logging manager
	s.writeLogFunc = func(functionName, data, level string) {
		if deps.LogManager != nil {
			deps.LogManager.WriteLog(functionName, data, level)
		}
	}
	return s
}

func (s *Service) writeLog(functionName, data, level string) {
	s.writeLogFunc(functionName, data, level)
}

// Register wires every operator command into d.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	d.Register(CmdSortieState, s.SortieState, dispatcher.Usage(""))
	d.Register(CmdStatus, s.Status)
	d.Register(CmdAircraftAdd, s.AddAircraft, dispatcher.Logged(), dispatcher.Usage(sortieUsage+" "+aircraftUsage))
	d.Register(CmdAircraftEdit, s.EditAircraft, dispatcher.Logged(), dispatcher.Usage("<player>"))
	d.Register(CmdAircraftCancel, s.CancelEdit, dispatcher.Logged())
	d.Register(CmdAircraftDelete, s.DeleteAircraft, dispatcher.Logged(), dispatcher.Usage("<player>"))
	d.Register(CmdMissionList, s.ListMissions)
	d.Register(CmdMissionSubmit, s.SubmitMission, dispatcher.Logged())
	d.Register(CmdMissionReopen, s.ReopenMission, dispatcher.Logged(), dispatcher.Usage("<mission>"))
	d.Register(CmdMissionDelete, s.DeleteMission, dispatcher.Logged(), dispatcher.Usage("<mission>"))
	d.Register(CmdModifyBegin, s.BeginModify, dispatcher.Logged())
	d.Register(CmdModifyEnd, s.EndModify, dispatcher.Logged(), dispatcher.Usage(sortieUsage))
	d.Register(CmdMissionNotes, s.SetNotes, dispatcher.Logged(), dispatcher.Usage("<mission> <text>"))
	d.Register(CmdMissionAudit, s.SetAuditoriums, dispatcher.Logged(), dispatcher.Usage("<mission> <text>"))
	d.Register(CmdFileOpen, s.OpenFile, dispatcher.Logged(), dispatcher.Usage("<path>"))
	d.Register(CmdExportRoster, s.ExportRoster, dispatcher.Logged(), dispatcher.Usage("[dir]"))
	d.Register(CmdExportHalfSheet, s.ExportHalfSheet, dispatcher.Logged(), dispatcher.Usage("<mission> <initials>"))
	d.Register(CmdPodAvailable, s.AvailablePods)
}

////////////////////////
// VIEWS
////////////////////////

// SortieView is the operator-facing rendering of sortie values.
type SortieView struct {
	MissionTime   string `json:"missionTime"`
	Date          string `json:"date"`
	RangeStart    string `json:"rangeStart"`
	RangeEnd      string `json:"rangeEnd"`
	ProjectNumber string `json:"projectNumber"`
	NumberOfCDs   int    `json:"numberOfCDs"`
	Stations      string `json:"stations"`
	Dash          int    `json:"dash"`
}

func sortieView(f model.SortieFields) SortieView {
	v := SortieView{
		MissionTime:   f.MissionTime,
		ProjectNumber: f.ProjectNumber,
		NumberOfCDs:   f.NumberOfCDs,
		Stations:      strings.Join(f.Stations.Stations, ","),
		Dash:          f.Stations.Dash,
	}
	if !f.Date.IsZero() {
		v.Date = f.Date.Format(parser.DateLayout)
	}
	if f.RangeStart.Valid() {
		v.RangeStart = f.RangeStart.String()
	}
	if f.RangeEnd.Valid() {
		v.RangeEnd = f.RangeEnd.String()
	}
	return v
}

// SortieState reports the lifecycle state and, when a mission is open, its sortie values.
type SortieState struct {
	State  string      `json:"state"`
	Locked bool        `json:"locked"`
	Open   *SortieView `json:"open,omitempty"`
}

// MissionRow is one line of the mission list.
type MissionRow struct {
	model.Mission
	Aircraft []model.Aircraft `json:"aircraft"`
}

////////////////////////
// HANDLERS
////////////////////////

// SortieState handles :SORTIE:STATE:.
func (s *Service) SortieState(e dispatcher.Event) (any, error) {
	w := s.deps.Workflow
	out := SortieState{State: w.State().String(), Locked: w.SortieLocked()}
	if m, ok := w.Session().Store.OpenMission(); ok {
		v := sortieView(model.FieldsFromMission(m))
		out.Open = &v
	}
	return out, nil
}

// Status handles :STATUS:.
func (s *Service) Status(e dispatcher.Event) (any, error) {
	return s.deps.Workflow.Status(), nil
}

// AddAircraft handles :AIRCRAFT:ADD: with the sortie block followed by the aircraft block.
func (s *Service) AddAircraft(e dispatcher.Event) (any, error) {
	functionName := CmdAircraftAdd
	want := parser.SortieArgs + parser.AircraftArgs
	if len(e.Args) != want {
		return nil, fmt.Errorf("expected %d args, got %d", want, len(e.Args))
	}

	fields, ferr := s.deps.Parser.ParseSortie(e.Args[:parser.SortieArgs])
	a, aerr := s.deps.Parser.ParseAircraft(e.Args[parser.SortieArgs:])
	if err := mergeValidation(ferr, aerr); err != nil {
		s.writeLog(functionName, err.Error(), "DEBUG")
		return nil, err
	}

	return s.deps.Workflow.AddAircraft(fields, a)
}

// mergeValidation folds two parse results into one error so every bad
// field is reported at once.
func mergeValidation(errs ...error) error {
	var fields []string
	for _, err := range errs {
		if err == nil {
			continue
		}
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		fields = append(fields, verr.Fields...)
	}
	return model.NewValidationError(fields...)
}

// EditAircraft handles :AIRCRAFT:EDIT:.
func (s *Service) EditAircraft(e dispatcher.Event) (any, error) {
	player, err := s.numberArg(e, "player")
	if err != nil {
		return nil, err
	}
	return s.deps.Workflow.BeginEdit(player)
}

// CancelEdit handles :AIRCRAFT:EDIT:CANCEL:.
func (s *Service) CancelEdit(e dispatcher.Event) (any, error) {
	return s.deps.Workflow.CancelEdit()
}

// DeleteAircraft handles :AIRCRAFT:DELETE:.
func (s *Service) DeleteAircraft(e dispatcher.Event) (any, error) {
	player, err := s.numberArg(e, "player")
	if err != nil {
		return nil, err
	}
	return s.deps.Workflow.DeleteAircraft(player)
}

// ListMissions handles :MISSION:LIST:.
func (s *Service) ListMissions(e dispatcher.Event) (any, error) {
	st := s.deps.Workflow.Session().Store
	missions := st.Missions()
	out := make([]MissionRow, 0, len(missions))
	for _, m := range missions {
		out = append(out, MissionRow{Mission: m, Aircraft: st.ChildrenOf(m.MissionNumber)})
	}
	return out, nil
}

// SubmitMission handles :MISSION:SUBMIT:.
func (s *Service) SubmitMission(e dispatcher.Event) (any, error) {
	return s.deps.Workflow.SubmitMission()
}

// ReopenMission handles :MISSION:REOPEN:.
func (s *Service) ReopenMission(e dispatcher.Event) (any, error) {
	n, err := s.numberArg(e, "mission")
	if err != nil {
		return nil, err
	}
	fields, err := s.deps.Workflow.ReopenMission(n)
	if err != nil {
		return nil, err
	}
	return sortieView(fields), nil
}

// DeleteMission handles :MISSION:DELETE:.
func (s *Service) DeleteMission(e dispatcher.Event) (any, error) {
	n, err := s.numberArg(e, "mission")
	if err != nil {
		return nil, err
	}
	return s.deps.Workflow.DeleteMission(n)
}

// BeginModify handles :MISSION:MODIFY:BEGIN:.
func (s *Service) BeginModify(e dispatcher.Event) (any, error) {
	fields, err := s.deps.Workflow.BeginModify()
	if err != nil {
		return nil, err
	}
	return sortieView(fields), nil
}

// EndModify handles :MISSION:MODIFY:END: with a sortie block.
func (s *Service) EndModify(e dispatcher.Event) (any, error) {
	fields, err := s.deps.Parser.ParseSortie(e.Args)
	if err != nil {
		return nil, err
	}
	return s.deps.Workflow.EndModify(fields)
}

// SetNotes handles :MISSION:NOTES:. Remaining args are joined with spaces.
func (s *Service) SetNotes(e dispatcher.Event) (any, error) {
	n, text, err := s.textArgs(e)
	if err != nil {
		return nil, err
	}
	return "ok", s.deps.Workflow.SetNotes(n, text)
}

// SetAuditoriums handles :MISSION:AUDITORIUMS:.
func (s *Service) SetAuditoriums(e dispatcher.Event) (any, error) {
	n, text, err := s.textArgs(e)
	if err != nil {
		return nil, err
	}
	return "ok", s.deps.Workflow.SetAuditoriums(n, text)
}

// OpenFile handles :FILE:OPEN:.
func (s *Service) OpenFile(e dispatcher.Event) (any, error) {
	if len(e.Args) != 1 {
		return nil, fmt.Errorf("expected 1 arg, got %d", len(e.Args))
	}
	fields, open, err := s.deps.Workflow.Open(util.CleanArg(e.Args[0]))
	if err != nil {
		return nil, err
	}
	out := SortieState{State: s.deps.Workflow.State().String(), Locked: s.deps.Workflow.SortieLocked()}
	if open {
		v := sortieView(fields)
		out.Open = &v
	}
	return out, nil
}

// ExportRoster handles :EXPORT:ROSTER:. The optional arg is the directory
// the operator chose for the workbooks.
func (s *Service) ExportRoster(e dispatcher.Event) (any, error) {
	if len(e.Args) > 1 {
		return nil, fmt.Errorf("expected at most 1 arg, got %d", len(e.Args))
	}
	var dir string
	if len(e.Args) == 1 {
		dir = util.CleanArg(e.Args[0])
	}
	return s.deps.Workflow.ExportRoster(dir)
}

// ExportHalfSheet handles :EXPORT:HALFSHEET:.
func (s *Service) ExportHalfSheet(e dispatcher.Event) (any, error) {
	if len(e.Args) != 2 {
		return nil, fmt.Errorf("expected 2 args, got %d", len(e.Args))
	}
	n, err := s.deps.Parser.ParseNumber("mission", e.Args[0])
	if err != nil {
		return nil, err
	}
	return s.deps.Workflow.ExportHalfSheet(n, util.CleanArg(e.Args[1]))
}

// AvailablePods handles :POD:AVAILABLE:.
func (s *Service) AvailablePods(e dispatcher.Event) (any, error) {
	return s.deps.Workflow.AvailablePods(), nil
}

func (s *Service) numberArg(e dispatcher.Event, kind string) (int, error) {
	if len(e.Args) != 1 {
		return 0, fmt.Errorf("expected 1 arg, got %d", len(e.Args))
	}
	return s.deps.Parser.ParseNumber(kind, e.Args[0])
}

func (s *Service) textArgs(e dispatcher.Event) (int, string, error) {
	if len(e.Args) < 1 {
		return 0, "", fmt.Errorf("expected at least 1 arg, got %d", len(e.Args))
	}
	n, err := s.deps.Parser.ParseNumber("mission", e.Args[0])
	if err != nil {
		return 0, "", err
	}
	parts := make([]string, 0, len(e.Args)-1)
	for _, a := range e.Args[1:] {
		parts = append(parts, util.CleanArg(a))
	}
	return n, strings.Join(parts, " "), nil
}
