// Package export writes report shapes to xlsx workbooks and archives working files.
package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/nellis-lmt/paperload/internal/config"
	"github.com/nellis-lmt/paperload/internal/model"
	"github.com/nellis-lmt/paperload/internal/report"
	"github.com/xuri/excelize/v2"
)

// HalfSheetName is the worksheet the Half Sheet template is filled on.
const HalfSheetName = "Half Sheet"

// ArchiveLayout is appended to the file date when a working file is archived.
const ArchiveLayout = " EX06-01-02.1504"

// Writer renders roster and Half Sheet workbooks into the configured directories.
type Writer struct {
	cfg config.ExportConfig
}

// NewWriter creates a writer for cfg.
func NewWriter(cfg config.ExportConfig) *Writer {
	return &Writer{cfg: cfg}
}

// WithRosterDir returns a copy of w that writes rosters into dir.
func (w *Writer) WithRosterDir(dir string) *Writer {
	cfg := w.cfg
	cfg.RosterDir = dir
	return &Writer{cfg: cfg}
}

// RosterPaths returns the high and low activity workbook paths for r.
func (w *Writer) RosterPaths(r report.Roster) (string, string) {
	return filepath.Join(w.cfg.RosterDir, r.HighFileName()), filepath.Join(w.cfg.RosterDir, r.LowFileName())
}

// HalfSheetPath returns the workbook path for h.
func (w *Writer) HalfSheetPath(h report.HalfSheet) string {
	return filepath.Join(w.cfg.HalfSheetDir, h.FileName())
}

// WriteRoster writes both roster workbooks. Both targets are checked before
// either is written, and both are staged beside their targets first so a
// failure leaves neither target changed.
func (w *Writer) WriteRoster(r report.Roster) (string, string, error) {
	highPath, lowPath := w.RosterPaths(r)
	for _, p := range []string{highPath, lowPath} {
		if Busy(p) {
			return "", "", &model.ExportTargetBusyError{Path: p}
		}
	}
	if err := os.MkdirAll(w.cfg.RosterDir, 0755); err != nil {
		return "", "", &model.PersistenceError{Op: "export", Path: w.cfg.RosterDir, Err: err}
	}

	books := []struct {
		path string
		rows [][]string
	}{
		{highPath, r.High},
		{lowPath, r.Low},
	}
	var staged []string
	defer func() {
		for _, p := range staged {
			os.Remove(p)
		}
	}()
	for _, b := range books {
		tmp := stagingPath(b.path)
		staged = append(staged, tmp)
		if err := writeRows(tmp, b.rows); err != nil {
			return "", "", err
		}
	}
	if err := publish(staged, []string{highPath, lowPath}); err != nil {
		return "", "", err
	}
	return highPath, lowPath, nil
}

// stagingPath keeps the .xlsx extension, which excelize requires on save.
func stagingPath(path string) string {
	return filepath.Join(filepath.Dir(path), ".staged-"+filepath.Base(path))
}

// publish renames every staged file over its target. Replaced targets are
// kept aside until all renames succeed; on failure they are put back.
func publish(staged, targets []string) error {
	type step struct{ target, backup string }
	var done []step
	undo := func() {
		for i := len(done) - 1; i >= 0; i-- {
			os.Remove(done[i].target)
			if done[i].backup != "" {
				os.Rename(done[i].backup, done[i].target)
			}
		}
	}

	for i, target := range targets {
		st := step{target: target}
		if _, err := os.Lstat(target); err == nil {
			st.backup = filepath.Join(filepath.Dir(target), ".replaced-"+filepath.Base(target))
			if err := os.Rename(target, st.backup); err != nil {
				undo()
				return &model.PersistenceError{Op: "export", Path: target, Err: err}
			}
		}
		if err := os.Rename(staged[i], target); err != nil {
			if st.backup != "" {
				os.Rename(st.backup, target)
			}
			undo()
			return &model.PersistenceError{Op: "export", Path: target, Err: err}
		}
		done = append(done, st)
	}
	for _, st := range done {
		if st.backup != "" {
			os.Remove(st.backup)
		}
	}
	return nil
}

func writeRows(path string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return &model.PersistenceError{Op: "export", Path: path, Err: err}
	}
	return nil
}

// WriteHalfSheet fills the Half Sheet template with h and saves it as
// "<missionId>.xlsx". Without a template a blank workbook is used.
func (w *Writer) WriteHalfSheet(h report.HalfSheet) (string, error) {
	path := w.HalfSheetPath(h)
	if Busy(path) {
		return "", &model.ExportTargetBusyError{Path: path}
	}

	f, err := w.openTemplate()
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := fillHalfSheet(f, h); err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.cfg.HalfSheetDir, 0755); err != nil {
		return "", &model.PersistenceError{Op: "export", Path: w.cfg.HalfSheetDir, Err: err}
	}
	if err := f.SaveAs(path); err != nil {
		return "", &model.PersistenceError{Op: "export", Path: path, Err: err}
	}
	return path, nil
}

func (w *Writer) openTemplate() (*excelize.File, error) {
	if w.cfg.HalfSheetTemplate != "" {
		if _, err := os.Stat(w.cfg.HalfSheetTemplate); err == nil {
			f, err := excelize.OpenFile(w.cfg.HalfSheetTemplate)
			if err != nil {
				return nil, &model.PersistenceError{Op: "template", Path: w.cfg.HalfSheetTemplate, Err: err}
			}
			if idx, _ := f.GetSheetIndex(HalfSheetName); idx < 0 {
				f.Close()
				return nil, &model.PersistenceError{
					Op: "template", Path: w.cfg.HalfSheetTemplate,
					Err: fmt.Errorf("no %q worksheet", HalfSheetName),
				}
			}
			return f, nil
		}
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), HalfSheetName); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Half Sheet cells.
const (
	cellMissionID  = "B2"
	cellDate       = "J2"
	cellRange      = "C4"
	cellProject    = "E4"
	cellCDs        = "G4"
	cellStations   = "I4"
	cellHighCount  = "F13"
	cellLowCount   = "G13"
	cellHighCNX    = "F14"
	cellLowCNX     = "G14"
	cellHighNonEff = "F15"
	cellHighEff    = "F16"
	cellLowEff     = "G16"
	cellNotes      = "B32"
	cellInitials   = "I48"
	firstLineRow   = 6
	firstNonEffRow = 20
	lineColumn     = 4
	nonEffFirstCol = 2
)

func fillHalfSheet(f *excelize.File, h report.HalfSheet) error {
	values := []struct {
		cell  string
		value any
	}{
		{cellMissionID, h.MissionID},
		{cellDate, h.Date.Format(report.SheetDateLayout)},
		{cellRange, h.RangeText()},
		{cellProject, h.ProjectNumber},
		{cellCDs, h.NumberOfCDs},
		{cellStations, h.RecordedStations},
		{cellHighCount, h.HighCount},
		{cellLowCount, h.LowCount},
		{cellHighCNX, h.HighCNX},
		{cellLowCNX, h.LowCNX},
		{cellHighNonEff, h.HighNonEffective},
		{cellHighEff, h.HighEffective()},
		{cellLowEff, h.LowEffective()},
		{cellNotes, h.Notes},
		{cellInitials, h.Initials},
	}
	for _, v := range values {
		if err := f.SetCellValue(HalfSheetName, v.cell, v.value); err != nil {
			return fmt.Errorf("set %s: %w", v.cell, err)
		}
	}

	for i, line := range h.Lines {
		cell, err := excelize.CoordinatesToCellName(lineColumn, firstLineRow+i)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(HalfSheetName, cell, line); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}

	for i, a := range h.NonEffective {
		row := []any{a.Unit, a.Callsign, a.Type, a.Station, a.TailNumber, a.PodSerial, string(a.TrackStatus)}
		cell, err := excelize.CoordinatesToCellName(nonEffFirstCol, firstNonEffRow+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(HalfSheetName, cell, &row); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}
	return nil
}

////////////////////////
// BUSY PROBE
////////////////////////

// Busy reports whether path is held open by another program. A missing
// file is never busy. Office editors leave a "~$<name>" owner file beside
// open workbooks; a file that cannot be opened read-write counts as well,
// unless the refusal is only its permission bits.
func Busy(path string) bool {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	switch {
	case err == nil:
		f.Close()
	case errors.Is(err, fs.ErrNotExist):
		return false
	case !errors.Is(err, fs.ErrPermission):
		return true
	}

	owner := filepath.Join(filepath.Dir(path), "~$"+filepath.Base(path))
	_, err = os.Stat(owner)
	return err == nil
}

////////////////////////
// ARCHIVE
////////////////////////

// ArchiveName is the processed-directory name of a working file,
// "D-MON-YY EXyy-MM-dd.HHmm" followed by ext.
func ArchiveName(date, at time.Time, ext string) string {
	return model.FileDate(date) + at.Format(ArchiveLayout) + ext
}

// Archive moves src into dir under name. An existing file of that name is
// never replaced.
func Archive(src, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &model.PersistenceError{Op: "archive", Path: dir, Err: err}
	}
	dst := filepath.Join(dir, name)
	if _, err := os.Lstat(dst); err == nil {
		return "", &model.PersistenceError{Op: "archive", Path: dst, Err: fs.ErrExist}
	}
	if err := os.Rename(src, dst); err != nil {
		return "", &model.PersistenceError{Op: "archive", Path: src, Err: err}
	}
	return dst, nil
}
