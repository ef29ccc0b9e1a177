package model

import (
	"errors"
	"fmt"
	"strings"
)

// Workflow refusals.
var (
	ErrNoAircraft          = errors.New("the open mission has no aircraft")
	ErrOutstandingAircraft = errors.New("there are aircraft that have not been submitted")
	ErrNothingToExport     = errors.New("there are no aircraft to export")
	ErrMissionOpen         = errors.New("a mission is already open")
	ErrEditInProgress      = errors.New("an aircraft edit is in progress")
	ErrModifyInProgress    = errors.New("sortie modify mode is active")
	ErrNotEditable         = errors.New("record is not editable")
	ErrMissionNotFound     = errors.New("mission not found")
	ErrAircraftNotFound    = errors.New("aircraft not found")
	ErrMissionSubmitted    = errors.New("mission is already submitted")
)

// DuplicateError reports a uniqueness collision inside the open mission.
type DuplicateError struct {
	Field         string
	Value         string
	MissionNumber int
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %s is already used in mission %d", e.Field, e.Value, e.MissionNumber)
}

// ValidationError enumerates every field that is missing or malformed.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("Please fill out or modify the following fields:")
	for _, f := range e.Fields {
		b.WriteString(" [")
		b.WriteString(f)
		b.WriteString("]")
	}
	return b.String()
}

// NewValidationError returns nil when no fields are given.
func NewValidationError(fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// PersistenceError wraps a working-file read or write failure.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ExportTargetBusyError means an export destination is open in another process.
type ExportTargetBusyError struct {
	Path string
}

func (e *ExportTargetBusyError) Error() string {
	return fmt.Sprintf("%s is open in another process, close it before continuing", e.Path)
}
