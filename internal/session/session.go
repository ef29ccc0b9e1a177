// Package session holds the operator's working set: the record store, the
// pod pool and the counters the workflow derives from them.
package session

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/nellis-lmt/paperload/internal/gate"
	"github.com/nellis-lmt/paperload/internal/inventory"
	"github.com/nellis-lmt/paperload/internal/model"
	"github.com/nellis-lmt/paperload/internal/storage"
	"github.com/nellis-lmt/paperload/internal/store"
)

// Session is the working set passed to every workflow operation.
type Session struct {
	Store *store.Store
	Pool  *inventory.Pool

	// Dir is the unprocessed directory working files live in.
	Dir string
	// Ext is the working file extension of the storage backend.
	Ext string

	mu            sync.RWMutex
	missionNumber int
	playerNumber  int
}

// New wraps an opened store and derives the counters from its content.
func New(st *store.Store, pool *inventory.Pool, dir, ext string) *Session {
	s := &Session{Store: st, Pool: pool, Dir: dir, Ext: ext}
	s.Derive()
	return s
}

// Open opens (or creates) the working file for date in dir.
func Open(backend storage.Backend, policy gate.Policy, pool *inventory.Pool, dir string, date time.Time) (*Session, error) {
	path := WorkingPath(dir, date, backend.Ext())
	st, err := store.Open(backend, policy, path)
	if err != nil {
		return nil, err
	}
	return New(st, pool, dir, backend.Ext()), nil
}

// WorkingPath names the working file of a day, "D-MON-YY" plus ext.
func WorkingPath(dir string, date time.Time, ext string) string {
	return filepath.Join(dir, model.FileDate(date)+ext)
}

// WorkingPath is the working file for date in this session's directory.
func (s *Session) WorkingPath(date time.Time) string {
	return WorkingPath(s.Dir, date, s.Ext)
}

// Derive recomputes the mission and player numbers from the store and
// rebuilds the pod pool from the open mission. The open mission keeps its
// number; otherwise the next mission is max+1. Players continue at max+1,
// counting an aircraft held for edit.
func (s *Session) Derive() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inUse []model.Aircraft
	if m, ok := s.Store.OpenMission(); ok {
		s.missionNumber = m.MissionNumber
		inUse = s.Store.ChildrenOf(m.MissionNumber)
	} else {
		s.missionNumber = s.Store.MaxMissionNumber() + 1
	}
	s.playerNumber = s.Store.MaxPlayerNumber() + 1
	s.Pool.Rebuild(inUse)
}

// MissionNumber is the number the next aircraft is filed under.
func (s *Session) MissionNumber() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.missionNumber
}

// SetMissionNumber points the session at a mission, e.g. after a reopen.
func (s *Session) SetMissionNumber(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missionNumber = n
}

// PlayerNumber is the number the next new aircraft receives.
func (s *Session) PlayerNumber() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playerNumber
}

// NextPlayer returns the player number for the next add: the held edit's
// number when an edit is in progress, otherwise the counter.
func (s *Session) NextPlayer() int {
	if held, ok := s.Editing(); ok {
		return held.PlayerNumber
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playerNumber
}

// Accepted records that player was added. The counter only moves forward.
func (s *Session) Accepted(player int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if player >= s.playerNumber {
		s.playerNumber = player + 1
	}
}

// Editing returns the aircraft held by an edit in progress. The hold lives
// in the working file so it survives between invocations.
func (s *Session) Editing() (model.Aircraft, bool) {
	h := s.Store.Hold()
	if h.Editing == nil {
		return model.Aircraft{}, false
	}
	return *h.Editing, true
}

// Modifying reports whether sortie modify mode is active.
func (s *Session) Modifying() bool {
	return s.Store.Hold().Modifying
}

// Clear resets the counters to 1 and empties the pod pool. Used once the
// store has been reset onto a fresh working file.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missionNumber = 1
	s.playerNumber = 1
	s.Pool.Rebuild(nil)
}

// PinnedDate is the sortie date every new sortie must match: the date of the
// first mission once the store holds aircraft. Mission except is ignored so
// a mission being modified does not pin itself.
func (s *Session) PinnedDate(except int) (time.Time, bool) {
	if s.Store.AircraftCount() == 0 {
		return time.Time{}, false
	}
	for _, m := range s.Store.Missions() {
		if m.MissionNumber == except {
			continue
		}
		if len(s.Store.ChildrenOf(m.MissionNumber)) > 0 {
			return m.Date, true
		}
	}
	return time.Time{}, false
}
