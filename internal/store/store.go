// Package store owns the sortie and aircraft tables and their parent/child
// relation. Every accepted mutation is persisted through a storage.Backend
// before it returns; a mutation that fails, or whose save fails, leaves the
// tables exactly as they were.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"sync"

	"github.com/nellis-lmt/paperload/internal/gate"
	"github.com/nellis-lmt/paperload/internal/model"
	"github.com/nellis-lmt/paperload/internal/storage"
)

// Store keeps missions keyed by mission number and aircraft keyed by player number.
type Store struct {
	backend storage.Backend
	policy  gate.Policy
	path    string

	missions map[int]*model.Mission
	aircraft map[int]*model.Aircraft
	order    []int         // mission numbers in insertion order
	children map[int][]int // mission number -> player numbers in insertion order
	hold     model.Hold

	mu sync.RWMutex
}

// New creates an empty store writing to path through backend.
func New(backend storage.Backend, policy gate.Policy, path string) *Store {
	s := &Store{backend: backend, policy: policy, path: path}
	s.reset()
	return s
}

// Open loads path into a new store. A missing file starts an empty store and writes it out.
func Open(backend storage.Backend, policy gate.Policy, path string) (*Store, error) {
	s := New(backend, policy, path)
	if err := s.Load(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if err := s.Save(path); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) reset() {
	s.missions = make(map[int]*model.Mission)
	s.aircraft = make(map[int]*model.Aircraft)
	s.order = nil
	s.children = make(map[int][]int)
	s.hold = model.Hold{}
}

// Path is the working file the store persists to.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

////////////////////////
// PERSISTENCE
////////////////////////

// Load replaces the tables with the content of path and makes it the working file.
// On error the store is unchanged.
func (s *Store) Load(path string) error {
	snap, err := s.backend.Load(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.restore(snap)
	s.path = path
	return nil
}

// Save writes the tables to path and makes it the working file.
func (s *Store) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Save(path, s.snapshot()); err != nil {
		return err
	}
	s.path = path
	return nil
}

// Reset empties the store, points it at path and writes the empty file.
func (s *Store) Reset(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, prevPath := s.snapshot(), s.path
	s.reset()
	s.path = path
	if err := s.backend.Save(path, s.snapshot()); err != nil {
		s.restore(prev)
		s.path = prevPath
		return err
	}
	return nil
}

// Snapshot returns a copy of both tables in insertion order.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Store) snapshot() model.Snapshot {
	snap := model.NewSnapshot()
	for _, n := range s.order {
		snap.Missions = append(snap.Missions, *s.missions[n])
	}
	snap.Aircraft = s.allAircraft()
	snap.Hold = s.hold
	if s.hold.Editing != nil {
		held := *s.hold.Editing
		snap.Hold.Editing = &held
	}
	return snap
}

func (s *Store) restore(snap model.Snapshot) {
	s.reset()
	for _, m := range snap.Missions {
		m := m
		s.missions[m.MissionNumber] = &m
		s.order = append(s.order, m.MissionNumber)
	}
	for _, a := range snap.Aircraft {
		a := a
		s.aircraft[a.PlayerNumber] = &a
		s.children[a.MissionNumber] = append(s.children[a.MissionNumber], a.PlayerNumber)
	}
	s.hold = snap.Hold
	if snap.Hold.Editing != nil {
		held := *snap.Hold.Editing
		s.hold.Editing = &held
	}
}

// mutate runs fn under the write lock and persists the result. If fn or the
// save fails the tables are rolled back.
func (s *Store) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snapshot()
	if err := fn(); err != nil {
		s.restore(prev)
		return err
	}
	if err := s.backend.Save(s.path, s.snapshot()); err != nil {
		s.restore(prev)
		return err
	}
	return nil
}

////////////////////////
// QUERIES
////////////////////////

// Missions returns every sortie in insertion order.
func (s *Store) Missions() []model.Mission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Mission, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, *s.missions[n])
	}
	return out
}

// Mission returns one sortie.
func (s *Store) Mission(missionNumber int) (model.Mission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.missions[missionNumber]
	if !ok {
		return model.Mission{}, false
	}
	return *m, true
}

// OpenMission returns the single unsubmitted sortie, if any.
func (s *Store) OpenMission() (model.Mission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m := s.openMission(); m != nil {
		return *m, true
	}
	return model.Mission{}, false
}

func (s *Store) openMission() *model.Mission {
	for _, n := range s.order {
		if m := s.missions[n]; m.Open() {
			return m
		}
	}
	return nil
}

// Aircraft returns one aircraft by player number.
func (s *Store) Aircraft(playerNumber int) (model.Aircraft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.aircraft[playerNumber]
	if !ok {
		return model.Aircraft{}, false
	}
	return *a, true
}

// ChildrenOf returns the aircraft of a mission in insertion order.
func (s *Store) ChildrenOf(missionNumber int) []model.Aircraft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.childrenOf(missionNumber)
}

func (s *Store) childrenOf(missionNumber int) []model.Aircraft {
	ids := s.children[missionNumber]
	out := make([]model.Aircraft, 0, len(ids))
	for _, p := range ids {
		out = append(out, *s.aircraft[p])
	}
	return out
}

// AllAircraft returns every aircraft, grouped by mission in mission order.
func (s *Store) AllAircraft() []model.Aircraft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allAircraft()
}

func (s *Store) allAircraft() []model.Aircraft {
	var out []model.Aircraft
	for _, n := range s.order {
		out = append(out, s.childrenOf(n)...)
	}
	return out
}

// OutstandingCount is the number of aircraft not yet submitted.
func (s *Store) OutstandingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, a := range s.aircraft {
		if !a.IsPlayerSubmitted {
			n++
		}
	}
	return n
}

// AircraftCount is the number of aircraft in the store.
func (s *Store) AircraftCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.aircraft)
}

// MaxMissionNumber returns the largest mission number, or 0 when empty.
func (s *Store) MaxMissionNumber() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	max := 0
	for n := range s.missions {
		if n > max {
			max = n
		}
	}
	return max
}

// MaxPlayerNumber returns the largest player number, or 0 when empty. A held
// aircraft counts.
func (s *Store) MaxPlayerNumber() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	max := 0
	for p := range s.aircraft {
		if p > max {
			max = p
		}
	}
	if h := s.hold.Editing; h != nil && h.PlayerNumber > max {
		max = h.PlayerNumber
	}
	return max
}

// Hold returns the persisted operator hold.
func (s *Store) Hold() model.Hold {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot().Hold
}

////////////////////////
// MUTATIONS
////////////////////////

// AddOrGetOpenMission returns the open mission with the given number, creating
// it from fields when absent. An open mission without aircraft takes the new
// field values; one with aircraft is returned as stored.
func (s *Store) AddOrGetOpenMission(missionNumber int, fields model.SortieFields) (model.Mission, error) {
	var out model.Mission
	err := s.mutate(func() error {
		if m, ok := s.missions[missionNumber]; ok {
			if !m.Open() {
				return fmt.Errorf("mission %d: %w", missionNumber, model.ErrMissionSubmitted)
			}
			if len(s.children[missionNumber]) == 0 {
				fields.Apply(m)
			}
			out = *m
			return nil
		}
		if open := s.openMission(); open != nil {
			return fmt.Errorf("mission %d: %w", open.MissionNumber, model.ErrMissionOpen)
		}

		m := &model.Mission{MissionNumber: missionNumber}
		fields.Apply(m)
		s.missions[missionNumber] = m
		s.order = append(s.order, missionNumber)
		out = *m
		return nil
	})
	return out, err
}

// AddAircraft inserts a normalized aircraft under its open mission. Collisions
// are reported as *model.DuplicateError and leave the store unchanged.
func (s *Store) AddAircraft(a model.Aircraft) error {
	a = a.Normalize()
	return s.mutate(func() error {
		m, ok := s.missions[a.MissionNumber]
		if !ok {
			return fmt.Errorf("mission %d: %w", a.MissionNumber, model.ErrMissionNotFound)
		}
		if !m.Open() {
			return fmt.Errorf("mission %d: %w", a.MissionNumber, model.ErrMissionSubmitted)
		}
		if _, taken := s.aircraft[a.PlayerNumber]; taken || a.PlayerNumber < 1 {
			return &model.DuplicateError{
				Field:         "Player Number",
				Value:         strconv.Itoa(a.PlayerNumber),
				MissionNumber: a.MissionNumber,
			}
		}
		if err := s.policy.Check(lockedSource{s}, a); err != nil {
			return err
		}

		a.IsPlayerSubmitted = false
		s.aircraft[a.PlayerNumber] = &a
		s.children[a.MissionNumber] = append(s.children[a.MissionNumber], a.PlayerNumber)
		if h := s.hold.Editing; h != nil && h.PlayerNumber == a.PlayerNumber {
			s.hold.Editing = nil
		}
		return nil
	})
}

// Check runs the uniqueness policy for a without inserting it.
func (s *Store) Check(a model.Aircraft) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy.Check(lockedSource{s}, a.Normalize())
}

// DeleteAircraft removes one aircraft and returns it. Deleting from a
// submitted mission refreshes that mission's HAA/LAA counts.
func (s *Store) DeleteAircraft(playerNumber int) (model.Aircraft, error) {
	var out model.Aircraft
	err := s.mutate(func() error {
		a, ok := s.aircraft[playerNumber]
		if !ok {
			return fmt.Errorf("player %d: %w", playerNumber, model.ErrAircraftNotFound)
		}
		out = *a
		delete(s.aircraft, playerNumber)
		s.children[a.MissionNumber] = slices.DeleteFunc(s.children[a.MissionNumber], func(p int) bool {
			return p == playerNumber
		})
		if m := s.missions[a.MissionNumber]; m != nil && !m.Open() {
			m.HAACount, m.LAACount = s.countActivity(m.MissionNumber)
		}
		return nil
	})
	return out, err
}

// DeleteMission removes a mission and all of its aircraft, returning the removed aircraft.
func (s *Store) DeleteMission(missionNumber int) ([]model.Aircraft, error) {
	var removed []model.Aircraft
	err := s.mutate(func() error {
		if _, ok := s.missions[missionNumber]; !ok {
			return fmt.Errorf("mission %d: %w", missionNumber, model.ErrMissionNotFound)
		}
		removed = s.childrenOf(missionNumber)
		s.deleteMission(missionNumber)
		if s.openMission() == nil {
			s.hold = model.Hold{}
		}
		return nil
	})
	return removed, err
}

func (s *Store) deleteMission(missionNumber int) {
	for _, p := range s.children[missionNumber] {
		delete(s.aircraft, p)
	}
	delete(s.children, missionNumber)
	delete(s.missions, missionNumber)
	s.order = slices.DeleteFunc(s.order, func(n int) bool { return n == missionNumber })
}

// SubmitMission stamps the mission and its aircraft submitted and records the counts.
func (s *Store) SubmitMission(missionNumber, haaCount, laaCount int) error {
	return s.mutate(func() error {
		m, ok := s.missions[missionNumber]
		if !ok {
			return fmt.Errorf("mission %d: %w", missionNumber, model.ErrMissionNotFound)
		}
		if !m.Open() {
			return fmt.Errorf("mission %d: %w", missionNumber, model.ErrMissionSubmitted)
		}
		if len(s.children[missionNumber]) == 0 {
			return fmt.Errorf("mission %d: %w", missionNumber, model.ErrNoAircraft)
		}

		m.IsMissionSubmitted = true
		m.HAACount = haaCount
		m.LAACount = laaCount
		s.setChildrenSubmitted(missionNumber, true)
		return nil
	})
}

// ReopenMission clears the submitted flags of a mission and its aircraft.
// Another open mission blocks the reopen while it holds aircraft; an empty
// one is discarded.
func (s *Store) ReopenMission(missionNumber int) error {
	return s.mutate(func() error {
		m, ok := s.missions[missionNumber]
		if !ok {
			return fmt.Errorf("mission %d: %w", missionNumber, model.ErrMissionNotFound)
		}
		if m.Open() {
			return nil
		}
		if open := s.openMission(); open != nil {
			if len(s.children[open.MissionNumber]) > 0 {
				return fmt.Errorf("mission %d: %w", open.MissionNumber, model.ErrOutstandingAircraft)
			}
			s.deleteMission(open.MissionNumber)
		}

		m.IsMissionSubmitted = false
		s.setChildrenSubmitted(missionNumber, false)
		return nil
	})
}

// UpdateMission rewrites the sortie values of an open mission.
func (s *Store) UpdateMission(missionNumber int, fields model.SortieFields) (model.Mission, error) {
	var out model.Mission
	err := s.mutate(func() error {
		m, ok := s.missions[missionNumber]
		if !ok {
			return fmt.Errorf("mission %d: %w", missionNumber, model.ErrMissionNotFound)
		}
		if !m.Open() {
			return fmt.Errorf("mission %d: %w", missionNumber, model.ErrMissionSubmitted)
		}
		fields.Apply(m)
		out = *m
		return nil
	})
	return out, err
}

// HoldForEdit takes an aircraft of the open mission out of the table and
// keeps it in the hold until it is re-added or CancelEdit puts it back. Both
// changes are saved together.
func (s *Store) HoldForEdit(playerNumber int) (model.Aircraft, error) {
	var out model.Aircraft
	err := s.mutate(func() error {
		if s.hold.Editing != nil {
			return fmt.Errorf("player %d: %w", s.hold.Editing.PlayerNumber, model.ErrEditInProgress)
		}
		a, ok := s.aircraft[playerNumber]
		if !ok {
			return fmt.Errorf("player %d: %w", playerNumber, model.ErrAircraftNotFound)
		}
		if m := s.missions[a.MissionNumber]; m == nil || !m.Open() {
			return fmt.Errorf("mission %d: %w", a.MissionNumber, model.ErrMissionSubmitted)
		}
		out = *a
		delete(s.aircraft, playerNumber)
		s.children[a.MissionNumber] = slices.DeleteFunc(s.children[a.MissionNumber], func(p int) bool {
			return p == playerNumber
		})
		held := out
		s.hold.Editing = &held
		return nil
	})
	return out, err
}

// CancelEdit puts the held aircraft back unchanged and clears the hold.
func (s *Store) CancelEdit() (model.Aircraft, error) {
	var out model.Aircraft
	err := s.mutate(func() error {
		if s.hold.Editing == nil {
			return model.ErrNotEditable
		}
		out = *s.hold.Editing
		if _, ok := s.missions[out.MissionNumber]; !ok {
			return fmt.Errorf("mission %d: %w", out.MissionNumber, model.ErrMissionNotFound)
		}
		s.aircraft[out.PlayerNumber] = &out
		s.children[out.MissionNumber] = append(s.children[out.MissionNumber], out.PlayerNumber)
		s.hold.Editing = nil
		return nil
	})
	return out, err
}

// SetModifying persists whether the open mission's sortie values are unlocked.
func (s *Store) SetModifying(on bool) error {
	return s.mutate(func() error {
		if on && s.openMission() == nil {
			return fmt.Errorf("no open mission: %w", model.ErrMissionNotFound)
		}
		s.hold.Modifying = on
		return nil
	})
}

// SetNotes replaces the free-text notes of a mission.
func (s *Store) SetNotes(missionNumber int, notes string) error {
	return s.setText(missionNumber, func(m *model.Mission) { m.Notes = notes })
}

// SetAuditoriums replaces the auditorium list of a mission.
func (s *Store) SetAuditoriums(missionNumber int, auditoriums string) error {
	return s.setText(missionNumber, func(m *model.Mission) { m.Auditoriums = auditoriums })
}

func (s *Store) setText(missionNumber int, set func(*model.Mission)) error {
	return s.mutate(func() error {
		m, ok := s.missions[missionNumber]
		if !ok {
			return fmt.Errorf("mission %d: %w", missionNumber, model.ErrMissionNotFound)
		}
		set(m)
		return nil
	})
}

func (s *Store) setChildrenSubmitted(missionNumber int, submitted bool) {
	for _, p := range s.children[missionNumber] {
		s.aircraft[p].IsPlayerSubmitted = submitted
	}
}

func (s *Store) countActivity(missionNumber int) (haa, laa int) {
	for _, a := range s.childrenOf(missionNumber) {
		if a.IsLowActivity {
			laa++
		} else {
			haa++
		}
	}
	return haa, laa
}

// lockedSource reads the tables while the caller already holds the lock.
type lockedSource struct{ s *Store }

func (l lockedSource) ChildrenOf(missionNumber int) []model.Aircraft {
	return l.s.childrenOf(missionNumber)
}

func (l lockedSource) AllAircraft() []model.Aircraft {
	return l.s.allAircraft()
}
