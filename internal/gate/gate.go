// Package gate checks a new aircraft against the records it must not collide with.
package gate

import (
	"fmt"
	"strconv"

	"github.com/nellis-lmt/paperload/internal/model"
)

// Source exposes the rows a uniqueness check may compare against.
type Source interface {
	ChildrenOf(missionNumber int) []model.Aircraft
	AllAircraft() []model.Aircraft
}

// Scope names which existing aircraft a candidate is compared with.
type Scope int

const (
	// ScopeOpenMission compares against the children of the candidate's mission only.
	ScopeOpenMission Scope = iota
	// ScopeStore compares against every aircraft in the store.
	ScopeStore
)

func (s Scope) String() string {
	switch s {
	case ScopeOpenMission:
		return "open-mission"
	case ScopeStore:
		return "store"
	default:
		return "scope(" + strconv.Itoa(int(s)) + ")"
	}
}

// ParseScope reads a scope name as written by String. Blank means ScopeOpenMission.
func ParseScope(name string) (Scope, error) {
	switch name {
	case "", "open-mission":
		return ScopeOpenMission, nil
	case "store":
		return ScopeStore, nil
	default:
		return 0, fmt.Errorf("unknown gate scope %q", name)
	}
}

// Policy is the uniqueness policy applied before an aircraft is accepted.
type Policy struct {
	Scope Scope
}

// DefaultPolicy is mission scoped.
var DefaultPolicy = Policy{Scope: ScopeOpenMission}

func (p Policy) existing(src Source, missionNumber int) []model.Aircraft {
	if p.Scope == ScopeStore {
		return src.AllAircraft()
	}
	return src.ChildrenOf(missionNumber)
}

// Check rejects candidate with a *model.DuplicateError when its IFF, or its pod
// serial for a high-activity aircraft, is already held by an aircraft in scope.
// IFF is checked first.
func (p Policy) Check(src Source, candidate model.Aircraft) error {
	rows := p.existing(src, candidate.MissionNumber)

	for _, a := range rows {
		if a.PlayerNumber == candidate.PlayerNumber && a.MissionNumber == candidate.MissionNumber {
			continue
		}
		if a.IFF == candidate.IFF {
			return &model.DuplicateError{
				Field:         "IFF",
				Value:         strconv.Itoa(candidate.IFF),
				MissionNumber: candidate.MissionNumber,
			}
		}
	}

	if !candidate.Podded() {
		return nil
	}
	for _, a := range rows {
		if a.PlayerNumber == candidate.PlayerNumber && a.MissionNumber == candidate.MissionNumber {
			continue
		}
		if a.Podded() && a.PodSerial == candidate.PodSerial {
			return &model.DuplicateError{
				Field:         "Pod Serial",
				Value:         candidate.PodSerial,
				MissionNumber: candidate.MissionNumber,
			}
		}
	}
	return nil
}
