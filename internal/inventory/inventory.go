// Package inventory tracks which pod serials are free to assign.
package inventory

import (
	"slices"
	"strconv"
	"sync"

	"github.com/nellis-lmt/paperload/internal/model"
)

// DefaultSerials is the built-in pod inventory.
var DefaultSerials = buildDefault()

func buildDefault() []string {
	out := []string{
		"50001", "50002", "50014", "50018", "50023", "50024", "50029", "50030", "50031", "50033",
		"50066", "50067", "50073", "50075", "50079", "50080", "50082", "50086", "50087", "50092",
		"50093", "50094", "50096", "50097", "50103", "50104", "50106", "50131", "50132", "50141",
		"50143", "50144", "50203", "50211",
	}
	out = appendRange(out, 50213, 50223)
	out = append(out, "50307", "50308")
	out = appendRange(out, 50329, 50342)
	out = append(out, "50380", "50383", "50384", "50505", "50514", "50515", "50517", "50519",
		"50522", "50677", "50679", "50683", "50684")
	out = appendRange(out, 50693, 50710)
	out = appendRange(out, 50726, 50733)
	out = append(out, "50741", "50750", "50759")
	out = appendRange(out, 51489, 51535)
	return out
}

func appendRange(out []string, from, to int) []string {
	for n := from; n <= to; n++ {
		out = append(out, strconv.Itoa(n))
	}
	return out
}

// Pool is the set of serials not held by an aircraft of the open mission.
// The pool and the in-use subset always partition the inventory.
type Pool struct {
	inventory []string
	free      []string
	mu        sync.Mutex
}

// NewPool creates a full pool. An empty inventory selects DefaultSerials.
func NewPool(inventory []string) *Pool {
	if len(inventory) == 0 {
		inventory = DefaultSerials
	}
	inv := slices.Clone(inventory)
	slices.Sort(inv)
	inv = slices.Compact(inv)
	return &Pool{inventory: inv, free: slices.Clone(inv)}
}

// Contains reports whether serial is part of the inventory at all.
func (p *Pool) Contains(serial string) bool {
	_, ok := slices.BinarySearch(p.inventory, serial)
	return ok
}

// Available reports whether serial can be assigned now.
func (p *Pool) Available(serial string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := slices.BinarySearch(p.free, serial)
	return ok
}

// Free returns the assignable serials in sorted order.
func (p *Pool) Free() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.free)
}

// Remove takes serial out of the pool. Unknown or N/A serials are ignored.
func (p *Pool) Remove(serial string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i, ok := slices.BinarySearch(p.free, serial)
	if !ok {
		return false
	}
	p.free = slices.Delete(p.free, i, i+1)
	return true
}

// Restore returns serial to the pool in sorted position. N/A, serials outside
// the inventory and serials already free are ignored.
func (p *Pool) Restore(serial string) bool {
	if serial == "" || serial == model.NotApplicable || !p.Contains(serial) {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	i, found := slices.BinarySearch(p.free, serial)
	if found {
		return false
	}
	p.free = slices.Insert(p.free, i, serial)
	return true
}

// Rebuild refills the pool and removes the serials held by the given aircraft.
func (p *Pool) Rebuild(inUse []model.Aircraft) {
	p.mu.Lock()
	p.free = slices.Clone(p.inventory)
	p.mu.Unlock()

	for _, a := range inUse {
		if a.Podded() {
			p.Remove(a.PodSerial)
		}
	}
}
