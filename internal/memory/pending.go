package memory

import (
	"fmt"
	"slices"

	"eino_dialogue/internal/core"
	"eino_dialogue/pkg"
)

// Pending is the single outstanding incomplete transaction of a session.
// It is either a *SlotFill or a *Confirmation; nil means none.
type Pending interface {
	Owner() pkg.Intent
	validate() error
	clone() Pending
}

// SlotFill is an intent waiting on missing required entities.
// Required holds only unfilled slots, in prompt order; a slot is never in both Required and Filled.
type SlotFill struct {
	Intent   pkg.Intent
	Required []pkg.EntityKey
	Filled   map[pkg.EntityKey]string
}

// NewSlotFill creates a slot fill with required slots ordered by prompt priority
func NewSlotFill(intent pkg.Intent, required []pkg.EntityKey, filled map[pkg.EntityKey]string) *SlotFill {
	s := &SlotFill{
		Intent:   intent,
		Required: slices.Clone(required),
		Filled:   make(map[pkg.EntityKey]string, len(filled)),
	}
	for k, v := range filled {
		s.Filled[k] = v
	}
	slices.SortFunc(s.Required, compareSlots)
	return s
}

// Owner returns the intent waiting on the slots
func (s *SlotFill) Owner() pkg.Intent { return s.Intent }

// Fill moves key from Required to Filled. It reports false when key is not required or value is empty.
func (s *SlotFill) Fill(key pkg.EntityKey, value string) bool {
	idx := slices.Index(s.Required, key)
	if idx < 0 || value == "" {
		return false
	}
	s.Required = slices.Delete(s.Required, idx, idx+1)
	s.Filled[key] = value
	return true
}

// Unfill drops a filled slot and puts it back into Required
func (s *SlotFill) Unfill(key pkg.EntityKey) {
	if _, ok := s.Filled[key]; !ok {
		return
	}
	delete(s.Filled, key)
	s.Required = append(s.Required, key)
	slices.SortFunc(s.Required, compareSlots)
}

// Complete reports whether every required slot is filled
func (s *SlotFill) Complete() bool {
	return len(s.Required) == 0
}

// Next returns the highest priority missing slot
func (s *SlotFill) Next() (pkg.EntityKey, bool) {
	if len(s.Required) == 0 {
		return "", false
	}
	return s.Required[0], true
}

func (s *SlotFill) validate() error {
	if s.Intent == pkg.IntentUnknown || !s.Intent.Valid() {
		return &core.InvariantError{Invariant: "slot-fill-owner", Detail: fmt.Sprintf("invalid owner intent %q", s.Intent)}
	}
	seen := make(map[pkg.EntityKey]bool, len(s.Required))
	for _, key := range s.Required {
		if seen[key] {
			return &core.InvariantError{Invariant: "slot-fill-disjoint", Detail: fmt.Sprintf("slot %q required twice", key)}
		}
		seen[key] = true
		if _, filled := s.Filled[key]; filled {
			return &core.InvariantError{Invariant: "slot-fill-disjoint", Detail: fmt.Sprintf("slot %q both required and filled", key)}
		}
	}
	for key, value := range s.Filled {
		if value == "" {
			return &core.InvariantError{Invariant: "slot-fill-value", Detail: fmt.Sprintf("slot %q filled with empty value", key)}
		}
	}
	return nil
}

func (s *SlotFill) clone() Pending {
	return NewSlotFill(s.Intent, s.Required, s.Filled)
}

// Confirmation is a fully specified appointment awaiting yes/no
type Confirmation struct {
	Intent      pkg.Intent
	Appointment pkg.Appointment
}

// Owner returns the intent that proposed the action
func (c *Confirmation) Owner() pkg.Intent { return c.Intent }

func (c *Confirmation) validate() error {
	if c.Appointment.Date == "" || c.Appointment.Time == "" {
		return &core.InvariantError{Invariant: "confirmation-complete", Detail: "confirmation without date and time"}
	}
	return nil
}

func (c *Confirmation) clone() Pending {
	cp := *c
	return &cp
}

// compareSlots orders slots by their position in pkg.EntityKeys, so date is asked before time
func compareSlots(a, b pkg.EntityKey) int {
	return slices.Index(pkg.EntityKeys, a) - slices.Index(pkg.EntityKeys, b)
}
