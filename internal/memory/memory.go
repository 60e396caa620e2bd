package memory

import (
	"maps"
	"slices"

	"eino_dialogue/internal/core"
	"eino_dialogue/pkg"
)

// MaxShortTerm is the number of most recent turns kept in short-term history
const MaxShortTerm = 5

// Long-term fact keys written by the dialogue manager
const (
	FactUserName          = "user_name"
	FactPreferredLocation = "preferred_location"
)

// ConversationMemory is the per-session mutable record. It is not safe for concurrent use;
// the owning session serializes turns.
type ConversationMemory struct {
	shortTerm      []pkg.Turn
	longTerm       map[string]string
	pending        Pending
	appointments   []pkg.Appointment
	currentContext pkg.Intent
}

// New creates an empty memory for a new session
func New() *ConversationMemory {
	return &ConversationMemory{
		shortTerm: make([]pkg.Turn, 0, MaxShortTerm),
		longTerm:  make(map[string]string),
	}
}

// RecordTurn appends a turn to short-term history, dropping the oldest beyond MaxShortTerm
func (m *ConversationMemory) RecordTurn(turn pkg.Turn) {
	if len(m.shortTerm) >= MaxShortTerm {
		m.shortTerm = append(m.shortTerm[1:], turn)
		return
	}
	m.shortTerm = append(m.shortTerm, turn)
}

// History returns a copy of short-term history, most recent last
func (m *ConversationMemory) History() []pkg.Turn {
	return slices.Clone(m.shortTerm)
}

// Remember upserts a long-term fact. Empty values are ignored.
func (m *ConversationMemory) Remember(key, value string) {
	if value == "" {
		return
	}
	m.longTerm[key] = value
}

// Fact returns a long-term fact
func (m *ConversationMemory) Fact(key string) (string, bool) {
	v, ok := m.longTerm[key]
	return v, ok
}

// Facts returns a copy of all long-term facts
func (m *ConversationMemory) Facts() map[string]string {
	return maps.Clone(m.longTerm)
}

// SetPending replaces the outstanding transaction; nil clears it. Because only one value is
// stored, setting a slot fill discards any confirmation and vice versa.
func (m *ConversationMemory) SetPending(p Pending) error {
	if p == nil {
		m.pending = nil
		return nil
	}
	if err := p.validate(); err != nil {
		return err
	}
	m.pending = p.clone()
	return nil
}

// ClearPending drops any outstanding transaction
func (m *ConversationMemory) ClearPending() {
	m.pending = nil
}

// Pending returns a copy of the outstanding transaction, or nil
func (m *ConversationMemory) Pending() Pending {
	if m.pending == nil {
		return nil
	}
	return m.pending.clone()
}

// ConfirmAppointment appends to the confirmed appointments
func (m *ConversationMemory) ConfirmAppointment(a pkg.Appointment) error {
	if a.Date == "" || a.Time == "" {
		return &core.InvariantError{Invariant: "appointment-complete", Detail: "appointment without date and time"}
	}
	m.appointments = append(m.appointments, a)
	return nil
}

// Appointments returns a copy of the confirmed appointments
func (m *ConversationMemory) Appointments() []pkg.Appointment {
	return slices.Clone(m.appointments)
}

// Conflicts reports whether an identical date+time is already confirmed
func (m *ConversationMemory) Conflicts(a pkg.Appointment) bool {
	return slices.Contains(m.appointments, a)
}

// CurrentContext returns the intent of the most recent turn
func (m *ConversationMemory) CurrentContext() pkg.Intent {
	return m.currentContext
}

// SetCurrentContext records the intent of the latest turn
func (m *ConversationMemory) SetCurrentContext(intent pkg.Intent) {
	m.currentContext = intent
}
