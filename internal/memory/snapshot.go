package memory

import (
	"fmt"
	"maps"
	"slices"

	"eino_dialogue/internal/core"
	"eino_dialogue/pkg"

	"github.com/bytedance/sonic"
)

const (
	kindSlotFill     = "slot_fill"
	kindConfirmation = "confirmation"
)

// Snapshot is the serializable form of a ConversationMemory
type Snapshot struct {
	ShortTerm      []pkg.Turn        `json:"short_term"`
	LongTerm       map[string]string `json:"long_term"`
	Pending        *PendingSnapshot  `json:"pending,omitempty"`
	Appointments   []pkg.Appointment `json:"appointments"`
	CurrentContext pkg.Intent        `json:"current_context"`
}

// PendingSnapshot is the tagged serializable form of a Pending
type PendingSnapshot struct {
	Kind        string                   `json:"kind"`
	Intent      pkg.Intent               `json:"intent"`
	Required    []pkg.EntityKey          `json:"required,omitempty"`
	Filled      map[pkg.EntityKey]string `json:"filled,omitempty"`
	Appointment *pkg.Appointment         `json:"appointment,omitempty"`
}

// Snapshot captures every field of the memory
func (m *ConversationMemory) Snapshot() Snapshot {
	snap := Snapshot{
		ShortTerm:      slices.Clone(m.shortTerm),
		LongTerm:       maps.Clone(m.longTerm),
		Appointments:   slices.Clone(m.appointments),
		CurrentContext: m.currentContext,
	}

	switch p := m.pending.(type) {
	case *SlotFill:
		snap.Pending = &PendingSnapshot{
			Kind:     kindSlotFill,
			Intent:   p.Intent,
			Required: slices.Clone(p.Required),
			Filled:   maps.Clone(p.Filled),
		}
	case *Confirmation:
		appt := p.Appointment
		snap.Pending = &PendingSnapshot{
			Kind:        kindConfirmation,
			Intent:      p.Intent,
			Appointment: &appt,
		}
	}

	return snap
}

// Restore rebuilds a memory from a snapshot, rejecting snapshots that break the model invariants
func Restore(snap Snapshot) (*ConversationMemory, error) {
	if len(snap.ShortTerm) > MaxShortTerm {
		return nil, &core.InvariantError{
			Invariant: "short-term-bound",
			Detail:    fmt.Sprintf("%d turns exceed the bound of %d", len(snap.ShortTerm), MaxShortTerm),
		}
	}

	m := New()
	m.shortTerm = append(m.shortTerm, snap.ShortTerm...)
	for k, v := range snap.LongTerm {
		m.longTerm[k] = v
	}
	m.appointments = slices.Clone(snap.Appointments)
	m.currentContext = snap.CurrentContext

	pending, err := restorePending(snap.Pending)
	if err != nil {
		return nil, err
	}
	if err := m.SetPending(pending); err != nil {
		return nil, err
	}

	return m, nil
}

func restorePending(p *PendingSnapshot) (Pending, error) {
	if p == nil {
		return nil, nil
	}

	hasSlots := len(p.Required) > 0 || len(p.Filled) > 0
	switch p.Kind {
	case kindSlotFill:
		if p.Appointment != nil {
			return nil, &core.InvariantError{Invariant: "single-pending", Detail: "slot fill snapshot carries a confirmation"}
		}
		return NewSlotFill(p.Intent, p.Required, p.Filled), nil
	case kindConfirmation:
		if hasSlots {
			return nil, &core.InvariantError{Invariant: "single-pending", Detail: "confirmation snapshot carries slots"}
		}
		if p.Appointment == nil {
			return nil, &core.InvariantError{Invariant: "confirmation-complete", Detail: "confirmation snapshot without appointment"}
		}
		return &Confirmation{Intent: p.Intent, Appointment: *p.Appointment}, nil
	default:
		return nil, &core.InvariantError{Invariant: "pending-kind", Detail: fmt.Sprintf("unknown pending kind %q", p.Kind)}
	}
}

// Marshal encodes the memory as JSON
func (m *ConversationMemory) Marshal() ([]byte, error) {
	data, err := sonic.Marshal(m.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal memory: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a memory previously produced by Marshal
func Unmarshal(data []byte) (*ConversationMemory, error) {
	var snap Snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal memory: %w", err)
	}
	return Restore(snap)
}
