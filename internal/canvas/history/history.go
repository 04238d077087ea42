// Package history implements snapshot-based linear undo/redo over a scene.
//
// Every snapshot is a full deep copy of cards and edges, so memory grows with
// capacity × scene size.
package history

import "github.com/starford/kenaz-canvas/internal/canvas/scene"

// DefaultCapacity is the number of undo steps kept.
const DefaultCapacity = 50

// Target is the state the manager snapshots and restores.
type Target interface {
	Snapshot() scene.Data
	Restore(scene.Data)
}

// Manager keeps bounded past and future stacks of snapshots.
type Manager struct {
	target   Target
	capacity int
	past     []scene.Data
	future   []scene.Data
}

// New returns a manager over target. A capacity <= 0 uses DefaultCapacity.
func New(target Target, capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager{target: target, capacity: capacity}
}

// RecordBeforeMutation pushes the current state onto the past stack and
// clears the future. Call it once per logical gesture, right before the
// gesture's mutation is committed.
func (m *Manager) RecordBeforeMutation() {
	m.Record(m.target.Snapshot())
}

// Record pushes before, a snapshot taken ahead of a mutation that has since
// succeeded, and clears the future.
func (m *Manager) Record(before scene.Data) {
	m.past = append(m.past, before)
	if len(m.past) > m.capacity {
		m.past = m.past[len(m.past)-m.capacity:]
	}
	m.future = nil
}

// Undo restores the most recent past snapshot. It reports false when there is
// nothing to undo.
func (m *Manager) Undo() bool {
	if len(m.past) == 0 {
		return false
	}
	prev := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]
	m.future = append(m.future, m.target.Snapshot())
	m.target.Restore(prev)
	return true
}

// Redo re-applies the most recently undone snapshot.
func (m *Manager) Redo() bool {
	if len(m.future) == 0 {
		return false
	}
	next := m.future[len(m.future)-1]
	m.future = m.future[:len(m.future)-1]
	m.past = append(m.past, m.target.Snapshot())
	m.target.Restore(next)
	return true
}

func (m *Manager) CanUndo() bool { return len(m.past) > 0 }
func (m *Manager) CanRedo() bool { return len(m.future) > 0 }

// Depth returns the sizes of the past and future stacks.
func (m *Manager) Depth() (past, future int) { return len(m.past), len(m.future) }

// Clear empties both stacks.
func (m *Manager) Clear() {
	m.past, m.future = nil, nil
}
