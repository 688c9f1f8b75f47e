// Package history provides a linear undo/redo container over immutable
// snapshots of arbitrary state.
//
// A Manager holds the snapshots that came before the present one (past),
// the present snapshot, and snapshots that were undone and can be redone
// (future). Committing a value equal to the present is a no-op, so repeated
// interactions that end up in the same place never create history entries.
//
// A Manager is not safe for concurrent use. Callers that share one across
// goroutines must serialise access.
package history

import (
	"reflect"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Manager versions snapshots of type T.
type Manager[T any] struct {
	past    []T
	present T
	// future is stored as a stack: the next snapshot to redo is last.
	future []T

	equal func(a, b T) bool
	limit int
}

// Option configures a Manager.
type Option[T any] func(*Manager[T])

// WithEqual replaces the structural equality used to suppress no-op commits.
func WithEqual[T any](equal func(a, b T) bool) Option[T] {
	return func(m *Manager[T]) {
		if equal != nil {
			m.equal = equal
		}
	}
}

// WithLimit bounds the number of undo steps kept. The oldest entries are
// dropped first. Zero or negative means unbounded.
func WithLimit[T any](limit int) Option[T] {
	return func(m *Manager[T]) {
		if limit > 0 {
			m.limit = limit
		}
	}
}

// DeepEqual compares two snapshots structurally, unexported fields included.
// Nil and empty slices or maps are considered equal.
func DeepEqual[T any](a, b T) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty(), exportAll)
}

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

// New creates a Manager whose present snapshot is initial.
func New[T any](initial T, opts ...Option[T]) *Manager[T] {
	m := &Manager[T]{
		present: initial,
		equal:   DeepEqual[T],
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Present returns the current snapshot.
func (m *Manager[T]) Present() T {
	return m.present
}

// Commit installs next as the present snapshot. It reports false, leaving the
// history untouched, when next is equal to the present.
func (m *Manager[T]) Commit(next T) bool {
	return m.CommitFrom(m.present, next)
}

// CommitFunc computes the next snapshot from the present one and commits it.
func (m *Manager[T]) CommitFunc(fn func(prev T) T) bool {
	return m.Commit(fn(m.present))
}

// CommitFrom records a transition from prev to next, regardless of what the
// present snapshot currently is. It is used to close a gesture whose
// intermediate frames were installed with Replace: prev is the snapshot the
// gesture started from. When prev equals next no history is recorded and the
// present is only touched if it differs from next.
func (m *Manager[T]) CommitFrom(prev, next T) bool {
	if m.equal(prev, next) {
		if !m.equal(m.present, next) {
			m.present = next
		}
		return false
	}

	m.past = append(m.past, prev)
	if m.limit > 0 && len(m.past) > m.limit {
		excess := len(m.past) - m.limit
		m.past = append(m.past[:0:0], m.past[excess:]...)
	}
	m.present = next
	m.future = nil
	return true
}

// Replace installs next as the present snapshot without recording history.
func (m *Manager[T]) Replace(next T) {
	m.present = next
}

// Undo moves the present snapshot to the front of the future and restores
// the most recent past snapshot. It reports false when there is nothing to undo.
func (m *Manager[T]) Undo() bool {
	if len(m.past) == 0 {
		return false
	}
	last := len(m.past) - 1
	prev := m.past[last]
	m.past = m.past[:last:last]
	m.future = append(m.future, m.present)
	m.present = prev
	return true
}

// Redo restores the nearest future snapshot and pushes the present onto the
// past. It reports false when there is nothing to redo.
func (m *Manager[T]) Redo() bool {
	if len(m.future) == 0 {
		return false
	}
	last := len(m.future) - 1
	next := m.future[last]
	m.future = m.future[:last:last]
	m.past = append(m.past, m.present)
	m.present = next
	return true
}

// CanUndo reports whether Undo would change the present snapshot.
func (m *Manager[T]) CanUndo() bool {
	return len(m.past) > 0
}

// CanRedo reports whether Redo would change the present snapshot.
func (m *Manager[T]) CanRedo() bool {
	return len(m.future) > 0
}

// Reset drops all history and installs initial as the present snapshot.
func (m *Manager[T]) Reset(initial T) {
	m.past = nil
	m.future = nil
	m.present = initial
}

// Past returns a copy of the past snapshots, oldest first.
func (m *Manager[T]) Past() []T {
	out := make([]T, len(m.past))
	copy(out, m.past)
	return out
}

// Future returns a copy of the future snapshots, next redo first.
func (m *Manager[T]) Future() []T {
	out := make([]T, 0, len(m.future))
	for i := len(m.future) - 1; i >= 0; i-- {
		out = append(out, m.future[i])
	}
	return out
}

// PastLen returns the number of undo steps available.
func (m *Manager[T]) PastLen() int {
	return len(m.past)
}

// FutureLen returns the number of redo steps available.
func (m *Manager[T]) FutureLen() int {
	return len(m.future)
}
