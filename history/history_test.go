package history

import (
	"testing"
)

type point struct {
	X, Y float64
}

type element struct {
	ID  string
	Pos point
}

type doc struct {
	Elements []element
}

type sealed struct {
	n    int
	tags []string
}

func TestNew(t *testing.T) {
	m := New(1)

	if m.Present() != 1 {
		t.Errorf("Present() = %d, want 1", m.Present())
	}
	if m.CanUndo() || m.CanRedo() {
		t.Error("new manager should have no history")
	}
}

func TestCommit_DistinctValuesUndoToInitial(t *testing.T) {
	m := New(0)

	const n = 5
	for i := 1; i <= n; i++ {
		if !m.Commit(i) {
			t.Fatalf("Commit(%d) reported no-op", i)
		}
		if !m.CanUndo() {
			t.Fatalf("CanUndo() false after Commit(%d)", i)
		}
	}

	for i := 0; i < n; i++ {
		if !m.Undo() {
			t.Fatalf("Undo() #%d reported no-op", i+1)
		}
	}

	if m.Present() != 0 {
		t.Errorf("Present() = %d, want initial 0", m.Present())
	}
	if m.CanUndo() {
		t.Error("CanUndo() should be false after undoing everything")
	}
	if !m.CanRedo() {
		t.Error("CanRedo() should be true after undoing everything")
	}
}

func TestCommit_EqualValueIsNoop(t *testing.T) {
	m := New(doc{Elements: []element{{ID: "a", Pos: point{1, 2}}}})
	m.Commit(doc{Elements: []element{{ID: "a", Pos: point{3, 4}}}})
	m.Undo()

	pastLen, futureLen := m.PastLen(), m.FutureLen()
	before := m.Present()

	// A freshly built value with the same contents, not the same slice.
	if m.Commit(doc{Elements: []element{{ID: "a", Pos: point{1, 2}}}}) {
		t.Error("Commit of an equal value should report no-op")
	}

	if m.PastLen() != pastLen || m.FutureLen() != futureLen {
		t.Errorf("stacks changed: past %d->%d, future %d->%d", pastLen, m.PastLen(), futureLen, m.FutureLen())
	}
	if !DeepEqual(m.Present(), before) {
		t.Error("present changed on no-op commit")
	}
	if !m.CanRedo() {
		t.Error("no-op commit must not discard the future")
	}
}

func TestCommit_NilAndEmptyAreEqual(t *testing.T) {
	m := New(doc{})
	if m.Commit(doc{Elements: []element{}}) {
		t.Error("empty and nil element lists should compare equal")
	}
	if m.CanUndo() {
		t.Error("no history entry expected")
	}
}

func TestCommit_EqualValueKeepsPresent(t *testing.T) {
	initial := doc{Elements: []element{{ID: "a", Pos: point{1, 2}}}}
	m := New(initial)

	if m.Commit(doc{Elements: []element{{ID: "a", Pos: point{1, 2}}}}) {
		t.Fatal("Commit of an equal value should report no-op")
	}
	if &m.Present().Elements[0] != &initial.Elements[0] {
		t.Error("no-op commit replaced the present snapshot")
	}
}

func TestCommit_UnexportedFields(t *testing.T) {
	m := New(sealed{n: 1})

	if !m.Commit(sealed{n: 2}) {
		t.Error("distinct values should be committed")
	}
	if m.Commit(sealed{n: 2, tags: []string{}}) {
		t.Error("equal values should be a no-op")
	}
	if !m.Undo() || m.Present().n != 1 {
		t.Errorf("Present() after undo = %+v", m.Present())
	}
}

func TestCommitFunc_UsesPresent(t *testing.T) {
	m := New(10)
	m.CommitFunc(func(prev int) int { return prev + 1 })
	m.CommitFunc(func(prev int) int { return prev + 1 })

	if m.Present() != 12 {
		t.Errorf("Present() = %d, want 12", m.Present())
	}
	if m.PastLen() != 2 {
		t.Errorf("PastLen() = %d, want 2", m.PastLen())
	}
}

func TestUndoRedo_RoundTrip(t *testing.T) {
	m := New("a")
	m.Commit("b")
	m.Commit("c")

	for i := 0; i < 3; i++ {
		if !m.Undo() {
			t.Fatal("Undo() reported no-op")
		}
		if m.Present() != "b" {
			t.Fatalf("after undo Present() = %q, want b", m.Present())
		}
		if !m.Redo() {
			t.Fatal("Redo() reported no-op")
		}
		if m.Present() != "c" {
			t.Fatalf("after redo Present() = %q, want c", m.Present())
		}
	}

	if m.PastLen() != 2 || m.FutureLen() != 0 {
		t.Errorf("stacks drifted: past %d, future %d", m.PastLen(), m.FutureLen())
	}
}

func TestUndoRedo_EmptyStacksAreNoops(t *testing.T) {
	m := New(1)

	if m.Undo() {
		t.Error("Undo() on empty past should report no-op")
	}
	if m.Redo() {
		t.Error("Redo() on empty future should report no-op")
	}
	if m.Present() != 1 {
		t.Errorf("Present() = %d, want 1", m.Present())
	}
}

func TestCommit_DiscardsFuture(t *testing.T) {
	m := New(1)
	m.Commit(2)
	m.Commit(3)
	m.Undo()
	m.Undo()

	if m.FutureLen() != 2 {
		t.Fatalf("FutureLen() = %d, want 2", m.FutureLen())
	}

	m.Commit(9)

	if m.CanRedo() {
		t.Error("commit after undo should discard the future")
	}
	if m.Redo() {
		t.Error("Redo() should be a no-op")
	}
	if m.Present() != 9 {
		t.Errorf("Present() = %d, want 9", m.Present())
	}
	past := m.Past()
	if len(past) != 1 || past[0] != 1 {
		t.Errorf("Past() = %v, want [1]", past)
	}
}

func TestFutureOrder(t *testing.T) {
	m := New(1)
	m.Commit(2)
	m.Commit(3)
	m.Commit(4)
	m.Undo()
	m.Undo()

	future := m.Future()
	if len(future) != 2 || future[0] != 3 || future[1] != 4 {
		t.Errorf("Future() = %v, want [3 4]", future)
	}
	past := m.Past()
	if len(past) != 1 || past[0] != 1 {
		t.Errorf("Past() = %v, want [1]", past)
	}
}

func TestPastReturnsCopy(t *testing.T) {
	m := New(1)
	m.Commit(2)

	past := m.Past()
	past[0] = 100

	m.Undo()
	if m.Present() != 1 {
		t.Errorf("mutating Past() result leaked into the manager: %d", m.Present())
	}
}

func TestReset(t *testing.T) {
	m := New(1)
	m.Commit(2)
	m.Commit(3)
	m.Undo()

	m.Reset(42)

	if m.Present() != 42 {
		t.Errorf("Present() = %d, want 42", m.Present())
	}
	if m.CanUndo() || m.CanRedo() {
		t.Error("Reset should clear both stacks")
	}
}

func TestReplace_BypassesHistory(t *testing.T) {
	m := New(1)
	m.Commit(2)
	m.Undo()

	m.Replace(5)

	if m.Present() != 5 {
		t.Errorf("Present() = %d, want 5", m.Present())
	}
	if m.PastLen() != 0 || m.FutureLen() != 1 {
		t.Errorf("Replace touched history: past %d, future %d", m.PastLen(), m.FutureLen())
	}
}

func TestCommitFrom_CoalescesGesture(t *testing.T) {
	m := New(0)
	base := m.Present()

	for i := 1; i <= 5; i++ {
		m.Replace(i * 10)
	}

	if !m.CommitFrom(base, m.Present()) {
		t.Fatal("CommitFrom reported no-op")
	}
	if m.PastLen() != 1 {
		t.Errorf("PastLen() = %d, want 1", m.PastLen())
	}

	m.Undo()
	if m.Present() != 0 {
		t.Errorf("Present() after undo = %d, want 0", m.Present())
	}
	m.Redo()
	if m.Present() != 50 {
		t.Errorf("Present() after redo = %d, want 50", m.Present())
	}
}

func TestCommitFrom_ReturnToStartIsNoop(t *testing.T) {
	m := New(0)
	m.Replace(7)
	m.Replace(0)

	if m.CommitFrom(0, m.Present()) {
		t.Error("gesture ending where it started should not create history")
	}
	if m.CanUndo() {
		t.Error("CanUndo() should be false")
	}
}

func TestWithLimit(t *testing.T) {
	m := New(0, WithLimit[int](3))
	for i := 1; i <= 10; i++ {
		m.Commit(i)
	}

	past := m.Past()
	if len(past) != 3 {
		t.Fatalf("PastLen() = %d, want 3", len(past))
	}
	if past[0] != 7 || past[2] != 9 {
		t.Errorf("Past() = %v, want [7 8 9]", past)
	}
}

func TestWithEqual(t *testing.T) {
	// Treat values as equal when they share parity.
	m := New(1, WithEqual(func(a, b int) bool { return a%2 == b%2 }))

	if m.Commit(3) {
		t.Error("custom equality should suppress the commit")
	}
	if !m.Commit(4) {
		t.Error("custom equality should accept the commit")
	}
}

func TestConcreteScenario(t *testing.T) {
	m := New(doc{Elements: []element{}})

	m.CommitFunc(func(prev doc) doc {
		return doc{Elements: append(append([]element{}, prev.Elements...), element{ID: "A", Pos: point{10, 10}})}
	})
	m.CommitFunc(func(prev doc) doc {
		elements := append([]element{}, prev.Elements...)
		elements[0].Pos = point{50, 50}
		return doc{Elements: elements}
	})

	m.Undo()
	if got := m.Present().Elements[0].Pos; got != (point{10, 10}) {
		t.Errorf("after first undo A at %v, want (10,10)", got)
	}

	m.Undo()
	if len(m.Present().Elements) != 0 {
		t.Errorf("after second undo elements = %v, want empty", m.Present().Elements)
	}

	m.Redo()
	m.Redo()
	if got := m.Present().Elements[0].Pos; got != (point{50, 50}) {
		t.Errorf("after redo A at %v, want (50,50)", got)
	}
}
