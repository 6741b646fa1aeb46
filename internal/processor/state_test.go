package processor

import (
	"errors"
	"testing"
)

func TestUndoLogUnwindsNewestFirst(t *testing.T) {
	var order []string
	undo := &undoLog{}
	undo.push("first", func() error { order = append(order, "first"); return nil })
	undo.push("second", func() error { order = append(order, "second"); return nil })

	if failures := undo.unwind(); len(failures) != 0 {
		t.Fatalf("unwind failures = %v", failures)
	}
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("unwind order = %v", order)
	}
}

func TestUndoLogSecondUnwindIsNoOp(t *testing.T) {
	runs := 0
	undo := &undoLog{}
	undo.push("undo rename", func() error { runs++; return nil })
	undo.push("undo sidecar rename", func() error { runs++; return errors.New("boom") })

	if failures := undo.unwind(); len(failures) != 1 {
		t.Fatalf("first unwind failures = %v", failures)
	}
	if failures := undo.unwind(); len(failures) != 0 {
		t.Errorf("second unwind failures = %v", failures)
	}
	if runs != 2 {
		t.Errorf("actions ran %d times, want 2", runs)
	}
}
