package core

import "testing"

func TestAppendRowFixesColumns(t *testing.T) {
	m := &Matrix{}
	if err := m.AppendRow([]float64{1, 2, 3}); err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}
	if err := m.AppendRow([]float64{4, 5, 6}); err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}
	if err := m.AppendRow([]float64{7}); err != ErrShape {
		t.Fatalf("expected ErrShape, got %v", err)
	}
	if m.R != 2 || m.C != 3 {
		t.Fatalf("unexpected shape %dx%d", m.R, m.C)
	}
	if m.At(1, 2) != 6 {
		t.Fatalf("unexpected element: %v", m.At(1, 2))
	}
}

func TestSelectRowsAndSlice(t *testing.T) {
	m := FromSlice([][]float64{{1, 2}, {3, 4}, {5, 6}})
	sel := m.SelectRows([]int{2, 0})
	if sel.At(0, 0) != 5 || sel.At(1, 1) != 2 {
		t.Fatalf("unexpected selection: %v", sel.Data)
	}
	sel.Set(0, 0, 99)
	if m.At(2, 0) != 5 {
		t.Fatalf("SelectRows must copy")
	}

	view := m.Slice(1, 3)
	if view.R != 2 || view.At(0, 1) != 4 {
		t.Fatalf("unexpected slice: %+v", view)
	}
	view.Set(0, 1, 40)
	if m.At(1, 1) != 40 {
		t.Fatalf("Slice must share storage")
	}
	if got := m.ColSlice(0); got[0] != 1 || got[2] != 5 {
		t.Fatalf("unexpected column: %v", got)
	}
}
