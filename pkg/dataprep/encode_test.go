package dataprep

import (
	"errors"
	"math"
	"testing"
)

func testLabels(t *testing.T) *LabelSet {
	t.Helper()
	ls, err := NewLabelSet([]Class{
		{Name: "seagrass", Code: 1},
		{Name: "land", Code: 2},
		{Name: "water", Code: 4},
	})
	if err != nil {
		t.Fatalf("NewLabelSet failed: %v", err)
	}
	return ls
}

func TestOneHotUsesFullLabelSet(t *testing.T) {
	ls := testLabels(t)
	oh, err := ls.OneHot([]int{4, 4, 2})
	if err != nil {
		t.Fatalf("OneHot failed: %v", err)
	}
	if len(oh) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(oh))
	}
	for _, row := range oh {
		if len(row) != 3 {
			t.Fatalf("expected width 3 even with seagrass absent, got %d", len(row))
		}
	}
	if oh[0][2] != 1 || oh[2][1] != 1 || oh[0][0] != 0 {
		t.Fatalf("unexpected encoding: %v", oh)
	}
}

func TestCodeLookup(t *testing.T) {
	ls := testLabels(t)
	code, err := ls.Code(" Water ")
	if err != nil || code != 4 {
		t.Fatalf("expected 4, got %d (%v)", code, err)
	}
	if _, err := ls.Code("cloud"); !errors.Is(err, ErrUnknownLabel) {
		t.Fatalf("expected ErrUnknownLabel, got %v", err)
	}
	if _, err := ls.OneHot([]int{9}); !errors.Is(err, ErrUnknownCode) {
		t.Fatalf("expected ErrUnknownCode, got %v", err)
	}
}

func TestNewLabelSetRejectsDuplicates(t *testing.T) {
	if _, err := NewLabelSet([]Class{{Name: "a", Code: 1}, {Name: "A", Code: 2}}); err == nil {
		t.Fatalf("expected duplicate name error")
	}
	if _, err := NewLabelSet([]Class{{Name: "a", Code: 1}, {Name: "b", Code: 1}}); err == nil {
		t.Fatalf("expected duplicate code error")
	}
	if _, err := NewLabelSet([]Class{{Name: "a", Code: 300}}); err == nil {
		t.Fatalf("expected range error")
	}
}

func TestDropMissingRows(t *testing.T) {
	X := [][]float64{{1, 2}, {math.NaN(), 1}, {3, math.Inf(1)}, {4, 5}}
	y := []int{1, 2, 3, 4}
	outX, outY := DropMissingRows(X, y)
	if len(outX) != 2 || outY[0] != 1 || outY[1] != 4 {
		t.Fatalf("unexpected result: %v %v", outX, outY)
	}
	if !ValidPixel([]float64{0, 0.1}) || ValidPixel([]float64{0, 0}) || ValidPixel([]float64{math.NaN(), 1}) {
		t.Fatalf("unexpected ValidPixel results")
	}
}
