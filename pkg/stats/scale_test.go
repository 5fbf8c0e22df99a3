package stats

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"

	"landcover/pkg/core"
)

func sampleMatrix() *core.Matrix {
	return core.FromSlice([][]float64{
		{0.01, 120, 5},
		{0.03, 80, 5},
		{0.02, 100, 5},
		{0.06, 140, 5},
		{0.04, 60, 5},
	})
}

func TestStandardScalerZeroMeanUnitStd(t *testing.T) {
	X := sampleMatrix()
	s := NewStandardScaler()
	Z, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	for j := 0; j < 2; j++ {
		m, sd := stat.PopMeanStdDev(Z.ColSlice(j), nil)
		if math.Abs(m) > 1e-9 {
			t.Fatalf("column %d mean %v, want 0", j, m)
		}
		if math.Abs(sd-1) > 1e-9 {
			t.Fatalf("column %d std %v, want 1", j, sd)
		}
	}
	for _, v := range Z.ColSlice(2) {
		if v != 0 {
			t.Fatalf("constant column should map to 0, got %v", v)
		}
	}
}

func TestTransformIsRepeatableWithFixedStatistics(t *testing.T) {
	X := sampleMatrix()
	s := NewStandardScaler()
	if err := s.Fit(X); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	a, err := s.Transform(X)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	b, err := s.Transform(X)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("transform not repeatable at %d: %v vs %v", i, a.Data[i], b.Data[i])
		}
	}
	if X.At(0, 1) != 120 {
		t.Fatalf("Transform mutated its input")
	}
}

func TestTransformReusesTrainingStatistics(t *testing.T) {
	s := NewStandardScaler()
	if err := s.Fit(sampleMatrix()); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	other := core.FromSlice([][]float64{{0.032, 100, 5}})
	Z, err := s.Transform(other)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	// mean of column 1 on the fitting set is 100
	if math.Abs(Z.At(0, 1)) > 1e-9 {
		t.Fatalf("expected training mean to map to 0, got %v", Z.At(0, 1))
	}
}

func TestScalerErrors(t *testing.T) {
	s := NewStandardScaler()
	if _, err := s.Transform(sampleMatrix()); err != ErrNotFitted {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}
	if err := s.Fit(&core.Matrix{}); err != ErrEmpty {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if err := s.Fit(sampleMatrix()); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if _, err := s.Transform(core.FromSlice([][]float64{{1, 2}})); err != ErrWidth {
		t.Fatalf("expected ErrWidth, got %v", err)
	}
}
