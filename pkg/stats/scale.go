package stats

import (
	"errors"

	"gonum.org/v1/gonum/stat"

	"landcover/pkg/core"
)

var (
	ErrNotFitted = errors.New("stats: scaler not fitted")
	ErrEmpty     = errors.New("stats: cannot fit on empty matrix")
	ErrWidth     = errors.New("stats: column count differs from fitted statistics")
)

// StandardScaler standardizes each column to zero mean and unit variance
// using statistics fitted once on the training features. The statistics are
// exported so they travel with the trained model and get reapplied, not
// refitted, on later rasters.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

func NewStandardScaler() *StandardScaler { return &StandardScaler{} }

func (s *StandardScaler) Fitted() bool { return len(s.Mean) > 0 && len(s.Mean) == len(s.Std) }

// Fit computes per-column population mean and standard deviation. A constant
// column gets std 1 so it maps to zero instead of NaN.
func (s *StandardScaler) Fit(X *core.Matrix) error {
	if X == nil || X.R == 0 || X.C == 0 {
		return ErrEmpty
	}
	s.Mean = make([]float64, X.C)
	s.Std = make([]float64, X.C)
	for j := 0; j < X.C; j++ {
		s.Mean[j], s.Std[j] = stat.PopMeanStdDev(X.ColSlice(j), nil)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return nil
}

// Transform returns a standardized copy of X; X is left untouched.
func (s *StandardScaler) Transform(X *core.Matrix) (*core.Matrix, error) {
	out := X.Clone()
	if err := s.TransformInPlace(out); err != nil {
		return nil, err
	}
	return out, nil
}

// TransformInPlace standardizes X in place.
func (s *StandardScaler) TransformInPlace(X *core.Matrix) error {
	if !s.Fitted() {
		return ErrNotFitted
	}
	if X.C != len(s.Mean) {
		return ErrWidth
	}
	for i := 0; i < X.R; i++ {
		row := X.Row(i)
		for j := range row {
			row[j] = (row[j] - s.Mean[j]) / s.Std[j]
		}
	}
	return nil
}

func (s *StandardScaler) FitTransform(X *core.Matrix) (*core.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
