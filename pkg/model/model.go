package model

import (
	"errors"

	"landcover/pkg/core"
)

var (
	ErrEmpty    = errors.New("model: empty dataset")
	ErrMismatch = errors.New("model: X and y length mismatch")
)

// Predictor maps feature rows to class-probability rows over the label set.
type Predictor interface {
	PredictProba(X *core.Matrix) *core.Matrix
}

// Dataset is a standardized feature matrix with label positions (indices into
// the label set, not raster codes).
type Dataset struct {
	X *core.Matrix
	Y []int
}

func (d Dataset) Len() int {
	if d.X == nil {
		return 0
	}
	return d.X.R
}

func (d Dataset) validate() error {
	if d.Len() == 0 {
		return ErrEmpty
	}
	if len(d.Y) != d.X.R {
		return ErrMismatch
	}
	return nil
}

// Subset copies the given rows into a new Dataset.
func (d Dataset) Subset(idx []int) Dataset {
	y := make([]int, len(idx))
	for k, i := range idx {
		y[k] = d.Y[i]
	}
	return Dataset{X: d.X.SelectRows(idx), Y: y}
}

// Predict returns the argmax position of each probability row.
func Predict(p Predictor, X *core.Matrix) []int {
	return ArgmaxRows(p.PredictProba(X))
}

func ArgmaxRows(P *core.Matrix) []int {
	out := make([]int, P.R)
	for i := 0; i < P.R; i++ {
		row := P.Row(i)
		best := 0
		for j := 1; j < len(row); j++ {
			if row[j] > row[best] {
				best = j
			}
		}
		out[i] = best
	}
	return out
}
