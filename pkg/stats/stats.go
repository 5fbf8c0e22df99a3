package stats

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"landcover/pkg/core"
)

// Signature is the mean spectral vector of one class.
type Signature struct {
	Code  int
	Count int
	Mean  []float64
}

// ClassSignatures averages the rows of X per label code. Results are ordered
// by code.
func ClassSignatures(X *core.Matrix, codes []int) []Signature {
	byCode := map[int]*Signature{}
	for i := 0; i < X.R; i++ {
		sig, ok := byCode[codes[i]]
		if !ok {
			sig = &Signature{Code: codes[i], Mean: make([]float64, X.C)}
			byCode[codes[i]] = sig
		}
		floats.Add(sig.Mean, X.Row(i))
		sig.Count++
	}
	out := make([]Signature, 0, len(byCode))
	for _, sig := range byCode {
		floats.Scale(1/float64(sig.Count), sig.Mean)
		out = append(out, *sig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
