package NeuralNetwork

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

func ReLU(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func ReLUPrime(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

// Softmax writes the probability distribution of z into dst (which may alias z).
// The maximum is subtracted first for numerical stability.
func Softmax(dst, z []float64) {
	m := floats.Max(z)
	for i, v := range z {
		dst[i] = math.Exp(v - m)
	}
	floats.Scale(1/floats.Sum(dst), dst)
}

// Argmax returns the index of the largest value, the first one on ties.
func Argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
