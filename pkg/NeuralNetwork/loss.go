package NeuralNetwork

import "math"

// probability floor used when taking logs
const epsilon = 1e-7

// SoftmaxCrossEntropy applies softmax to a batch of logits (N,1,K) and returns
// the mean categorical cross-entropy against the target class positions and
// its gradient with respect to the logits.
func SoftmaxCrossEntropy(logits *Tensor, targets []int) (float64, *Tensor) {
	n, k := logits.N, logits.L*logits.C
	grad := NewTensor(n, logits.L, logits.C)
	loss := 0.0
	for i := 0; i < n; i++ {
		p := grad.Data[i*k : (i+1)*k]
		Softmax(p, logits.Data[i*k:(i+1)*k])
		loss -= math.Log(math.Min(math.Max(p[targets[i]], epsilon), 1-epsilon))
		p[targets[i]] -= 1
	}
	inv := 1 / float64(n)
	for i := range grad.Data {
		grad.Data[i] *= inv
	}
	return loss * inv, grad
}

// CrossEntropy is the mean categorical cross-entropy of probability rows
// (already softmaxed) against target positions.
func CrossEntropy(proba [][]float64, targets []int) float64 {
	if len(proba) == 0 {
		return 0
	}
	s := 0.0
	for i, p := range proba {
		s -= math.Log(math.Min(math.Max(p[targets[i]], epsilon), 1-epsilon))
	}
	return s / float64(len(proba))
}
