package loader

import (
	"errors"
	"math/rand"
	"sort"
)

var ErrFolds = errors.New("loader: need 2 <= k <= number of samples")

// Split holds row indices for one train/validation partition.
type Split struct {
	Train []int
	Val   []int
}

// TrainTestSplit shuffles 0..n-1 with the given seed and holds out
// int(n*testRatio) indices for validation.
func TrainTestSplit(n int, testRatio float64, seed int64) Split {
	indices := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(float64(n) * testRatio)
	return Split{Train: indices[nTest:], Val: indices[:nTest]}
}

// StratifiedSplit holds out testRatio of every class separately so class
// proportions match between the two sides. Classes with a single row stay
// in training.
func StratifiedSplit(labels []int, testRatio float64, seed int64) Split {
	rng := rand.New(rand.NewSource(seed))
	byClass := map[int][]int{}
	for i, l := range labels {
		byClass[l] = append(byClass[l], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	var s Split
	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTest := int(float64(len(idx))*testRatio + 0.5)
		if nTest >= len(idx) {
			nTest = len(idx) - 1
		}
		s.Val = append(s.Val, idx[:nTest]...)
		s.Train = append(s.Train, idx[nTest:]...)
	}
	rng.Shuffle(len(s.Train), func(i, j int) { s.Train[i], s.Train[j] = s.Train[j], s.Train[i] })
	return s
}

// KFold shuffles 0..n-1 with the given seed and cuts it into k contiguous,
// disjoint validation folds; the first n%k folds get one extra row. Each
// returned Split trains on every row outside its validation fold.
func KFold(n, k int, seed int64) ([]Split, error) {
	if k < 2 || k > n {
		return nil, ErrFolds
	}
	indices := rand.New(rand.NewSource(seed)).Perm(n)
	splits := make([]Split, k)
	start := 0
	for f := 0; f < k; f++ {
		size := n / k
		if f < n%k {
			size++
		}
		end := start + size
		val := append([]int(nil), indices[start:end]...)
		train := make([]int, 0, n-size)
		train = append(train, indices[:start]...)
		train = append(train, indices[end:]...)
		splits[f] = Split{Train: train, Val: val}
		start = end
	}
	return splits, nil
}

// Batches cuts idx into consecutive chunks of at most size elements.
func Batches(idx []int, size int) [][]int {
	if size <= 0 {
		size = len(idx)
	}
	var out [][]int
	for start := 0; start < len(idx); start += size {
		end := min(start+size, len(idx))
		out = append(out, idx[start:end])
	}
	return out
}

// Shuffled returns a shuffled copy of idx.
func Shuffled(idx []int, rng *rand.Rand) []int {
	out := append([]int(nil), idx...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
