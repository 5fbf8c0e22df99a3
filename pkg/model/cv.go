package model

import (
	"errors"
	"fmt"

	nn "landcover/pkg/NeuralNetwork"
	"landcover/pkg/loader"
)

// Result describes one trained model: a fold of a k-fold run (Fold >= 0) or
// a single hold-out split (Fold == -1).
type Result struct {
	Kernel       int
	LearningRate float64
	Fold         int
	Score        Score
	History      History
	Confusion    [][]int

	// Network is set only on the retained best result.
	Network *nn.Network
}

// FoldHook observes every finished fold, e.g. to log or persist it.
type FoldHook func(Result)

// TrainSplit trains one model on a hold-out partition. When stratified, the
// validation fraction is drawn per class.
func TrainSplit(ds Dataset, classes int, cfg TrainConfig, valFraction float64, stratified bool) (*Result, error) {
	if err := ds.validate(); err != nil {
		return nil, err
	}
	if valFraction <= 0 || valFraction >= 1 {
		return nil, fmt.Errorf("model: validation fraction must be in (0,1), got %v", valFraction)
	}
	var s loader.Split
	if stratified {
		s = loader.StratifiedSplit(ds.Y, valFraction, cfg.Seed)
	} else {
		s = loader.TrainTestSplit(ds.Len(), valFraction, cfg.Seed)
	}
	return trainOne(ds, s, classes, cfg, -1)
}

// CrossValidate runs seeded k-fold cross-validation, training a fresh model
// per fold. It returns the best fold under policy, with its network, and all
// fold results without networks.
func CrossValidate(ds Dataset, classes int, cfg TrainConfig, k int, policy Policy, hook FoldHook) (*Result, []Result, error) {
	if err := ds.validate(); err != nil {
		return nil, nil, err
	}
	splits, err := loader.KFold(ds.Len(), k, cfg.Seed)
	if err != nil {
		return nil, nil, err
	}
	var best *Result
	var all []Result
	for f, s := range splits {
		res, err := trainOne(ds, s, classes, cfg, f)
		if err != nil {
			return nil, nil, fmt.Errorf("fold %d: %w", f, err)
		}
		if hook != nil {
			hook(*res)
		}
		if best == nil || policy.Better(res.Score, best.Score) {
			best = res
		}
		all = append(all, withoutNetwork(*res))
	}
	return best, all, nil
}

// GridConfig is the hyperparameter grid: every kernel size is tried with
// every learning rate.
type GridConfig struct {
	Kernels       []int
	LearningRates []float64
	Folds         int
}

// Grid runs a k-fold loop per grid point and keeps only the single best fold
// model across the whole grid.
func Grid(ds Dataset, classes int, base TrainConfig, grid GridConfig, policy Policy, hook FoldHook) (*Result, []Result, error) {
	if len(grid.Kernels) == 0 || len(grid.LearningRates) == 0 {
		return nil, nil, errors.New("model: empty hyperparameter grid")
	}
	var best *Result
	var all []Result
	for _, k := range grid.Kernels {
		for _, lr := range grid.LearningRates {
			cfg := base
			cfg.Kernel = k
			cfg.LearningRate = lr
			b, folds, err := CrossValidate(ds, classes, cfg, grid.Folds, policy, hook)
			if err != nil {
				return nil, nil, fmt.Errorf("kernel %d, lr %g: %w", k, lr, err)
			}
			all = append(all, folds...)
			if best == nil || policy.Better(b.Score, best.Score) {
				best = b
			}
		}
	}
	return best, all, nil
}

func trainOne(ds Dataset, s loader.Split, classes int, cfg TrainConfig, fold int) (*Result, error) {
	if len(s.Train) == 0 || len(s.Val) == 0 {
		return nil, ErrEmpty
	}
	seed := cfg.Seed + int64(fold+1)
	net, err := NewCNN(ds.X.C, classes, cfg.Kernel, cfg.Dropout, seed)
	if err != nil {
		return nil, err
	}
	train, val := ds.Subset(s.Train), ds.Subset(s.Val)
	runCfg := cfg
	runCfg.Seed = seed
	hist, err := Fit(net, train, val, runCfg)
	if err != nil {
		return nil, err
	}
	last := hist[len(hist)-1]
	pred := ArgmaxRows(predictBatched(net, val.X, cfg.BatchSize))
	return &Result{
		Kernel:       cfg.Kernel,
		LearningRate: cfg.LearningRate,
		Fold:         fold,
		Score:        Score{ValAccuracy: last.ValAcc, ValLoss: last.ValLoss},
		History:      hist,
		Confusion:    ConfusionMatrix(val.Y, pred, classes),
		Network:      net,
	}, nil
}

func withoutNetwork(r Result) Result {
	r.Network = nil
	return r
}
