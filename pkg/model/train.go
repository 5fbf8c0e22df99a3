package model

import (
	"fmt"
	"math/rand"

	nn "landcover/pkg/NeuralNetwork"
	"landcover/pkg/core"
	"landcover/pkg/loader"
	"landcover/pkg/optim"
)

// TrainConfig holds the hyperparameters of one training run.
type TrainConfig struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
	Optimizer    string // "adam" or "sgd"
	Kernel       int
	Dropout      float64
	Seed         int64
}

func (c TrainConfig) validate() error {
	if c.Epochs < 1 {
		return fmt.Errorf("model: epochs must be >= 1, got %d", c.Epochs)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("model: batch size must be >= 1, got %d", c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("model: learning rate must be > 0, got %v", c.LearningRate)
	}
	return nil
}

// EpochStats is one row of the training history.
type EpochStats struct {
	Epoch   int
	Loss    float64
	Acc     float64
	ValLoss float64
	ValAcc  float64
}

type History []EpochStats

// Fit trains net on train with mini-batches shuffled each epoch and, when val
// is non-empty, evaluates on it after every epoch.
func Fit(net *nn.Network, train, val Dataset, cfg TrainConfig) (History, error) {
	if err := train.validate(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	opt, ok := optim.New(cfg.Optimizer, cfg.LearningRate)
	if !ok {
		return nil, fmt.Errorf("model: unknown optimizer %q", cfg.Optimizer)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	all := make([]int, train.Len())
	for i := range all {
		all[i] = i
	}

	var hist History
	for ep := 1; ep <= cfg.Epochs; ep++ {
		sumLoss, correct := 0.0, 0
		for _, b := range loader.Batches(loader.Shuffled(all, rng), cfg.BatchSize) {
			batch := train.Subset(b)
			net.ZeroGrad()
			logits := net.Forward(nn.SignalTensor(batch.X), true)
			loss, grad := nn.SoftmaxCrossEntropy(logits, batch.Y)
			net.Backward(grad)
			opt.Step(net.Params())

			sumLoss += loss * float64(len(b))
			for i := range b {
				if nn.Argmax(logits.Sample(i)) == batch.Y[i] {
					correct++
				}
			}
		}
		st := EpochStats{
			Epoch: ep,
			Loss:  sumLoss / float64(train.Len()),
			Acc:   float64(correct) / float64(train.Len()),
		}
		if val.Len() > 0 {
			st.ValLoss, st.ValAcc = Evaluate(net, val, cfg.BatchSize)
		}
		hist = append(hist, st)
	}
	return hist, nil
}

// Evaluate returns mean cross-entropy and accuracy of p on ds, predicting
// batchSize rows at a time.
func Evaluate(p Predictor, ds Dataset, batchSize int) (loss, acc float64) {
	pred := predictBatched(p, ds.X, batchSize)
	probs := make([][]float64, pred.R)
	for i := range probs {
		probs[i] = pred.Row(i)
	}
	return nn.CrossEntropy(probs, ds.Y), Accuracy(ds.Y, ArgmaxRows(pred))
}

func predictBatched(p Predictor, X *core.Matrix, batchSize int) *core.Matrix {
	if batchSize <= 0 || batchSize >= X.R {
		return p.PredictProba(X)
	}
	var out *core.Matrix
	for start := 0; start < X.R; start += batchSize {
		end := min(start+batchSize, X.R)
		P := p.PredictProba(X.Slice(start, end))
		if out == nil {
			out = core.NewMatrix(X.R, P.C)
		}
		copy(out.Data[start*P.C:end*P.C], P.Data)
	}
	return out
}
