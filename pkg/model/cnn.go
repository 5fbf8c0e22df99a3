package model

import (
	"fmt"
	"math/rand"

	nn "landcover/pkg/NeuralNetwork"
)

// Architecture constants of the spectral CNN.
const (
	Conv1Filters = 64
	Conv2Filters = 32
	HiddenUnits  = 64
	PoolSize     = 2
	DropoutRate  = 0.3
)

// CNNSpecs describes the network: two conv+ReLU+maxpool stages (64 then 32
// filters, same padding), flatten, dense(64)+ReLU, dropout and a dense
// output layer with one logit per class.
func CNNSpecs(bands, classes, kernel int, dropout float64) ([]nn.LayerSpec, error) {
	if kernel < 1 {
		return nil, fmt.Errorf("model: kernel size must be >= 1, got %d", kernel)
	}
	if classes < 2 {
		return nil, fmt.Errorf("model: need at least 2 classes, got %d", classes)
	}
	pooled := bands / PoolSize / PoolSize
	if pooled < 1 {
		return nil, fmt.Errorf("model: %d bands is too few for two pooling stages (need >= %d)", bands, PoolSize*PoolSize)
	}
	return []nn.LayerSpec{
		{Type: "conv1d", In: 1, Out: Conv1Filters, Kernel: kernel},
		{Type: "relu"},
		{Type: "maxpool1d", Pool: PoolSize},
		{Type: "conv1d", In: Conv1Filters, Out: Conv2Filters, Kernel: kernel},
		{Type: "relu"},
		{Type: "maxpool1d", Pool: PoolSize},
		{Type: "flatten"},
		{Type: "dense", In: pooled * Conv2Filters, Out: HiddenUnits},
		{Type: "relu"},
		{Type: "dropout", Rate: dropout},
		{Type: "dense", In: HiddenUnits, Out: classes},
	}, nil
}

// NewCNN builds a freshly initialized spectral CNN.
func NewCNN(bands, classes, kernel int, dropout float64, seed int64) (*nn.Network, error) {
	specs, err := CNNSpecs(bands, classes, kernel, dropout)
	if err != nil {
		return nil, err
	}
	return nn.Build(specs, rand.New(rand.NewSource(seed)))
}
