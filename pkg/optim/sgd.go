package optim

import nn "landcover/pkg/NeuralNetwork"

// Optimizer updates parameters from their accumulated gradients.
type Optimizer interface {
	Step(params []*nn.Param)
}

// Stochastic Gradient Descent optimizer with learning rate
type SGD struct{ LearningRate float64 }

func NewSGD(lr float64) *SGD { return &SGD{LearningRate: lr} }

func (o *SGD) Step(params []*nn.Param) { // in-place update using pointer receiver
	for _, p := range params {
		for i := range p.W {
			p.W[i] -= o.LearningRate * p.G[i]
		}
	}
}
