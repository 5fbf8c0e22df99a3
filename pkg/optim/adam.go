package optim

import (
	"math"

	nn "landcover/pkg/NeuralNetwork"
)

// Adam keeps per-parameter first and second moment estimates. Defaults match
// the usual beta1=0.9, beta2=0.999, epsilon=1e-7.
type Adam struct {
	LearningRate float64
	Beta1, Beta2 float64
	Epsilon      float64

	t    int
	m, v map[*nn.Param][]float64
}

func NewAdam(lr float64) *Adam {
	return &Adam{
		LearningRate: lr,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-7,
		m:            map[*nn.Param][]float64{},
		v:            map[*nn.Param][]float64{},
	}
}

func (o *Adam) Step(params []*nn.Param) {
	o.t++
	lr := o.LearningRate * math.Sqrt(1-math.Pow(o.Beta2, float64(o.t))) / (1 - math.Pow(o.Beta1, float64(o.t)))
	for _, p := range params {
		m, ok := o.m[p]
		if !ok {
			m = make([]float64, len(p.W))
			o.m[p] = m
			o.v[p] = make([]float64, len(p.W))
		}
		v := o.v[p]
		for i, g := range p.G {
			m[i] = o.Beta1*m[i] + (1-o.Beta1)*g
			v[i] = o.Beta2*v[i] + (1-o.Beta2)*g*g
			p.W[i] -= lr * m[i] / (math.Sqrt(v[i]) + o.Epsilon)
		}
	}
}

// New returns the optimizer registered under name ("adam" or "sgd").
func New(name string, lr float64) (Optimizer, bool) {
	switch name {
	case "adam", "":
		return NewAdam(lr), true
	case "sgd":
		return NewSGD(lr), true
	}
	return nil, false
}
