package NeuralNetwork

import (
	"errors"
	"fmt"
	"math/rand"

	"landcover/pkg/core"
)

var ErrSnapshot = errors.New("NeuralNetwork: snapshot does not match architecture")

// Network is a sequential stack of layers. The final layer produces logits;
// PredictProba applies softmax on top.
type Network struct {
	Layers []Layer
}

func (net *Network) Forward(x *Tensor, train bool) *Tensor {
	for _, l := range net.Layers {
		x = l.Forward(x, train)
	}
	return x
}

func (net *Network) Backward(grad *Tensor) {
	for i := len(net.Layers) - 1; i >= 0; i-- {
		grad = net.Layers[i].Backward(grad)
	}
}

func (net *Network) Params() []*Param {
	var ps []*Param
	for _, l := range net.Layers {
		ps = append(ps, l.Params()...)
	}
	return ps
}

func (net *Network) ZeroGrad() {
	for _, p := range net.Params() {
		p.ZeroGrad()
	}
}

// SignalTensor turns feature rows into single-channel signals of length X.C.
func SignalTensor(X *core.Matrix) *Tensor {
	return &Tensor{N: X.R, L: X.C, C: 1, Data: X.Data}
}

// PredictProba returns one probability row per input row.
func (net *Network) PredictProba(X *core.Matrix) *core.Matrix {
	logits := net.Forward(SignalTensor(X), false)
	k := logits.L * logits.C
	out := core.NewMatrix(X.R, k)
	for i := 0; i < X.R; i++ {
		Softmax(out.Row(i), logits.Sample(i))
	}
	return out
}

// Snapshot is the serializable form of a network: architecture plus weights.
type Snapshot struct {
	Layers  []LayerSpec          `json:"layers"`
	Weights map[string][]float64 `json:"weights"`
}

func (net *Network) Snapshot() Snapshot {
	s := Snapshot{Weights: map[string][]float64{}}
	for _, l := range net.Layers {
		s.Layers = append(s.Layers, l.Spec())
	}
	for _, p := range net.Params() {
		s.Weights[p.Name] = append([]float64(nil), p.W...)
	}
	return s
}

// Build creates freshly initialized layers from specs. Parameter names are
// "<type>_<index>/kernel" and "<type>_<index>/bias".
func Build(specs []LayerSpec, rng *rand.Rand) (*Network, error) {
	net := &Network{}
	for i, s := range specs {
		name := fmt.Sprintf("%s_%d", s.Type, i)
		var l Layer
		switch s.Type {
		case "conv1d":
			l = NewConv1D(name, s.In, s.Out, s.Kernel, rng)
		case "maxpool1d":
			l = NewMaxPool1D(s.Pool)
		case "flatten":
			l = &Flatten{}
		case "dense":
			l = NewDense(name, s.In, s.Out, rng)
		case "relu":
			l = &ReLULayer{}
		case "dropout":
			l = NewDropout(s.Rate, rng)
		default:
			return nil, fmt.Errorf("NeuralNetwork: unknown layer type %q", s.Type)
		}
		net.Layers = append(net.Layers, l)
	}
	return net, nil
}

// FromSnapshot rebuilds a network and loads its weights.
func FromSnapshot(s Snapshot) (*Network, error) {
	net, err := Build(s.Layers, rand.New(rand.NewSource(0)))
	if err != nil {
		return nil, err
	}
	for _, p := range net.Params() {
		w, ok := s.Weights[p.Name]
		if !ok || len(w) != len(p.W) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshot, p.Name)
		}
		copy(p.W, w)
	}
	return net, nil
}
