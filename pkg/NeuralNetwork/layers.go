package NeuralNetwork

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Layer is one stage of a Network. Forward caches what Backward needs, so a
// layer instance must not be shared between concurrent passes.
type Layer interface {
	Forward(x *Tensor, train bool) *Tensor
	// Backward accumulates parameter gradients and returns the gradient
	// with respect to the last Forward input.
	Backward(grad *Tensor) *Tensor
	Params() []*Param
	Spec() LayerSpec
}

// LayerSpec is the serializable description of a layer.
type LayerSpec struct {
	Type   string  `json:"type"`
	In     int     `json:"in,omitempty"`
	Out    int     `json:"out,omitempty"`
	Kernel int     `json:"kernel,omitempty"`
	Pool   int     `json:"pool,omitempty"`
	Rate   float64 `json:"rate,omitempty"`
}

func glorotUniform(w []float64, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * limit
	}
}

// Conv1D is a stride-1 convolution with "same" padding: the output keeps the
// input length, padding (Kernel-1)/2 zeros on the left and the rest on the right.
type Conv1D struct {
	InCh, Filters, Kernel int

	// Kernel weights indexed [t][c][f].
	W, B *Param

	in *Tensor
}

func NewConv1D(name string, inCh, filters, kernel int, rng *rand.Rand) *Conv1D {
	l := &Conv1D{
		InCh: inCh, Filters: filters, Kernel: kernel,
		W: newParam(name+"/kernel", kernel*inCh*filters),
		B: newParam(name+"/bias", filters),
	}
	glorotUniform(l.W.W, kernel*inCh, kernel*filters, rng)
	return l
}

func (l *Conv1D) weights(t, c int, p []float64) []float64 {
	off := (t*l.InCh + c) * l.Filters
	return p[off : off+l.Filters]
}

func (l *Conv1D) Forward(x *Tensor, train bool) *Tensor {
	l.in = x
	out := NewTensor(x.N, x.L, l.Filters)
	padL := (l.Kernel - 1) / 2
	for n := 0; n < x.N; n++ {
		for pos := 0; pos < x.L; pos++ {
			o := out.At(n, pos)
			copy(o, l.B.W)
			for t := 0; t < l.Kernel; t++ {
				p := pos + t - padL
				if p < 0 || p >= x.L {
					continue
				}
				for c, v := range x.At(n, p) {
					if v != 0 {
						floats.AddScaled(o, v, l.weights(t, c, l.W.W))
					}
				}
			}
		}
	}
	return out
}

func (l *Conv1D) Backward(grad *Tensor) *Tensor {
	x := l.in
	dx := NewTensor(x.N, x.L, x.C)
	padL := (l.Kernel - 1) / 2
	for n := 0; n < x.N; n++ {
		for pos := 0; pos < x.L; pos++ {
			g := grad.At(n, pos)
			floats.Add(l.B.G, g)
			for t := 0; t < l.Kernel; t++ {
				p := pos + t - padL
				if p < 0 || p >= x.L {
					continue
				}
				xin, dxin := x.At(n, p), dx.At(n, p)
				for c := range xin {
					floats.AddScaled(l.weights(t, c, l.W.G), xin[c], g)
					dxin[c] += floats.Dot(l.weights(t, c, l.W.W), g)
				}
			}
		}
	}
	return dx
}

func (l *Conv1D) Params() []*Param { return []*Param{l.W, l.B} }

func (l *Conv1D) Spec() LayerSpec {
	return LayerSpec{Type: "conv1d", In: l.InCh, Out: l.Filters, Kernel: l.Kernel}
}

// MaxPool1D takes the maximum over non-overlapping windows of Pool positions.
// Trailing positions that do not fill a window are dropped.
type MaxPool1D struct {
	Pool int

	in     *Tensor
	argmax []int
}

func NewMaxPool1D(pool int) *MaxPool1D { return &MaxPool1D{Pool: pool} }

func (l *MaxPool1D) Forward(x *Tensor, train bool) *Tensor {
	l.in = x
	out := NewTensor(x.N, x.L/l.Pool, x.C)
	l.argmax = make([]int, len(out.Data))
	k := 0
	for n := 0; n < x.N; n++ {
		for pos := 0; pos < out.L; pos++ {
			for c := 0; c < x.C; c++ {
				best := ((n*x.L)+pos*l.Pool)*x.C + c
				for w := 1; w < l.Pool; w++ {
					i := ((n*x.L)+pos*l.Pool+w)*x.C + c
					if x.Data[i] > x.Data[best] {
						best = i
					}
				}
				out.Data[k] = x.Data[best]
				l.argmax[k] = best
				k++
			}
		}
	}
	return out
}

func (l *MaxPool1D) Backward(grad *Tensor) *Tensor {
	dx := NewTensor(l.in.N, l.in.L, l.in.C)
	for k, i := range l.argmax {
		dx.Data[i] += grad.Data[k]
	}
	return dx
}

func (l *MaxPool1D) Params() []*Param { return nil }

func (l *MaxPool1D) Spec() LayerSpec { return LayerSpec{Type: "maxpool1d", Pool: l.Pool} }

// Flatten reshapes (N,L,C) to (N,1,L*C); the data layout is unchanged.
type Flatten struct{ l, c int }

func (l *Flatten) Forward(x *Tensor, train bool) *Tensor {
	l.l, l.c = x.L, x.C
	return &Tensor{N: x.N, L: 1, C: x.L * x.C, Data: x.Data}
}

func (l *Flatten) Backward(grad *Tensor) *Tensor {
	return &Tensor{N: grad.N, L: l.l, C: l.c, Data: grad.Data}
}

func (l *Flatten) Params() []*Param { return nil }

func (l *Flatten) Spec() LayerSpec { return LayerSpec{Type: "flatten"} }

// Dense is a fully connected layer over the flattened sample.
type Dense struct {
	In, Out int

	// Weights indexed [out][in].
	W, B *Param

	in *Tensor
}

func NewDense(name string, in, out int, rng *rand.Rand) *Dense {
	l := &Dense{
		In: in, Out: out,
		W: newParam(name+"/kernel", in*out),
		B: newParam(name+"/bias", out),
	}
	glorotUniform(l.W.W, in, out, rng)
	return l
}

func (l *Dense) row(j int, p []float64) []float64 { return p[j*l.In : (j+1)*l.In] }

func (l *Dense) Forward(x *Tensor, train bool) *Tensor {
	if x.L*x.C != l.In {
		panic(fmt.Sprintf("NeuralNetwork: dense layer expects %d inputs, got %d", l.In, x.L*x.C))
	}
	l.in = x
	out := NewTensor(x.N, 1, l.Out)
	for n := 0; n < x.N; n++ {
		xs, o := x.Sample(n), out.Sample(n)
		for j := 0; j < l.Out; j++ {
			o[j] = l.B.W[j] + floats.Dot(l.row(j, l.W.W), xs)
		}
	}
	return out
}

func (l *Dense) Backward(grad *Tensor) *Tensor {
	x := l.in
	dx := NewTensor(x.N, x.L, x.C)
	for n := 0; n < x.N; n++ {
		xs, dxs, g := x.Sample(n), dx.Sample(n), grad.Sample(n)
		floats.Add(l.B.G, g)
		for j, gj := range g {
			if gj == 0 {
				continue
			}
			floats.AddScaled(l.row(j, l.W.G), gj, xs)
			floats.AddScaled(dxs, gj, l.row(j, l.W.W))
		}
	}
	return dx
}

func (l *Dense) Params() []*Param { return []*Param{l.W, l.B} }

func (l *Dense) Spec() LayerSpec { return LayerSpec{Type: "dense", In: l.In, Out: l.Out} }

// ReLULayer applies ReLU element-wise.
type ReLULayer struct{ in *Tensor }

func (l *ReLULayer) Forward(x *Tensor, train bool) *Tensor {
	l.in = x
	out := &Tensor{N: x.N, L: x.L, C: x.C, Data: make([]float64, len(x.Data))}
	for i, v := range x.Data {
		out.Data[i] = ReLU(v)
	}
	return out
}

func (l *ReLULayer) Backward(grad *Tensor) *Tensor {
	dx := &Tensor{N: grad.N, L: grad.L, C: grad.C, Data: make([]float64, len(grad.Data))}
	for i, g := range grad.Data {
		dx.Data[i] = g * ReLUPrime(l.in.Data[i])
	}
	return dx
}

func (l *ReLULayer) Params() []*Param { return nil }

func (l *ReLULayer) Spec() LayerSpec { return LayerSpec{Type: "relu"} }

// Dropout zeroes a Rate fraction of activations during training and scales
// the survivors by 1/(1-Rate). It is the identity at inference.
type Dropout struct {
	Rate float64

	rng  *rand.Rand
	mask []float64
}

func NewDropout(rate float64, rng *rand.Rand) *Dropout { return &Dropout{Rate: rate, rng: rng} }

func (l *Dropout) Forward(x *Tensor, train bool) *Tensor {
	if !train || l.Rate <= 0 {
		l.mask = nil
		return x
	}
	keep := 1 - l.Rate
	l.mask = make([]float64, len(x.Data))
	out := &Tensor{N: x.N, L: x.L, C: x.C, Data: make([]float64, len(x.Data))}
	for i, v := range x.Data {
		if l.rng.Float64() < keep {
			l.mask[i] = 1 / keep
		}
		out.Data[i] = v * l.mask[i]
	}
	return out
}

func (l *Dropout) Backward(grad *Tensor) *Tensor {
	if l.mask == nil {
		return grad
	}
	dx := &Tensor{N: grad.N, L: grad.L, C: grad.C, Data: make([]float64, len(grad.Data))}
	for i, g := range grad.Data {
		dx.Data[i] = g * l.mask[i]
	}
	return dx
}

func (l *Dropout) Params() []*Param { return nil }

func (l *Dropout) Spec() LayerSpec { return LayerSpec{Type: "dropout", Rate: l.Rate} }
