package NeuralNetwork

// Tensor is a batch of 1-D signals: N samples, L positions, C channels,
// stored row-major as [n][l][c].
type Tensor struct {
	N, L, C int
	Data    []float64
}

func NewTensor(n, l, c int) *Tensor {
	return &Tensor{N: n, L: l, C: c, Data: make([]float64, n*l*c)}
}

// Sample returns the slice holding sample i.
func (t *Tensor) Sample(i int) []float64 {
	size := t.L * t.C
	return t.Data[i*size : (i+1)*size]
}

// At returns the channel vector at position l of sample n.
func (t *Tensor) At(n, l int) []float64 {
	off := (n*t.L + l) * t.C
	return t.Data[off : off+t.C]
}

// Param is a trainable weight slice with its accumulated gradient.
type Param struct {
	Name string
	W    []float64
	G    []float64
}

func newParam(name string, size int) *Param {
	return &Param{Name: name, W: make([]float64, size), G: make([]float64, size)}
}

func (p *Param) ZeroGrad() {
	for i := range p.G {
		p.G[i] = 0
	}
}
