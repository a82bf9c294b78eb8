package network

import (
	"fmt"
	"math/rand"

	"nnviz/internal/dataset"
	"nnviz/internal/matrix"
)

const initLow, initHigh = -1.0, 1.0

// Layer is one affine transform plus activation.
type Layer struct {
	Weights    *matrix.Matrix // out×in
	Biases     *matrix.Matrix // out×1
	Activation matrix.Activation
}

func (l Layer) clone() Layer {
	return Layer{
		Weights:    l.Weights.Clone(),
		Biases:     l.Biases.Clone(),
		Activation: l.Activation,
	}
}

// Network is an ordered sequence of layers. The layer dimensions chain:
// layers[i].Weights.Rows == layers[i+1].Weights.Cols.
type Network struct {
	sizes  []int
	layers []Layer
}

// New builds a network from the given layer sizes, with weights and biases
// uniformly randomized on [-1, 1). At least two sizes are required.
func New(sizes []int, rng *rand.Rand) (*Network, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 layer sizes, got %d", matrix.ErrInvalidShape, len(sizes))
	}
	for i, s := range sizes {
		if s <= 0 {
			return nil, fmt.Errorf("%w: layer size %d at position %d", matrix.ErrInvalidShape, s, i)
		}
	}
	layers := make([]Layer, len(sizes)-1)
	for i := range layers {
		w, err := matrix.New(sizes[i+1], sizes[i])
		if err != nil {
			return nil, err
		}
		b, err := matrix.New(sizes[i+1], 1)
		if err != nil {
			return nil, err
		}
		w.Randomize(rng, initLow, initHigh)
		b.Randomize(rng, initLow, initHigh)
		layers[i] = Layer{Weights: w, Biases: b, Activation: matrix.ActivationSigmoid}
	}
	out := &Network{sizes: append([]int(nil), sizes...), layers: layers}
	return out, nil
}

// FromLayers reconstructs a network from deep copies of the given layers,
// as produced by CloneLayers or a checkpoint file.
func FromLayers(layers []Layer) (*Network, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", matrix.ErrInvalidShape)
	}
	sizes := make([]int, 0, len(layers)+1)
	sizes = append(sizes, layers[0].Weights.Cols)
	for i, l := range layers {
		if l.Weights == nil || l.Biases == nil {
			return nil, fmt.Errorf("%w: layer %d missing parameters", matrix.ErrInvalidShape, i)
		}
		if err := checkBacking(l.Weights); err != nil {
			return nil, fmt.Errorf("layer %d weights: %w", i, err)
		}
		if err := checkBacking(l.Biases); err != nil {
			return nil, fmt.Errorf("layer %d biases: %w", i, err)
		}
		if l.Biases.Rows != l.Weights.Rows || l.Biases.Cols != 1 {
			return nil, fmt.Errorf("%w: layer %d bias %dx%d for %dx%d weights",
				matrix.ErrShapeMismatch, i, l.Biases.Rows, l.Biases.Cols, l.Weights.Rows, l.Weights.Cols)
		}
		if i > 0 && l.Weights.Cols != layers[i-1].Weights.Rows {
			return nil, fmt.Errorf("%w: layer %d expects %d inputs, previous produces %d",
				matrix.ErrShapeMismatch, i, l.Weights.Cols, layers[i-1].Weights.Rows)
		}
		sizes = append(sizes, l.Weights.Rows)
	}
	cloned := make([]Layer, len(layers))
	for i, l := range layers {
		cloned[i] = l.clone()
	}
	return &Network{sizes: sizes, layers: cloned}, nil
}

// checkBacking enforces the Matrix invariant on layers that arrive from
// outside the package, such as a decoded checkpoint file.
func checkBacking(m *matrix.Matrix) error {
	if m.Rows <= 0 || m.Cols <= 0 {
		return fmt.Errorf("%w: %dx%d", matrix.ErrInvalidShape, m.Rows, m.Cols)
	}
	if len(m.Data) != m.Rows*m.Cols {
		return fmt.Errorf("%w: %dx%d backed by %d values", matrix.ErrInvalidShape, m.Rows, m.Cols, len(m.Data))
	}
	return nil
}

// Sizes returns a copy of the layer size list, input layer first.
func (n *Network) Sizes() []int {
	return append([]int(nil), n.sizes...)
}

// CloneLayers returns deep copies of every layer, for snapshots and checkpoints.
func (n *Network) CloneLayers() []Layer {
	out := make([]Layer, len(n.layers))
	for i, l := range n.layers {
		out[i] = l.clone()
	}
	return out
}

// Clone returns a deep copy of the whole network.
func (n *Network) Clone() *Network {
	return &Network{sizes: n.Sizes(), layers: n.CloneLayers()}
}

// Forward computes the network output for a 1×in row vector input and
// returns a 1×out row vector. Parameters are not mutated.
func (n *Network) Forward(input *matrix.Matrix) (*matrix.Matrix, error) {
	if input.Rows != 1 || input.Cols != n.sizes[0] {
		return nil, fmt.Errorf("%w: input %dx%d, network expects 1x%d",
			matrix.ErrShapeMismatch, input.Rows, input.Cols, n.sizes[0])
	}
	// Propagate as a column vector so each step is W·a + b.
	a := &matrix.Matrix{Rows: input.Cols, Cols: 1, Data: append([]float64(nil), input.Data...)}
	for _, l := range n.layers {
		z, err := matrix.Mul(l.Weights, a)
		if err != nil {
			return nil, err
		}
		if err := z.AddInPlace(l.Biases); err != nil {
			return nil, err
		}
		z.Apply(l.Activation)
		a = z
	}
	return &matrix.Matrix{Rows: 1, Cols: a.Rows, Data: a.Data}, nil
}

// ParamCount reports the total number of trainable parameters.
func (n *Network) ParamCount() int {
	total := 0
	for _, l := range n.layers {
		total += len(l.Weights.Data) + len(l.Biases.Data)
	}
	return total
}

// Param reads the parameter at the given flat index. The ordering is layer
// by layer, weights before biases, row-major within each matrix.
func (n *Network) Param(i int) (float64, error) {
	if i < 0 {
		return 0, fmt.Errorf("%w: flat parameter index %d", matrix.ErrOutOfBounds, i)
	}
	for _, l := range n.layers {
		if i < len(l.Weights.Data) {
			return l.Weights.Data[i], nil
		}
		i -= len(l.Weights.Data)
		if i < len(l.Biases.Data) {
			return l.Biases.Data[i], nil
		}
		i -= len(l.Biases.Data)
	}
	return 0, fmt.Errorf("%w: flat parameter index", matrix.ErrOutOfBounds)
}

// SetParam writes the parameter at the given flat index.
func (n *Network) SetParam(i int, v float64) error {
	if i < 0 {
		return fmt.Errorf("%w: flat parameter index %d", matrix.ErrOutOfBounds, i)
	}
	for _, l := range n.layers {
		if i < len(l.Weights.Data) {
			l.Weights.Data[i] = v
			return nil
		}
		i -= len(l.Weights.Data)
		if i < len(l.Biases.Data) {
			l.Biases.Data[i] = v
			return nil
		}
		i -= len(l.Biases.Data)
	}
	return fmt.Errorf("%w: flat parameter index", matrix.ErrOutOfBounds)
}

// Cost is the mean squared error of the network over the dataset: squared
// output error summed per sample, averaged over samples and output width.
func (n *Network) Cost(ds dataset.Set) (float64, error) {
	if len(ds) == 0 {
		return 0, fmt.Errorf("%w: empty dataset", matrix.ErrInvalidShape)
	}
	outDim := n.sizes[len(n.sizes)-1]
	total := 0.0
	for i, s := range ds {
		out, err := n.Forward(s.Input)
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		if s.Target.Cols != outDim {
			return 0, fmt.Errorf("sample %d: %w: target 1x%d, network produces 1x%d",
				i, matrix.ErrShapeMismatch, s.Target.Cols, outDim)
		}
		for j := range out.Data {
			d := out.Data[j] - s.Target.Data[j]
			total += d * d
		}
	}
	return total / float64(len(ds)*outDim), nil
}
