package network

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"nnviz/internal/dataset"
	"nnviz/internal/matrix"
)

func TestNewRequiresTwoSizes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := New([]int{2}, rng); !errors.Is(err, matrix.ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape, got %v", err)
	}
	if _, err := New([]int{2, 0, 1}, rng); !errors.Is(err, matrix.ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape for zero size, got %v", err)
	}
}

func TestLayerShapesChain(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	net, err := New([]int{3, 5, 2}, rng)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	layers := net.CloneLayers()
	if len(layers) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(layers))
	}
	if layers[0].Weights.Rows != 5 || layers[0].Weights.Cols != 3 {
		t.Fatalf("layer 0 weights %dx%d", layers[0].Weights.Rows, layers[0].Weights.Cols)
	}
	if layers[1].Weights.Cols != layers[0].Weights.Rows {
		t.Fatalf("layer dimensions do not chain")
	}
	if layers[1].Biases.Rows != 2 || layers[1].Biases.Cols != 1 {
		t.Fatalf("layer 1 biases %dx%d", layers[1].Biases.Rows, layers[1].Biases.Cols)
	}
}

func TestForwardDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	net, _ := New([]int{2, 4, 1}, rng)
	in := &matrix.Matrix{Rows: 1, Cols: 2, Data: []float64{0.3, 0.7}}

	a, err := net.Forward(in)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	b, err := net.Forward(in)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("output %d differs between calls: %v vs %v", i, a.Data[i], b.Data[i])
		}
	}
	if a.Rows != 1 || a.Cols != 1 {
		t.Fatalf("expected 1x1 output, got %dx%d", a.Rows, a.Cols)
	}
}

func TestForwardDoesNotMutateParameters(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	net, _ := New([]int{2, 3, 1}, rng)
	before := net.Clone()
	in := &matrix.Matrix{Rows: 1, Cols: 2, Data: []float64{1, 0}}
	if _, err := net.Forward(in); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	for i := 0; i < net.ParamCount(); i++ {
		a, _ := net.Param(i)
		b, _ := before.Param(i)
		if a != b {
			t.Fatalf("parameter %d changed by Forward", i)
		}
	}
}

func TestForwardShapeMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	net, _ := New([]int{2, 2, 1}, rng)
	in := &matrix.Matrix{Rows: 1, Cols: 3, Data: []float64{1, 2, 3}}
	if _, err := net.Forward(in); !errors.Is(err, matrix.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestParamCountLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	net, _ := New([]int{2, 3, 4, 1}, rng)
	want := 0
	for _, l := range net.CloneLayers() {
		want += l.Weights.Rows*l.Weights.Cols + l.Biases.Rows*l.Biases.Cols
	}
	if got := net.ParamCount(); got != want {
		t.Fatalf("ParamCount = %d, want %d", got, want)
	}
	// 2→3→4→1 sigmoid MLP: (6+3) + (12+4) + (4+1) = 30
	if net.ParamCount() != 30 {
		t.Fatalf("ParamCount = %d, want 30", net.ParamCount())
	}
}

func TestParamFlatOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	net, _ := New([]int{2, 2, 1}, rng)
	count := net.ParamCount()
	for i := 0; i < count; i++ {
		if err := net.SetParam(i, float64(i)); err != nil {
			t.Fatalf("SetParam(%d): %v", i, err)
		}
	}
	// layer 0: weights row-major then biases, then layer 1.
	layers := net.CloneLayers()
	want := [][]float64{
		layers[0].Weights.Data, layers[0].Biases.Data,
		layers[1].Weights.Data, layers[1].Biases.Data,
	}
	flat := 0.0
	for _, chunk := range want {
		for _, v := range chunk {
			if v != flat {
				t.Fatalf("flat ordering broken: saw %v, want %v", v, flat)
			}
			flat++
		}
	}
	for i := 0; i < count; i++ {
		v, err := net.Param(i)
		if err != nil || v != float64(i) {
			t.Fatalf("Param(%d) = %v, %v", i, v, err)
		}
	}
	if _, err := net.Param(count); !errors.Is(err, matrix.ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds past end, got %v", err)
	}
	if err := net.SetParam(count, 0); !errors.Is(err, matrix.ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds past end, got %v", err)
	}
}

func TestParamRejectsNegativeIndex(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	net, _ := New([]int{2, 2, 1}, rng)
	if _, err := net.Param(-1); !errors.Is(err, matrix.ErrOutOfBounds) {
		t.Fatalf("Param(-1): expected ErrOutOfBounds, got %v", err)
	}
	if err := net.SetParam(-1, 0); !errors.Is(err, matrix.ErrOutOfBounds) {
		t.Fatalf("SetParam(-1): expected ErrOutOfBounds, got %v", err)
	}
}

func TestCostKnownValue(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	net, _ := New([]int{1, 1}, rng)
	// Force w=0, b=0 so every output is sigmoid(0) = 0.5.
	net.SetParam(0, 0)
	net.SetParam(1, 0)

	ds := dataset.Set{
		{
			Input:  &matrix.Matrix{Rows: 1, Cols: 1, Data: []float64{1}},
			Target: &matrix.Matrix{Rows: 1, Cols: 1, Data: []float64{1}},
		},
		{
			Input:  &matrix.Matrix{Rows: 1, Cols: 1, Data: []float64{0}},
			Target: &matrix.Matrix{Rows: 1, Cols: 1, Data: []float64{0}},
		},
	}
	got, err := net.Cost(ds)
	if err != nil {
		t.Fatalf("Cost: %v", err)
	}
	if math.Abs(got-0.25) > 1e-15 {
		t.Fatalf("Cost = %g, want 0.25", got)
	}
}

func TestFromLayersRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	net, _ := New([]int{2, 3, 1}, rng)
	rebuilt, err := FromLayers(net.CloneLayers())
	if err != nil {
		t.Fatalf("FromLayers: %v", err)
	}
	in := &matrix.Matrix{Rows: 1, Cols: 2, Data: []float64{0.25, 0.75}}
	a, _ := net.Forward(in)
	b, _ := rebuilt.Forward(in)
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("rebuilt network diverges at output %d", i)
		}
	}

	// Broken chain is rejected.
	layers := net.CloneLayers()
	layers[1].Weights, _ = matrix.New(1, 5)
	if _, err := FromLayers(layers); !errors.Is(err, matrix.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestFromLayersRejectsShortBacking(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	net, _ := New([]int{2, 3, 1}, rng)

	layers := net.CloneLayers()
	layers[0].Weights = &matrix.Matrix{Rows: 3, Cols: 2, Data: []float64{0.5}}
	if _, err := FromLayers(layers); !errors.Is(err, matrix.ErrInvalidShape) {
		t.Fatalf("short weight backing: expected ErrInvalidShape, got %v", err)
	}

	layers = net.CloneLayers()
	layers[1].Biases = &matrix.Matrix{Rows: 1, Cols: 1, Data: []float64{1, 2, 3}}
	if _, err := FromLayers(layers); !errors.Is(err, matrix.ErrInvalidShape) {
		t.Fatalf("oversized bias backing: expected ErrInvalidShape, got %v", err)
	}

	layers = net.CloneLayers()
	layers[0].Weights = &matrix.Matrix{Rows: 0, Cols: 2, Data: nil}
	if _, err := FromLayers(layers); !errors.Is(err, matrix.ErrInvalidShape) {
		t.Fatalf("zero rows: expected ErrInvalidShape, got %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	net, _ := New([]int{2, 2, 1}, rng)
	cp := net.Clone()
	orig, _ := net.Param(0)
	cp.SetParam(0, orig+10)
	after, _ := net.Param(0)
	if after != orig {
		t.Fatalf("Clone shares parameter storage")
	}
}
