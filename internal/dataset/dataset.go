package dataset

import (
	"fmt"

	"nnviz/internal/matrix"
)

// Sample pairs a 1×in input row vector with its 1×out expected output.
type Sample struct {
	Input  *matrix.Matrix
	Target *matrix.Matrix
}

// Set is an ordered training set, immutable after construction.
type Set []Sample

// XOR returns the fixed 2-input XOR truth table.
func XOR() Set {
	rows := [][3]float64{
		{0, 0, 0},
		{0, 1, 1},
		{1, 0, 1},
		{1, 1, 0},
	}
	ds := make(Set, 0, len(rows))
	for _, row := range rows {
		ds = append(ds, Sample{
			Input:  &matrix.Matrix{Rows: 1, Cols: 2, Data: []float64{row[0], row[1]}},
			Target: &matrix.Matrix{Rows: 1, Cols: 1, Data: []float64{row[2]}},
		})
	}
	return ds
}

// Validate checks every sample against the expected input and output widths.
func Validate(ds Set, inDim, outDim int) error {
	if len(ds) == 0 {
		return fmt.Errorf("dataset: empty set")
	}
	for i, s := range ds {
		if s.Input == nil || s.Target == nil {
			return fmt.Errorf("dataset: sample %d missing input or target", i)
		}
		if s.Input.Rows != 1 || s.Input.Cols != inDim {
			return fmt.Errorf("dataset: sample %d: %w: input %dx%d, want 1x%d",
				i, matrix.ErrShapeMismatch, s.Input.Rows, s.Input.Cols, inDim)
		}
		if s.Target.Rows != 1 || s.Target.Cols != outDim {
			return fmt.Errorf("dataset: sample %d: %w: target %dx%d, want 1x%d",
				i, matrix.ErrShapeMismatch, s.Target.Rows, s.Target.Cols, outDim)
		}
	}
	return nil
}
