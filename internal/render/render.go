// Package render draws training progress to a terminal. It is a pure
// consumer of published snapshots: it keeps its own display-side history of
// (epoch, cost) points and never touches the live network.
package render

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"

	"nnviz/internal/dataset"
	"nnviz/internal/network"
	"nnviz/internal/trainer"
)

const (
	curveWidth  = 64
	sparkRunes  = " ▁▂▃▄▅▆▇█"
	weightRunes = " .:-=+*#%@"
)

type point struct {
	epoch uint64
	cost  float64
}

// Renderer periodically redraws the latest snapshot.
type Renderer struct {
	src       *trainer.Publisher
	out       io.Writer
	ds        dataset.Set
	history   []point
	lastEpoch uint64
}

// New builds a renderer reading from src and writing frames to out. The
// dataset is used for the prediction table at the bottom of each frame.
func New(src *trainer.Publisher, out io.Writer, ds dataset.Set) *Renderer {
	return &Renderer{src: src, out: out, ds: ds}
}

// Run redraws on a fixed interval until the context is done, then draws one
// final frame so the terminal shows the end state.
func (r *Renderer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Frame()
			return
		case <-ticker.C:
			r.Frame()
		}
	}
}

// Frame reads the latest snapshot and redraws. Safe to call repeatedly with
// the same snapshot: the history grows only when the epoch advances.
func (r *Renderer) Frame() error {
	snap := r.src.Latest()
	if snap == nil {
		return nil
	}
	if snap.Epoch != r.lastEpoch {
		r.history = append(r.history, point{epoch: snap.Epoch, cost: snap.Cost})
		r.lastEpoch = snap.Epoch
	}

	var b strings.Builder
	b.WriteString("\x1b[2J\x1b[H")
	fmt.Fprintf(&b, "epoch=%d cost=%.6f\n\n", snap.Epoch, snap.Cost)

	b.WriteString(costCurve(r.history, curveWidth))
	b.WriteString("\n")

	for i, l := range snap.Layers {
		fmt.Fprintf(&b, "layer %d  %dx%d %s\n", i, l.Weights.Rows, l.Weights.Cols, l.Activation)
		b.WriteString(weightMap(l))
	}

	table, err := predictionTable(snap.Layers, r.ds)
	if err != nil {
		return err
	}
	b.WriteString(table)

	_, err = io.WriteString(r.out, b.String())
	return err
}

// costCurve renders the cost history as a sparkline, newest point last.
func costCurve(history []point, width int) string {
	if len(history) == 0 {
		return "cost curve: (no data)\n"
	}
	pts := history
	if len(pts) > width {
		pts = pts[len(pts)-width:]
	}
	costs := make([]float64, len(pts))
	finite := make([]float64, 0, len(pts))
	for i, p := range pts {
		costs[i] = p.cost
		if !math.IsNaN(p.cost) && !math.IsInf(p.cost, 0) {
			finite = append(finite, p.cost)
		}
	}
	lo, hi := 0.0, 0.0
	if len(finite) > 0 {
		lo, hi = floats.Min(finite), floats.Max(finite)
	}
	span := hi - lo
	runes := []rune(sparkRunes)

	var b strings.Builder
	fmt.Fprintf(&b, "cost curve  [%.4f .. %.4f]\n", lo, hi)
	for _, c := range costs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			b.WriteRune('?')
			continue
		}
		idx := 0
		if span > 0 {
			idx = clampIndex(int((c-lo)/span*float64(len(runes)-1)), len(runes))
		}
		b.WriteRune(runes[idx])
	}
	b.WriteString("\n")
	return b.String()
}

func clampIndex(idx, n int) int {
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

// weightMap draws one character per weight, bright for strongly positive,
// dark for strongly negative, like the original line colouring.
func weightMap(l network.Layer) string {
	var b strings.Builder
	for r := 0; r < l.Weights.Rows; r++ {
		b.WriteString("  ")
		for c := 0; c < l.Weights.Cols; c++ {
			b.WriteByte(weightGlyph(l.Weights.MustAt(r, c)))
		}
		b.WriteString("  b:")
		b.WriteByte(weightGlyph(l.Biases.MustAt(r, 0)))
		b.WriteString("\n")
	}
	return b.String()
}

func weightGlyph(v float64) byte {
	if math.IsNaN(v) {
		return '?'
	}
	squashed := 1.0 / (1.0 + math.Exp(-v))
	idx := clampIndex(int(squashed*float64(len(weightRunes)-1)), len(weightRunes))
	return weightRunes[idx]
}

func predictionTable(layers []network.Layer, ds dataset.Set) (string, error) {
	if len(ds) == 0 {
		return "", nil
	}
	net, err := network.FromLayers(layers)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, s := range ds {
		out, err := net.Forward(s.Input)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "input:%v  expected:%v  output:%v\n",
			s.Input.Data, s.Target.Data, formatOutputs(out.Data))
	}
	return b.String(), nil
}

func formatOutputs(vals []float64) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = fmt.Sprintf("%.4f", v)
	}
	return out
}
