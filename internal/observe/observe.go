// Package observe exposes the latest training snapshot over HTTP for
// external visualizers. Handlers read the same atomic slot as the terminal
// renderer, so serving a request never blocks the training loop.
package observe

import (
	"encoding/json"
	"net/http"

	"nnviz/internal/matrix"
	"nnviz/internal/trainer"
)

// Server serves read-only snapshot views.
type Server struct {
	src *trainer.Publisher
}

// New builds a server reading from src.
func New(src *trainer.Publisher) *Server {
	return &Server{src: src}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	return mux
}

type snapshotView struct {
	Epoch  uint64      `json:"epoch"`
	Cost   float64     `json:"cost"`
	Layers []layerView `json:"layers"`
}

type layerView struct {
	Rows       int        `json:"rows"`
	Cols       int        `json:"cols"`
	Activation string     `json:"activation"`
	Stats      layerStats `json:"stats"`
	Weights    []float64  `json:"weights"`
	Biases     []float64  `json:"biases"`
}

type layerStats struct {
	AvgWeight float64 `json:"avg_weight"`
	MinWeight float64 `json:"min_weight"`
	MaxWeight float64 `json:"max_weight"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := s.src.Latest()
	if snap == nil {
		http.Error(w, "no snapshot yet", http.StatusNotFound)
		return
	}

	view := snapshotView{Epoch: snap.Epoch, Cost: snap.Cost, Layers: make([]layerView, len(snap.Layers))}
	for i, l := range snap.Layers {
		view.Layers[i] = layerView{
			Rows:       l.Weights.Rows,
			Cols:       l.Weights.Cols,
			Activation: l.Activation.String(),
			Stats:      computeStats(l.Weights),
			Weights:    l.Weights.Data,
			Biases:     l.Biases.Data,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func computeStats(m *matrix.Matrix) layerStats {
	if len(m.Data) == 0 {
		return layerStats{}
	}
	stats := layerStats{MinWeight: m.Data[0], MaxWeight: m.Data[0]}
	sum := 0.0
	for _, v := range m.Data {
		sum += v
		if v < stats.MinWeight {
			stats.MinWeight = v
		}
		if v > stats.MaxWeight {
			stats.MaxWeight = v
		}
	}
	stats.AvgWeight = sum / float64(len(m.Data))
	return stats
}
