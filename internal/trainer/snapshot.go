package trainer

import (
	"sync/atomic"

	"nnviz/internal/network"
)

// Snapshot is an immutable copy of training state at one instant. Layers are
// deep copies; readers never share storage with the live network.
type Snapshot struct {
	Epoch  uint64
	Cost   float64
	Layers []network.Layer
}

func capture(epoch uint64, cost float64, net *network.Network) *Snapshot {
	return &Snapshot{Epoch: epoch, Cost: cost, Layers: net.CloneLayers()}
}

// Publisher is a single latest-wins slot shared between the training loop
// and any number of readers. Publish is one atomic store, so the loop is
// never throttled by slow consumers; readers see either the previous or the
// fully built snapshot, never a mix.
type Publisher struct {
	slot atomic.Pointer[Snapshot]
}

// Publish replaces the latest snapshot.
func (p *Publisher) Publish(s *Snapshot) {
	p.slot.Store(s)
}

// Latest returns the most recently published snapshot, or nil before the
// first publication. Callers must treat the result as read-only.
func (p *Publisher) Latest() *Snapshot {
	return p.slot.Load()
}
