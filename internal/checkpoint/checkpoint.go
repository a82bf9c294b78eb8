// Package checkpoint serializes trained networks to disk. Reloaded networks
// reproduce forward outputs bit-for-bit: float64 values survive a JSON round
// trip exactly in Go.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"

	"nnviz/internal/matrix"
	"nnviz/internal/network"
)

const formatVersion = 1

type file struct {
	Version int         `json:"version"`
	Sizes   []int       `json:"sizes"`
	Layers  []layerJSON `json:"layers"`
}

type layerJSON struct {
	Weights    *matrix.Matrix `json:"weights"`
	Biases     *matrix.Matrix `json:"biases"`
	Activation string         `json:"activation"`
}

// Save writes the network's layers to path.
func Save(path string, net *network.Network) error {
	layers := net.CloneLayers()
	out := file{Version: formatVersion, Sizes: net.Sizes(), Layers: make([]layerJSON, len(layers))}
	for i, l := range layers {
		out.Layers[i] = layerJSON{
			Weights:    l.Weights,
			Biases:     l.Biases,
			Activation: l.Activation.String(),
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("checkpoint: write %s: %w", path, err)
	}
	return nil
}

// Load reconstructs a network from a checkpoint file.
func Load(path string) (*network.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read %s: %w", path, err)
	}
	var in file
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("checkpoint: decode %s: %w", path, err)
	}
	if in.Version != formatVersion {
		return nil, fmt.Errorf("checkpoint: unsupported version %d", in.Version)
	}
	layers := make([]network.Layer, len(in.Layers))
	for i, l := range in.Layers {
		act, err := matrix.ParseActivation(l.Activation)
		if err != nil {
			return nil, fmt.Errorf("checkpoint: layer %d: %w", i, err)
		}
		layers[i] = network.Layer{Weights: l.Weights, Biases: l.Biases, Activation: act}
	}
	net, err := network.FromLayers(layers)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: %w", err)
	}
	return net, nil
}
