package trainer

import (
	"context"
	"errors"
	"log"
	"time"

	"nnviz/internal/dataset"
	"nnviz/internal/metrics"
	"nnviz/internal/network"
)

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	Eps           float64
	LearningRate  float64
	MaxEpochs     int // 0 means run until the context is cancelled
	SnapshotEvery int
	LogEvery      int
	Publisher     *Publisher
}

// Run drives repeated finite-difference steps over the whole dataset. The
// live network is owned by this goroutine for the duration of the run;
// other goroutines observe progress only through the publisher. Stops when
// MaxEpochs is reached or the context is done, checked at epoch boundaries.
func Run(ctx context.Context, net *network.Network, ds dataset.Set, cfg RunConfig) error {
	stepCfg := Config{Eps: cfg.Eps, LearningRate: cfg.LearningRate}
	if err := stepCfg.Validate(); err != nil {
		return err
	}
	if cfg.MaxEpochs < 0 {
		return errors.New("trainer: max epochs must be >= 0")
	}
	if cfg.SnapshotEvery <= 0 {
		cfg.SnapshotEvery = 25
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 100
	}
	sizes := net.Sizes()
	if err := dataset.Validate(ds, sizes[0], sizes[len(sizes)-1]); err != nil {
		return err
	}

	var window metrics.Window
	var epoch uint64
	cost := 0.0

	for cfg.MaxEpochs == 0 || epoch < uint64(cfg.MaxEpochs) {
		select {
		case <-ctx.Done():
			if err := publish(cfg.Publisher, epoch, net, ds); err != nil {
				return err
			}
			return ctx.Err()
		default:
		}

		start := time.Now()
		base, err := Step(net, ds, stepCfg)
		if err != nil {
			return err
		}
		cost = base
		epoch++
		window.Record(time.Since(start), cost)

		if epoch%uint64(cfg.SnapshotEvery) == 0 {
			if err := publish(cfg.Publisher, epoch, net, ds); err != nil {
				return err
			}
		}
		if epoch%uint64(cfg.LogEvery) == 0 {
			snap := window.Snapshot()
			log.Printf("epoch=%d cost=%.6f epochs_per_sec=%.1f avg_step_ms=%.3f",
				epoch, cost, snap.EpochsPerSec, snap.AvgStepMS)
		}
	}

	return publish(cfg.Publisher, epoch, net, ds)
}

// publish captures the network as it is right now, with its cost remeasured
// on the post-update parameters so the snapshot's cost always describes the
// layers it carries.
func publish(p *Publisher, epoch uint64, net *network.Network, ds dataset.Set) error {
	if p == nil || epoch == 0 {
		return nil
	}
	cost, err := net.Cost(ds)
	if err != nil {
		return err
	}
	p.Publish(capture(epoch, cost, net))
	return nil
}
