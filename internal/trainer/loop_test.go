package trainer

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"nnviz/internal/dataset"
	"nnviz/internal/network"
)

func TestRunStopsAtMaxEpochs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	net, _ := network.New([]int{2, 2, 1}, rng)
	pub := &Publisher{}
	cfg := RunConfig{
		Eps:           1e-1,
		LearningRate:  1e-1,
		MaxEpochs:     50,
		SnapshotEvery: 10,
		LogEvery:      1000,
		Publisher:     pub,
	}
	if err := Run(context.Background(), net, dataset.XOR(), cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}
	snap := pub.Latest()
	if snap == nil {
		t.Fatalf("no snapshot published")
	}
	if snap.Epoch != 50 {
		t.Fatalf("final snapshot epoch = %d, want 50", snap.Epoch)
	}
	if len(snap.Layers) != 2 {
		t.Fatalf("snapshot has %d layers, want 2", len(snap.Layers))
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	net, _ := network.New([]int{2, 2, 1}, rng)
	err := Run(context.Background(), net, dataset.XOR(), RunConfig{Eps: 0, LearningRate: 0.1, MaxEpochs: 1})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRunRejectsMismatchedDataset(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	net, _ := network.New([]int{3, 2, 1}, rng)
	err := Run(context.Background(), net, dataset.XOR(), RunConfig{Eps: 1e-1, LearningRate: 1e-1, MaxEpochs: 1})
	if err == nil {
		t.Fatalf("expected dataset dimension error")
	}
}

func TestRunHonorsCancel(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	net, _ := network.New([]int{2, 2, 1}, rng)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, net, dataset.XOR(), RunConfig{Eps: 1e-1, LearningRate: 1e-1})
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

func TestSnapshotConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	net, _ := network.New([]int{2, 3, 1}, rng)
	pub := &Publisher{}
	cfg := RunConfig{
		Eps:           1e-1,
		LearningRate:  1e-1,
		MaxEpochs:     400,
		SnapshotEvery: 1,
		LogEvery:      100000,
		Publisher:     pub,
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		var lastEpoch uint64
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap := pub.Latest()
			if snap == nil {
				continue
			}
			if snap.Epoch < lastEpoch {
				t.Errorf("epoch went backwards: %d after %d", snap.Epoch, lastEpoch)
				return
			}
			lastEpoch = snap.Epoch
			if len(snap.Layers) != 2 {
				t.Errorf("torn snapshot at epoch %d: %d layers", snap.Epoch, len(snap.Layers))
				return
			}
			for i, l := range snap.Layers {
				if l.Weights == nil || l.Biases == nil {
					t.Errorf("torn snapshot at epoch %d: layer %d incomplete", snap.Epoch, i)
					return
				}
			}
			if math.IsNaN(snap.Cost) {
				t.Errorf("NaN cost at epoch %d", snap.Epoch)
				return
			}
		}
	}()

	if err := Run(context.Background(), net, dataset.XOR(), cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}
	close(stop)
	wg.Wait()

	if snap := pub.Latest(); snap.Epoch != 400 {
		t.Fatalf("final epoch = %d, want 400", snap.Epoch)
	}
}

func TestSnapshotCostMatchesItsLayers(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	net, _ := network.New([]int{2, 2, 1}, rng)
	pub := &Publisher{}
	ds := dataset.XOR()
	cfg := RunConfig{
		Eps:           1e-1,
		LearningRate:  1e-1,
		MaxEpochs:     30,
		SnapshotEvery: 10,
		LogEvery:      1000,
		Publisher:     pub,
	}
	if err := Run(context.Background(), net, ds, cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap := pub.Latest()
	rebuilt, err := network.FromLayers(snap.Layers)
	if err != nil {
		t.Fatalf("FromLayers: %v", err)
	}
	cost, err := rebuilt.Cost(ds)
	if err != nil {
		t.Fatalf("Cost: %v", err)
	}
	if cost != snap.Cost {
		t.Fatalf("snapshot cost %v does not describe its own layers (recomputed %v)", snap.Cost, cost)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	net, _ := network.New([]int{2, 2, 1}, rng)
	snap := capture(1, 0.5, net)

	before := snap.Layers[0].Weights.Data[0]
	orig, _ := net.Param(0)
	net.SetParam(0, orig+100)
	if snap.Layers[0].Weights.Data[0] != before {
		t.Fatalf("snapshot shares storage with the live network")
	}
}
