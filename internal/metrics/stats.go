package metrics

import "time"

// Window accumulates timing stats across training epochs.
type Window struct {
	epochs   int
	step     time.Duration
	lastCost float64
}

// Record adds one epoch's measurement to the window.
func (w *Window) Record(stepTime time.Duration, cost float64) {
	w.epochs++
	w.step += stepTime
	w.lastCost = cost
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{LastCost: w.lastCost}
	if w.step > 0 {
		snap.EpochsPerSec = float64(w.epochs) / w.step.Seconds()
	}
	if w.epochs > 0 {
		snap.AvgStepMS = (w.step.Seconds() * 1000) / float64(w.epochs)
	}

	w.epochs = 0
	w.step = 0
	return snap
}

// Snapshot represents loggable metrics.
type Snapshot struct {
	EpochsPerSec float64
	AvgStepMS    float64
	LastCost     float64
}
