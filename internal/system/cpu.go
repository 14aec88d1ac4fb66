package system

import (
	"context"

	"github.com/atinylittleshell/perflog/internal/sample"
)

// CPUState carries the previous counter reading between CPU readings. The
// zero value is the state before the first reading.
type CPUState struct {
	Previous CPUTimes
	Primed   bool
}

// CPUUsage returns the busy percentage between state.Previous and current,
// along with the state to pass to the next call. An unprimed state yields 0.
// Counters that went backwards are treated as a reset and also yield 0.
func CPUUsage(state CPUState, current CPUTimes) (float64, CPUState) {
	next := CPUState{Previous: current, Primed: true}
	if !state.Primed {
		return 0, next
	}

	prev := state.Previous
	if current.Idle < prev.Idle || current.Kernel < prev.Kernel || current.User < prev.User {
		return 0, next
	}

	idle := current.Idle - prev.Idle
	total := (current.Kernel - prev.Kernel) + (current.User - prev.User)
	if total == 0 {
		return 0, next
	}

	return clampPercent(100.0 * (1.0 - float64(idle)/float64(total))), next
}

// ReadCPU queries probe and computes the busy percentage against state.
// A failed query returns sample.Sentinel and leaves state unchanged.
func ReadCPU(ctx context.Context, probe Probe, state CPUState) (float64, CPUState) {
	times, err := probe.CPUTimes(ctx)
	if err != nil {
		return sample.Sentinel, state
	}
	return CPUUsage(state, times)
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
