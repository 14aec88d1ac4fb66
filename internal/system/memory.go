package system

import (
	"context"

	"github.com/atinylittleshell/perflog/internal/sample"
)

// MemoryUsage returns the percentage of physical memory in use.
func MemoryUsage(status MemoryStatus) float64 {
	if status.Total == 0 {
		return sample.Sentinel
	}
	return clampPercent(100.0 * (1.0 - float64(status.Available)/float64(status.Total)))
}

// ReadRAM queries probe for memory status. It returns sample.Sentinel when
// the query fails or reports no memory at all.
func ReadRAM(ctx context.Context, probe Probe) float64 {
	status, err := probe.Memory(ctx)
	if err != nil {
		return sample.Sentinel
	}
	return MemoryUsage(status)
}
