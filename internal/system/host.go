package system

import (
	"context"
	"errors"
	"math"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	apperrors "github.com/atinylittleshell/perflog/internal/errors"
)

// ticksPerSecond converts gopsutil's float seconds into 100ns ticks.
const ticksPerSecond = 1e7

// HostProbe reads counters through gopsutil and works on every platform it supports.
type HostProbe struct{}

func (HostProbe) CPUTimes(ctx context.Context) (CPUTimes, error) {
	stats, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return CPUTimes{}, apperrors.WrapError(err, "reading host cpu times")
	}
	if len(stats) == 0 {
		return CPUTimes{}, errors.New("no cpu times reported")
	}

	s := stats[0]
	idle := s.Idle + s.Iowait
	kernel := s.System + s.Irq + s.Softirq + s.Steal + idle
	user := s.User + s.Nice
	return CPUTimes{
		Idle:   toTicks(idle),
		Kernel: toTicks(kernel),
		User:   toTicks(user),
	}, nil
}

func (HostProbe) Memory(ctx context.Context) (MemoryStatus, error) {
	vmem, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryStatus{}, apperrors.WrapError(err, "reading host memory")
	}
	return MemoryStatus{Total: vmem.Total, Available: vmem.Available}, nil
}

func toTicks(seconds float64) uint64 {
	if seconds <= 0 {
		return 0
	}
	return uint64(math.Round(seconds * ticksPerSecond))
}
