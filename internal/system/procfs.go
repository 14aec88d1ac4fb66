package system

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/atinylittleshell/perflog/internal/errors"
)

// DefaultProcRoot is where the Linux kernel exposes its counters.
const DefaultProcRoot = "/proc"

// ProcProbe parses <Root>/stat and <Root>/meminfo directly. CPU counters are
// in USER_HZ ticks.
type ProcProbe struct {
	Root string
}

func NewProcProbe(root string) *ProcProbe {
	return &ProcProbe{Root: root}
}

func (p *ProcProbe) CPUTimes(_ context.Context) (CPUTimes, error) {
	stat, err := os.Open(filepath.Join(p.Root, "stat"))
	if err != nil {
		return CPUTimes{}, err
	}
	defer func() {
		_ = stat.Close()
	}()

	scanner := bufio.NewScanner(stat)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 || parts[0] != "cpu" {
			continue
		}
		// cpu  user nice system idle iowait irq softirq steal guest guest_nice
		if len(parts) < 5 {
			return CPUTimes{}, fmt.Errorf("short cpu line in %s: %d fields", stat.Name(), len(parts))
		}
		var ticks [8]uint64
		for i := range ticks {
			if i+1 >= len(parts) {
				break
			}
			val, err := strconv.ParseUint(parts[i+1], 10, 64)
			if err != nil {
				return CPUTimes{}, apperrors.WrapError(err, "parsing cpu field %d in %s", i+1, stat.Name())
			}
			ticks[i] = val
		}
		user, nice, system, idle := ticks[0], ticks[1], ticks[2], ticks[3]
		iowait, irq, softirq, steal := ticks[4], ticks[5], ticks[6], ticks[7]

		idleAll := idle + iowait
		return CPUTimes{
			Idle:   idleAll,
			Kernel: system + irq + softirq + steal + idleAll,
			User:   user + nice,
		}, nil
	}
	if err := scanner.Err(); err != nil {
		return CPUTimes{}, err
	}
	return CPUTimes{}, fmt.Errorf("no aggregate cpu line in %s", stat.Name())
}

func (p *ProcProbe) Memory(_ context.Context) (MemoryStatus, error) {
	memInfo, err := os.Open(filepath.Join(p.Root, "meminfo"))
	if err != nil {
		return MemoryStatus{}, err
	}
	defer func() {
		_ = memInfo.Close()
	}()

	values := make(map[string]uint64)
	scanner := bufio.NewScanner(memInfo)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}
		key := strings.TrimSuffix(parts[0], ":")
		val, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			continue
		}
		// /proc/meminfo values are in kB
		values[key] = val * 1024
	}
	if err := scanner.Err(); err != nil {
		return MemoryStatus{}, err
	}

	total, ok := values["MemTotal"]
	if !ok || total == 0 {
		return MemoryStatus{}, fmt.Errorf("MemTotal missing from %s", memInfo.Name())
	}
	available, ok := values["MemAvailable"]
	if !ok {
		// Kernels before 3.14 do not report MemAvailable.
		available = values["MemFree"] + values["Buffers"] + values["Cached"]
	}
	if available > total {
		available = total
	}
	return MemoryStatus{Total: total, Available: available}, nil
}
