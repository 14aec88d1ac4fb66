package system

import (
	"context"
	"fmt"
)

// CPUTimes holds cumulative scheduler counters. Kernel includes Idle, so
// Kernel+User is the total elapsed CPU time. The unit is probe specific;
// only deltas taken from the same probe are compared.
type CPUTimes struct {
	Idle   uint64
	Kernel uint64
	User   uint64
}

// MemoryStatus is the physical memory reported by the OS, in bytes.
type MemoryStatus struct {
	Total     uint64
	Available uint64
}

// Probe queries the OS counters a sample is derived from.
type Probe interface {
	CPUTimes(ctx context.Context) (CPUTimes, error)
	Memory(ctx context.Context) (MemoryStatus, error)
}

// Probe kinds accepted by NewProbe.
const (
	ProbeHost   = "host"
	ProbeProcfs = "procfs"
)

// ProbeKinds lists the accepted probe names.
var ProbeKinds = []string{ProbeHost, ProbeProcfs}

// NewProbe returns the probe registered under kind. An empty kind selects
// the host probe.
func NewProbe(kind string) (Probe, error) {
	switch kind {
	case "", ProbeHost:
		return HostProbe{}, nil
	case ProbeProcfs:
		return NewProcProbe(DefaultProcRoot), nil
	default:
		return nil, fmt.Errorf("unknown probe %q", kind)
	}
}
