// Package systemtest provides a deterministic system.Probe for tests.
package systemtest

import (
	"context"
	"errors"
	"sync"

	"github.com/atinylittleshell/perflog/internal/system"
)

// ErrProbe is returned by Fail readings.
var ErrProbe = errors.New("probe failure")

// CPUReading is one scripted answer to CPUTimes.
type CPUReading struct {
	Times system.CPUTimes
	Err   error
}

// MemReading is one scripted answer to Memory.
type MemReading struct {
	Status system.MemoryStatus
	Err    error
}

// SequenceProbe replays fixed readings in order. Once a sequence is
// exhausted its last reading is repeated; an empty sequence returns ErrProbe.
type SequenceProbe struct {
	mu       sync.Mutex
	cpu      []CPUReading
	mem      []MemReading
	cpuCalls int
	memCalls int
}

func NewSequenceProbe(cpu []CPUReading, mem []MemReading) *SequenceProbe {
	return &SequenceProbe{cpu: cpu, mem: mem}
}

// Steady returns a probe that advances CPU counters by the given deltas on
// every call and always reports the same memory status.
func Steady(n int, idle, kernel, user uint64, mem system.MemoryStatus) *SequenceProbe {
	cpu := make([]CPUReading, n)
	var cur system.CPUTimes
	for i := range cpu {
		cur.Idle += idle
		cur.Kernel += kernel
		cur.User += user
		cpu[i] = CPUReading{Times: cur}
	}
	return NewSequenceProbe(cpu, []MemReading{{Status: mem}})
}

func (p *SequenceProbe) CPUTimes(_ context.Context) (system.CPUTimes, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.cpu) == 0 {
		return system.CPUTimes{}, ErrProbe
	}
	r := p.cpu[min(p.cpuCalls, len(p.cpu)-1)]
	p.cpuCalls++
	return r.Times, r.Err
}

func (p *SequenceProbe) Memory(_ context.Context) (system.MemoryStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.mem) == 0 {
		return system.MemoryStatus{}, ErrProbe
	}
	r := p.mem[min(p.memCalls, len(p.mem)-1)]
	p.memCalls++
	return r.Status, r.Err
}

// Calls reports how many CPU and memory queries were made.
func (p *SequenceProbe) Calls() (cpu, mem int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cpuCalls, p.memCalls
}
