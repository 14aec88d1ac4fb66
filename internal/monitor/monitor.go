// Package monitor runs the sampling loop: read counters, print a line,
// persist the sample, wait, repeat.
package monitor

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/atinylittleshell/perflog/internal/sample"
	"github.com/atinylittleshell/perflog/internal/system"
)

// Saver persists one sample. Errors are reported but never stop the loop.
type Saver interface {
	Save(ctx context.Context, s sample.Sample) error
}

// SleepFunc waits for d or until ctx is done, returning ctx.Err() in the latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Monitor drives a fixed number of sampling iterations.
type Monitor struct {
	Probe      system.Probe
	Saver      Saver
	Out        io.Writer
	Logger     *zap.Logger
	Iterations int
	Interval   time.Duration
	DBPath     string

	now   func() time.Time
	sleep SleepFunc
}

// Option configures a Monitor during construction.
type Option func(*Monitor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithSleep replaces the context-aware timer wait.
func WithSleep(sleep SleepFunc) Option {
	return func(m *Monitor) { m.sleep = sleep }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Monitor) { m.Logger = logger }
}

func New(probe system.Probe, saver Saver, out io.Writer, iterations int, interval time.Duration, dbPath string, opts ...Option) *Monitor {
	m := &Monitor{
		Probe:      probe,
		Saver:      saver,
		Out:        out,
		Iterations: iterations,
		Interval:   interval,
		DBPath:     dbPath,
		now:        time.Now,
		sleep:      Sleep,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.Logger == nil {
		m.Logger = zap.NewNop()
	}
	return m
}

// Result summarizes a finished run.
type Result struct {
	Samples []sample.Sample
	Saved   int
}

// Run samples Iterations times, sleeping Interval after each sample. When
// ctx is canceled the loop stops early, the closing line is still printed
// and ctx.Err() is returned. Persistence failures do not produce an error.
func (m *Monitor) Run(ctx context.Context) (Result, error) {
	var (
		res   Result
		state system.CPUState
		cpu   float64
	)

	m.Logger.Debug("sampling started",
		zap.Int("iterations", m.Iterations),
		zap.Duration("interval", m.Interval),
		zap.String("db", m.DBPath))

	for i := 0; i < m.Iterations; i++ {
		if ctx.Err() != nil {
			break
		}

		ts := sample.FormatTimestamp(m.now())
		cpu, state = system.ReadCPU(ctx, m.Probe, state)
		ram := system.ReadRAM(ctx, m.Probe)
		s := sample.Sample{Timestamp: ts, CPUPercent: cpu, RAMPercent: ram}
		res.Samples = append(res.Samples, s)

		if cpu == sample.Sentinel || ram == sample.Sentinel {
			m.Logger.Warn("counter read failed", zap.Int("iteration", i+1), zap.Float64("cpu", cpu), zap.Float64("ram", ram))
		}

		fmt.Fprintln(m.Out, s.Line())

		if err := m.Saver.Save(ctx, s); err != nil {
			m.Logger.Debug("sample not persisted", zap.Int("iteration", i+1), zap.Error(err))
		} else {
			res.Saved++
		}

		if err := m.sleep(ctx, m.Interval); err != nil {
			break
		}
	}

	fmt.Fprintf(m.Out, "Data saved to database: %s\n", m.DBPath)

	if err := ctx.Err(); err != nil {
		m.Logger.Info("sampling interrupted", zap.Int("completed", len(res.Samples)), zap.Error(err))
		return res, err
	}
	return res, nil
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
