// Package report summarizes the samples stored in a performance database.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/atinylittleshell/perflog/internal/sample"
	"github.com/atinylittleshell/perflog/internal/store"
)

// Summary describes the whole table.
type Summary struct {
	Count int64
	First string
	Last  string
	CPU   store.ColumnStats
	RAM   store.ColumnStats
}

// Load aggregates the table in the database and fetches its first and last rows.
func Load(ctx context.Context, s *store.Store) (Summary, error) {
	count, err := s.Count(ctx)
	if err != nil || count == 0 {
		return Summary{}, err
	}

	first, err := s.Entries(ctx, 1)
	if err != nil {
		return Summary{}, err
	}
	last, err := s.Recent(ctx, 1)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Count: count}
	if len(first) > 0 {
		summary.First = first[0].Timestamp
	}
	if len(last) > 0 {
		summary.Last = last[0].Timestamp
	}
	if summary.CPU, err = s.Stats(ctx, store.ColumnCPU); err != nil {
		return Summary{}, err
	}
	if summary.RAM, err = s.Stats(ctx, store.ColumnRAM); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// Write prints summary followed by the recent rows.
func Write(out io.Writer, path string, summary Summary, recent []store.PerformanceEntry, now time.Time) {
	if summary.Count == 0 {
		fmt.Fprintf(out, "No samples recorded in %s\n", path)
		return
	}

	fmt.Fprintf(out, "Database: %s\n", path)
	fmt.Fprintf(out, "Samples: %s", humanize.Comma(summary.Count))
	if failed := summary.CPU.Failed + summary.RAM.Failed; failed > 0 {
		fmt.Fprintf(out, " (%s failed readings)", humanize.Comma(failed))
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "First: %s\n", summary.First)
	fmt.Fprintf(out, "Last:  %s%s\n", summary.Last, age(summary.Last, now))
	fmt.Fprintf(out, "CPU Usage: %s\n", formatStats(summary.CPU))
	fmt.Fprintf(out, "RAM Usage: %s\n", formatStats(summary.RAM))

	if len(recent) == 0 {
		return
	}
	fmt.Fprintf(out, "Last %d samples:\n", len(recent))
	for _, e := range recent {
		fmt.Fprintln(out, e.Sample().Line())
	}
}

func formatStats(s store.ColumnStats) string {
	if s.N == 0 {
		return "no successful readings"
	}
	return fmt.Sprintf("min %.2f%% | avg %.2f%% | max %.2f%%", s.Min, s.Avg, s.Max)
}

func age(timestamp string, now time.Time) string {
	t, err := time.ParseInLocation(sample.TimestampLayout, timestamp, time.Local)
	if err != nil {
		return ""
	}
	return " (" + humanize.RelTime(t, now, "ago", "from now") + ")"
}

// Run loads the database at path and writes its report to out. A missing
// file is reported as empty and is not created.
func Run(ctx context.Context, path string, tail int, out io.Writer) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		Write(out, path, Summary{}, nil, time.Now())
		return nil
	}

	s, err := store.Open(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		_ = s.Close()
	}()

	summary, err := Load(ctx, s)
	if err != nil {
		return err
	}

	var recent []store.PerformanceEntry
	if tail > 0 {
		if recent, err = s.Recent(ctx, tail); err != nil {
			return err
		}
	}

	Write(out, s.Path(), summary, recent, time.Now())
	return nil
}
