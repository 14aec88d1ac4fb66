package sample

import (
	"fmt"
	"time"
)

// Sentinel marks a reading whose OS counter query failed.
const Sentinel = -1.0

// TimestampLayout is the second-precision local time format stored with each sample.
const TimestampLayout = "2006-01-02 15:04:05"

// Sample is one timestamped CPU and RAM measurement.
type Sample struct {
	Timestamp  string
	CPUPercent float64 // 0-100, or Sentinel
	RAMPercent float64 // 0-100, or Sentinel
}

// FormatTimestamp converts t to local calendar time and formats it with
// TimestampLayout. When no zone data is available the runtime reports UTC.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// Line renders the sample the way it is printed after each reading.
func (s Sample) Line() string {
	return fmt.Sprintf("Time: %s | CPU Usage: %.2f%% | RAM Usage: %.2f%%", s.Timestamp, s.CPUPercent, s.RAMPercent)
}

// Valid reports whether both percentages are either in [0,100] or the sentinel.
// Tests use it to check every sample a run produced.
func (s Sample) Valid() bool {
	return validPercent(s.CPUPercent) && validPercent(s.RAMPercent)
}

func validPercent(v float64) bool {
	return v == Sentinel || (v >= 0 && v <= 100)
}
