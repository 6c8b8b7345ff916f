package lineprof

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// FuncKey identifies a profiled function by where it is declared.
type FuncKey struct {
	Filename  string
	StartLine int
	Name      string
}

func (k FuncKey) less(other FuncKey) bool {
	if k.Filename != other.Filename {
		return k.Filename < other.Filename
	}
	if k.StartLine != other.StartLine {
		return k.StartLine < other.StartLine
	}
	return k.Name < other.Name
}

// LineTiming holds the accumulated measurements of a single source line.
type LineTiming struct {
	Line  int
	Hits  int64
	Ticks int64
}

// LineStats is a snapshot of the timings gathered by a Profiler. Ticks are
// converted to seconds by multiplying by Unit.
type LineStats struct {
	Timings map[FuncKey][]LineTiming
	Unit    float64
}

// Keys returns the profiled functions ordered by file, line and name.
func (s *LineStats) Keys() []FuncKey {
	keys := maps.Keys(s.Timings)
	slices.SortFunc(keys, FuncKey.less)
	return keys
}

// TotalTicks returns the ticks spent in all lines of the given function.
func (s *LineStats) TotalTicks(key FuncKey) int64 {
	var total int64
	for _, t := range s.Timings[key] {
		total += t.Ticks
	}
	return total
}

// Seconds converts a tick count to seconds.
func (s *LineStats) Seconds(ticks int64) float64 {
	return float64(ticks) * s.Unit
}

// Filter returns the stats of the functions whose name contains substr,
// ignoring case. An empty substr matches every function.
func (s *LineStats) Filter(substr string) *LineStats {
	substr = strings.ToLower(substr)
	filtered := &LineStats{
		Timings: make(map[FuncKey][]LineTiming),
		Unit:    s.Unit,
	}
	for key, timings := range s.Timings {
		if strings.Contains(strings.ToLower(key.Name), substr) {
			filtered.Timings[key] = timings
		}
	}
	return filtered
}

func sortTimings(timings []LineTiming) {
	slices.SortFunc(timings, func(a, b LineTiming) bool { return a.Line < b.Line })
}
