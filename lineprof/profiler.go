// Package lineprof implements a profiler that records the time spent on
// individual source lines of selected Go functions.
//
// Go offers no line-level tracing hook, so profiled functions are
// instrumented by hand:
//
//	func work(p *lineprof.Profiler) {
//		f := p.Enter()
//		defer f.Exit()
//
//		f.Line()
//		a := compute()
//		f.Line()
//		store(a)
//	}
//
// Each call to Line marks that the statement on the following source line
// is about to run. The time until the next event is charged to it.
// Timestamps come from package hrtimer.
package lineprof

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/canonical/lineprof/hrtimer"
)

// ErrNotFunction is returned by AddFunction when given something other than
// a function.
var ErrNotFunction = errors.New("lineprof: not a function")

// Profiler gathers line timings for the functions registered with
// AddFunction. It is safe for concurrent use.
type Profiler struct {
	unit    float64
	enabled atomic.Int32

	mu        sync.Mutex
	functions map[string]*funcStats // keyed by symbol name
}

type funcStats struct {
	key   FuncKey
	lines map[int]*LineTiming
}

// New returns a disabled profiler with no registered functions.
func New() *Profiler {
	return &Profiler{
		unit:      hrtimer.TickDuration(),
		functions: make(map[string]*funcStats),
	}
}

// Unit returns the number of seconds in one recorded tick.
func (p *Profiler) Unit() float64 {
	return p.unit
}

// AddFunction registers fn for profiling. Registering a function twice has
// no further effect.
//
// Method values are compiled to wrapper functions, so methods should be
// registered through method expressions such as (*T).Method.
func (p *Profiler) AddFunction(fn interface{}) error {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Errorf("%w: %T", ErrNotFunction, fn)
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return fmt.Errorf("%w: no symbol for %T", ErrNotFunction, fn)
	}
	file, line := f.FileLine(f.Entry())

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.functions[f.Name()]; !ok {
		p.functions[f.Name()] = &funcStats{
			key:   FuncKey{Filename: file, StartLine: line, Name: f.Name()},
			lines: make(map[int]*LineTiming),
		}
	}
	return nil
}

// Enable turns profiling on. Calls nest: profiling stays on until Disable
// has been called as many times as Enable.
func (p *Profiler) Enable() {
	p.enabled.Add(1)
}

// Disable undoes one call to Enable. It does nothing if the profiler is
// already disabled.
func (p *Profiler) Disable() {
	for {
		n := p.enabled.Load()
		if n <= 0 || p.enabled.CompareAndSwap(n, n-1) {
			return
		}
	}
}

// Enabled reports whether profiling is on.
func (p *Profiler) Enabled() bool {
	return p.enabled.Load() > 0
}

// Wrap returns a function that calls fn with profiling enabled.
func (p *Profiler) Wrap(fn func()) func() {
	return func() {
		p.Enable()
		defer p.Disable()
		fn()
	}
}

// RunCall calls fn once with profiling enabled and returns its error.
func (p *Profiler) RunCall(fn func() error) error {
	p.Enable()
	defer p.Disable()
	return fn()
}

// Enter starts timing a call of the calling function. It returns nil when
// profiling is disabled or the caller was not registered; all methods of a
// nil Frame do nothing.
func (p *Profiler) Enter() *Frame {
	if !p.Enabled() {
		return nil
	}
	var pcs [1]uintptr
	if runtime.Callers(2, pcs[:]) == 0 {
		return nil
	}
	caller, _ := runtime.CallersFrames(pcs[:]).Next()

	p.mu.Lock()
	fs := p.functions[caller.Function]
	p.mu.Unlock()
	if fs == nil {
		return nil
	}
	return &Frame{p: p, fs: fs, last: hrtimer.Now()}
}

// GetStats returns a copy of the timings gathered so far. Registered
// functions that never ran are included with no timings.
func (p *Profiler) GetStats() *LineStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := &LineStats{
		Timings: make(map[FuncKey][]LineTiming, len(p.functions)),
		Unit:    p.unit,
	}
	for _, fs := range p.functions {
		timings := make([]LineTiming, 0, len(fs.lines))
		for _, t := range fs.lines {
			timings = append(timings, *t)
		}
		sortTimings(timings)
		stats.Timings[fs.key] = timings
	}
	return stats
}

// PrintStats writes the text report of the gathered timings to w.
func (p *Profiler) PrintStats(w io.Writer, opts ...ShowOption) error {
	return ShowText(w, p.GetStats(), opts...)
}

// DumpStats saves the gathered timings to filename, in the format read by
// LoadStats.
func (p *Profiler) DumpStats(filename string) error {
	return DumpStats(filename, p.GetStats())
}

// Frame tracks one running call of a profiled function. A Frame must only
// be used by the goroutine that created it.
type Frame struct {
	p    *Profiler
	fs   *funcStats
	line int // zero before the first Line
	last hrtimer.Counter
}

// Line charges the time since the previous event to the current line, then
// makes the line after the caller's the current one.
func (f *Frame) Line() {
	if f == nil {
		return
	}
	now := hrtimer.Now()
	f.record(now)
	if _, _, line, ok := runtime.Caller(1); ok {
		f.line = line + 1
	} else {
		f.line = 0
	}
	f.last = now
}

// Exit charges the time since the previous event to the current line and
// ends the frame.
func (f *Frame) Exit() {
	if f == nil {
		return
	}
	f.record(hrtimer.Now())
	f.line = 0
}

func (f *Frame) record(now hrtimer.Counter) {
	if f.line == 0 || !f.p.Enabled() {
		return
	}
	elapsed := int64(now - f.last)
	if elapsed < 0 {
		// Only a wall-clock step can cause this.
		elapsed = 0
	}

	f.p.mu.Lock()
	defer f.p.mu.Unlock()
	t, ok := f.fs.lines[f.line]
	if !ok {
		t = &LineTiming{Line: f.line}
		f.fs.lines[f.line] = t
	}
	t.Hits++
	t.Ticks += elapsed
}
