// Package hrtimer provides the highest-resolution, lowest-overhead tick
// counter available on the host, together with the factor that converts a
// difference of two ticks into seconds.
//
// Exactly one backend is compiled into a given build. On Windows the
// counter is QueryPerformanceCounter. On every other supported platform it
// is gettimeofday, in microseconds. Building for a platform that has
// neither fails at compile time.
//
// Typical use samples Now before and after a region:
//
//	start := hrtimer.Now()
//	work()
//	seconds := float64(hrtimer.Now()-start) * hrtimer.TickDuration()
package hrtimer

// Counter represents a sample of a monotonically nondecreasing tick counter.
// Its value is only meaningful to represent the start or end of an interval
// measured within the same process; the epoch is arbitrary.
//
// Wraparound of the 64-bit range is not handled. The lifetime of a process
// is assumed to fit in it.
type Counter int64

// Microsecond is the tick duration of the gettimeofday backend. It is also
// the unit assumed when the frequency of the performance counter cannot be
// determined.
const Microsecond = 0.000001

// Now returns the current value of the counter.
//
//go:inline
func Now() Counter { return now() }

// TickDuration returns the number of seconds represented by one tick of
// Counter. The result is positive, finite and identical across calls for
// the lifetime of the process.
func TickDuration() float64 { return tickDuration() }

// fromTimeval encodes a seconds and microseconds pair as a tick count.
func fromTimeval(sec, usec int64) Counter {
	return Counter(sec*1_000_000 + usec)
}

// unitFromFrequency converts a counter frequency, in ticks per second, to
// seconds per tick. A frequency that is not positive means the counter
// cannot be trusted, so the unit degrades to Microsecond.
func unitFromFrequency(freq int64) float64 {
	if freq <= 0 {
		return Microsecond
	}
	return 1.0 / float64(freq)
}
