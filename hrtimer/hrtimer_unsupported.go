//go:build !unix && !windows

package hrtimer

// Neither QueryPerformanceCounter nor gettimeofday exists here.
var _ = hrtimer_requires_QueryPerformanceCounter_or_gettimeofday
