//go:build unix

package hrtimer

import "golang.org/x/sys/unix"

// Name identifies the timing facility compiled into this build.
const Name = "gettimeofday"

func now() Counter {
	var tv unix.Timeval
	if err := unix.Gettimeofday(&tv); err != nil {
		panic("hrtimer: gettimeofday: " + err.Error())
	}
	sec, nsec := tv.Unix()
	return fromTimeval(sec, nsec/1000)
}

// The encoding in now fixes the granularity, so nothing needs querying.
func tickDuration() float64 { return Microsecond }
