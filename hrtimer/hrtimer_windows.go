//go:build windows

package hrtimer

import (
	"sync/atomic"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Name identifies the timing facility compiled into this build.
const Name = "QueryPerformanceCounter"

var (
	kernel32                      = windows.NewLazySystemDLL("kernel32.dll")
	procQueryPerformanceCounter   = kernel32.NewProc("QueryPerformanceCounter")
	procQueryPerformanceFrequency = kernel32.NewProc("QueryPerformanceFrequency")

	queryPerformanceCounter uintptr

	// frequency holds the counter frequency once a query has returned a
	// usable value. Callers racing on the first query store the same value.
	frequency atomic.Int64

	// queryFrequency is replaced in tests to simulate a broken counter.
	queryFrequency = queryPerformanceFrequency
)

func init() {
	queryPerformanceCounter = procQueryPerformanceCounter.Addr()
}

func now() Counter {
	var count int64
	r, _, errno := syscall.SyscallN(queryPerformanceCounter, uintptr(unsafe.Pointer(&count)))
	if r == 0 {
		panic("hrtimer: QueryPerformanceCounter: " + errno.Error())
	}
	return Counter(count)
}

func tickDuration() float64 {
	if freq := frequency.Load(); freq > 0 {
		return unitFromFrequency(freq)
	}
	freq, ok := queryFrequency()
	if !ok {
		return Microsecond
	}
	if freq > 0 {
		frequency.Store(freq)
	}
	return unitFromFrequency(freq)
}

func queryPerformanceFrequency() (int64, bool) {
	if err := procQueryPerformanceFrequency.Find(); err != nil {
		return 0, false
	}
	var freq int64
	r, _, _ := syscall.SyscallN(procQueryPerformanceFrequency.Addr(), uintptr(unsafe.Pointer(&freq)))
	return freq, r != 0
}
