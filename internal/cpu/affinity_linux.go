//go:build linux

package cpu

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its OS thread and restricts that thread
// to the CPU selected by workerID (modulo the number of CPUs).
//
// The returned release function must be called from the same goroutine.
// When pinning fails the goroutine stays locked to its thread and the error
// is returned alongside a valid release function.
func Pin(workerID int) (release func(), err error) {
	runtime.LockOSThread()
	release = runtime.UnlockOSThread

	cpuID := CoreFor(workerID)

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpuID)

	// pid 0 targets the calling thread.
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		return release, fmt.Errorf("cpu: pin worker %d to core %d: %w", workerID, cpuID, err)
	}
	return release, nil
}
