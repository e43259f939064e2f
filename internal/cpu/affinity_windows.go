//go:build windows

package cpu

import (
	"fmt"
	"runtime"
	"syscall"
)

var (
	kernel32              = syscall.NewLazyDLL("kernel32.dll")
	setThreadAffinityMask = kernel32.NewProc("SetThreadAffinityMask")
	getCurrentThread      = kernel32.NewProc("GetCurrentThread")
)

// Pin locks the calling goroutine to its OS thread and sets the thread's
// affinity mask to the CPU selected by workerID.
func Pin(workerID int) (release func(), err error) {
	runtime.LockOSThread()
	release = runtime.UnlockOSThread

	cpuID := CoreFor(workerID)
	handle, _, _ := getCurrentThread.Call()

	// Bit N selects CPU N.
	prev, _, callErr := setThreadAffinityMask.Call(handle, uintptr(1)<<uint(cpuID))
	if prev == 0 {
		return release, fmt.Errorf("cpu: pin worker %d to core %d: %w", workerID, cpuID, callErr)
	}
	return release, nil
}
