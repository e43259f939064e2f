//go:build darwin

package cpu

import "runtime"

// Pin locks the calling goroutine to its OS thread.
// macOS exposes no thread-to-core pinning, so only the lock is applied.
func Pin(workerID int) (release func(), err error) {
	runtime.LockOSThread()
	return runtime.UnlockOSThread, nil
}
