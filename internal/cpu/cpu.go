// Package cpu dedicates pool workers to OS threads and, where the platform
// allows it, to individual CPU cores.
package cpu

import "runtime"

// NumCPU returns the number of logical CPUs usable by the process.
func NumCPU() int {
	return runtime.NumCPU()
}

// CoreFor maps a worker index onto a CPU index, wrapping around when there
// are more workers than cores.
func CoreFor(workerID int) int {
	n := NumCPU()
	if workerID < 0 {
		workerID = -workerID
	}
	return workerID % n
}
