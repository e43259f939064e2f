package pool

// State is the lifecycle state of a Pool.
//
//	Running --Shutdown--> Stopping --queue drained, workers exited--> Stopped
//
// Stopped is terminal.
type State int

const (
	// StateRunning accepts submissions.
	StateRunning State = iota
	// StateStopping rejects submissions while workers drain the queue.
	StateStopping
	// StateStopped means every worker has exited and the queue is empty.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
