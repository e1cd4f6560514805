package core

import "fmt"

// State is the lifecycle state of a Supervisor.
type State uint32

const (
	StateCreated  State = iota // Zero value; NewSupervisor returns in this state
	StateRunning               // Run in progress
	StateStopping              // Teardown in progress
	StateStopped               // Terminal
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", uint32(s))
	}
}
