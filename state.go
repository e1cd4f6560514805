package demoup

import "github.com/giantswarm/demoup/internal/core"

// State is the lifecycle state of a Supervisor. It is an alias so the String
// method of core.State is part of the public API.
type State = core.State

const (
	StateCreated  = core.StateCreated
	StateRunning  = core.StateRunning
	StateStopping = core.StateStopping
	StateStopped  = core.StateStopped
)
