// Package core provides the internal implementation of demoup. It contains
// the Supervisor, which chooses a port, clears it, starts the backend, opens
// the frontend, and tears everything down on shutdown, plus the signal
// handling that drives that shutdown.
package core
