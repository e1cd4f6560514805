// Package process supervises a single external child process.
//
// BaseProcess starts a command with its output captured to log files, exposes
// an Exited channel, and stops it with SIGTERM followed by SIGKILL once the
// grace period runs out. WaitReady polls a readiness check until the process
// is usable, and StopCloseAndNil tears a Stoppable down in one step.
package process
