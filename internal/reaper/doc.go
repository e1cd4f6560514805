// Package reaper clears a TCP port by terminating the processes bound to it.
//
// Reaping is best effort: processes that vanish or cannot be signaled are
// skipped, and enumeration failures only produce a warning. A process that
// ignores the termination request is force killed after the grace period.
package reaper
