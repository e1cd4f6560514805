// Package netutil probes local TCP ports. IsPortInUse treats a port as taken
// when something accepts a connection on it, and FindFreePort walks upward
// from a starting port within a bounded window until it finds one that does not.
package netutil
