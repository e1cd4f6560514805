package netutil

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/giantswarm/demoup/internal/sentinel"
)

// ErrPortExhausted is returned by FindFreePort when every port in the search
// window is in use.
const ErrPortExhausted = sentinel.Error("no free port found")

// ErrInvalidPort is returned by FindFreePort when the start port or search
// limit is out of range.
const ErrInvalidPort = sentinel.Error("invalid port")

// DefaultSearchLimit is the number of ports above the start port that
// FindFreePort inspects before giving up.
const DefaultSearchLimit = 1000

// MaxPort is the highest valid TCP port.
const MaxPort = 65535

// probeDialTimeout bounds each connection attempt made by IsPortInUse. A
// refused connection returns immediately; the timeout only matters for
// filtered ports that swallow the SYN.
const probeDialTimeout = 500 * time.Millisecond

// IsPortInUse reports whether something is accepting TCP connections on
// localhost:port. Refused or timed-out connections report false, and so does
// a port outside 1-65535, which nothing can listen on.
func IsPortInUse(port int) bool {
	if port <= 0 || port > MaxPort {
		return false
	}
	addr := net.JoinHostPort("localhost", strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, probeDialTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close() // best-effort close of probe connection
	return true
}

// FindFreePort returns the first port in [start, start+limit] for which
// IsPortInUse is false. The window is clamped at MaxPort. The result is only
// a snapshot: another process may bind the port after FindFreePort returns.
func FindFreePort(start, limit int) (int, error) {
	if start <= 0 || start > MaxPort {
		return 0, fmt.Errorf("start port %d: %w", start, ErrInvalidPort)
	}
	if limit < 0 {
		return 0, fmt.Errorf("search limit %d: %w", limit, ErrInvalidPort)
	}

	// Compare before adding so a huge limit cannot overflow.
	end := MaxPort
	if limit < MaxPort-start {
		end = start + limit
	}
	for port := start; port <= end; port++ {
		if !IsPortInUse(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("ports %d-%d: %w", start, end, ErrPortExhausted)
}
