package reaper

import (
	"context"
	"fmt"

	gnet "github.com/shirou/gopsutil/v4/net"
	gprocess "github.com/shirou/gopsutil/v4/process"
)

// ErrProcessGone marks a process that exited between enumeration and use.
var ErrProcessGone = gprocess.ErrorProcessNotRunning

// SystemFinder finds processes through the operating system's socket table.
// Sockets whose owner is not visible to the caller report PID 0 and are left
// out.
type SystemFinder struct{}

// ProcessesOnPort implements Finder.
func (SystemFinder) ProcessesOnPort(ctx context.Context, port int) ([]Target, error) {
	conns, err := gnet.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		return nil, fmt.Errorf("list tcp connections: %w", err)
	}

	seen := make(map[int32]struct{})
	var targets []Target
	for _, c := range conns {
		if c.Pid <= 0 || c.Laddr.Port != uint32(port) { //nolint:gosec // port is validated by the caller.
			continue
		}
		if _, dup := seen[c.Pid]; dup {
			continue
		}
		seen[c.Pid] = struct{}{}

		// A process that vanished since the socket listing needs no reaping.
		p, err := gprocess.NewProcessWithContext(ctx, c.Pid)
		if err != nil {
			continue
		}
		targets = append(targets, systemTarget{p: p})
	}
	return targets, nil
}

type systemTarget struct {
	p *gprocess.Process
}

func (t systemTarget) Pid() int32 { return t.p.Pid }

func (t systemTarget) Terminate(ctx context.Context) error { return t.p.TerminateWithContext(ctx) }

func (t systemTarget) Kill(ctx context.Context) error { return t.p.KillWithContext(ctx) }

func (t systemTarget) IsRunning(ctx context.Context) (bool, error) {
	return t.p.IsRunningWithContext(ctx)
}
