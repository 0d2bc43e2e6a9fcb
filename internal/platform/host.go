// Package platform captures information about the build host for the
// free-text build metadata record written alongside each artifact set.
package platform

import (
	"context"
	"fmt"
	"os/user"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// Snapshot describes the machine and operator that produced a build.
type Snapshot struct {
	Hostname string
	OS       string // runtime.GOOS
	Arch     string // runtime.GOARCH
	Platform string // e.g. "ubuntu"
	Version  string // platform version
	Kernel   string
	User     string
}

// Collector produces host snapshots. The interface exists so the producer
// can be tested with a fixed snapshot instead of the real host.
type Collector interface {
	Collect(ctx context.Context) (*Snapshot, error)
}

// HostCollector implements Collector using the actual host.
type HostCollector struct{}

// NewCollector creates a collector backed by the real host.
func NewCollector() Collector {
	return &HostCollector{}
}

// Collect gathers the host snapshot. It uses runtime.GOOS/GOARCH for OS and
// architecture and gopsutil for hostname, distribution, and kernel details.
//
// Detection failures degrade to partial snapshots rather than failing the
// build: the metadata record is informational, and a build on a host that
// gopsutil cannot describe is still a valid build. Context cancellation is
// still a hard failure.
func (c *HostCollector) Collect(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	info, err := host.InfoWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("host detection cancelled: %w", ctx.Err())
		}
	} else {
		snap.Hostname = info.Hostname
		snap.Platform = info.Platform
		snap.Version = info.PlatformVersion
		snap.Kernel = info.KernelVersion
	}

	if u, err := user.Current(); err == nil {
		snap.User = u.Username
	}

	return snap, nil
}

// FixedCollector implements Collector with a fixed snapshot for testing.
type FixedCollector struct {
	Snapshot Snapshot
}

// Collect returns the fixed snapshot.
func (c *FixedCollector) Collect(_ context.Context) (*Snapshot, error) {
	snap := c.Snapshot
	return &snap, nil
}
