package collector

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/net"
)

// NetworkDelta differences the host-wide counters across one window. The OS
// counters are totals since boot, so only the difference is meaningful.
func (s *HostSource) NetworkDelta() (uint64, uint64, error) {
	before, err := s.totals()
	if err != nil {
		return 0, 0, err
	}
	s.sleep(s.window)
	after, err := s.totals()
	if err != nil {
		return 0, 0, err
	}
	return counterDelta(before.BytesSent, after.BytesSent), counterDelta(before.BytesRecv, after.BytesRecv), nil
}

func (s *HostSource) totals() (net.IOCountersStat, error) {
	counters, err := s.ioCounters(false)
	if err != nil {
		return net.IOCountersStat{}, fmt.Errorf("failed to get network counters: %w", err)
	}
	if len(counters) == 0 {
		return net.IOCountersStat{}, fmt.Errorf("failed to get network counters: no interfaces")
	}
	return counters[0], nil
}

// counterDelta treats a decreasing counter (reset or wrap) as no traffic.
func counterDelta(before, after uint64) uint64 {
	if after < before {
		return 0
	}
	return after - before
}
