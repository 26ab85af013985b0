package collector

import (
	"fmt"
)

// DefaultDiskPath is the mount point watched when none is configured.
const DefaultDiskPath = "/"

func (s *HostSource) DiskPercent(path string) (float64, error) {
	if path == "" {
		path = DefaultDiskPath
	}
	diskStats, err := s.diskUsage(path)
	if err != nil {
		return 0, fmt.Errorf("failed to get disk stats for %s: %w", path, err)
	}
	return diskStats.UsedPercent, nil
}
