// Copyright 2025 The Hostwatch Authors, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package collector

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

// Source reads raw host metrics.
type Source interface {
	CPUPercent() (float64, error)
	RAMPercent() (float64, error)
	DiskPercent(path string) (float64, error)
	// NetworkDelta blocks for the source's measurement window and returns the
	// bytes sent and received during it.
	NetworkDelta() (sent, recv uint64, err error)
}

// DefaultNetworkWindow is how long NetworkDelta measures for.
const DefaultNetworkWindow = time.Second

// HostSource implements Source with gopsutil.
type HostSource struct {
	window time.Duration

	// overridable for tests
	cpuPercent    func(interval time.Duration, percpu bool) ([]float64, error)
	virtualMemory func() (*mem.VirtualMemoryStat, error)
	diskUsage     func(path string) (*disk.UsageStat, error)
	ioCounters    func(pernic bool) ([]net.IOCountersStat, error)
	sleep         func(time.Duration)
	newProcess    func(pid int32) (*process.Process, error)
}

var _ Source = (*HostSource)(nil)

func NewHostSource(window time.Duration) *HostSource {
	if window <= 0 {
		window = DefaultNetworkWindow
	}
	return &HostSource{
		window:        window,
		cpuPercent:    cpu.Percent,
		virtualMemory: mem.VirtualMemory,
		diskUsage:     disk.Usage,
		ioCounters:    net.IOCounters,
		sleep:         time.Sleep,
		newProcess:    process.NewProcess,
	}
}

// Prime takes an initial CPU sample so the first CPUPercent call reports the
// interval since startup rather than since boot.
func (s *HostSource) Prime(_ context.Context) {
	_, _ = s.cpuPercent(0, false)
}
