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
	"fmt"
	"os"
)

func (s *HostSource) RAMPercent() (float64, error) {
	memStats, err := s.virtualMemory()
	if err != nil {
		return 0, fmt.Errorf("failed to get memory stats: %w", err)
	}
	return memStats.UsedPercent, nil
}

// ProcessRSS returns the resident memory of the current process.
func (s *HostSource) ProcessRSS() (uint64, error) {
	p, err := s.newProcess(int32(os.Getpid()))
	if err != nil {
		return 0, fmt.Errorf("failed to open own process: %w", err)
	}
	info, err := p.MemoryInfo()
	if err != nil {
		return 0, fmt.Errorf("failed to get process memory: %w", err)
	}
	return info.RSS, nil
}
