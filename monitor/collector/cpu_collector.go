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
)

// CPUPercent returns total CPU usage since the previous call. It does not
// block; the network sample is the only blocking read per tick.
func (s *HostSource) CPUPercent() (float64, error) {
	percentages, err := s.cpuPercent(0, false)
	if err != nil {
		return 0, fmt.Errorf("failed to get CPU usage: %w", err)
	}
	if len(percentages) == 0 {
		return 0, fmt.Errorf("failed to get CPU usage: empty result")
	}
	return percentages[0], nil
}
