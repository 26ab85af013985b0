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

package log

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogger_Levels(t *testing.T) {
	t.Run("info hides verbose", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(&buf, LogLevelInfo, "cpu")
		logger.Verbosef("reading %d", 1)
		logger.Infof("fired %s", "alert")

		out := buf.String()
		require.NotContains(t, out, "reading")
		require.Contains(t, out, "[cpu] INFO: ")
		require.Contains(t, out, "fired alert")
	})

	t.Run("error only", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(&buf, LogLevelInfo, "store").SetLogLevel("error")
		logger.Warningf("slow")
		logger.Errorf("broken")

		out := buf.String()
		require.NotContains(t, out, "slow")
		require.Contains(t, out, "ERROR: ")
	})

	t.Run("silent", func(t *testing.T) {
		var buf bytes.Buffer
		NewLoggerTo(&buf, ParseLevel("nonsense"), "x").Errorf("dropped")
		require.Zero(t, buf.Len())
	})
}

func TestGetLogger_UsesGlobals(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLogLevel("verbose")
	t.Cleanup(func() {
		SetLogLevel("info")
		SetOutput(os.Stdout)
	})

	GetLogger("monitor").Verbosef("tick")
	require.Contains(t, buf.String(), "[monitor] DEBUG: ")
}
