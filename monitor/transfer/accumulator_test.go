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

package transfer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hostwatch/monitor/alert"
	"hostwatch/monitor/store"
	"hostwatch/pkg/log"
)

// recStore is an in-memory store recording every write in order.
type recStore struct {
	total    *float64
	month    *string
	writes   []string
	failNext int
	readErr  error
}

func (s *recStore) fail() error {
	if s.failNext > 0 {
		s.failNext--
		return errors.New("disk full")
	}
	return nil
}

func (s *recStore) ReadTransferTotal(context.Context) (float64, bool, error) {
	if s.readErr != nil {
		return 0, false, s.readErr
	}
	if s.total == nil {
		return 0, false, nil
	}
	return *s.total, true, nil
}

func (s *recStore) WriteTransferTotal(_ context.Context, total float64) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.total = &total
	s.writes = append(s.writes, "total")
	return nil
}

func (s *recStore) ReadMonthKey(context.Context) (string, bool, error) {
	if s.month == nil {
		return "", false, nil
	}
	return *s.month, true, nil
}

func (s *recStore) WriteMonthKey(_ context.Context, month string) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.month = &month
	s.writes = append(s.writes, "month")
	return nil
}

func (s *recStore) Close() error { return nil }

// atomicStore adds StateWriter on top of recStore.
type atomicStore struct {
	recStore
}

func (s *atomicStore) WriteState(_ context.Context, total float64, month string) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.total, s.month = &total, &month
	s.writes = append(s.writes, "state")
	return nil
}

func seeded(total float64, month string) *atomicStore {
	s := &atomicStore{}
	s.total, s.month = &total, &month
	return s
}

var march = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func sec(n int) time.Time {
	return march.Add(time.Duration(n) * time.Second)
}

func constant(n float64) SampleFunc {
	return func() (float64, error) { return n, nil }
}

func defaultConfig() Config {
	return Config{
		Rule: alert.Rule{
			Threshold: 5 * BytesPerTB,
			Delay:     5 * time.Second,
			Cooldown:  300 * time.Second,
		},
		SampleInterval:     time.Second,
		CheckpointInterval: 60 * time.Second,
	}
}

func newAcc(st store.Store, cfg Config, now time.Time) *Accumulator {
	return NewAccumulator(context.Background(), st, cfg, now, log.Discard())
}

func TestAccumulator_ColdStart(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store establishes month and never alerts first tick", func(t *testing.T) {
		st := &atomicStore{}
		acc := newAcc(st, defaultConfig(), sec(0))
		require.Empty(t, acc.MonthKey())

		ev := acc.Tick(ctx, sec(0), constant(50*BytesPerTB))
		require.Nil(t, ev)
		require.Equal(t, "2025-03", acc.MonthKey())
		require.Equal(t, float64(50*BytesPerTB), acc.TotalBytes())

		require.Equal(t, []string{"state"}, st.writes)
		require.Zero(t, *st.total)
		require.Equal(t, "2025-03", *st.month)
	})

	t.Run("unreadable store starts cold", func(t *testing.T) {
		st := seeded(999, "2025-03")
		st.readErr = errors.New("permission denied")
		acc := newAcc(st, defaultConfig(), sec(0))
		require.Zero(t, acc.TotalBytes())
		require.Empty(t, acc.MonthKey())

		acc.Tick(ctx, sec(0), constant(1))
		require.Equal(t, 1.0, acc.TotalBytes())
	})

	t.Run("total without month starts cold", func(t *testing.T) {
		st := &atomicStore{}
		total := 77.0
		st.total = &total
		acc := newAcc(st, defaultConfig(), sec(0))
		require.Zero(t, acc.TotalBytes())
	})
}

func TestAccumulator_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("same month continues from persisted total", func(t *testing.T) {
		st := seeded(1000, "2025-03")
		acc := newAcc(st, defaultConfig(), sec(0))
		acc.Tick(ctx, sec(0), constant(24))
		require.Equal(t, 1024.0, acc.TotalBytes())
		require.Empty(t, st.writes)
	})

	t.Run("stale month resets on first tick", func(t *testing.T) {
		st := seeded(1000, "2025-02")
		acc := newAcc(st, defaultConfig(), sec(0))
		require.Equal(t, 1000.0, acc.TotalBytes())

		acc.Tick(ctx, sec(0), constant(24))
		require.Equal(t, 24.0, acc.TotalBytes())
		require.Equal(t, []string{"state"}, st.writes)
	})

	t.Run("restart through a real file store", func(t *testing.T) {
		dir := t.TempDir()
		fs, err := store.NewFileStore(dir)
		require.NoError(t, err)

		cfg := defaultConfig()
		cfg.CheckpointInterval = 10 * time.Second
		acc := newAcc(fs, cfg, sec(0))
		for s := 0; s <= 25; s++ {
			acc.Tick(ctx, sec(s), constant(100))
		}
		// checkpoints at 10 and 20
		reopened, err := store.NewFileStore(dir)
		require.NoError(t, err)
		restored := newAcc(reopened, cfg, sec(30))
		require.Equal(t, 2100.0, restored.TotalBytes())
		require.Equal(t, "2025-03", restored.MonthKey())
	})
}

func TestAccumulator_Rollover(t *testing.T) {
	ctx := context.Background()
	endOfMarch := time.Date(2025, 3, 31, 23, 59, 58, 0, time.UTC)

	t.Run("same month twice does not re-zero", func(t *testing.T) {
		st := seeded(10, "2025-03")
		acc := newAcc(st, defaultConfig(), sec(0))
		acc.Tick(ctx, sec(0), constant(5))
		acc.Tick(ctx, sec(1), constant(5))
		require.Equal(t, 20.0, acc.TotalBytes())
		require.Empty(t, st.writes)
	})

	t.Run("boundary crossed exactly once", func(t *testing.T) {
		st := seeded(10, "2025-03")
		acc := newAcc(st, defaultConfig(), endOfMarch)

		acc.Tick(ctx, endOfMarch, constant(5))
		acc.Tick(ctx, endOfMarch.Add(time.Second), constant(5))
		require.Equal(t, 20.0, acc.TotalBytes())

		acc.Tick(ctx, endOfMarch.Add(2*time.Second), constant(7))
		require.Equal(t, 7.0, acc.TotalBytes())
		require.Equal(t, "2025-04", acc.MonthKey())

		acc.Tick(ctx, endOfMarch.Add(3*time.Second), constant(7))
		require.Equal(t, 14.0, acc.TotalBytes())

		require.Equal(t, []string{"state"}, st.writes)
		require.Equal(t, "2025-04", *st.month)
		require.Zero(t, *st.total)
	})

	t.Run("non-atomic store writes total before month", func(t *testing.T) {
		st := &recStore{}
		acc := newAcc(st, defaultConfig(), sec(0))
		acc.Tick(ctx, sec(0), constant(1))
		require.Equal(t, []string{"total", "month"}, st.writes)
	})

	t.Run("rollover is checked on ticks that do not sample", func(t *testing.T) {
		st := seeded(10, "2025-03")
		cfg := defaultConfig()
		cfg.SampleInterval = time.Hour
		acc := newAcc(st, cfg, endOfMarch)

		acc.Tick(ctx, endOfMarch, constant(5))
		require.Equal(t, 15.0, acc.TotalBytes())

		acc.Tick(ctx, endOfMarch.Add(2*time.Second), constant(5))
		require.Zero(t, acc.TotalBytes())
		require.Equal(t, "2025-04", acc.MonthKey())
	})

	t.Run("failed reset is retried at next checkpoint", func(t *testing.T) {
		st := seeded(10, "2025-02")
		st.failNext = 1
		cfg := defaultConfig()
		cfg.CheckpointInterval = 3 * time.Second
		acc := newAcc(st, cfg, sec(0))

		acc.Tick(ctx, sec(0), constant(1))
		require.Equal(t, 1.0, acc.TotalBytes())
		require.Equal(t, "2025-02", *st.month)

		for s := 1; s <= 3; s++ {
			acc.Tick(ctx, sec(s), constant(1))
		}
		require.Equal(t, []string{"state"}, st.writes)
		require.Equal(t, "2025-03", *st.month)
		require.Equal(t, 4.0, *st.total)
	})
}

func TestAccumulator_Gates(t *testing.T) {
	ctx := context.Background()

	t.Run("sample gate", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.SampleInterval = 5 * time.Second
		acc := newAcc(seeded(0, "2025-03"), cfg, sec(0))

		var calls []int
		for s := 0; s <= 12; s++ {
			s := s
			acc.Tick(ctx, sec(s), func() (float64, error) {
				calls = append(calls, s)
				return 1, nil
			})
		}
		require.Equal(t, []int{0, 5, 10}, calls)
		require.Equal(t, 3.0, acc.TotalBytes())
	})

	t.Run("sample errors count as zero", func(t *testing.T) {
		acc := newAcc(seeded(40, "2025-03"), defaultConfig(), sec(0))
		acc.Tick(ctx, sec(0), func() (float64, error) { return 0, errors.New("no such device") })
		require.Equal(t, 40.0, acc.TotalBytes())
		require.Equal(t, sec(0), acc.Snapshot().LastSampleAt)
	})

	t.Run("negative deltas are ignored", func(t *testing.T) {
		acc := newAcc(seeded(40, "2025-03"), defaultConfig(), sec(0))
		acc.Tick(ctx, sec(0), constant(-10))
		require.Equal(t, 40.0, acc.TotalBytes())
	})

	t.Run("checkpoint lags by at most one interval", func(t *testing.T) {
		st := seeded(0, "2025-03")
		acc := newAcc(st, defaultConfig(), sec(0))

		inMemory := map[int]float64{}
		for s := 1; s <= 150; s++ {
			acc.Tick(ctx, sec(s), constant(10))
			inMemory[s] = acc.TotalBytes()
		}
		// first checkpoint a full interval after startup, then every 60s
		require.Equal(t, []string{"total", "total"}, st.writes)
		require.Equal(t, inMemory[120], *st.total)
		require.LessOrEqual(t, acc.TotalBytes()-*st.total, 60*10.0)
	})

	t.Run("flush persists immediately", func(t *testing.T) {
		st := seeded(0, "2025-03")
		acc := newAcc(st, defaultConfig(), sec(0))
		acc.Tick(ctx, sec(1), constant(33))
		require.NoError(t, acc.Flush(ctx))
		require.Equal(t, 33.0, *st.total)
	})

	t.Run("flush before first tick writes nothing", func(t *testing.T) {
		st := &atomicStore{}
		acc := newAcc(st, defaultConfig(), sec(0))
		require.NoError(t, acc.Flush(ctx))
		require.Empty(t, st.writes)
	})
}

func TestAccumulator_Alerts(t *testing.T) {
	ctx := context.Background()
	cfg := defaultConfig()
	cfg.Rule.Threshold = 1000
	acc := newAcc(seeded(2000, "2025-03"), cfg, sec(0))

	var fired []*alert.Event
	for s := 0; s <= 10; s++ {
		if ev := acc.Tick(ctx, sec(s), constant(1)); ev != nil {
			fired = append(fired, ev)
			acc.Debouncer().MarkNotified(ev.At)
		}
	}
	require.Len(t, fired, 1)
	require.Equal(t, sec(5), fired[0].At)
	require.Equal(t, 1000.0, fired[0].Threshold)
	require.Equal(t, 2006.0, fired[0].Reading)

	snap := acc.Snapshot()
	require.Equal(t, acc.TotalBytes(), snap.TotalBytes)
	require.Equal(t, "2025-03", snap.MonthKey)
}
