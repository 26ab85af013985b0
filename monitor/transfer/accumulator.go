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
	"sync/atomic"
	"time"

	"hostwatch/monitor/alert"
	"hostwatch/monitor/exporter"
	"hostwatch/monitor/store"
	"hostwatch/pkg/log"
)

// BytesPerTB is the unit transfer volumes are configured and reported in.
const BytesPerTB = 1 << 40

// SampleFunc returns the bytes sent plus received since its previous call.
// It may block for its measurement window.
type SampleFunc func() (float64, error)

type Config struct {
	// Rule.Threshold is in bytes.
	Rule               alert.Rule
	SampleInterval     time.Duration
	CheckpointInterval time.Duration
}

// Snapshot is a copy of the accumulator state safe to read from any goroutine.
type Snapshot struct {
	TotalBytes       float64   `json:"total_bytes"`
	MonthKey         string    `json:"month_key"`
	LastSampleAt     time.Time `json:"last_sample_at"`
	LastCheckpointAt time.Time `json:"last_checkpoint_at"`
}

// Accumulator keeps the month-to-date network transfer total, checkpoints it
// to a store and runs it through its own debouncer. Tick must be called from a
// single goroutine.
type Accumulator struct {
	logger    *log.Logger
	store     store.Store
	debouncer *alert.Debouncer

	sampleInterval     time.Duration
	checkpointInterval time.Duration

	totalBytes       float64
	monthKey         string
	monthDirty       bool
	lastSampleAt     time.Time
	lastCheckpointAt time.Time

	snapshot atomic.Pointer[Snapshot]
}

// NewAccumulator restores state from st. An empty or unreadable store yields
// a zero total and an empty month key, which forces a reset on the first tick.
func NewAccumulator(ctx context.Context, st store.Store, cfg Config, now time.Time, logger *log.Logger) *Accumulator {
	a := &Accumulator{
		logger:             logger,
		store:              st,
		debouncer:          alert.NewDebouncer(cfg.Rule),
		sampleInterval:     cfg.SampleInterval,
		checkpointInterval: cfg.CheckpointInterval,
		lastCheckpointAt:   now,
	}
	a.totalBytes, a.monthKey = a.restore(ctx)
	a.publish()
	return a
}

func (a *Accumulator) restore(ctx context.Context) (float64, string) {
	total, ok, err := a.store.ReadTransferTotal(ctx)
	if err != nil {
		exporter.StoreErrors.WithLabelValues("read_total").Inc()
		a.logger.Errorf("read persisted transfer total, starting cold: %v", err)
		return 0, ""
	}
	if !ok {
		a.logger.Infof("no persisted transfer total, starting cold")
		return 0, ""
	}

	month, ok, err := a.store.ReadMonthKey(ctx)
	if err != nil {
		exporter.StoreErrors.WithLabelValues("read_month").Inc()
		a.logger.Errorf("read persisted month key, starting cold: %v", err)
		return 0, ""
	}
	if !ok {
		a.logger.Infof("no persisted month key, starting cold")
		return 0, ""
	}

	a.logger.Infof("restored transfer total %.0f bytes for %s", total, month)
	return total, month
}

// Tick runs one accumulator step at now and returns the debouncer's decision.
func (a *Accumulator) Tick(ctx context.Context, now time.Time, sample SampleFunc) *alert.Event {
	a.rollover(ctx, now)

	if a.lastSampleAt.IsZero() || now.Sub(a.lastSampleAt) >= a.sampleInterval {
		delta, err := sample()
		if err != nil {
			exporter.SampleErrors.WithLabelValues("transfer").Inc()
			a.logger.Errorf("sample network transfer: %v", err)
			delta = 0
		}
		if delta > 0 {
			a.totalBytes += delta
		}
		a.lastSampleAt = now
	}

	if now.Sub(a.lastCheckpointAt) >= a.checkpointInterval {
		a.checkpoint(ctx)
		a.lastCheckpointAt = now
	}

	a.publish()
	return a.debouncer.Evaluate(a.totalBytes, now)
}

// rollover zeroes the total once when now enters a month other than the
// active one, persisting the zero together with the new key.
func (a *Accumulator) rollover(ctx context.Context, now time.Time) {
	month := MonthKey(now)
	if month == a.monthKey {
		return
	}

	a.logger.Infof("month changed %q -> %q, resetting transfer total %.0f", a.monthKey, month, a.totalBytes)
	a.totalBytes = 0
	a.monthKey = month
	a.monthDirty = false

	if err := a.writeState(ctx); err != nil {
		exporter.StoreErrors.WithLabelValues("reset").Inc()
		a.logger.Errorf("persist month reset: %v", err)
		a.monthDirty = true
	}
}

func (a *Accumulator) checkpoint(ctx context.Context) {
	if a.monthDirty {
		if err := a.writeState(ctx); err != nil {
			exporter.StoreErrors.WithLabelValues("checkpoint").Inc()
			a.logger.Errorf("checkpoint transfer state: %v", err)
			return
		}
		a.monthDirty = false
		a.logger.Verbosef("checkpointed %.0f bytes with month %s", a.totalBytes, a.monthKey)
		return
	}

	if err := a.store.WriteTransferTotal(ctx, a.totalBytes); err != nil {
		exporter.StoreErrors.WithLabelValues("checkpoint").Inc()
		a.logger.Errorf("checkpoint transfer total: %v", err)
		return
	}
	a.logger.Verbosef("checkpointed %.0f bytes", a.totalBytes)
}

// writeState persists the total and month key. Without an atomic backend the
// total goes first: a crash in between leaves the old month key, which only
// causes one more reset on restart.
func (a *Accumulator) writeState(ctx context.Context) error {
	if sw, ok := a.store.(store.StateWriter); ok {
		return sw.WriteState(ctx, a.totalBytes, a.monthKey)
	}
	if err := a.store.WriteTransferTotal(ctx, a.totalBytes); err != nil {
		return err
	}
	return a.store.WriteMonthKey(ctx, a.monthKey)
}

// Flush writes the current state regardless of the checkpoint gate.
func (a *Accumulator) Flush(ctx context.Context) error {
	if a.monthKey == "" {
		return nil
	}
	if err := a.writeState(ctx); err != nil {
		exporter.StoreErrors.WithLabelValues("flush").Inc()
		return err
	}
	a.monthDirty = false
	return nil
}

func (a *Accumulator) publish() {
	a.snapshot.Store(&Snapshot{
		TotalBytes:       a.totalBytes,
		MonthKey:         a.monthKey,
		LastSampleAt:     a.lastSampleAt,
		LastCheckpointAt: a.lastCheckpointAt,
	})
	exporter.TransferBytes.Set(a.totalBytes)
}

func (a *Accumulator) Snapshot() Snapshot {
	return *a.snapshot.Load()
}

// Debouncer exposes the transfer debouncer so delivered alerts can be marked.
func (a *Accumulator) Debouncer() *alert.Debouncer {
	return a.debouncer
}

func (a *Accumulator) TotalBytes() float64 {
	return a.totalBytes
}

func (a *Accumulator) MonthKey() string {
	return a.monthKey
}

// MonthKey returns the "YYYY-MM" key of t in t's location.
func MonthKey(t time.Time) string {
	return t.Format(store.MonthLayout)
}
