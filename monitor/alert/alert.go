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

package alert

import (
	"time"

	"github.com/google/uuid"
)

// Rule is the fixed configuration of one monitored metric.
type Rule struct {
	Threshold float64
	Delay     time.Duration
	Cooldown  time.Duration
}

// Event is produced when a metric has stayed above its threshold for a full
// delay window and is not in cooldown.
type Event struct {
	ID        string
	Reading   float64
	Threshold float64
	// Elapsed covers only the most recent sustained window.
	Elapsed time.Duration
	At      time.Time
}

// Debouncer decides, tick by tick, whether a metric should alert.
// One instance per metric; it is not safe for concurrent use.
type Debouncer struct {
	rule Rule

	exceededSince  time.Time
	lastNotifiedAt time.Time
}

func NewDebouncer(rule Rule) *Debouncer {
	return &Debouncer{rule: rule}
}

func (d *Debouncer) Rule() Rule {
	return d.rule
}

// Evaluate feeds one reading. A returned event must be confirmed with
// MarkNotified once delivered, otherwise cooldown is not armed.
func (d *Debouncer) Evaluate(reading float64, now time.Time) *Event {
	if reading <= d.rule.Threshold {
		d.exceededSince = time.Time{}
		return nil
	}

	if d.exceededSince.IsZero() {
		d.exceededSince = now
		return nil
	}

	elapsed := now.Sub(d.exceededSince)
	if elapsed < d.rule.Delay {
		return nil
	}

	// re-arm on every completed window, notified or not
	d.exceededSince = now

	if !d.lastNotifiedAt.IsZero() && now.Sub(d.lastNotifiedAt) < d.rule.Cooldown {
		return nil
	}

	return &Event{
		ID:        uuid.NewString(),
		Reading:   reading,
		Threshold: d.rule.Threshold,
		Elapsed:   elapsed,
		At:        now,
	}
}

// MarkNotified starts the cooldown window at t.
func (d *Debouncer) MarkNotified(t time.Time) {
	d.lastNotifiedAt = t
}

// Exceeding reports whether the last reading was above threshold.
func (d *Debouncer) Exceeding() bool {
	return !d.exceededSince.IsZero()
}

// ExceededSince is zero unless the last reading was above threshold.
func (d *Debouncer) ExceededSince() time.Time {
	return d.exceededSince
}

// LastNotifiedAt is zero until the first delivered alert.
func (d *Debouncer) LastNotifiedAt() time.Time {
	return d.lastNotifiedAt
}
