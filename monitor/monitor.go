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

package monitor

import (
	"context"
	"time"

	"code.cloudfoundry.org/clock"

	"hostwatch/monitor/alert"
	"hostwatch/monitor/collector"
	"hostwatch/monitor/exporter"
	"hostwatch/monitor/notifier"
	"hostwatch/monitor/transfer"
	"hostwatch/pkg/log"
)

const (
	MetricCPU      = "cpu"
	MetricRAM      = "ram"
	MetricDisk     = "disk"
	MetricTransfer = "transfer"

	flushTimeout = 5 * time.Second
)

// rssReader is implemented by sources that can report the monitor's own
// resident memory.
type rssReader interface {
	ProcessRSS() (uint64, error)
}

// check is one percentage metric with its own debouncer.
type check struct {
	metric    string
	label     string
	read      func() (float64, error)
	debouncer *alert.Debouncer
}

type Options struct {
	CPU      alert.Rule
	RAM      alert.Rule
	Disk     alert.Rule
	DiskPath string
	// Tick is the loop cadence.
	Tick time.Duration
}

// Monitor drives every check once per tick.
type Monitor struct {
	logger      *log.Logger
	clock       clock.Clock
	tick        time.Duration
	source      collector.Source
	notifier    notifier.Notifier
	accumulator *transfer.Accumulator
	checks      []*check
}

func NewMonitor(source collector.Source, n notifier.Notifier, acc *transfer.Accumulator, opts Options, clk clock.Clock) *Monitor {
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	if opts.DiskPath == "" {
		opts.DiskPath = collector.DefaultDiskPath
	}
	if clk == nil {
		clk = clock.NewClock()
	}

	m := &Monitor{
		logger:      log.GetLogger("monitor"),
		clock:       clk,
		tick:        opts.Tick,
		source:      source,
		notifier:    n,
		accumulator: acc,
	}

	diskPath := opts.DiskPath
	m.checks = []*check{
		{metric: MetricCPU, label: "CPU", read: source.CPUPercent, debouncer: alert.NewDebouncer(opts.CPU)},
		{metric: MetricRAM, label: "RAM", read: source.RAMPercent, debouncer: alert.NewDebouncer(opts.RAM)},
		{metric: MetricDisk, label: "HDD", read: func() (float64, error) { return source.DiskPercent(diskPath) }, debouncer: alert.NewDebouncer(opts.Disk)},
	}

	for _, c := range m.checks {
		exporter.Threshold.WithLabelValues(c.metric).Set(c.debouncer.Rule().Threshold)
	}
	exporter.Threshold.WithLabelValues(MetricTransfer).Set(acc.Debouncer().Rule().Threshold)

	return m
}

// Run ticks until ctx is done, then flushes the transfer state once more.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := m.clock.NewTicker(m.tick)
	defer ticker.Stop()

	m.logger.Infof("monitor started, tick %v", m.tick)
	m.Tick(ctx, m.clock.Now())

	for {
		select {
		case <-ctx.Done():
			m.shutdown(ctx)
			return nil
		case now := <-ticker.C():
			m.Tick(ctx, now)
		}
	}
}

func (m *Monitor) shutdown(ctx context.Context) {
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()

	if err := m.accumulator.Flush(flushCtx); err != nil {
		m.logger.Errorf("final transfer checkpoint: %v", err)
		return
	}
	m.logger.Infof("monitor stopped, transfer total %.0f bytes saved", m.accumulator.TotalBytes())
}

// Tick runs every check in order at now. Failures are logged and never
// returned.
func (m *Monitor) Tick(ctx context.Context, now time.Time) {
	for _, c := range m.checks {
		reading, err := c.read()
		if err != nil {
			exporter.SampleErrors.WithLabelValues(c.metric).Inc()
			m.logger.Errorf("read %s: %v", c.metric, err)
			reading = 0
		}
		m.logger.Verbosef("%s %.1f%%", c.metric, reading)

		ev := c.debouncer.Evaluate(reading, now)
		m.observe(c.metric, reading, c.debouncer)
		if ev != nil {
			m.notify(ctx, c.metric, c.debouncer, ev, percentMessage(c.label, ev))
		}
	}

	ev := m.accumulator.Tick(ctx, now, m.sampleTransfer)
	m.observe(MetricTransfer, m.accumulator.TotalBytes(), m.accumulator.Debouncer())
	if ev != nil {
		m.notify(ctx, MetricTransfer, m.accumulator.Debouncer(), ev, transferMessage(ev))
	}

	m.logMemory()
}

func (m *Monitor) sampleTransfer() (float64, error) {
	sent, recv, err := m.source.NetworkDelta()
	if err != nil {
		return 0, err
	}
	return float64(sent) + float64(recv), nil
}

func (m *Monitor) notify(ctx context.Context, metric string, d *alert.Debouncer, ev *alert.Event, message string) {
	if err := m.notifier.Send(ctx, message); err != nil {
		exporter.NotifyFailures.WithLabelValues(metric).Inc()
		m.logger.Errorf("send %s alert %s via %s: %v", metric, ev.ID, m.notifier.Name(), err)
		return
	}

	d.MarkNotified(ev.At)
	exporter.AlertsTotal.WithLabelValues(metric).Inc()
	m.logger.Infof("sent %s alert %s: reading %.2f, threshold %.2f, exceeded for %v",
		metric, ev.ID, ev.Reading, ev.Threshold, ev.Elapsed)
}

func (m *Monitor) observe(metric string, reading float64, d *alert.Debouncer) {
	exporter.Reading.WithLabelValues(metric).Set(reading)
	exceeding := 0.0
	if d.Exceeding() {
		exceeding = 1
	}
	exporter.Exceeding.WithLabelValues(metric).Set(exceeding)
}

func (m *Monitor) logMemory() {
	r, ok := m.source.(rssReader)
	if !ok {
		return
	}
	rss, err := r.ProcessRSS()
	if err != nil {
		m.logger.Errorf("read process memory: %v", err)
		return
	}
	exporter.ProcessResidentBytes.Set(float64(rss))
	m.logger.Verbosef("memory usage: %.2f MB", float64(rss)/(1<<20))
}

// Accumulator returns the transfer accumulator the monitor drives.
func (m *Monitor) Accumulator() *transfer.Accumulator {
	return m.accumulator
}
