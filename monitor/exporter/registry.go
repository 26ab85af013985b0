package exporter

import (
	"github.com/prometheus/client_golang/prometheus"
)

// hostwatch metrics

var (
	// --- readings fed into the debouncers ---
	Reading = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hostwatch_reading",
		Help: "Latest reading per monitored metric (percent, or bytes for transfer)",
	}, []string{"metric"})

	Threshold = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hostwatch_threshold",
		Help: "Configured alert threshold per monitored metric",
	}, []string{"metric"})

	Exceeding = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hostwatch_exceeding",
		Help: "1 while the metric is above its threshold, 0 otherwise",
	}, []string{"metric"})

	// --- alerts ---
	AlertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostwatch_alerts_total",
		Help: "Alerts delivered per metric",
	}, []string{"metric"})

	NotifyFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostwatch_notify_failures_total",
		Help: "Alerts whose delivery failed per metric",
	}, []string{"metric"})

	// --- transfer accumulator ---
	TransferBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hostwatch_transfer_bytes",
		Help: "Bytes sent and received since the start of the current month",
	})

	StoreErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostwatch_store_errors_total",
		Help: "Durable store failures by operation",
	}, []string{"op"})

	SampleErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostwatch_sample_errors_total",
		Help: "Metric source failures by metric",
	}, []string{"metric"})

	// --- process ---
	ProcessResidentBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hostwatch_process_resident_bytes",
		Help: "Resident memory of the hostwatch process in bytes",
	})
)

func init() {
	prometheus.MustRegister(
		Reading, Threshold, Exceeding,
		AlertsTotal, NotifyFailures,
		TransferBytes, StoreErrors, SampleErrors,
		ProcessResidentBytes,
	)
}
