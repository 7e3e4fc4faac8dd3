package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	probeChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vigil",
			Subsystem: "probe",
			Name:      "checks_total",
			Help:      "Number of health probes by result.",
		}, []string{"result"},
	)
	consecutiveFailures = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vigil",
			Subsystem: "probe",
			Name:      "consecutive_failures",
			Help:      "Current run of consecutive failed health probes.",
		},
	)
	helpersReniced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vigil",
			Subsystem: "priority",
			Name:      "helpers_reniced_total",
			Help:      "Number of helper processes deprioritized across sweeps.",
		},
	)
	escalations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vigil",
			Subsystem: "supervisor",
			Name:      "escalations_total",
			Help:      "Number of graceful-then-forceful termination escalations.",
		},
	)
	appUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vigil",
			Subsystem: "app",
			Name:      "up",
			Help:      "Whether the supervised application process is alive.",
		},
	)
	appCPUPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vigil",
			Subsystem: "app",
			Name:      "cpu_percent",
			Help:      "CPU usage percentage of the supervised application.",
		},
	)
	appMemoryMB = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vigil",
			Subsystem: "app",
			Name:      "memory_mb",
			Help:      "Resident memory of the supervised application in MB.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{
		probeChecks, consecutiveFailures, helpersReniced,
		escalations, appUp, appCPUPercent, appMemoryMB,
	}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// Already registered is fine (allows double Register with default registry).
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns the /metrics HTTP handler for the default registry.
func Handler() http.Handler { return promhttp.Handler() }

func IncProbe(success bool) {
	if success {
		probeChecks.WithLabelValues("success").Inc()
	} else {
		probeChecks.WithLabelValues("failure").Inc()
	}
}

func SetConsecutiveFailures(n int) { consecutiveFailures.Set(float64(n)) }

func AddHelpersReniced(n int) {
	if n > 0 {
		helpersReniced.Add(float64(n))
	}
}

func IncEscalation() { escalations.Inc() }

func SetAppUp(up bool) {
	if up {
		appUp.Set(1)
	} else {
		appUp.Set(0)
	}
}
