package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crossbridge/internal/agent"
	"crossbridge/internal/bridge"
)

// Metrics owns a private Prometheus registry. It also implements
// bridge.Observer so the orchestrator can report phases directly.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	transfersTotal  *prometheus.CounterVec
	phaseTotal      *prometheus.CounterVec
	phaseDuration   *prometheus.HistogramVec
	deadLetterDepth prometheus.Gauge
}

func NewMetrics() *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_requests_total",
		Help: "HTTP requests to /bridge by response code",
	}, []string{"code"})

	transfers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_transfers_total",
		Help: "Finished transfers by terminal state and abort kind",
	}, []string{"state", "kind"})

	phases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_phase_total",
		Help: "Agent calls by phase and result",
	}, []string{"phase", "result"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bridge_phase_duration_seconds",
		Help:    "Agent call latency by phase",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
	}, []string{"phase"})

	dlq := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_dead_letter_depth",
		Help: "Unreconciled transfers waiting in the dead-letter directory",
	})

	r := prometheus.NewRegistry()
	r.MustRegister(requests, transfers, phases, duration, dlq)

	return &Metrics{
		registry:        r,
		requestsTotal:   requests,
		transfersTotal:  transfers,
		phaseTotal:      phases,
		phaseDuration:   duration,
		deadLetterDepth: dlq,
	}
}

func (m *Metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) incRequest(code int) {
	m.requestsTotal.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (m *Metrics) setDeadLetterDepth(depth int) {
	m.deadLetterDepth.Set(float64(depth))
}

func (m *Metrics) PhaseCompleted(action agent.Action, res agent.PhaseResult, elapsed time.Duration) {
	result := "success"
	if !res.Success {
		result = "failure"
	}
	m.phaseTotal.WithLabelValues(string(action), result).Inc()
	m.phaseDuration.WithLabelValues(string(action)).Observe(elapsed.Seconds())
}

func (m *Metrics) TransferFinished(state bridge.State, kind bridge.Kind) {
	m.transfersTotal.WithLabelValues(string(state), string(kind)).Inc()
}
