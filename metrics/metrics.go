// Package metrics exposes Prometheus collectors for rounds, rendering and delivery.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/m3rciful/celebguess/game"
)

const namespace = "celebguess"

// Metrics owns a private registry so tests and the ops server never share global state.
type Metrics struct {
	Registry *prometheus.Registry

	roundsStarted  prometheus.Counter
	outcomes       *prometheus.CounterVec
	renderDuration prometheus.Histogram
	renderFailures prometheus.Counter
}

var _ game.Observer = (*Metrics)(nil)

// New registers the game collectors plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		roundsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_started_total",
			Help:      "Rounds whose card was rendered and stored.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_outcomes_total",
			Help:      "Round engine results by outcome.",
		}, []string{"outcome"}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent drawing and encoding a card.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		renderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_failures_total",
			Help:      "Card renders that returned an error.",
		}),
	}
	reg.MustRegister(
		m.roundsStarted,
		m.outcomes,
		m.renderDuration,
		m.renderFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe implements game.Observer.
func (m *Metrics) Observe(o game.Outcome) {
	m.outcomes.WithLabelValues(string(o)).Inc()
	if o == game.OutcomeStarted {
		m.roundsStarted.Inc()
	}
}

// TrackActiveRounds exposes fn as the active rounds gauge.
func (m *Metrics) TrackActiveRounds(fn func() int) error {
	return m.Registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_rounds",
		Help:      "Chats with a round in progress.",
	}, func() float64 { return float64(fn()) }))
}

// SenderStats is the view of the outbound dispatcher exported as counters.
type SenderStats interface {
	ErrorCount() uint64
	RetryCount() uint64
}

// TrackSender exposes the dispatcher's failure and retry counters.
func (m *Metrics) TrackSender(s SenderStats) error {
	failures := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "telegram_send_failures_total",
		Help:      "Outbound Telegram calls that failed after retries.",
	}, func() float64 { return float64(s.ErrorCount()) })
	retries := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "telegram_send_retries_total",
		Help:      "Outbound Telegram call attempts that were retried.",
	}, func() float64 { return float64(s.RetryCount()) })
	for _, c := range []prometheus.Collector{failures, retries} {
		if err := m.Registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// InstrumentRenderer times every render and counts failures.
func (m *Metrics) InstrumentRenderer(r game.Renderer) game.Renderer {
	return &instrumentedRenderer{next: r, m: m}
}

type instrumentedRenderer struct {
	next game.Renderer
	m    *Metrics
}

func (r *instrumentedRenderer) Render(ctx context.Context, name string) (game.Card, error) {
	start := time.Now()
	card, err := r.next.Render(ctx, name)
	r.m.renderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		r.m.renderFailures.Inc()
	}
	return card, err
}
