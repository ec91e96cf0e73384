// Package metrics exposes moderation counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/gatebot/core/logger"
)

// Metrics groups the bot's collectors. A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	registry    *prometheus.Registry
	messages    *prometheus.CounterVec
	deletions   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	outbound    *prometheus.CounterVec
	users       prometheus.GaugeFunc
}

// New registers all collectors on a private registry. usersFn reports the
// number of known users at scrape time and may be nil.
func New(usersFn func() int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		messages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatebot_messages_total",
			Help: "Inbound text messages by moderation verdict",
		}, []string{"verdict"}),
		deletions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatebot_deletions_total",
			Help: "Delete requests by outcome",
		}, []string{"outcome"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatebot_gate_transitions_total",
			Help: "Accepted onboarding actions",
		}, []string{"transition"}),
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatebot_gate_rejections_total",
			Help: "Rejected onboarding actions by reason",
		}, []string{"reason"}),
		outbound: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatebot_outbound_total",
			Help: "Queued Bot API calls by action and final status",
		}, []string{"action", "status"}),
	}
	if usersFn != nil {
		m.users = f.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "gatebot_users",
			Help: "Users with a stored gate record",
		}, func() float64 { return float64(usersFn()) })
	}
	return m
}

// Message counts one inbound message.
func (m *Metrics) Message(verdict string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(verdict).Inc()
}

// Deletion counts one delete request.
func (m *Metrics) Deletion(outcome string) {
	if m == nil {
		return
	}
	m.deletions.WithLabelValues(outcome).Inc()
}

// Transition counts one accepted onboarding action.
func (m *Metrics) Transition(action string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action).Inc()
}

// Rejection counts one rejected onboarding action.
func (m *Metrics) Rejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

// Outbound counts one finished queued Bot API call. Its signature matches
// sender.Options.OnResult.
func (m *Metrics) Outbound(action string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "fail"
	}
	m.outbound.WithLabelValues(action, status).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Server serves /metrics until Shutdown is called.
type Server struct {
	srv *http.Server
}

// Start listens on addr in the background.
func (m *Metrics) Start(ctx context.Context, addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "metrics", "metrics.serve",
				slog.String("status", "fail"),
				slog.String("listen", addr),
				slog.String("err", err.Error()),
			)
		}
	}()
	logger.Info(ctx, "metrics", "metrics.serve",
		slog.String("status", "ok"),
		slog.String("listen", addr),
	)
	return &Server{srv: srv}
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
