package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/athletearena/internal/middleware"
)

const namespace = "athletearena"

// Registration outcomes
const (
	OutcomeRegistered        = "registered"
	OutcomeForbidden         = "forbidden"
	OutcomeNotFound          = "not_found"
	OutcomeAlreadyRegistered = "already_registered"
	OutcomeFull              = "full"
	OutcomeError             = "error"
)

// Metrics holds the application's Prometheus collectors.
// Each instance owns its registry so tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	RegistrationCounter *prometheus.CounterVec
	UserSignupCounter   *prometheus.CounterVec
	LoginCounter        *prometheus.CounterVec
	TournamentsCreated  prometheus.Counter
	RequestDuration     *prometheus.HistogramVec
	APIRequestCounter   *prometheus.CounterVec
	APIErrorCounter     *prometheus.CounterVec
}

// New creates and registers all collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RegistrationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tournament_registrations_total",
				Help:      "Tournament registration attempts by outcome",
			},
			[]string{"outcome"},
		),

		UserSignupCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "user_signups_total",
				Help:      "Accounts created by role",
			},
			[]string{"role"},
		),

		LoginCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Login attempts by outcome",
			},
			[]string{"outcome"},
		),

		TournamentsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tournaments_created_total",
			Help:      "Tournaments created",
		}),

		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		APIRequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"method", "path"},
		),

		APIErrorCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_errors_total",
				Help:      "Total number of API errors",
			},
			[]string{"method", "path", "status"},
		),
	}
}

// Registry returns the registry holding every collector
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordRegistration counts a registration attempt
func (m *Metrics) RecordRegistration(outcome string) {
	m.RegistrationCounter.WithLabelValues(outcome).Inc()
}

// RecordSignup counts a created account
func (m *Metrics) RecordSignup(role string) {
	m.UserSignupCounter.WithLabelValues(role).Inc()
}

// RecordLogin counts a login attempt
func (m *Metrics) RecordLogin(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.LoginCounter.WithLabelValues(outcome).Inc()
}

// RecordTournamentCreated counts a created tournament
func (m *Metrics) RecordTournamentCreated() {
	m.TournamentsCreated.Inc()
}

// HTTPMiddleware tracks request counts, durations and errors.
// Paths are labelled by route template so IDs do not explode cardinality.
func (m *Metrics) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := routePath(r)

			m.APIRequestCounter.WithLabelValues(r.Method, path).Inc()

			wrapped := middleware.NewResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			status := strconv.Itoa(wrapped.Status())
			m.RequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())

			if wrapped.Status() >= 400 {
				m.APIErrorCounter.WithLabelValues(r.Method, path, status).Inc()
			}
		})
	}
}

func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}
