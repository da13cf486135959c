package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "salonhub",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salonhub",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "salonhub",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	appointmentsBooked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salonhub",
			Subsystem: "booking",
			Name:      "appointments_booked_total",
			Help:      "Appointments created.",
		},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salonhub",
			Subsystem: "booking",
			Name:      "conflicts_total",
			Help:      "Bookings or reschedules rejected because the stylist was busy.",
		},
	)

	depositDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salonhub",
			Subsystem: "deposits",
			Name:      "decisions_total",
			Help:      "Deposit decisions by outcome, including expiries.",
		},
		[]string{"outcome"},
	)

	ordersCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salonhub",
			Subsystem: "pos",
			Name:      "orders_completed_total",
			Help:      "Retail orders rung up.",
		},
	)

	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salonhub",
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Background job runs.",
		},
		[]string{"job", "success"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "salonhub",
			Subsystem: "jobs",
			Name:      "run_duration_seconds",
			Help:      "Duration of background job runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"job"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		appointmentsBooked,
		bookingConflicts,
		depositDecisions,
		ordersCompleted,
		jobRuns,
		jobDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request metrics keyed by the matched route template.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().URL.Path == "/metrics" {
				return next(c)
			}

			start := time.Now()
			httpInFlight.Inc()
			defer httpInFlight.Dec()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := strings.ToUpper(c.Request().Method)
			httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Response().Status)).Inc()
			httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

func AppointmentBooked() { appointmentsBooked.Inc() }

func BookingConflict() { bookingConflicts.Inc() }

func DepositDecided(outcome string) { depositDecisions.WithLabelValues(outcome).Inc() }

func OrderCompleted() { ordersCompleted.Inc() }

// RecordJobRun records metrics for a background job run.
func RecordJobRun(job string, duration time.Duration, success bool) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	jobRuns.WithLabelValues(job, strconv.FormatBool(success)).Inc()
	jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}
