package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OTP gateway metrics. Defined in a standalone package to avoid import
// cycles between the linotp client and HTTP packages.

var (
	ValidationRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linotp_validation_requests_total",
		Help: "Validation calls by outcome (allowed, denied, server_error)",
	}, []string{"outcome"})

	ValidationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linotp_validation_duration_seconds",
		Help:    "Latency of validation calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	Challenges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "otp_challenges_total",
		Help: "Challenge phase transitions by result (issued, cached, resumed, failed, error)",
	}, []string{"result"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests processed",
	}, []string{"method", "path", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// ObserveValidation records one validation call.
func ObserveValidation(outcome string, d time.Duration) {
	ValidationRequests.WithLabelValues(outcome).Inc()
	ValidationDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveChallenge records one challenge transition.
func ObserveChallenge(result string) {
	Challenges.WithLabelValues(result).Inc()
}

// Register registers all gateway metrics on the given registry
// (or the default when nil) and returns the /metrics handler.
func Register(reg prometheus.Registerer) (http.Handler, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		ValidationRequests,
		ValidationDuration,
		Challenges,
		HTTPRequests,
		HTTPDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return promhttp.Handler(), nil
}
