package infrastructure

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	reportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_generated_total",
		Help: "Number of report generation runs by profile and outcome.",
	}, []string{"profile", "status"})

	reportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "report_generation_duration_seconds",
		Help:    "Time spent generating a report.",
		Buckets: prometheus.DefBuckets,
	}, []string{"profile"})
)

// ObserveReport records one report generation run.
func ObserveReport(profile string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	reportsGenerated.WithLabelValues(profile, status).Inc()
	reportDuration.WithLabelValues(profile).Observe(elapsed.Seconds())
}

// MetricsHandler exposes the Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
