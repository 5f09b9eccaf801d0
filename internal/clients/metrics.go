package clients

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Значения метки result для clinicare_client_refresh_total.
const (
	refreshOK      = "ok"
	refreshFailed  = "failed"
	refreshNoToken = "no_token"
	refreshStore   = "store_error"
	refreshStale   = "superseded"
)

type metrics struct {
	requests      *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	waiters       prometheus.Gauge
	invalidations *prometheus.CounterVec
}

// newMetrics регистрирует метрики клиента в reg. nil — метрики считаются,
// но нигде не регистрируются.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)

	return &metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clinicare_client_requests_total",
			Help: "Outbound requests to the clinic API by method and response code.",
		}, []string{"method", "code"}),
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clinicare_client_refresh_total",
			Help: "Access token refresh attempts by result.",
		}, []string{"result"}),
		waiters: f.NewGauge(prometheus.GaugeOpts{
			Name: "clinicare_client_refresh_waiters",
			Help: "Requests queued behind the in-flight token refresh.",
		}),
		invalidations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clinicare_client_invalidations_total",
			Help: "Session invalidations by redirect target.",
		}, []string{"redirect"}),
	}
}
