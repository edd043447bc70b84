package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "banglalekha", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "banglalekha", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	SilentRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "banglalekha", Name: "auth_silent_refresh_total", Help: "Silent token refreshes attempted by the access gate, by outcome."},
		[]string{"outcome"},
	)
	TranslationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "banglalekha", Name: "translations_total", Help: "Translation requests served."},
	)
	PDFExportsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "banglalekha", Name: "pdf_exports_total", Help: "PDF documents rendered and stored."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(SilentRefreshes)
	reg.MustRegister(TranslationsTotal)
	reg.MustRegister(PDFExportsTotal)
}
