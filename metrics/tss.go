package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TssMetrics are recorded by the signing daemon.
type TssMetrics struct {
	signRequests *prometheus.CounterVec
}

func NewTssMetrics() *TssMetrics {
	return &TssMetrics{
		signRequests: register(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tss_sign_requests_total",
				Help: "The total number of sign requests served",
			},
			[]string{"scheme", "key_id"},
		)),
	}
}

func (tm *TssMetrics) IncSignRequest(scheme, keyID string) {
	tm.signRequests.WithLabelValues(scheme, keyID).Inc()
}
