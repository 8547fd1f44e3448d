package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// StakingMetrics are recorded by the staking service.
type StakingMetrics struct {
	signerRequests        *prometheus.CounterVec
	signerRequestDuration *prometheus.HistogramVec
	signedTxs             *prometheus.CounterVec
	walletsCreated        *prometheus.CounterVec
}

func NewStakingMetrics() *StakingMetrics {
	return &StakingMetrics{
		signerRequests: register(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staking_signer_requests_total",
				Help: "The total number of requests sent to the threshold signer",
			},
			[]string{"op", "result"},
		)),
		signerRequestDuration: register(prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "staking_signer_request_duration_seconds",
				Help:    "The duration of threshold signer requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		)),
		signedTxs: register(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staking_signed_txs_total",
				Help: "The total number of transactions signed",
			},
			[]string{"type"},
		)),
		walletsCreated: register(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staking_wallets_created_total",
				Help: "The total number of staking wallets created",
			},
			[]string{"target"},
		)),
	}
}

// RecordSignerRequest records the outcome and latency of one signer call.
func (sm *StakingMetrics) RecordSignerRequest(op string, started time.Time, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	sm.signerRequests.WithLabelValues(op, result).Inc()
	sm.signerRequestDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (sm *StakingMetrics) RecordSignedTx(txType string) {
	sm.signedTxs.WithLabelValues(txType).Inc()
}

func (sm *StakingMetrics) RecordWalletCreated(target string) {
	sm.walletsCreated.WithLabelValues(target).Inc()
}
