// Package metrics defines the Prometheus collectors shared by the pipeline,
// the evidence extractor and the webhook layer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

var (
	// PipelineCompanies counts processed companies by outcome.
	PipelineCompanies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gtm_pipeline_companies_total",
			Help: "Companies processed by the pipeline",
		},
		[]string{"result"},
	)

	// EvidenceFetches counts homepage renders by outcome.
	EvidenceFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gtm_evidence_fetch_total",
			Help: "Website renders attempted by the evidence extractor",
		},
		[]string{"result"},
	)

	// WebhookSends counts outbound webhook posts by outcome.
	WebhookSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gtm_webhook_sends_total",
			Help: "Outbound webhook deliveries",
		},
		[]string{"result"},
	)

	// ReceiverWebhooks counts payloads accepted by the receiver.
	ReceiverWebhooks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gtm_receiver_webhooks_total",
		Help: "Webhook payloads accepted by the receiver",
	})

	// PipelinePSI observes the weighted PSI of every scored company.
	PipelinePSI = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gtm_pipeline_psi",
		Help:    "Weighted pain severity index per scored company",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})
)

// Outcome maps an error to a result label.
func Outcome(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
