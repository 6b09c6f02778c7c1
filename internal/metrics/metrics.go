package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ChatRequests        *prometheus.CounterVec
	Escalations         *prometheus.CounterVec
	LeadsSubmitted      *prometheus.CounterVec
	DuplicateLeads      prometheus.Counter
	LeadStatusUpdates   *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	DocumentsUploaded   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers the collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction doesn't collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChatRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Total number of chat requests by outcome",
		}, []string{"outcome"}),
		Escalations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_escalations_total",
			Help: "Total number of callback prompts shown, by reason",
		}, []string{"reason"}),
		LeadsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leads_submitted_total",
			Help: "Total number of callback requests accepted",
		}, []string{"interest", "priority"}),
		DuplicateLeads: factory.NewCounter(prometheus.CounterOpts{
			Name: "leads_duplicate_total",
			Help: "Total number of callback requests rejected as duplicates",
		}),
		LeadStatusUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lead_status_updates_total",
			Help: "Total number of lead status changes, by new status",
		}, []string{"status"}),
		NotificationsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lead_notifications_failed_total",
			Help: "Total number of lead notifications that could not be delivered",
		}, []string{"channel"}),
		DocumentsUploaded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "documents_uploaded_total",
			Help: "Total number of documents uploaded, by file type",
		}, []string{"file_type"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}
