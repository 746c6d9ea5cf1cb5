package handler

import (
	"fmt"
	"net/http"

	"github.com/securebridge/securebridge/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "securebridge_signups_total %d\n", snap.Signups)
	writeMetric(w, "securebridge_logins_total{status=\"success\"} %d\n", snap.LoginSuccesses)
	writeMetric(w, "securebridge_logins_total{status=\"failure\"} %d\n", snap.LoginFailures)

	writeMetric(w, "securebridge_keys_created_total %d\n", snap.KeysCreated)
	writeMetric(w, "securebridge_keys_revoked_total %d\n", snap.KeysRevoked)
	writeMetric(w, "securebridge_keys_renewed_total %d\n", snap.KeysRenewed)
	writeMetric(w, "securebridge_keys_deleted_total %d\n", snap.KeysDeleted)

	writeMetric(w, "securebridge_key_verifications_total{status=\"success\"} %d\n", snap.KeyVerifySuccess)
	writeMetric(w, "securebridge_key_verifications_total{status=\"no_match\"} %d\n", snap.KeyVerifyNoMatch)
	writeMetric(w, "securebridge_key_verifications_total{status=\"expired\"} %d\n", snap.KeyVerifyExpired)
	writeMetric(w, "securebridge_key_scan_size_count %d\n", snap.KeyScanCount)
	writeMetric(w, "securebridge_key_scan_size_sum %d\n", snap.KeyScanTotalSize)

	writeMetric(w, "securebridge_resolutions_total{outcome=\"user\"} %d\n", snap.ResolvedUsers)
	writeMetric(w, "securebridge_resolutions_total{outcome=\"service\"} %d\n", snap.ResolvedServices)
	writeMetric(w, "securebridge_resolutions_total{outcome=\"none\"} %d\n", snap.ResolvedNone)

	writeMetric(w, "securebridge_events_published_total{status=\"success\"} %d\n", snap.EventsPublished)
	writeMetric(w, "securebridge_events_published_total{status=\"dropped\"} %d\n", snap.EventsDropped)
	writeMetric(w, "securebridge_events_processed_total{status=\"success\"} %d\n", snap.EventsProcessed)
	writeMetric(w, "securebridge_events_processed_total{status=\"failed\"} %d\n", snap.EventsFailed)
	writeMetric(w, "securebridge_events_processed_total{status=\"dead_lettered\"} %d\n", snap.EventsDeadLettered)
	writeMetric(w, "securebridge_event_queue_depth %d\n", snap.EventQueueDepth)

	writeMetric(w, "securebridge_webhook_deliveries_total{status=\"success\"} %d\n", snap.WebhooksDelivered)
	writeMetric(w, "securebridge_webhook_deliveries_total{status=\"failed\"} %d\n", snap.WebhooksFailed)
	writeMetric(w, "securebridge_webhook_deliveries_total{status=\"exhausted\"} %d\n", snap.WebhooksExhausted)
	writeMetric(w, "securebridge_webhook_queue_depth %d\n", snap.WebhookQueueDepth)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
