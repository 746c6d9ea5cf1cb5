// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account and token metrics
	IncSignup()
	IncLogin(status string) // status: "success" or "failure"

	// Service key lifecycle metrics
	IncKeyCreated()
	IncKeyRevoked()
	IncKeyRenewed()
	IncKeyDeleted()

	// Verification metrics
	IncKeyVerify(status string) // status: "success", "no_match", "expired"
	ObserveKeyScanSize(size int)

	// Resolver metrics
	IncResolve(outcome string) // outcome: "user", "service", "none"

	// Security event pipeline metrics
	IncEventPublished(status string) // status: "success" or "dropped"
	IncEventProcessed(status string) // status: "success", "failed", "dead_lettered"
	SetEventQueueDepth(depth int64)

	// Webhook delivery metrics
	IncWebhookDelivery(status string) // status: "success", "failed", "exhausted"
	SetWebhookQueueDepth(depth int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
