package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSignup is a no-op.
func (n *NoopRecorder) IncSignup() {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(status string) {}

// IncKeyCreated is a no-op.
func (n *NoopRecorder) IncKeyCreated() {}

// IncKeyRevoked is a no-op.
func (n *NoopRecorder) IncKeyRevoked() {}

// IncKeyRenewed is a no-op.
func (n *NoopRecorder) IncKeyRenewed() {}

// IncKeyDeleted is a no-op.
func (n *NoopRecorder) IncKeyDeleted() {}

// IncKeyVerify is a no-op.
func (n *NoopRecorder) IncKeyVerify(status string) {}

// ObserveKeyScanSize is a no-op.
func (n *NoopRecorder) ObserveKeyScanSize(size int) {}

// IncResolve is a no-op.
func (n *NoopRecorder) IncResolve(outcome string) {}

// IncEventPublished is a no-op.
func (n *NoopRecorder) IncEventPublished(status string) {}

// IncEventProcessed is a no-op.
func (n *NoopRecorder) IncEventProcessed(status string) {}

// SetEventQueueDepth is a no-op.
func (n *NoopRecorder) SetEventQueueDepth(depth int64) {}

// IncWebhookDelivery is a no-op.
func (n *NoopRecorder) IncWebhookDelivery(status string) {}

// SetWebhookQueueDepth is a no-op.
func (n *NoopRecorder) SetWebhookQueueDepth(depth int64) {}
