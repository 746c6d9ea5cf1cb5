package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Signups           uint64
	LoginSuccesses    uint64
	LoginFailures     uint64
	KeysCreated       uint64
	KeysRevoked       uint64
	KeysRenewed       uint64
	KeysDeleted       uint64
	KeyVerifySuccess  uint64
	KeyVerifyNoMatch  uint64
	KeyVerifyExpired  uint64
	KeyScanCount      uint64
	KeyScanTotalSize  uint64
	ResolvedUsers     uint64
	ResolvedServices  uint64
	ResolvedNone      uint64

	EventsPublished    uint64
	EventsDropped      uint64
	EventsProcessed    uint64
	EventsFailed       uint64
	EventsDeadLettered uint64
	EventQueueDepth    int64

	WebhooksDelivered uint64
	WebhooksFailed    uint64
	WebhooksExhausted uint64
	WebhookQueueDepth int64
}

// InMemoryRecorder stores metrics in memory for tests and the metrics
// endpoint.
type InMemoryRecorder struct {
	signups          uint64
	loginSuccesses   uint64
	loginFailures    uint64
	keysCreated      uint64
	keysRevoked      uint64
	keysRenewed      uint64
	keysDeleted      uint64
	keyVerifySuccess uint64
	keyVerifyNoMatch uint64
	keyVerifyExpired uint64
	keyScanCount     uint64
	keyScanTotalSize uint64
	resolvedUsers    uint64
	resolvedServices uint64
	resolvedNone     uint64

	eventsPublished    uint64
	eventsDropped      uint64
	eventsProcessed    uint64
	eventsFailed       uint64
	eventsDeadLettered uint64
	eventQueueDepth    int64

	webhooksDelivered uint64
	webhooksFailed    uint64
	webhooksExhausted uint64
	webhookQueueDepth int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		Signups:          atomic.LoadUint64(&m.signups),
		LoginSuccesses:   atomic.LoadUint64(&m.loginSuccesses),
		LoginFailures:    atomic.LoadUint64(&m.loginFailures),
		KeysCreated:      atomic.LoadUint64(&m.keysCreated),
		KeysRevoked:      atomic.LoadUint64(&m.keysRevoked),
		KeysRenewed:      atomic.LoadUint64(&m.keysRenewed),
		KeysDeleted:      atomic.LoadUint64(&m.keysDeleted),
		KeyVerifySuccess: atomic.LoadUint64(&m.keyVerifySuccess),
		KeyVerifyNoMatch: atomic.LoadUint64(&m.keyVerifyNoMatch),
		KeyVerifyExpired: atomic.LoadUint64(&m.keyVerifyExpired),
		KeyScanCount:     atomic.LoadUint64(&m.keyScanCount),
		KeyScanTotalSize: atomic.LoadUint64(&m.keyScanTotalSize),
		ResolvedUsers:    atomic.LoadUint64(&m.resolvedUsers),
		ResolvedServices: atomic.LoadUint64(&m.resolvedServices),
		ResolvedNone:     atomic.LoadUint64(&m.resolvedNone),

		EventsPublished:    atomic.LoadUint64(&m.eventsPublished),
		EventsDropped:      atomic.LoadUint64(&m.eventsDropped),
		EventsProcessed:    atomic.LoadUint64(&m.eventsProcessed),
		EventsFailed:       atomic.LoadUint64(&m.eventsFailed),
		EventsDeadLettered: atomic.LoadUint64(&m.eventsDeadLettered),
		EventQueueDepth:    atomic.LoadInt64(&m.eventQueueDepth),

		WebhooksDelivered: atomic.LoadUint64(&m.webhooksDelivered),
		WebhooksFailed:    atomic.LoadUint64(&m.webhooksFailed),
		WebhooksExhausted: atomic.LoadUint64(&m.webhooksExhausted),
		WebhookQueueDepth: atomic.LoadInt64(&m.webhookQueueDepth),
	}
}

// IncSignup increments the signup counter.
func (m *InMemoryRecorder) IncSignup() {
	atomic.AddUint64(&m.signups, 1)
}

// IncLogin increments the login counter for the given status.
func (m *InMemoryRecorder) IncLogin(status string) {
	if status == "success" {
		atomic.AddUint64(&m.loginSuccesses, 1)
	} else {
		atomic.AddUint64(&m.loginFailures, 1)
	}
}

// IncKeyCreated increments the keys created counter.
func (m *InMemoryRecorder) IncKeyCreated() {
	atomic.AddUint64(&m.keysCreated, 1)
}

// IncKeyRevoked increments the keys revoked counter.
func (m *InMemoryRecorder) IncKeyRevoked() {
	atomic.AddUint64(&m.keysRevoked, 1)
}

// IncKeyRenewed increments the keys renewed counter.
func (m *InMemoryRecorder) IncKeyRenewed() {
	atomic.AddUint64(&m.keysRenewed, 1)
}

// IncKeyDeleted increments the keys deleted counter.
func (m *InMemoryRecorder) IncKeyDeleted() {
	atomic.AddUint64(&m.keysDeleted, 1)
}

// IncKeyVerify increments the verification counter for the given status.
func (m *InMemoryRecorder) IncKeyVerify(status string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.keyVerifySuccess, 1)
	case "expired":
		atomic.AddUint64(&m.keyVerifyExpired, 1)
	default:
		atomic.AddUint64(&m.keyVerifyNoMatch, 1)
	}
}

// ObserveKeyScanSize records the size of a verification scan.
func (m *InMemoryRecorder) ObserveKeyScanSize(size int) {
	atomic.AddUint64(&m.keyScanCount, 1)
	atomic.AddUint64(&m.keyScanTotalSize, uint64(size))
}

// IncResolve increments the resolution counter for the given outcome.
func (m *InMemoryRecorder) IncResolve(outcome string) {
	switch outcome {
	case "user":
		atomic.AddUint64(&m.resolvedUsers, 1)
	case "service":
		atomic.AddUint64(&m.resolvedServices, 1)
	default:
		atomic.AddUint64(&m.resolvedNone, 1)
	}
}

// IncEventPublished increments the event publish counter for the status.
func (m *InMemoryRecorder) IncEventPublished(status string) {
	if status == "success" {
		atomic.AddUint64(&m.eventsPublished, 1)
	} else {
		atomic.AddUint64(&m.eventsDropped, 1)
	}
}

// IncEventProcessed increments the event processing counter for the status.
func (m *InMemoryRecorder) IncEventProcessed(status string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.eventsProcessed, 1)
	case "dead_lettered":
		atomic.AddUint64(&m.eventsDeadLettered, 1)
	default:
		atomic.AddUint64(&m.eventsFailed, 1)
	}
}

// SetEventQueueDepth records the current audit stream backlog.
func (m *InMemoryRecorder) SetEventQueueDepth(depth int64) {
	atomic.StoreInt64(&m.eventQueueDepth, depth)
}

// IncWebhookDelivery increments the delivery counter for the status.
func (m *InMemoryRecorder) IncWebhookDelivery(status string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.webhooksDelivered, 1)
	case "exhausted":
		atomic.AddUint64(&m.webhooksExhausted, 1)
	default:
		atomic.AddUint64(&m.webhooksFailed, 1)
	}
}

// SetWebhookQueueDepth records the count of deliveries awaiting dispatch.
func (m *InMemoryRecorder) SetWebhookQueueDepth(depth int64) {
	atomic.StoreInt64(&m.webhookQueueDepth, depth)
}
