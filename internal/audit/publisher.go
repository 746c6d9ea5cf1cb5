// Package audit provides security event capture and processing.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/securebridge/securebridge/internal/metrics"
)

const (
	// StreamKey is the Redis stream for security events.
	StreamKey = "stream:security_events"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:security_events:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// EventPayload is the compressed event format for the Redis stream.
type EventPayload struct {
	EventType  string `json:"et"`            // event_type
	ActorID    int64  `json:"aid,omitempty"` // actor_id (0 = anonymous)
	ActorType  string `json:"at"`            // actor_type
	Subject    string `json:"s,omitempty"`   // email or service name
	KeyID      int64  `json:"kid,omitempty"` // service key id for key.* events
	ClientHash string `json:"ch,omitempty"`  // client_hash
	OccurredAt int64  `json:"t"`             // Unix milliseconds
}

// Publisher enqueues security events to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new security event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "audit.publisher"),
		metrics: recorder,
	}
}

// Publish adds a security event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event EventPayload) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true, // ~MAXLEN for performance
		ID:     "*",  // Auto-generate ID
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()

	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged but not returned (fire-and-forget).
// A nil publisher is a no-op so callers never need to guard.
func (p *Publisher) PublishAsync(event EventPayload) {
	if p == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish security event",
				"event_type", event.EventType,
				"error", err,
			)
			p.metrics.IncEventPublished("dropped")
			return
		}

		p.logger.Debug("security event published",
			"event_type", event.EventType,
			"stream_id", streamID,
		)
		p.metrics.IncEventPublished("success")
	}()
}

// GenerateClientHash creates a privacy-safe client identifier.
// Uses SHA256(IP + daily_salt) truncated to 16 hex chars.
func GenerateClientHash(ip string, occurredAt time.Time) string {
	// Daily salt rotates at midnight UTC
	dailySalt := fmt.Sprintf("securebridge:%s", occurredAt.UTC().Format("2006-01-02"))

	hash := sha256.Sum256([]byte(ip + dailySalt))
	return hex.EncodeToString(hash[:])[:16]
}

// TruncateSubject clamps the subject field to the persisted column width.
func TruncateSubject(subject string) string {
	if len(subject) > 254 {
		return subject[:254]
	}
	return subject
}
