// SecureBridge Webhook Receiver Example
//
// This is a minimal example of how to receive and verify SecureBridge
// security event webhooks.
//
// Usage:
//   export SECUREBRIDGE_WEBHOOK_SECRET="whsec_your_secret_here"
//   go run main.go
//
// Then register a webhook endpoint pointing to https://your-server/webhook
// (SecureBridge only delivers to HTTPS targets).

package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"
)

// SecurityEvent is the webhook payload for security events
type SecurityEvent struct {
	EventType string         `json:"event_type"`
	EventID   string         `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

func main() {
	secret := os.Getenv("SECUREBRIDGE_WEBHOOK_SECRET")
	if secret == "" {
		log.Fatal("SECUREBRIDGE_WEBHOOK_SECRET environment variable is required")
	}

	http.HandleFunc("/webhook", webhookHandler(secret))
	http.HandleFunc("/health", healthHandler)

	log.Println("Starting webhook receiver on :9000")
	log.Println("Endpoint: http://localhost:9000/webhook")
	log.Fatal(http.ListenAndServe(":9000", nil))
}

func webhookHandler(secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Read body
		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Printf("Error reading body: %v", err)
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		signature := r.Header.Get("X-SecureBridge-Signature")
		timestamp := r.Header.Get("X-SecureBridge-Timestamp")
		if signature == "" || timestamp == "" {
			log.Println("Missing signature headers")
			http.Error(w, "Missing signature", http.StatusUnauthorized)
			return
		}

		// Verify signature
		if !verifySignature(signature, timestamp, string(body), secret) {
			log.Println("Invalid signature")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		// Parse event
		var event SecurityEvent
		if err := json.Unmarshal(body, &event); err != nil {
			log.Printf("Error parsing JSON: %v", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		// Process the event
		log.Printf("✓ Received %s event", event.EventType)
		log.Printf("  Event ID:    %s", event.EventID)
		log.Printf("  Delivery ID: %s", r.Header.Get("X-SecureBridge-Delivery-Id"))
		log.Printf("  Time:        %s", event.Timestamp.Format(time.RFC3339))
		if keyID, ok := event.Data["key_id"]; ok {
			log.Printf("  Key ID:      %v", keyID)
		}
		if subject, ok := event.Data["subject"]; ok {
			log.Printf("  Subject:     %v", subject)
		}

		// Respond with 200 OK
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "received"})
	}
}

// verifySignature verifies the HMAC-SHA256 signature from SecureBridge
//
// Signed payload: {timestamp}.{body}
// The signature is the hex-encoded HMAC of the signed payload.
func verifySignature(signature, timestamp, body, secret string) bool {
	// Check timestamp (±5 min tolerance against replays)
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	if math.Abs(float64(time.Now().Unix()-ts)) > 300 {
		log.Println("Signature timestamp too old or in future")
		return false
	}

	// Compute expected signature
	signedPayload := timestamp + "." + body
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	// Constant-time comparison
	return hmac.Equal([]byte(signature), []byte(expected))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
