package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// New Relic browser agent identity observed in captured storefront
// traffic. The upstream only checks shape, not ownership.
const (
	nrAccountID = "2684125"
	nrAppID     = "655559411"
	nrTrustKey  = "3671077"
)

// TrackingContext is the per-request correlation identity that makes an
// API call look like it came from the storefront's browser telemetry.
// A fresh one is generated for every outbound call and never stored.
type TrackingContext struct {
	TraceID   string
	SpanID    string
	RequestID string
	Timestamp int64
}

// newTrackingContext derives a fresh context from the given time. It
// cannot fail; callers must tolerate a different value on every call.
func newTrackingContext(now time.Time) TrackingContext {
	return TrackingContext{
		TraceID:   fmt.Sprintf("%016x%016x", rand.Uint64(), rand.Uint64()),
		SpanID:    fmt.Sprintf("%016x", rand.Uint64()),
		RequestID: requestID(),
		Timestamp: now.UnixMilli(),
	}
}

// requestID produces the x-fl-request-id value. The storefront sends a
// time-based v1 UUID here, which uuid.NewUUID gives us directly.
func requestID() string {
	id, err := uuid.NewUUID()
	if err != nil {
		// No usable node/clock source. A random UUID still satisfies
		// the header shape.
		id = uuid.New()
	}
	return id.String()
}

type newrelicPayload struct {
	Version []int        `json:"v"`
	Data    newrelicData `json:"d"`
}

type newrelicData struct {
	Type      string `json:"ty"`
	AccountID string `json:"ac"`
	AppID     string `json:"ap"`
	SpanID    string `json:"id"`
	TraceID   string `json:"tr"`
	Timestamp int64  `json:"ti"`
	TrustKey  string `json:"tk"`
}

// Headers renders the context into the wire headers every stage attaches.
func (tc TrackingContext) Headers() map[string]string {
	payload := newrelicPayload{
		Version: []int{0, 1},
		Data: newrelicData{
			Type:      "Browser",
			AccountID: nrAccountID,
			AppID:     nrAppID,
			SpanID:    tc.SpanID,
			TraceID:   tc.TraceID,
			Timestamp: tc.Timestamp,
			TrustKey:  nrTrustKey,
		},
	}
	encoded, _ := json.Marshal(payload)

	return map[string]string{
		"newrelic":        base64.StdEncoding.EncodeToString(encoded),
		"traceparent":     fmt.Sprintf("00-%s-%s-01", tc.TraceID, tc.SpanID),
		"tracestate":      fmt.Sprintf("%s@nr=0-1-%s-%s-%s----%d", nrTrustKey, nrAccountID, nrAppID, tc.SpanID, tc.Timestamp),
		"x-fl-request-id": tc.RequestID,
		"x-kpsdk-v":       "j-1.1.0",
		"priority":        "u=1, i",
	}
}
