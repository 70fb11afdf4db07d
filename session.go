package main

import (
	"fmt"
	"strings"
)

// SessionState is the cookie and identifier bundle threaded through one
// checkout attempt. It is created per run and never shared between
// concurrent runs.
type SessionState struct {
	cookies        map[string]string
	defaultHeaders map[string]string
	cartID         string
	guestID        string
}

// NewSessionState seeds a session from captured cookies and default
// headers. A user agent is mandatory: without it the upstream rejects
// every request, so we refuse to start at all.
func NewSessionState(cookies, headers map[string]string) (*SessionState, error) {
	if !hasHeader(headers, "user-agent") {
		return nil, fmt.Errorf("%s: default headers missing user agent", FailureConfiguration)
	}

	s := &SessionState{
		cookies:        make(map[string]string, len(cookies)),
		defaultHeaders: make(map[string]string, len(headers)),
	}
	for name, value := range cookies {
		s.cookies[name] = value
	}
	for name, value := range headers {
		s.defaultHeaders[name] = value
	}
	return s, nil
}

func hasHeader(headers map[string]string, name string) bool {
	for k, v := range headers {
		if strings.EqualFold(k, name) && v != "" {
			return true
		}
	}
	return false
}

// Apply merges a stage's observed delta into the session. Cookies are
// last-write-wins; cartID and guestID are replaced only by non-empty
// values, so a response that omits them never erases a known identifier.
func (s *SessionState) Apply(delta SessionDelta) {
	for name, value := range delta.Cookies {
		s.cookies[name] = value
	}
	if delta.CartID != "" {
		s.cartID = delta.CartID
	}
	if delta.GuestID != "" {
		s.guestID = delta.GuestID
	}
}

func (s *SessionState) CartID() string {
	return s.cartID
}

func (s *SessionState) GuestID() string {
	return s.guestID
}

// Snapshot is the read-only view handed to a stage executor.
type Snapshot struct {
	Cookies map[string]string
	Headers map[string]string
	CartID  string
	GuestID string
}

// Snapshot copies the session so an executor cannot leave the session
// half-updated when it fails mid-request.
func (s *SessionState) Snapshot() Snapshot {
	snap := Snapshot{
		Cookies: make(map[string]string, len(s.cookies)),
		Headers: make(map[string]string, len(s.defaultHeaders)),
		CartID:  s.cartID,
		GuestID: s.guestID,
	}
	for name, value := range s.cookies {
		snap.Cookies[name] = value
	}
	for name, value := range s.defaultHeaders {
		snap.Headers[name] = value
	}
	return snap
}

// extractIdentifiers pulls cartId and the guest user id out of a cart
// style response payload. Absent or empty fields are left out of the
// delta so Apply keeps the previous values.
func extractIdentifiers(payload map[string]interface{}) SessionDelta {
	var delta SessionDelta

	if id, ok := payload["cartId"].(string); ok && id != "" {
		delta.CartID = id
	}
	if user, ok := payload["user"].(map[string]interface{}); ok {
		if id, ok := user["id"].(string); ok && id != "" {
			delta.GuestID = id
		}
	}
	if id, ok := payload["guestId"].(string); ok && id != "" {
		delta.GuestID = id
	}

	return delta
}
