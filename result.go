package main

// FailureKind classifies why a checkout stage (or the whole run) failed.
// The kind tells the operator what to do next: refresh cookies, pick a
// different size, fix the config, or just retry.
type FailureKind string

const (
	FailureConfiguration FailureKind = "ConfigurationError"
	FailureAuthExpired   FailureKind = "AuthExpired"
	FailureOutOfStock    FailureKind = "OutOfStock"
	FailureAddress       FailureKind = "AddressRejected"
	FailureUpstream      FailureKind = "UpstreamRejected"
	FailureTransport     FailureKind = "TransportError"
)

// SessionDelta carries the session-establishing data a stage observed in
// its response. The orchestrator applies it to the SessionState; stage
// executors never mutate the session directly.
type SessionDelta struct {
	Cookies map[string]string
	CartID  string
	GuestID string
}

func (d *SessionDelta) setCookie(name, value string) {
	if d.Cookies == nil {
		d.Cookies = make(map[string]string)
	}
	d.Cookies[name] = value
}

// StepResult is the uniform outcome of one stage executor call.
type StepResult struct {
	OK         bool
	Kind       FailureKind
	HTTPStatus int
	Message    string
	Payload    map[string]interface{}
	Delta      SessionDelta
}

func Success(payload map[string]interface{}, delta SessionDelta) StepResult {
	return StepResult{OK: true, Payload: payload, Delta: delta}
}

func Failure(kind FailureKind, httpStatus int, message string) StepResult {
	return StepResult{Kind: kind, HTTPStatus: httpStatus, Message: message}
}

// Outcome is the final report of one checkout run.
type Outcome struct {
	Success      bool
	OrderID      string
	FailureStage string
	FailureKind  FailureKind
	Message      string
}

func (o Outcome) String() string {
	if o.Success {
		return "order placed: " + o.OrderID
	}
	s := "failed"
	if o.FailureStage != "" {
		s += " at " + o.FailureStage
	}
	if o.FailureKind != "" {
		s += " (" + string(o.FailureKind) + ")"
	}
	if o.Message != "" {
		s += ": " + o.Message
	}
	return s
}
