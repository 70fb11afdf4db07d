package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"
)

// Stage names, in execution order. The upstream cart service keeps
// hidden state keyed to this exact progression, so stages are never
// reordered, skipped, or run in parallel.
const (
	StageInitializeSession  = "InitializeSession"
	StageCheckAvailability  = "CheckAvailability"
	StageAddToCart          = "AddToCart"
	StageFetchCart          = "FetchCart"
	StageGuestCheckout      = "GuestCheckout"
	StageSubmitContact      = "SubmitContact"
	StageVerifyAddress      = "VerifyAddress"
	StageSetShippingAddress = "SetShippingAddress"
	StageSubmitPayment      = "SubmitPayment"
	StagePlaceOrder         = "PlaceOrder"
)

// CheckoutRequest is the caller's immutable input for one run.
type CheckoutRequest struct {
	SKU      string
	Size     string
	Quantity int
	Contact  ContactInfo
	Shipping ShippingAddress
	Payment  PaymentInfo
}

// Validate fails fast on incomplete input so a bad request never
// generates partial network activity.
func (r *CheckoutRequest) Validate() error {
	switch {
	case r.SKU == "":
		return fmt.Errorf("sku is required")
	case r.Size == "":
		return fmt.Errorf("size is required")
	case r.Quantity <= 0:
		return fmt.Errorf("quantity must be positive")
	case r.Contact.FirstName == "" || r.Contact.LastName == "":
		return fmt.Errorf("contact name is required")
	case r.Contact.Email == "" || r.Contact.Phone == "":
		return fmt.Errorf("contact email and phone are required")
	case r.Shipping.Line1 == "" || r.Shipping.Town == "" || r.Shipping.PostalCode == "":
		return fmt.Errorf("shipping street, town and postal code are required")
	case r.Shipping.RegionCode == "" || r.Shipping.CountryCode == "":
		return fmt.Errorf("shipping region and country are required")
	case r.Payment.CardNumber == "" || r.Payment.SecurityCode == "":
		return fmt.Errorf("payment card number and security code are required")
	case r.Payment.ExpiryMonth == "" || r.Payment.ExpiryYear == "":
		return fmt.Errorf("payment expiry is required")
	}
	return nil
}

// Orchestrator drives one checkout attempt through the fixed stage
// sequence, fail-fast on the first failure.
type Orchestrator struct {
	client    *Client
	session   *SessionState
	encryptor PaymentEncryptor

	// Attempts per stage when the failure is transport-level. 1 means
	// no retry; every other failure kind aborts immediately.
	transportAttempts int
}

func NewOrchestrator(client *Client, session *SessionState, encryptor PaymentEncryptor) *Orchestrator {
	attempts := client.config.TransportAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Orchestrator{
		client:            client,
		session:           session,
		encryptor:         encryptor,
		transportAttempts: attempts,
	}
}

type stage struct {
	name string
	run  func(ctx context.Context, snap Snapshot) StepResult
}

// Run executes the full stage sequence for the request. The first
// failure becomes the run's outcome; a 403 anywhere is surfaced as
// AuthExpired so the operator knows to refresh cookies rather than
// debug the flow.
func (o *Orchestrator) Run(ctx context.Context, req CheckoutRequest) Outcome {
	if err := req.Validate(); err != nil {
		return Outcome{FailureKind: FailureConfiguration, Message: err.Error()}
	}

	// Run-local state threaded between stages.
	var verified *VerifiedAddress
	var encrypted *EncryptedPayment

	stages := []stage{
		{StageInitializeSession, func(ctx context.Context, snap Snapshot) StepResult {
			return o.client.InitializeSession(ctx, snap)
		}},
		{StageCheckAvailability, func(ctx context.Context, snap Snapshot) StepResult {
			return o.client.CheckAvailability(ctx, snap, req.SKU, req.Size)
		}},
		{StageAddToCart, func(ctx context.Context, snap Snapshot) StepResult {
			return o.client.AddToCart(ctx, snap, req.SKU, req.Size, req.Quantity)
		}},
		{StageFetchCart, func(ctx context.Context, snap Snapshot) StepResult {
			if snap.CartID == "" {
				return Failure(FailureConfiguration, 0, "no cart id established")
			}
			return o.client.FetchCart(ctx, snap)
		}},
		{StageGuestCheckout, func(ctx context.Context, snap Snapshot) StepResult {
			if snap.CartID == "" {
				return Failure(FailureConfiguration, 0, "no cart id established")
			}
			return o.client.GuestCheckout(ctx, snap)
		}},
		{StageSubmitContact, func(ctx context.Context, snap Snapshot) StepResult {
			if snap.GuestID == "" {
				return Failure(FailureConfiguration, 0, "session is not guest-authenticated")
			}
			return o.client.SubmitContact(ctx, snap, req.Contact)
		}},
		{StageVerifyAddress, func(ctx context.Context, snap Snapshot) StepResult {
			result := o.client.VerifyAddress(ctx, snap, req.Shipping)
			if result.OK {
				v := verifiedFromPayload(result.Payload, req.Shipping)
				verified = &v
			}
			return result
		}},
		{StageSetShippingAddress, func(ctx context.Context, snap Snapshot) StepResult {
			if verified == nil {
				return Failure(FailureConfiguration, 0, "no verified address available")
			}
			return o.client.SetShippingAddress(ctx, snap, *verified, req.Contact)
		}},
		{StageSubmitPayment, func(ctx context.Context, snap Snapshot) StepResult {
			if encrypted == nil {
				enc, err := o.encryptor.Encrypt(req.Payment)
				if err != nil {
					return Failure(FailureConfiguration, 0, fmt.Sprintf("payment encryption failed: %v", err))
				}
				encrypted = &enc
			}
			return o.client.SubmitPayment(ctx, snap, *encrypted)
		}},
		{StagePlaceOrder, func(ctx context.Context, snap Snapshot) StepResult {
			if snap.CartID == "" {
				return Failure(FailureConfiguration, 0, "no cart id established")
			}
			return o.client.PlaceOrder(ctx, snap)
		}},
	}

	var lastPayload map[string]interface{}
	for _, st := range stages {
		result := o.runStage(ctx, st)
		if !result.OK {
			if result.Kind == FailureAuthExpired {
				log.Printf("✗ %s: session expired (HTTP %d), refresh cookies and start a new run", st.name, result.HTTPStatus)
			} else {
				log.Printf("✗ %s: %s: %s", st.name, result.Kind, result.Message)
			}
			return Outcome{
				FailureStage: st.name,
				FailureKind:  result.Kind,
				Message:      result.Message,
			}
		}

		o.session.Apply(result.Delta)
		lastPayload = result.Payload
		log.Printf("✓ %s", st.name)
	}

	orderID := stringField(lastPayload, "orderId")
	if orderID == "" {
		orderID = stringField(lastPayload, "code")
	}

	return Outcome{Success: true, OrderID: orderID}
}

// runStage executes one stage, re-running it only for transport faults
// and only within the configured attempt budget. Business and auth
// failures return on the first hit.
func (o *Orchestrator) runStage(ctx context.Context, st stage) StepResult {
	var result StepResult
	for attempt := 1; attempt <= o.transportAttempts; attempt++ {
		result = st.run(ctx, o.session.Snapshot())
		if result.OK || result.Kind != FailureTransport {
			return result
		}
		if attempt < o.transportAttempts {
			delay := time.Duration(500+rand.Intn(1000)) * time.Millisecond
			log.Printf("⚠ %s transport fault (attempt %d/%d), retrying in %dms: %s",
				st.name, attempt, o.transportAttempts, delay.Milliseconds(), result.Message)
			time.Sleep(delay)
		}
	}
	return result
}

// CheckOnly runs just the session and availability stages, for the
// -check-only mode.
func (o *Orchestrator) CheckOnly(ctx context.Context, sku, size string) Outcome {
	init := o.runStage(ctx, stage{StageInitializeSession, func(ctx context.Context, snap Snapshot) StepResult {
		return o.client.InitializeSession(ctx, snap)
	}})
	if !init.OK {
		return Outcome{FailureStage: StageInitializeSession, FailureKind: init.Kind, Message: init.Message}
	}
	o.session.Apply(init.Delta)

	check := o.runStage(ctx, stage{StageCheckAvailability, func(ctx context.Context, snap Snapshot) StepResult {
		return o.client.CheckAvailability(ctx, snap, sku, size)
	}})
	if !check.OK {
		return Outcome{FailureStage: StageCheckAvailability, FailureKind: check.Kind, Message: check.Message}
	}

	name := stringField(check.Payload, "name")
	return Outcome{Success: true, Message: fmt.Sprintf("%s size %s is in stock", name, size)}
}
