package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// Client executes the individual checkout stages. Every method performs
// exactly one network exchange and classifies the result; retries, if
// any, belong to the orchestrator.
type Client struct {
	http   *http.Client
	config *Config
}

func NewClient(config *Config) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	timeout := time.Duration(config.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := &http.Client{
		Timeout: timeout,
		Jar:     jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &Client{http: client, config: config}, nil
}

func (c *Client) apiURL(path string) string {
	return c.config.APIBase + path
}

// doJSON is the shared request core behind every stage. Headers are
// layered default < tracking < step-specific, so a step override always
// wins. Classification:
//
//	2xx              Success
//	403              AuthExpired (cookies are stale, not a logic bug)
//	other status     UpstreamRejected, body kept for diagnosis
//	network fault    TransportError
func (c *Client) doJSON(ctx context.Context, snap Snapshot, method, url string, body interface{}, overrides map[string]string) StepResult {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return Failure(FailureTransport, 0, fmt.Sprintf("failed to marshal request: %v", err))
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return Failure(FailureTransport, 0, fmt.Sprintf("failed to create request: %v", err))
	}

	tracking := newTrackingContext(time.Now())
	for name, value := range snap.Headers {
		req.Header.Set(name, value)
	}
	for name, value := range tracking.Headers() {
		req.Header.Set(name, value)
	}
	for name, value := range overrides {
		req.Header.Set(name, value)
	}
	if body != nil && req.Header.Get("content-type") == "" {
		req.Header.Set("content-type", "application/json")
	}

	for name, value := range snap.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Failure(FailureTransport, 0, fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	if c.config.DebugMode {
		log.Printf("[DEBUG] %s %s -> %d", method, url, resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failure(FailureTransport, 0, fmt.Sprintf("failed to read response: %v", err))
	}

	if resp.StatusCode == http.StatusForbidden {
		return Failure(FailureAuthExpired, resp.StatusCode, "access denied, session cookies are likely expired")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Failure(FailureUpstream, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	payload := map[string]interface{}{}
	if len(bytes.TrimSpace(respBody)) > 0 && looksLikeJSON(respBody) {
		if err := json.Unmarshal(respBody, &payload); err != nil {
			return Failure(FailureTransport, resp.StatusCode, fmt.Sprintf("malformed response body: %v", err))
		}
	}

	delta := extractIdentifiers(payload)
	for _, cookie := range resp.Cookies() {
		delta.setCookie(cookie.Name, cookie.Value)
	}

	result := Success(payload, delta)
	result.HTTPStatus = resp.StatusCode
	return result
}

func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// InitializeSession loads the storefront root to establish baseline
// cookies when none were pre-seeded.
func (c *Client) InitializeSession(ctx context.Context, snap Snapshot) StepResult {
	url := c.config.BaseURL + c.config.Endpoints.SessionRoot
	return c.doJSON(ctx, snap, http.MethodGet, url, nil, map[string]string{
		"accept":         "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"sec-fetch-dest": "document",
		"sec-fetch-mode": "navigate",
	})
}

// CheckAvailability fetches the product by SKU and fails the run with
// OutOfStock when the requested size has no sellable stock. Out of
// stock is a business rejection, never retried.
func (c *Client) CheckAvailability(ctx context.Context, snap Snapshot, sku, size string) StepResult {
	url := c.apiURL(fmt.Sprintf(c.config.Endpoints.ProductBySKU, sku))
	result := c.doJSON(ctx, snap, http.MethodGet, url, nil, map[string]string{
		"accept":     "*/*",
		"x-api-lang": "en-US",
	})
	if !result.OK {
		return result
	}

	if !sizeInStock(result.Payload, size) {
		return Failure(FailureOutOfStock, 0, fmt.Sprintf("size %s not in stock for %s", size, sku))
	}

	return result
}

// sizeInStock walks the product payload's size variants. A payload with
// no size information at all is treated as sellable; only an explicit
// list that excludes the size (or lists it with zero stock) blocks the
// run.
func sizeInStock(payload map[string]interface{}, size string) bool {
	variants, ok := payload["variantOptions"].([]interface{})
	if !ok {
		return true
	}

	for _, v := range variants {
		variant, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		if s, ok := variant["size"].(string); !ok || s != size {
			continue
		}
		if stock, ok := variant["stock"].(float64); ok {
			return stock > 0
		}
		return true
	}

	return false
}

// AddToCart puts the product in a new or existing cart and records the
// returned cartId.
func (c *Client) AddToCart(ctx context.Context, snap Snapshot, sku, size string, quantity int) StepResult {
	payload := map[string]interface{}{
		"productCode": sku,
		"quantity":    quantity,
		"size":        size,
		"productType": "NORMAL",
	}

	return c.doJSON(ctx, snap, http.MethodPost, c.apiURL(c.config.Endpoints.CartAdd), payload, map[string]string{
		"accept":     "application/json",
		"x-api-lang": "en-US",
		"referer":    fmt.Sprintf("%s/product/~/%s.html", c.config.BaseURL, sku),
	})
}

// FetchCart refreshes the server-side cart view, picking up cartId and
// the cart user's id when present.
func (c *Client) FetchCart(ctx context.Context, snap Snapshot) StepResult {
	return c.doJSON(ctx, snap, http.MethodGet, c.apiURL(c.config.Endpoints.CartRefresh), nil, map[string]string{
		"accept":     "application/json",
		"x-api-lang": "en-US",
	})
}

// GuestCheckout re-reads the cart with a checkout referer, which is how
// the upstream mints a guest identity for an anonymous session. The
// guestId lands in the cart's user object.
func (c *Client) GuestCheckout(ctx context.Context, snap Snapshot) StepResult {
	return c.doJSON(ctx, snap, http.MethodGet, c.apiURL(c.config.Endpoints.GuestCheckout), nil, map[string]string{
		"accept":     "application/json",
		"x-api-lang": "en-US",
		"referer":    c.config.BaseURL + "/checkout",
	})
}

// SubmitContact attaches the buyer's contact details to the cart.
func (c *Client) SubmitContact(ctx context.Context, snap Snapshot, contact ContactInfo) StepResult {
	payload := map[string]interface{}{
		"firstName":    contact.FirstName,
		"lastName":     contact.LastName,
		"email":        contact.Email,
		"phone":        contact.Phone,
		"phoneCountry": contact.PhoneCountry,
		"payPalAlert":  false,
	}

	return c.doJSON(ctx, snap, http.MethodPost, c.apiURL(c.config.Endpoints.SubmitContact), payload, map[string]string{
		"accept":     "application/json",
		"x-api-lang": "en-US",
		"referer":    c.config.BaseURL + "/checkout",
	})
}

// VerifiedAddress is the corrected candidate returned by the address
// verification service. Only this value, never the caller's raw input,
// may be submitted as the shipping address.
type VerifiedAddress struct {
	Line1       string
	Line2       string
	Town        string
	RegionCode  string
	PostalCode  string
	CountryCode string
	CountryName string
}

// VerifyAddress runs the candidate address through the verification
// service. Any decision other than Accepted rejects the run.
func (c *Client) VerifyAddress(ctx context.Context, snap Snapshot, address ShippingAddress) StepResult {
	payload := map[string]interface{}{
		"country": map[string]interface{}{
			"isocode": address.CountryCode,
			"name":    address.CountryName,
		},
		"region": map[string]interface{}{
			"isocodeShort": address.RegionCode,
		},
		"line1":      address.Line1,
		"line2":      address.Line2,
		"postalCode": address.PostalCode,
		"town":       address.Town,
	}

	overrides := map[string]string{
		"accept":  "application/json",
		"referer": c.config.BaseURL + "/checkout",
	}
	if c.config.AddressVerificationKey != "" {
		overrides["x-functions-key"] = c.config.AddressVerificationKey
	}

	result := c.doJSON(ctx, snap, http.MethodPost, c.apiURL(c.config.Endpoints.VerifyAddress), payload, overrides)
	if !result.OK {
		return result
	}

	decision, _ := result.Payload["decision"].(string)
	if !strings.EqualFold(decision, "Accepted") {
		return Failure(FailureAddress, result.HTTPStatus, fmt.Sprintf("address verification decision: %q", decision))
	}

	return result
}

// verifiedFromPayload picks the corrected candidate out of an Accepted
// verification response: the first suggested address when the verifier
// offers one, otherwise the fields it echoed back.
func verifiedFromPayload(payload map[string]interface{}, fallback ShippingAddress) VerifiedAddress {
	source := payload
	if suggestions, ok := payload["suggestedAddresses"].([]interface{}); ok && len(suggestions) > 0 {
		if first, ok := suggestions[0].(map[string]interface{}); ok {
			source = first
		}
	}

	verified := VerifiedAddress{
		Line1:       stringField(source, "line1"),
		Line2:       stringField(source, "line2"),
		Town:        stringField(source, "town"),
		PostalCode:  stringField(source, "postalCode"),
		CountryName: fallback.CountryName,
	}
	if region, ok := source["region"].(map[string]interface{}); ok {
		verified.RegionCode = stringField(region, "isocodeShort")
	}
	if country, ok := source["country"].(map[string]interface{}); ok {
		verified.CountryCode = stringField(country, "isocode")
		if name := stringField(country, "name"); name != "" {
			verified.CountryName = name
		}
	}

	if verified.RegionCode == "" {
		verified.RegionCode = fallback.RegionCode
	}
	if verified.CountryCode == "" {
		verified.CountryCode = fallback.CountryCode
	}

	return verified
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

// SetShippingAddress submits the verified address to the cart, together
// with the contact identity the carrier needs.
func (c *Client) SetShippingAddress(ctx context.Context, snap Snapshot, verified VerifiedAddress, contact ContactInfo) StepResult {
	payload := map[string]interface{}{
		"shippingAddress": map[string]interface{}{
			"firstName":       contact.FirstName,
			"lastName":        contact.LastName,
			"line1":           verified.Line1,
			"line2":           verified.Line2,
			"town":            verified.Town,
			"region":          map[string]interface{}{"isocodeShort": verified.RegionCode},
			"postalCode":      verified.PostalCode,
			"country":         map[string]interface{}{"isocode": verified.CountryCode},
			"phone":           contact.Phone,
			"email":           contact.Email,
			"shippingAddress": true,
		},
	}

	return c.doJSON(ctx, snap, http.MethodPost, c.apiURL(c.config.Endpoints.SetShippingAddress), payload, map[string]string{
		"accept":     "application/json",
		"x-api-lang": "en-US",
		"referer":    c.config.BaseURL + "/checkout",
	})
}

// SubmitPayment posts the opaque encrypted card payload. The payload's
// internal structure belongs to the payment provider; we only thread it
// through.
func (c *Client) SubmitPayment(ctx context.Context, snap Snapshot, encrypted EncryptedPayment) StepResult {
	payload := map[string]interface{}{
		"paymentMethod":         "CREDITCARD",
		"encryptedCardNumber":   encrypted.CardNumber,
		"encryptedExpiryMonth":  encrypted.ExpiryMonth,
		"encryptedExpiryYear":   encrypted.ExpiryYear,
		"encryptedSecurityCode": encrypted.SecurityCode,
		"holderName":            encrypted.HolderName,
		"deviceFingerprint":     encrypted.DeviceFingerprint,
	}

	return c.doJSON(ctx, snap, http.MethodPost, c.apiURL(c.config.Endpoints.SubmitPayment), payload, map[string]string{
		"accept":  "application/json",
		"referer": c.config.BaseURL + "/checkout",
	})
}

// PlaceOrder finalizes the cart. Success yields the order identifier,
// the run's final value.
func (c *Client) PlaceOrder(ctx context.Context, snap Snapshot) StepResult {
	payload := map[string]interface{}{
		"cartId":         snap.CartID,
		"guestId":        snap.GuestID,
		"termsAccepted":  true,
		"marketingOptIn": false,
	}

	return c.doJSON(ctx, snap, http.MethodPost, c.apiURL(c.config.Endpoints.PlaceOrder), payload, map[string]string{
		"accept":  "application/json",
		"referer": c.config.BaseURL + "/checkout",
	})
}
