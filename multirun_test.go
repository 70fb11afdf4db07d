package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestRunAttemptsIsolation drives two concurrent attempts against a
// store that derives the cart id from the product code. Each attempt's
// final order must reference its own cart, proving the sessions never
// observe each other's state.
func TestRunAttemptsIsolation(t *testing.T) {
	ep := DefaultConfig().Endpoints

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	})
	mux.HandleFunc("/product-core/v1/pdp/sku/", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, 200, `{"name":"test","variantOptions":[{"size":"04.5","stock":5},{"size":"09.0","stock":5}]}`)
	})
	mux.HandleFunc(ep.CartAdd, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		sku, _ := body["productCode"].(string)
		jsonResponse(w, 200, fmt.Sprintf(`{"cartId":"CART-%s"}`, sku))
	})
	mux.HandleFunc(ep.CartRefresh, func(w http.ResponseWriter, r *http.Request) {
		// No cartId in the refresh: the session must keep the one from
		// its own add-to-cart response.
		jsonResponse(w, 200, `{"user":{"id":"guest-1"}}`)
	})
	mux.HandleFunc(ep.SubmitContact, func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, 200, `{}`)
	})
	mux.HandleFunc(ep.VerifyAddress, func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, 200, `{"decision":"Accepted","suggestedAddresses":[{"line1":"123 Main St","town":"New York","postalCode":"10001","region":{"isocodeShort":"NY"},"country":{"isocode":"US"}}]}`)
	})
	mux.HandleFunc(ep.SetShippingAddress, func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, 200, `{}`)
	})
	mux.HandleFunc(ep.SubmitPayment, func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, 200, `{}`)
	})
	mux.HandleFunc(ep.PlaceOrder, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		cartID, _ := body["cartId"].(string)
		jsonResponse(w, 200, fmt.Sprintf(`{"orderId":"ORDER-%s"}`, cartID))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	config := DefaultConfig()
	config.BaseURL = server.URL
	config.APIBase = server.URL
	config.UserAgent = "Mozilla/5.0 test"
	fixture := validCheckoutRequest()
	config.Contact = fixture.Contact
	config.Shipping = fixture.Shipping
	config.Payment = fixture.Payment

	specs := []AttemptSpec{
		{SKU: "H7980100", Size: "04.5", Quantity: 1},
		{SKU: "Z1234500", Size: "09.0", Quantity: 1},
	}

	results, err := RunAttempts(context.Background(), config, specs)
	if err != nil {
		t.Fatalf("RunAttempts failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	// Results come back in spec order.
	for i, spec := range specs {
		if results[i].SKU != spec.SKU {
			t.Errorf("Expected result %d for %s, got %s", i, spec.SKU, results[i].SKU)
		}
	}

	for _, r := range results {
		if !r.Outcome.Success {
			t.Errorf("Attempt %s failed: %+v", r.SKU, r.Outcome)
			continue
		}
		want := "ORDER-CART-" + r.SKU
		if r.Outcome.OrderID != want {
			t.Errorf("Attempt %s placed order %q, expected %q: sessions leaked state", r.SKU, r.Outcome.OrderID, want)
		}
	}
}

func TestRunAttemptsConfigurationFailure(t *testing.T) {
	config := DefaultConfig()
	config.UserAgent = "" // session seeding must fail

	results, err := RunAttempts(context.Background(), config, []AttemptSpec{{SKU: "H7980100", Size: "04.5", Quantity: 1}})
	if err != nil {
		t.Fatalf("RunAttempts returned hard error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Outcome.FailureKind != FailureConfiguration {
		t.Errorf("Expected ConfigurationError, got %+v", results[0].Outcome)
	}
	if !strings.Contains(results[0].Outcome.Message, "user agent") {
		t.Errorf("Expected message to name the missing user agent, got %q", results[0].Outcome.Message)
	}
}

func TestWaitForDropAlreadyPast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ts := NewTimeSync(server.URL)
	done := make(chan error, 1)
	go func() {
		done <- WaitForDrop(ts, time.Now().Add(-time.Minute), 10*time.Second)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WaitForDrop failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForDrop did not return for a drop time in the past")
	}
}
