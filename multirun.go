package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
)

// AttemptSpec names one independent checkout attempt.
type AttemptSpec struct {
	SKU      string
	Size     string
	Quantity int
}

// AttemptResult pairs a spec with its run outcome. Results come back in
// spec order regardless of which attempt finishes first.
type AttemptResult struct {
	SKU     string
	Size    string
	Outcome Outcome
}

// RunAttempts runs the given attempts concurrently. Each attempt owns
// its own Client and SessionState seeded from the shared read-only
// config, so runs cannot observe each other's cart or guest identity.
func RunAttempts(ctx context.Context, config *Config, specs []AttemptSpec) ([]AttemptResult, error) {
	results := make([]AttemptResult, len(specs))

	g, ctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			outcome, err := runAttempt(ctx, config, spec)
			if err != nil {
				return err
			}
			results[i] = AttemptResult{SKU: spec.SKU, Size: spec.Size, Outcome: outcome}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runAttempt(ctx context.Context, config *Config, spec AttemptSpec) (Outcome, error) {
	client, err := NewClient(config)
	if err != nil {
		return Outcome{}, err
	}

	session, err := NewSessionState(config.Cookies, config.DefaultHeaders())
	if err != nil {
		return Outcome{FailureKind: FailureConfiguration, Message: err.Error()}, nil
	}

	req := CheckoutRequest{
		SKU:      spec.SKU,
		Size:     spec.Size,
		Quantity: spec.Quantity,
		Contact:  config.Contact,
		Shipping: config.Shipping,
		Payment:  config.Payment,
	}

	orchestrator := NewOrchestrator(client, session, MockAdyenEncryptor{})
	return orchestrator.Run(ctx, req), nil
}

// WaitForDrop sleeps until startBefore ahead of the drop time, keeping
// the clock honest against the retailer's servers along the way.
func WaitForDrop(timeSync *TimeSync, dropTime time.Time, startBefore time.Duration) error {
	if err := timeSync.Sync(); err != nil {
		return fmt.Errorf("failed to sync time: %w", err)
	}
	log.Printf("clock offset vs server: %v", timeSync.Offset())

	target := dropTime.Add(-startBefore)
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		remaining := target.Sub(timeSync.Now())
		if remaining <= 0 {
			return nil
		}
		if remaining < 30*time.Second {
			time.Sleep(remaining)
			return nil
		}

		log.Printf("drop in %v, holding", dropTime.Sub(timeSync.Now()).Round(time.Second))
		<-ticker.C

		if timeSync.ShouldResync() {
			if err := timeSync.Sync(); err != nil {
				log.Printf("resync failed, keeping previous offset: %v", err)
			}
		}
	}
}
