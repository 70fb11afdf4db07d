package main

import (
	"fmt"
	"net/http"
	"time"
)

// TimeSync estimates the offset between the local clock and the
// retailer's servers so drop timing does not depend on the machine's
// clock being right.
type TimeSync struct {
	servers  []string
	offset   time.Duration
	lastSync time.Time
	synced   bool
}

// NewTimeSync measures against the given servers, falling back to
// well-known hosts when none are supplied.
func NewTimeSync(servers ...string) *TimeSync {
	if len(servers) == 0 {
		servers = []string{
			"https://www.google.com",
			"https://www.cloudflare.com",
		}
	}
	return &TimeSync{servers: servers}
}

// Sync measures the offset against each server with an HTTP HEAD
// request and averages the successful samples.
func (ts *TimeSync) Sync() error {
	var total time.Duration
	samples := 0

	for _, server := range ts.servers {
		offset, err := ts.sample(server)
		if err != nil {
			continue
		}
		total += offset
		samples++
	}

	if samples == 0 {
		return fmt.Errorf("failed to sync time with any server")
	}

	ts.offset = total / time.Duration(samples)
	ts.lastSync = time.Now()
	ts.synced = true
	return nil
}

// sample derives one offset measurement from a server's Date header,
// compensating for half the round trip.
func (ts *TimeSync) sample(server string) (time.Duration, error) {
	client := &http.Client{Timeout: 5 * time.Second}

	before := time.Now()
	req, err := http.NewRequest(http.MethodHead, server, nil)
	if err != nil {
		return 0, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	after := time.Now()

	dateHeader := resp.Header.Get("Date")
	if dateHeader == "" {
		return 0, fmt.Errorf("no Date header in response")
	}

	serverTime, err := http.ParseTime(dateHeader)
	if err != nil {
		return 0, fmt.Errorf("failed to parse Date header: %w", err)
	}

	latency := after.Sub(before) / 2
	return serverTime.Sub(before.Add(latency)), nil
}

// Now returns the offset-adjusted current time, or plain local time
// before the first successful sync.
func (ts *TimeSync) Now() time.Time {
	if !ts.synced {
		return time.Now()
	}
	return time.Now().Add(ts.offset)
}

func (ts *TimeSync) Synced() bool {
	return ts.synced
}

func (ts *TimeSync) Offset() time.Duration {
	return ts.offset
}

// ShouldResync reports whether the last measurement is old enough to
// repeat.
func (ts *TimeSync) ShouldResync() bool {
	if !ts.synced {
		return true
	}
	return time.Since(ts.lastSync) > time.Hour
}
