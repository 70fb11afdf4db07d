package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTimeSyncMeasuresOffset(t *testing.T) {
	// Server whose clock runs 90 seconds ahead of ours.
	skew := 90 * time.Second
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Date", time.Now().Add(skew).UTC().Format(http.TimeFormat))
	}))
	defer server.Close()

	ts := NewTimeSync(server.URL)
	if err := ts.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if !ts.Synced() {
		t.Error("Expected Synced() after a successful sync")
	}

	// The Date header only has second resolution; allow generous slack.
	offset := ts.Offset()
	if offset < skew-5*time.Second || offset > skew+5*time.Second {
		t.Errorf("Expected offset near %v, got %v", skew, offset)
	}

	adjusted := ts.Now().Sub(time.Now())
	if adjusted < skew-5*time.Second || adjusted > skew+5*time.Second {
		t.Errorf("Expected Now() to run ~%v ahead, got %v", skew, adjusted)
	}
}

func TestTimeSyncNoDateHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Suppress the automatic Date header.
		w.Header()["Date"] = nil
	}))
	defer server.Close()

	ts := NewTimeSync(server.URL)
	if err := ts.Sync(); err == nil {
		t.Error("Expected sync to fail when no server provides a Date header")
	}
	if ts.Synced() {
		t.Error("Expected Synced() to stay false after a failed sync")
	}
}

func TestTimeSyncUnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	ts := NewTimeSync(server.URL)
	if err := ts.Sync(); err == nil {
		t.Error("Expected sync against a closed server to fail")
	}
}

func TestTimeSyncNowBeforeSync(t *testing.T) {
	ts := NewTimeSync("http://127.0.0.1:0")

	diff := ts.Now().Sub(time.Now())
	if diff < -time.Second || diff > time.Second {
		t.Errorf("Expected unsynced Now() to track the local clock, diff %v", diff)
	}
}

func TestTimeSyncShouldResync(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ts := NewTimeSync(server.URL)
	if !ts.ShouldResync() {
		t.Error("Expected an unsynced instance to want a sync")
	}

	if err := ts.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if ts.ShouldResync() {
		t.Error("Expected a fresh sync to suppress resync")
	}

	ts.lastSync = time.Now().Add(-2 * time.Hour)
	if !ts.ShouldResync() {
		t.Error("Expected a stale sync to want a resync")
	}
}
