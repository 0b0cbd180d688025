package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobmcallan/investflow/internal/app"
	"github.com/bobmcallan/investflow/internal/common"
	"github.com/bobmcallan/investflow/internal/server"
	tcommon "github.com/bobmcallan/investflow/tests/common"
)

// testServer starts the full investflow-server handler and session event
// loop over in-memory stores.
func testServer(t *testing.T) (*httptest.Server, *tcommon.MockStorageManager) {
	t.Helper()
	storage := tcommon.NewMockStorageManager()
	a := app.New(common.NewDefaultConfig(), common.NewSilentLogger(), app.Deps{
		Storage:      storage,
		PositionFeed: &tcommon.MockPositionFeed{},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.RunSessionEvents(ctx)
		close(done)
	}()

	srv := server.NewServer(a)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-done
		a.Close()
	})
	return ts, storage
}

// TestHealthEndpoint verifies GET /api/health returns 200 with {"status":"ok"}.
func TestHealthEndpoint(t *testing.T) {
	ts, _ := testServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status=ok, got %q", body["status"])
	}
}

// TestVersionEndpoint verifies GET /api/version returns version info.
func TestVersionEndpoint(t *testing.T) {
	ts, _ := testServer(t)

	resp, err := http.Get(ts.URL + "/api/version")
	if err != nil {
		t.Fatalf("GET /api/version failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["version"] == "" {
		t.Error("Expected non-empty version field")
	}
}

// TestSignInLoadsWorkspace verifies that registering through the API
// triggers a workspace load through the session event loop.
func TestSignInLoadsWorkspace(t *testing.T) {
	ts, storage := testServer(t)

	payload, _ := json.Marshal(map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	resp, err := http.Post(ts.URL+"/api/auth/register", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /api/auth/register failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for storage.Holdings.FetchCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Expected the workspace to be loaded after sign-in")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestNewApp_MalformedConfig verifies startup fails on a config that does not parse.
func TestNewApp_MalformedConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("[server\nport = "), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := app.NewApp(path); err == nil {
		t.Error("Expected NewApp to fail on malformed config")
	}
}
