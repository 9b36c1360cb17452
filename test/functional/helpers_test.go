//go:build functional

// Package functional provides functional tests that run the full server,
// middleware chain included, against a real TCP listener.
package functional

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"github.com/storeswitch/itemapi/internal/config"
	"github.com/storeswitch/itemapi/internal/server"
	"github.com/storeswitch/itemapi/internal/store"
)

// Test timeouts.
const (
	readyTimeout    = 10 * time.Second
	requestTimeout  = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// TestServer runs the full server on a real port against a configurable
// storage backend.
type TestServer struct {
	Server  *server.Server
	BaseURL string
	WSURL   string
	t       *testing.T
}

// StartTestServer builds and starts a server over the given backend
// configuration. The server is stopped automatically when the test ends.
func StartTestServer(t *testing.T, cfg *config.Config) *TestServer {
	t.Helper()

	// Find an available port.
	listener, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("finding available port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	cfg.ServerPort = port

	provider, err := store.NewProvider(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("creating storage backend: %v", err)
	}
	t.Cleanup(func() { provider.Close() })

	srv := server.New(cfg, zap.NewNop(), provider.Store(), nil)

	ts := &TestServer{
		Server:  srv,
		BaseURL: fmt.Sprintf("http://localhost:%d", port),
		WSURL:   fmt.Sprintf("ws://localhost:%d", port),
		t:       t,
	}

	go func() {
		if err := srv.Start(); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			t.Logf("server shutdown error: %v", err)
		}
	})

	ts.waitForReady()
	return ts
}

// backendConfigs returns a server configuration per storage backend. The
// Redis backend runs against an in-process server.
func backendConfigs(t *testing.T) map[string]*config.Config {
	t.Helper()

	redisSrv := miniredis.RunT(t)

	return map[string]*config.Config{
		"memory": {
			LogLevel:        "error",
			ShutdownTimeout: shutdownTimeout,
			StorageType:     config.StorageMemory,
		},
		"sqlite": {
			LogLevel:        "error",
			ShutdownTimeout: shutdownTimeout,
			StorageType:     config.StorageSQLite,
			SQLitePath:      filepath.Join(t.TempDir(), "items.db"),
		},
		"redis": {
			LogLevel:        "error",
			ShutdownTimeout: shutdownTimeout,
			StorageType:     config.StorageRedis,
			RedisAddr:       redisSrv.Addr(),
		},
	}
}

// waitForReady polls the health endpoint until the server answers.
func (ts *TestServer) waitForReady() {
	ctx, cancel := context.WithTimeout(context.Background(), readyTimeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ts.t.Fatalf("server did not become ready within %v", readyTimeout)
		case <-ticker.C:
			resp, err := http.Get(ts.BaseURL + "/health")
			if err == nil {
				resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return
				}
			}
		}
	}
}

// Response captures a decoded HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// doRequest executes one HTTP request against the test server.
func (ts *TestServer) doRequest(method, path string, body any) *Response {
	ts.t.Helper()

	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			ts.t.Fatalf("marshaling request body: %v", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, ts.BaseURL+path, bodyReader)
	if err != nil {
		ts.t.Fatalf("creating request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		ts.t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		ts.t.Fatalf("reading response body: %v", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}
}

// decodeData unmarshals the data field of a wrapped API response.
func decodeData(t *testing.T, body []byte, out any) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error,omitempty"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decoding response envelope: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("response not successful: %s", envelope.Error)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			t.Fatalf("decoding response data: %v", err)
		}
	}
}
