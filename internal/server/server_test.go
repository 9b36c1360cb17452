package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/storeswitch/itemapi/internal/auth"
	"github.com/storeswitch/itemapi/internal/config"
	"github.com/storeswitch/itemapi/internal/model"
	"github.com/storeswitch/itemapi/internal/store"
)

func newTestServer(t *testing.T, authenticator auth.Authenticator) *Server {
	t.Helper()

	cfg := &config.Config{
		ServerPort:     8080,
		LogLevel:       "info",
		MetricsEnabled: true,
		StorageType:    config.StorageMemory,
	}

	return New(cfg, zap.NewNop(), store.NewMemoryStore(), authenticator)
}

func TestServer_HealthEndpoint(t *testing.T) {
	// Arrange
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	// Act
	s.Router().ServeHTTP(rec, req)

	// Assert
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	// Arrange
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	// Act
	s.Router().ServeHTTP(rec, req)

	// Assert
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestServer_ItemCRUDThroughRouter(t *testing.T) {
	// Arrange
	s := newTestServer(t, nil)

	// Act - create
	body := []byte(`{"name":"Laptop","description":"portable","price":999.99}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	// Assert
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var created model.APIResponse[model.Item]
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding create response: %v", err)
	}

	// Act - read back
	req = httptest.NewRequest(http.MethodGet, "/api/v1/items/1", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	// Assert
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d, want %d", rec.Code, http.StatusOK)
	}

	// Act - delete
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/items/1", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	// Assert
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestServer_AuthProtectsItemRoutes(t *testing.T) {
	// Arrange
	authenticator, err := auth.NewAPIKeyAuthenticator("secret-key:service-a")
	if err != nil {
		t.Fatalf("NewAPIKeyAuthenticator() unexpected error: %v", err)
	}
	s := newTestServer(t, authenticator)

	// Act - no credentials
	req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	// Assert
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	// Act - health stays public
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", rec.Code, http.StatusOK)
	}

	// Act - valid key
	req = httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	req.Header.Set(auth.APIKeyHeader, "secret-key")
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestServer_RequestIDHeader(t *testing.T) {
	// Arrange
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	// Act
	s.Router().ServeHTTP(rec, req)

	// Assert
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("every response should carry a request ID")
	}
}

func TestServer_UnknownRoute(t *testing.T) {
	// Arrange
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	rec := httptest.NewRecorder()

	// Act
	s.Router().ServeHTTP(rec, req)

	// Assert
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
