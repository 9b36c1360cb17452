//go:build functional

package functional

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/storeswitch/itemapi/internal/model"
)

func TestItemLifecycle_AllBackends(t *testing.T) {
	for name, cfg := range backendConfigs(t) {
		t.Run(name, func(t *testing.T) {
			ts := StartTestServer(t, cfg)

			// Create
			resp := ts.doRequest(http.MethodPost, "/api/v1/items", model.ItemDraft{
				Name:        "Laptop",
				Description: "A portable computer",
				Price:       999.99,
			})
			if resp.StatusCode != http.StatusCreated {
				t.Fatalf("create status = %d, body = %s", resp.StatusCode, resp.Body)
			}

			var created model.Item
			decodeData(t, resp.Body, &created)
			if created.ID <= 0 {
				t.Fatal("created item should carry a backend-assigned ID")
			}

			itemPath := fmt.Sprintf("/api/v1/items/%d", created.ID)

			// Read back
			resp = ts.doRequest(http.MethodGet, itemPath, nil)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("get status = %d", resp.StatusCode)
			}

			var fetched model.Item
			decodeData(t, resp.Body, &fetched)
			if fetched != created {
				t.Errorf("fetched item = %+v, want %+v", fetched, created)
			}

			// Partial update: rename only, other fields keep their values.
			resp = ts.doRequest(http.MethodPut, itemPath, map[string]any{"name": "Laptop Pro"})
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("update status = %d, body = %s", resp.StatusCode, resp.Body)
			}

			var updated model.Item
			decodeData(t, resp.Body, &updated)
			if updated.Name != "Laptop Pro" {
				t.Errorf("Name = %s, want Laptop Pro", updated.Name)
			}
			if updated.Description != created.Description || updated.Price != created.Price {
				t.Error("omitted fields should keep their stored values")
			}

			// Delete
			resp = ts.doRequest(http.MethodDelete, itemPath, nil)
			if resp.StatusCode != http.StatusNoContent {
				t.Fatalf("delete status = %d", resp.StatusCode)
			}

			// Gone afterwards
			resp = ts.doRequest(http.MethodGet, itemPath, nil)
			if resp.StatusCode != http.StatusNotFound {
				t.Errorf("get after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
			}

			resp = ts.doRequest(http.MethodDelete, itemPath, nil)
			if resp.StatusCode != http.StatusNotFound {
				t.Errorf("second delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
			}
		})
	}
}

func TestListFiltering_AllBackends(t *testing.T) {
	for name, cfg := range backendConfigs(t) {
		t.Run(name, func(t *testing.T) {
			ts := StartTestServer(t, cfg)

			drafts := []model.ItemDraft{
				{Name: "Apple", Price: 10},
				{Name: "Orange", Price: 20},
				{Name: "Pineapple", Price: 30},
			}
			for _, draft := range drafts {
				resp := ts.doRequest(http.MethodPost, "/api/v1/items", draft)
				if resp.StatusCode != http.StatusCreated {
					t.Fatalf("seeding item: status = %d", resp.StatusCode)
				}
			}

			tests := []struct {
				name      string
				query     string
				wantCount int
			}{
				{name: "all items", query: "", wantCount: 3},
				{name: "name substring", query: "?name_filter=apple", wantCount: 2},
				{name: "min price", query: "?min_price=25", wantCount: 1},
				{name: "min price inclusive", query: "?min_price=20", wantCount: 2},
				{name: "combined", query: "?name_filter=apple&min_price=25", wantCount: 1},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					resp := ts.doRequest(http.MethodGet, "/api/v1/items"+tt.query, nil)
					if resp.StatusCode != http.StatusOK {
						t.Fatalf("list status = %d", resp.StatusCode)
					}

					var items []model.Item
					decodeData(t, resp.Body, &items)
					if len(items) != tt.wantCount {
						t.Errorf("got %d items, want %d", len(items), tt.wantCount)
					}
				})
			}

			// Invalid filters are rejected before the store runs.
			for _, query := range []string{"?min_price=abc", "?min_price=0", "?min_price=-1"} {
				resp := ts.doRequest(http.MethodGet, "/api/v1/items"+query, nil)
				if resp.StatusCode != http.StatusBadRequest {
					t.Errorf("query %s: status = %d, want %d", query, resp.StatusCode, http.StatusBadRequest)
				}
			}
		})
	}
}

func TestValidationErrors(t *testing.T) {
	cfg := backendConfigs(t)["memory"]
	ts := StartTestServer(t, cfg)

	tests := []struct {
		name string
		body model.ItemDraft
	}{
		{name: "name too short", body: model.ItemDraft{Name: "ab", Price: 10}},
		{name: "zero price", body: model.ItemDraft{Name: "Valid Name", Price: 0}},
		{name: "negative price", body: model.ItemDraft{Name: "Valid Name", Price: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.doRequest(http.MethodPost, "/api/v1/items", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
			}
		})
	}
}

func TestRequestIDPropagation(t *testing.T) {
	cfg := backendConfigs(t)["memory"]
	ts := StartTestServer(t, cfg)

	resp := ts.doRequest(http.MethodGet, "/health", nil)
	if resp.Headers.Get("X-Request-ID") == "" {
		t.Error("response should carry a request ID header")
	}
}
