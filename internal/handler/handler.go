// Package handler provides HTTP request handlers for the item API.
package handler

import "github.com/storeswitch/itemapi/internal/model"

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// EventPublisher receives item change notifications from the REST handlers.
// The WebSocket handler implements it to fan events out to connected
// clients.
type EventPublisher interface {
	Publish(event model.ItemEvent)
}
