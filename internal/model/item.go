// Package model defines data structures used throughout the application.
package model

import (
	"errors"
	"time"
)

// Validation errors for item payloads.
var (
	ErrNameTooShort     = errors.New("name must be at least 3 characters")
	ErrNameTooLong      = errors.New("name cannot exceed 50 characters")
	ErrPriceNotPositive = errors.New("price must be greater than zero")
	ErrDescriptionLimit = errors.New("description cannot exceed 200 characters")
)

// Validation constants.
const (
	MinNameLength        = 3
	MaxNameLength        = 50
	MaxDescriptionLength = 200
)

// Item represents a stored product or resource. The ID is assigned by the
// active storage backend at creation time and never changes afterwards.
type Item struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
}

// ItemDraft is the creation payload for an Item. It carries no identifier;
// the backend allocates one.
type ItemDraft struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
}

// Validate checks the draft against the item field constraints.
func (d *ItemDraft) Validate() error {
	if len(d.Name) < MinNameLength {
		return ErrNameTooShort
	}

	if len(d.Name) > MaxNameLength {
		return ErrNameTooLong
	}

	if d.Price <= 0 {
		return ErrPriceNotPositive
	}

	if len(d.Description) > MaxDescriptionLength {
		return ErrDescriptionLimit
	}

	return nil
}

// ItemPatch is a partial-update payload. Pointer fields distinguish
// "omitted" from "set to the zero value": nil fields keep the stored value,
// non-nil fields replace it.
type ItemPatch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
}

// Validate checks the fields that are set in the patch. Omitted fields are
// not validated because they keep their already-valid stored values.
func (p *ItemPatch) Validate() error {
	if p.Name != nil {
		if len(*p.Name) < MinNameLength {
			return ErrNameTooShort
		}
		if len(*p.Name) > MaxNameLength {
			return ErrNameTooLong
		}
	}

	if p.Price != nil && *p.Price <= 0 {
		return ErrPriceNotPositive
	}

	if p.Description != nil && len(*p.Description) > MaxDescriptionLength {
		return ErrDescriptionLimit
	}

	return nil
}

// Apply merges the patch onto an existing item and returns the merged copy.
// The item ID is never touched.
func (p *ItemPatch) Apply(item Item) Item {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	return item
}

// APIResponse is a generic wrapper for API responses.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewSuccessResponse creates a successful API response.
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error API response.
func NewErrorResponse[T any](errMsg string) APIResponse[T] {
	return APIResponse[T]{
		Success: false,
		Error:   errMsg,
	}
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ItemEvent represents an item change notification sent over a WebSocket
// connection.
type ItemEvent struct {
	Type      string    `json:"type"`
	ItemID    int64     `json:"item_id"`
	Item      *Item     `json:"item,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Item event types.
const (
	EventItemCreated = "item_created"
	EventItemUpdated = "item_updated"
	EventItemDeleted = "item_deleted"
)

// NewItemEvent creates an item change event. The item payload is included
// for create and update events and omitted for deletes.
func NewItemEvent(eventType string, id int64, item *Item) ItemEvent {
	return ItemEvent{
		Type:      eventType,
		ItemID:    id,
		Item:      item,
		Timestamp: time.Now().UTC(),
	}
}
