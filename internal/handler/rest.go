package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/storeswitch/itemapi/internal/model"
	"github.com/storeswitch/itemapi/internal/store"
)

// Version is the application version.
const Version = "1.0.0"

// Query parameter names for item listing.
const (
	QueryNameFilter = "name_filter"
	QueryMinPrice   = "min_price"
)

// RESTHandler handles REST API requests for items.
type RESTHandler struct {
	store  store.Store
	logger *zap.Logger
	events EventPublisher
}

// NewRESTHandler creates a new RESTHandler instance. The event publisher
// may be nil, in which case item change events are not emitted.
func NewRESTHandler(s store.Store, logger *zap.Logger, events EventPublisher) *RESTHandler {
	return &RESTHandler{
		store:  s,
		logger: logger,
		events: events,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items", h.ListItems).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items", h.CreateItem).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/items/{id}", h.GetItem).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items/{id}", h.UpdateItem).Methods(http.MethodPut)
	router.HandleFunc("/api/v1/items/{id}", h.DeleteItem).Methods(http.MethodDelete)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:  "healthy",
		Version: Version,
	}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(response))
}

// ListItems handles GET /api/v1/items requests. The optional name_filter
// parameter selects items whose name contains the value case-insensitively;
// the optional min_price parameter must be a number greater than zero and
// selects items priced at or above it.
func (h *RESTHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := parseListFilter(r)
	if err != nil {
		h.logger.Warn("invalid list filter", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.store.List(ctx, filter)
	if err != nil {
		h.logger.Error("failed to list items", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to retrieve items")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(items))
}

// GetItem handles GET /api/v1/items/{id} requests.
func (h *RESTHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	item, err := h.store.Get(ctx, id)
	if err != nil {
		h.handleStoreError(w, err, "get item")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(item))
}

// CreateItem handles POST /api/v1/items requests.
func (h *RESTHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var draft model.ItemDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := draft.Validate(); err != nil {
		h.logger.Warn("validation failed", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.store.Create(ctx, draft)
	if err != nil {
		h.handleStoreError(w, err, "create item")
		return
	}

	h.publish(model.NewItemEvent(model.EventItemCreated, item.ID, item))
	h.writeJSON(w, http.StatusCreated, model.NewSuccessResponse(item))
}

// UpdateItem handles PUT /api/v1/items/{id} requests. The body is a partial
// payload: fields absent from it keep their stored values.
func (h *RESTHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var patch model.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := patch.Validate(); err != nil {
		h.logger.Warn("validation failed", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.store.Update(ctx, id, patch)
	if err != nil {
		h.handleStoreError(w, err, "update item")
		return
	}

	h.publish(model.NewItemEvent(model.EventItemUpdated, item.ID, item))
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(item))
}

// DeleteItem handles DELETE /api/v1/items/{id} requests.
func (h *RESTHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	deleted, err := h.store.Delete(ctx, id)
	if err != nil {
		h.handleStoreError(w, err, "delete item")
		return
	}

	if !deleted {
		h.writeError(w, http.StatusNotFound, "item not found")
		return
	}

	h.publish(model.NewItemEvent(model.EventItemDeleted, id, nil))
	h.writeJSON(w, http.StatusNoContent, nil)
}

// itemID parses the {id} path variable. On failure it writes a 400 response
// and returns false.
func (h *RESTHandler) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	vars := mux.Vars(r)

	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "item ID must be an integer")
		return 0, false
	}

	return id, true
}

// parseListFilter builds a store.ListFilter from the request query. A
// supplied min_price that is not a number or not greater than zero is
// rejected here, before the store is invoked.
func parseListFilter(r *http.Request) (store.ListFilter, error) {
	filter := store.ListFilter{
		Name: r.URL.Query().Get(QueryNameFilter),
	}

	if raw := r.URL.Query().Get(QueryMinPrice); raw != "" {
		minPrice, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return store.ListFilter{}, errors.New("min_price must be a number")
		}
		if minPrice <= 0 {
			return store.ListFilter{}, errors.New("min_price must be greater than zero")
		}
		filter.MinPrice = minPrice
	}

	return filter, nil
}

// publish emits an item change event if a publisher is attached.
func (h *RESTHandler) publish(event model.ItemEvent) {
	if h.events != nil {
		h.events.Publish(event)
	}
}

// handleStoreError handles store errors and writes appropriate HTTP responses.
// A not-found result is an expected outcome and is never logged as an error;
// everything else is a backend fault.
func (h *RESTHandler) handleStoreError(w http.ResponseWriter, err error, operation string) {
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "item not found")
		return
	}

	h.logger.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
	h.writeError(w, http.StatusInternalServerError, "internal server error")
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	response := model.ErrorResponse{
		Code:    status,
		Message: message,
	}
	h.writeJSON(w, status, response)
}
