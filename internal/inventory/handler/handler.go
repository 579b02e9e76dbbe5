// Package handler exposes the inventory endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"agapay/internal/inventory"
	"agapay/internal/inventory/service"
	"agapay/internal/ledger"
	"agapay/internal/platform/middleware"
	"agapay/internal/transport/http/shared"
	domainerrors "agapay/pkg/domain-errors"
)

// Service defines the inventory operations the handler needs.
type Service interface {
	CreateItem(ctx context.Context, req service.CreateItemRequest) (*inventory.Item, error)
	UpdateItem(ctx context.Context, itemID uuid.UUID, req service.UpdateItemRequest) (*inventory.Item, error)
	Get(ctx context.Context, itemID uuid.UUID) (*inventory.Item, error)
	List(ctx context.Context) ([]inventory.Item, error)
	ListLowStock(ctx context.Context) ([]inventory.Item, error)
	Restock(ctx context.Context, itemID, actorID uuid.UUID, quantity int, notes string) (*service.AdjustResult, error)
	SetQuantity(ctx context.Context, itemID, actorID uuid.UUID, quantity int, notes string) (*service.AdjustResult, error)
	Transactions(ctx context.Context) ([]ledger.Transaction, error)
	TransactionsByItem(ctx context.Context, itemID uuid.UUID) ([]ledger.Transaction, error)
}

// Handler handles inventory endpoints.
type Handler struct {
	logger       *slog.Logger
	service      Service
	jwtValidator middleware.JWTValidator
}

func New(service Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		jwtValidator: jwtValidator,
	}
}

// Register adds the inventory routes to the router behind bearer auth.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		r.Post("/inventory", h.handleCreateItem)
		r.Get("/inventory", h.handleListItems)
		r.Get("/inventory/low-stock", h.handleListLowStock)
		r.Get("/inventory/transactions", h.handleTransactions)
		r.Get("/inventory/{id}", h.handleGetItem)
		r.Put("/inventory/{id}", h.handleUpdateItem)
		r.Post("/inventory/{id}/restock", h.handleRestock)
		r.Put("/inventory/{id}/quantity", h.handleSetQuantity)
		r.Get("/inventory/{id}/transactions", h.handleItemTransactions)
	})
}

type createItemRequest struct {
	Name              string `json:"name"`
	Category          string `json:"category,omitempty"`
	Quantity          int    `json:"quantity"`
	Unit              string `json:"unit"`
	LowStockThreshold int    `json:"low_stock_threshold"`
}

type updateItemRequest struct {
	Name              string `json:"name"`
	Category          string `json:"category,omitempty"`
	Unit              string `json:"unit"`
	LowStockThreshold int    `json:"low_stock_threshold"`
}

type restockRequest struct {
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

type setQuantityRequest struct {
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

type itemResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Category          string    `json:"category,omitempty"`
	Quantity          int       `json:"quantity"`
	Unit              string    `json:"unit"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	LowStock          bool      `json:"low_stock"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type transactionResponse struct {
	ID             uuid.UUID  `json:"id"`
	ItemID         uuid.UUID  `json:"item_id"`
	ActorID        *uuid.UUID `json:"actor_id,omitempty"`
	Kind           string     `json:"kind"`
	Delta          int        `json:"delta"`
	QuantityBefore int        `json:"quantity_before"`
	QuantityAfter  int        `json:"quantity_after"`
	Notes          string     `json:"notes,omitempty"`
	ReferenceID    *uuid.UUID `json:"reference_id,omitempty"`
	ReferenceKind  string     `json:"reference_kind,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	item, err := h.service.CreateItem(ctx, service.CreateItemRequest{
		Name:              req.Name,
		Category:          req.Category,
		Quantity:          req.Quantity,
		Unit:              req.Unit,
		LowStockThreshold: req.LowStockThreshold,
		ActorID:           actorID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create inventory item failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toItemResponse(item))
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	item, err := h.service.UpdateItem(r.Context(), id, service.UpdateItemRequest{
		Name:              req.Name,
		Category:          req.Category,
		Unit:              req.Unit,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *Handler) handleRestock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.service.Restock(ctx, id, actorID, req.Quantity, req.Notes)
	if err != nil {
		h.logger.WarnContext(ctx, "restock failed",
			"request_id", middleware.GetRequestID(ctx),
			"item_id", id,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.service.SetQuantity(ctx, id, actorID, req.Quantity, req.Notes)
	if err != nil {
		h.logger.WarnContext(ctx, "set quantity failed",
			"request_id", middleware.GetRequestID(ctx),
			"item_id", id,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toItemResponses(items))
}

func (h *Handler) handleListLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListLowStock(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toItemResponses(items))
}

func (h *Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Transactions(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toTransactionResponses(entries))
}

func (h *Handler) handleItemTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.service.TransactionsByItem(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toTransactionResponses(entries))
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInternal, "authentication context error"))
		return uuid.Nil, false
	}
	actorID, err := uuid.Parse(userID)
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeUnauthorized, "invalid subject in token"))
		return uuid.Nil, false
	}
	return actorID, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

func toItemResponse(item *inventory.Item) itemResponse {
	return itemResponse{
		ID:                item.ID,
		Name:              item.Name,
		Category:          item.Category,
		Quantity:          item.Quantity,
		Unit:              item.Unit,
		LowStockThreshold: item.LowStockThreshold,
		LowStock:          item.LowStock(),
		CreatedAt:         item.CreatedAt,
		UpdatedAt:         item.UpdatedAt,
	}
}

func toItemResponses(items []inventory.Item) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for i := range items {
		out = append(out, toItemResponse(&items[i]))
	}
	return out
}

func toTransactionResponses(entries []ledger.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, transactionResponse{
			ID:             e.ID,
			ItemID:         e.ItemID,
			ActorID:        e.ActorID,
			Kind:           string(e.Kind),
			Delta:          e.Delta,
			QuantityBefore: e.QuantityBefore,
			QuantityAfter:  e.QuantityAfter,
			Notes:          e.Notes,
			ReferenceID:    e.ReferenceID,
			ReferenceKind:  e.ReferenceKind,
			CreatedAt:      e.CreatedAt,
		})
	}
	return out
}
