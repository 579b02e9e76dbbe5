// Package handler exposes the calamity endpoints, including the standard kit
// template used to pre-fill distribution forms.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"agapay/internal/calamity"
	"agapay/internal/inventory"
	"agapay/internal/platform/middleware"
	"agapay/internal/transport/http/shared"
	domainerrors "agapay/pkg/domain-errors"
	"agapay/pkg/platform/sentinel"
)

// ItemReader resolves inventory items for kit enrichment.
type ItemReader interface {
	GetItem(ctx context.Context, id uuid.UUID) (*inventory.Item, error)
}

// Handler handles calamity endpoints.
type Handler struct {
	logger       *slog.Logger
	store        calamity.Store
	items        ItemReader
	jwtValidator middleware.JWTValidator
}

func New(store calamity.Store, items ItemReader, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		store:        store,
		items:        items,
		jwtValidator: jwtValidator,
	}
}

// Register adds the calamity routes to the router behind bearer auth.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		r.Post("/calamities", h.handleCreate)
		r.Get("/calamities", h.handleList)
		r.Get("/calamities/{id}", h.handleGet)
		r.Get("/calamities/{id}/kit", h.handleKit)
	})
}

type createRequest struct {
	Name   string           `json:"name"`
	Status string           `json:"status,omitempty"`
	Kit    []kitItemRequest `json:"kit,omitempty"`
}

type kitItemRequest struct {
	ItemID           uuid.UUID `json:"item_id"`
	StandardQuantity int       `json:"standard_quantity"`
}

type calamityResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// kitItemResponse is a distribution form line ready for prefill: the template
// quantity next to what is actually on hand.
type kitItemResponse struct {
	ItemID           uuid.UUID `json:"item_id"`
	ItemName         string    `json:"item_name,omitempty"`
	Unit             string    `json:"unit,omitempty"`
	StandardQuantity int       `json:"standard_quantity"`
	Available        int       `json:"available"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Name == "" {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "calamity name is required"))
		return
	}
	status := calamity.Status(req.Status)
	if status == "" {
		status = calamity.StatusActive
	}
	if status != calamity.StatusActive && status != calamity.StatusInactive {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid status"))
		return
	}
	kit := make([]calamity.KitItem, 0, len(req.Kit))
	for _, item := range req.Kit {
		if item.ItemID == uuid.Nil || item.StandardQuantity < 1 {
			shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid kit line"))
			return
		}
		kit = append(kit, calamity.KitItem{ItemID: item.ItemID, StandardQuantity: item.StandardQuantity})
	}

	c := &calamity.Calamity{
		ID:        uuid.New(),
		Name:      req.Name,
		Status:    status,
		CreatedAt: time.Now(),
	}
	if err := h.store.Create(ctx, c, kit); err != nil {
		h.logger.ErrorContext(ctx, "create calamity failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, domainerrors.Wrap(err, domainerrors.CodeStorage, "create calamity"))
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toResponse(c))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	calamities, err := h.store.List(r.Context())
	if err != nil {
		shared.WriteError(w, domainerrors.Wrap(err, domainerrors.CodeStorage, "list calamities"))
		return
	}
	out := make([]calamityResponse, 0, len(calamities))
	for i := range calamities {
		out = append(out, toResponse(&calamities[i]))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResponse(c))
}

// handleKit returns the calamity's standard kit with current stock levels.
// Read-only: nothing is reserved or deducted until a distribution is created.
func (h *Handler) handleKit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.store.Get(ctx, id); err != nil {
		h.writeStoreError(w, err)
		return
	}
	kit, err := h.store.GetKit(ctx, id)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	out := make([]kitItemResponse, 0, len(kit))
	for _, line := range kit {
		resp := kitItemResponse{ItemID: line.ItemID, StandardQuantity: line.StandardQuantity}
		item, err := h.items.GetItem(ctx, line.ItemID)
		if err == nil {
			resp.ItemName = item.Name
			resp.Unit = item.Unit
			resp.Available = item.Quantity
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			h.writeStoreError(w, err)
			return
		}
		out = append(out, resp)
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, sentinel.ErrNotFound) {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeNotFound, "calamity not found"))
		return
	}
	shared.WriteError(w, domainerrors.Wrap(err, domainerrors.CodeStorage, "calamity storage"))
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

func toResponse(c *calamity.Calamity) calamityResponse {
	return calamityResponse{
		ID:        c.ID,
		Name:      c.Name,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt,
	}
}
