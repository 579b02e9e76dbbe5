// Package handler exposes the distribution endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"agapay/internal/distribution"
	"agapay/internal/distribution/service"
	"agapay/internal/platform/middleware"
	"agapay/internal/transport/http/shared"
	domainerrors "agapay/pkg/domain-errors"
)

// Service defines the distribution operations the handler needs.
type Service interface {
	Create(ctx context.Context, req service.CreateRequest) (*distribution.Distribution, error)
	Void(ctx context.Context, id uuid.UUID, actorID uuid.UUID) ([]distribution.ItemRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*distribution.Record, error)
	List(ctx context.Context) ([]distribution.Record, error)
	ListByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) ([]distribution.Record, error)
	Stats(ctx context.Context, beneficiaryID uuid.UUID) (*distribution.Stats, error)
}

// Handler handles distribution endpoints.
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

// Register adds the distribution routes to the router. Every route requires
// a valid bearer token; the token's subject is the recorded actor for
// mutations.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		r.Post("/distributions", h.handleCreate)
		r.Get("/distributions", h.handleList)
		r.Get("/distributions/{id}", h.handleGet)
		r.Delete("/distributions/{id}", h.handleVoid)
		r.Get("/beneficiaries/{id}/distributions", h.handleListByBeneficiary)
		r.Get("/beneficiaries/{id}/stats", h.handleStats)
	})
}

type createRequest struct {
	BeneficiaryID uuid.UUID           `json:"beneficiary_id"`
	CalamityID    *uuid.UUID          `json:"calamity_id,omitempty"`
	Notes         string              `json:"notes,omitempty"`
	Items         []createRequestItem `json:"items"`
}

type createRequestItem struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

type distributionResponse struct {
	ID            uuid.UUID          `json:"id"`
	BeneficiaryID uuid.UUID          `json:"beneficiary_id"`
	CalamityID    *uuid.UUID         `json:"calamity_id,omitempty"`
	DistributedBy uuid.UUID          `json:"distributed_by"`
	Notes         string             `json:"notes,omitempty"`
	DistributedAt time.Time          `json:"distributed_at"`
	Items         []lineItemResponse `json:"items"`
}

type lineItemResponse struct {
	ID       uuid.UUID `json:"id"`
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

type recordResponse struct {
	ID                uuid.UUID            `json:"id"`
	BeneficiaryID     uuid.UUID            `json:"beneficiary_id"`
	BeneficiaryName   string               `json:"beneficiary_name"`
	CalamityID        *uuid.UUID           `json:"calamity_id,omitempty"`
	CalamityName      string               `json:"calamity_name,omitempty"`
	DistributedBy     uuid.UUID            `json:"distributed_by"`
	DistributedByName string               `json:"distributed_by_name,omitempty"`
	Notes             string               `json:"notes,omitempty"`
	DistributedAt     time.Time            `json:"distributed_at"`
	Items             []itemRecordResponse `json:"items"`
}

type itemRecordResponse struct {
	ID       uuid.UUID `json:"id"`
	ItemID   uuid.UUID `json:"item_id"`
	ItemName string    `json:"item_name,omitempty"`
	Unit     string    `json:"unit,omitempty"`
	Quantity int       `json:"quantity"`
}

type voidResponse struct {
	ID            uuid.UUID            `json:"id"`
	RestoredItems []itemRecordResponse `json:"restored_items"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	items := make([]service.RequestItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.RequestItem{ItemID: item.ItemID, Quantity: item.Quantity})
	}

	d, err := h.service.Create(ctx, service.CreateRequest{
		BeneficiaryID: req.BeneficiaryID,
		CalamityID:    req.CalamityID,
		DistributedBy: actorID,
		Notes:         req.Notes,
		Items:         items,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create distribution failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, toDistributionResponse(d))
}

func (h *Handler) handleVoid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	restored, err := h.service.Void(ctx, id, actorID)
	if err != nil {
		h.logger.WarnContext(ctx, "void distribution failed",
			"request_id", middleware.GetRequestID(ctx),
			"distribution_id", id,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, voidResponse{
		ID:            id,
		RestoredItems: toItemRecordResponses(restored),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRecordResponses(records))
}

func (h *Handler) handleListByBeneficiary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	records, err := h.service.ListByBeneficiary(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRecordResponses(records))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	stats, err := h.service.Stats(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, stats)
}

// actor resolves the authenticated user ID set by RequireAuth.
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

func toDistributionResponse(d *distribution.Distribution) distributionResponse {
	resp := distributionResponse{
		ID:            d.ID,
		BeneficiaryID: d.BeneficiaryID,
		CalamityID:    d.CalamityID,
		DistributedBy: d.DistributedBy,
		Notes:         d.Notes,
		DistributedAt: d.DistributedAt,
		Items:         []lineItemResponse{},
	}
	for _, item := range d.Items {
		resp.Items = append(resp.Items, lineItemResponse{
			ID:       item.ID,
			ItemID:   item.ItemID,
			Quantity: item.Quantity,
		})
	}
	return resp
}

func toRecordResponse(rec *distribution.Record) recordResponse {
	return recordResponse{
		ID:                rec.ID,
		BeneficiaryID:     rec.BeneficiaryID,
		BeneficiaryName:   rec.BeneficiaryName,
		CalamityID:        rec.CalamityID,
		CalamityName:      rec.CalamityName,
		DistributedBy:     rec.DistributedBy,
		DistributedByName: rec.DistributedByName,
		Notes:             rec.Notes,
		DistributedAt:     rec.DistributedAt,
		Items:             toItemRecordResponses(rec.Items),
	}
}

func toRecordResponses(records []distribution.Record) []recordResponse {
	out := make([]recordResponse, 0, len(records))
	for i := range records {
		out = append(out, toRecordResponse(&records[i]))
	}
	return out
}

func toItemRecordResponses(items []distribution.ItemRecord) []itemRecordResponse {
	out := make([]itemRecordResponse, 0, len(items))
	for _, item := range items {
		out = append(out, itemRecordResponse{
			ID:       item.ID,
			ItemID:   item.ItemID,
			ItemName: item.ItemName,
			Unit:     item.Unit,
			Quantity: item.Quantity,
		})
	}
	return out
}
