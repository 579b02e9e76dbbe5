// Package handler exposes the beneficiary registry endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"agapay/internal/beneficiary"
	"agapay/internal/platform/middleware"
	"agapay/internal/transport/http/shared"
	domainerrors "agapay/pkg/domain-errors"
	"agapay/pkg/platform/sentinel"
)

// Handler handles beneficiary endpoints.
type Handler struct {
	logger       *slog.Logger
	store        beneficiary.Store
	jwtValidator middleware.JWTValidator
}

func New(store beneficiary.Store, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		store:        store,
		jwtValidator: jwtValidator,
	}
}

// Register adds the beneficiary routes to the router behind bearer auth.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		r.Post("/beneficiaries", h.handleCreate)
		r.Get("/beneficiaries", h.handleList)
		r.Get("/beneficiaries/{id}", h.handleGet)
	})
}

type createRequest struct {
	FullName string `json:"full_name"`
	Address  string `json:"address,omitempty"`
}

type beneficiaryResponse struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.FullName == "" {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "full name is required"))
		return
	}

	b := &beneficiary.Beneficiary{
		ID:        uuid.New(),
		FullName:  req.FullName,
		Address:   req.Address,
		CreatedAt: time.Now(),
	}
	if err := h.store.Create(ctx, b); err != nil {
		h.logger.ErrorContext(ctx, "create beneficiary failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, domainerrors.Wrap(err, domainerrors.CodeStorage, "create beneficiary"))
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toResponse(b))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	beneficiaries, err := h.store.List(r.Context())
	if err != nil {
		shared.WriteError(w, domainerrors.Wrap(err, domainerrors.CodeStorage, "list beneficiaries"))
		return
	}
	out := make([]beneficiaryResponse, 0, len(beneficiaries))
	for i := range beneficiaries {
		out = append(out, toResponse(&beneficiaries[i]))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid id"))
		return
	}
	b, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			shared.WriteError(w, domainerrors.New(domainerrors.CodeNotFound, "beneficiary not found"))
			return
		}
		shared.WriteError(w, domainerrors.Wrap(err, domainerrors.CodeStorage, "get beneficiary"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResponse(b))
}

func toResponse(b *beneficiary.Beneficiary) beneficiaryResponse {
	return beneficiaryResponse{
		ID:        b.ID,
		FullName:  b.FullName,
		Address:   b.Address,
		CreatedAt: b.CreatedAt,
	}
}
