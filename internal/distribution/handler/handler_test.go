package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"agapay/internal/distribution"
	"agapay/internal/distribution/handler/mocks"
	"agapay/internal/distribution/service"
	"agapay/internal/platform/middleware"
	domainerrors "agapay/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/distribution-mocks.go -package=mocks Service
type DistributionHandlerSuite struct {
	suite.Suite
	ctx     context.Context
	actorID uuid.UUID
}

func (s *DistributionHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
	s.actorID = uuid.New()
}

func TestDistributionHandlerSuite(t *testing.T) {
	suite.Run(t, new(DistributionHandlerSuite))
}

func newTestHandler(t *testing.T) (*Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(mockService, logger, nil), mockService
}

func (s *DistributionHandlerSuite) authed(req *http.Request) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyUserID, s.actorID.String())
	return req.WithContext(ctx)
}

func withPathID(req *http.Request, id uuid.UUID) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func (s *DistributionHandlerSuite) TestHandleCreate() {
	handler, mockService := newTestHandler(s.T())

	beneficiaryID := uuid.New()
	itemID := uuid.New()
	distributedAt := time.Date(2025, 11, 8, 9, 0, 0, 0, time.UTC)
	created := &distribution.Distribution{
		ID:            uuid.New(),
		BeneficiaryID: beneficiaryID,
		DistributedBy: s.actorID,
		DistributedAt: distributedAt,
		Items: []distribution.LineItem{
			{ID: uuid.New(), ItemID: itemID, Quantity: 30},
		},
	}
	mockService.EXPECT().Create(gomock.Any(), service.CreateRequest{
		BeneficiaryID: beneficiaryID,
		DistributedBy: s.actorID,
		Items:         []service.RequestItem{{ItemID: itemID, Quantity: 30}},
	}).Return(created, nil)

	body, err := json.Marshal(createRequest{
		BeneficiaryID: beneficiaryID,
		Items:         []createRequestItem{{ItemID: itemID, Quantity: 30}},
	})
	require.NoError(s.T(), err)

	req := s.authed(httptest.NewRequest(http.MethodPost, "/distributions", bytes.NewReader(body)))
	w := httptest.NewRecorder()
	handler.handleCreate(w, req)

	assert.Equal(s.T(), http.StatusCreated, w.Code)
	var resp distributionResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), created.ID, resp.ID)
	assert.Equal(s.T(), s.actorID, resp.DistributedBy)
	require.Len(s.T(), resp.Items, 1)
	assert.Equal(s.T(), 30, resp.Items[0].Quantity)
}

func (s *DistributionHandlerSuite) TestHandleCreateInvalidBody() {
	handler, _ := newTestHandler(s.T())

	req := s.authed(httptest.NewRequest(http.MethodPost, "/distributions", bytes.NewReader([]byte("{not json"))))
	w := httptest.NewRecorder()
	handler.handleCreate(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *DistributionHandlerSuite) TestHandleCreateMissingActor() {
	handler, _ := newTestHandler(s.T())

	req := httptest.NewRequest(http.MethodPost, "/distributions", bytes.NewReader([]byte("{}")))
	w := httptest.NewRecorder()
	handler.handleCreate(w, req)

	assert.Equal(s.T(), http.StatusInternalServerError, w.Code)
}

func (s *DistributionHandlerSuite) TestHandleCreateServiceError() {
	handler, mockService := newTestHandler(s.T())
	mockService.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(nil, domainerrors.New(domainerrors.CodeNotFound, "beneficiary not found"))

	req := s.authed(httptest.NewRequest(http.MethodPost, "/distributions", bytes.NewReader([]byte(`{"beneficiary_id":"`+uuid.NewString()+`","items":[]}`))))
	w := httptest.NewRecorder()
	handler.handleCreate(w, req)

	assert.Equal(s.T(), http.StatusNotFound, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "not_found", resp["error"])
}

func (s *DistributionHandlerSuite) TestHandleVoid() {
	handler, mockService := newTestHandler(s.T())

	id := uuid.New()
	itemID := uuid.New()
	mockService.EXPECT().Void(gomock.Any(), id, s.actorID).
		Return([]distribution.ItemRecord{
			{ID: uuid.New(), ItemID: itemID, ItemName: "Rice", Unit: "sack", Quantity: 2},
		}, nil)

	req := withPathID(s.authed(httptest.NewRequest(http.MethodDelete, "/distributions/"+id.String(), nil)), id)
	w := httptest.NewRecorder()
	handler.handleVoid(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp voidResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), id, resp.ID)
	require.Len(s.T(), resp.RestoredItems, 1)
	assert.Equal(s.T(), "Rice", resp.RestoredItems[0].ItemName)
}

func (s *DistributionHandlerSuite) TestHandleVoidNotFound() {
	handler, mockService := newTestHandler(s.T())

	id := uuid.New()
	mockService.EXPECT().Void(gomock.Any(), id, s.actorID).
		Return(nil, domainerrors.New(domainerrors.CodeNotFound, "distribution not found"))

	req := withPathID(s.authed(httptest.NewRequest(http.MethodDelete, "/distributions/"+id.String(), nil)), id)
	w := httptest.NewRecorder()
	handler.handleVoid(w, req)

	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

func (s *DistributionHandlerSuite) TestHandleVoidBadID() {
	handler, _ := newTestHandler(s.T())

	req := s.authed(httptest.NewRequest(http.MethodDelete, "/distributions/not-a-uuid", nil))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()
	handler.handleVoid(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *DistributionHandlerSuite) TestHandleGet() {
	handler, mockService := newTestHandler(s.T())

	id := uuid.New()
	mockService.EXPECT().Get(gomock.Any(), id).Return(&distribution.Record{
		ID:              id,
		BeneficiaryName: "Rosa dela Cruz",
		Items:           []distribution.ItemRecord{},
	}, nil)

	req := withPathID(httptest.NewRequest(http.MethodGet, "/distributions/"+id.String(), nil), id)
	w := httptest.NewRecorder()
	handler.handleGet(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp recordResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "Rosa dela Cruz", resp.BeneficiaryName)
}

func (s *DistributionHandlerSuite) TestHandleStats() {
	handler, mockService := newTestHandler(s.T())

	beneficiaryID := uuid.New()
	last := time.Date(2025, 11, 8, 9, 0, 0, 0, time.UTC)
	mockService.EXPECT().Stats(gomock.Any(), beneficiaryID).
		Return(&distribution.Stats{Count: 3, LastDistributedAt: &last, TotalItems: 42}, nil)

	req := withPathID(httptest.NewRequest(http.MethodGet, "/beneficiaries/"+beneficiaryID.String()+"/stats", nil), beneficiaryID)
	w := httptest.NewRecorder()
	handler.handleStats(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), float64(3), resp["count"])
	assert.Equal(s.T(), float64(42), resp["total_items"])
}

func (s *DistributionHandlerSuite) TestRegisterRequiresAuth() {
	ctrl := gomock.NewController(s.T())
	defer ctrl.Finish()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := New(mocks.NewMockService(ctrl), logger, rejectAllValidator{})

	r := chi.NewRouter()
	handler.Register(r)

	req := httptest.NewRequest(http.MethodGet, "/distributions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

type rejectAllValidator struct{}

func (rejectAllValidator) ValidateToken(string) (*middleware.JWTClaims, error) {
	return nil, domainerrors.New(domainerrors.CodeUnauthorized, "invalid token")
}
