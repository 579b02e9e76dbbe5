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

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"agapay/internal/inventory"
	"agapay/internal/inventory/handler/mocks"
	"agapay/internal/inventory/service"
	"agapay/internal/ledger"
	"agapay/internal/platform/middleware"
	domainerrors "agapay/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/inventory-mocks.go -package=mocks Service
type InventoryHandlerSuite struct {
	suite.Suite
	actorID uuid.UUID
}

func (s *InventoryHandlerSuite) SetupSuite() {
	s.actorID = uuid.New()
}

func TestInventoryHandlerSuite(t *testing.T) {
	suite.Run(t, new(InventoryHandlerSuite))
}

func newTestHandler(t *testing.T) (*Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(mockService, logger, nil), mockService
}

func (s *InventoryHandlerSuite) authed(req *http.Request) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyUserID, s.actorID.String())
	return req.WithContext(ctx)
}

func withPathID(req *http.Request, id uuid.UUID) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func (s *InventoryHandlerSuite) TestHandleCreateItem() {
	handler, mockService := newTestHandler(s.T())

	created := &inventory.Item{
		ID:                uuid.New(),
		Name:              "Rice",
		Category:          "food",
		Quantity:          200,
		Unit:              "sack",
		LowStockThreshold: 20,
	}
	mockService.EXPECT().CreateItem(gomock.Any(), service.CreateItemRequest{
		Name:              "Rice",
		Category:          "food",
		Quantity:          200,
		Unit:              "sack",
		LowStockThreshold: 20,
		ActorID:           s.actorID,
	}).Return(created, nil)

	body, err := json.Marshal(createItemRequest{
		Name: "Rice", Category: "food", Quantity: 200, Unit: "sack", LowStockThreshold: 20,
	})
	require.NoError(s.T(), err)

	req := s.authed(httptest.NewRequest(http.MethodPost, "/inventory", bytes.NewReader(body)))
	w := httptest.NewRecorder()
	handler.handleCreateItem(w, req)

	assert.Equal(s.T(), http.StatusCreated, w.Code)
	var resp itemResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), created.ID, resp.ID)
	assert.Equal(s.T(), 200, resp.Quantity)
	assert.False(s.T(), resp.LowStock)
}

func (s *InventoryHandlerSuite) TestHandleRestock() {
	handler, mockService := newTestHandler(s.T())

	itemID := uuid.New()
	mockService.EXPECT().Restock(gomock.Any(), itemID, s.actorID, 40, "weekly delivery").
		Return(&service.AdjustResult{ItemID: itemID, Delta: 40, QuantityBefore: 10, QuantityAfter: 50}, nil)

	body := []byte(`{"quantity":40,"notes":"weekly delivery"}`)
	req := withPathID(s.authed(httptest.NewRequest(http.MethodPost, "/inventory/"+itemID.String()+"/restock", bytes.NewReader(body))), itemID)
	w := httptest.NewRecorder()
	handler.handleRestock(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp service.AdjustResult
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), 10, resp.QuantityBefore)
	assert.Equal(s.T(), 50, resp.QuantityAfter)
}

func (s *InventoryHandlerSuite) TestHandleRestockBadQuantity() {
	handler, mockService := newTestHandler(s.T())

	itemID := uuid.New()
	mockService.EXPECT().Restock(gomock.Any(), itemID, s.actorID, 0, "").
		Return(nil, domainerrors.New(domainerrors.CodeBadRequest, "restock quantity must be at least 1"))

	req := withPathID(s.authed(httptest.NewRequest(http.MethodPost, "/inventory/"+itemID.String()+"/restock", bytes.NewReader([]byte(`{"quantity":0}`)))), itemID)
	w := httptest.NewRecorder()
	handler.handleRestock(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *InventoryHandlerSuite) TestHandleSetQuantity() {
	handler, mockService := newTestHandler(s.T())

	itemID := uuid.New()
	mockService.EXPECT().SetQuantity(gomock.Any(), itemID, s.actorID, 12, "after physical count").
		Return(&service.AdjustResult{ItemID: itemID, Delta: -18, QuantityBefore: 30, QuantityAfter: 12}, nil)

	body := []byte(`{"quantity":12,"notes":"after physical count"}`)
	req := withPathID(s.authed(httptest.NewRequest(http.MethodPut, "/inventory/"+itemID.String()+"/quantity", bytes.NewReader(body))), itemID)
	w := httptest.NewRecorder()
	handler.handleSetQuantity(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp service.AdjustResult
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), -18, resp.Delta)
}

func (s *InventoryHandlerSuite) TestHandleGetItemNotFound() {
	handler, mockService := newTestHandler(s.T())

	itemID := uuid.New()
	mockService.EXPECT().Get(gomock.Any(), itemID).
		Return(nil, domainerrors.New(domainerrors.CodeNotFound, "inventory item not found"))

	req := withPathID(httptest.NewRequest(http.MethodGet, "/inventory/"+itemID.String(), nil), itemID)
	w := httptest.NewRecorder()
	handler.handleGetItem(w, req)

	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

func (s *InventoryHandlerSuite) TestHandleListLowStock() {
	handler, mockService := newTestHandler(s.T())

	mockService.EXPECT().ListLowStock(gomock.Any()).Return([]inventory.Item{
		{ID: uuid.New(), Name: "Rice", Quantity: 5, LowStockThreshold: 10},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/inventory/low-stock", nil)
	w := httptest.NewRecorder()
	handler.handleListLowStock(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp []itemResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(s.T(), resp, 1)
	assert.True(s.T(), resp[0].LowStock)
}

func (s *InventoryHandlerSuite) TestHandleItemTransactions() {
	handler, mockService := newTestHandler(s.T())

	itemID := uuid.New()
	mockService.EXPECT().TransactionsByItem(gomock.Any(), itemID).Return([]ledger.Transaction{
		{ID: uuid.New(), ItemID: itemID, Kind: ledger.KindSetQuantity, Delta: -18, QuantityBefore: 30, QuantityAfter: 12},
		{ID: uuid.New(), ItemID: itemID, Kind: ledger.KindRestock, Delta: 30, QuantityBefore: 0, QuantityAfter: 30},
	}, nil)

	req := withPathID(httptest.NewRequest(http.MethodGet, "/inventory/"+itemID.String()+"/transactions", nil), itemID)
	w := httptest.NewRecorder()
	handler.handleItemTransactions(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp []transactionResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(s.T(), resp, 2)
	assert.Equal(s.T(), "set_quantity", resp[0].Kind)
	assert.Equal(s.T(), "restock", resp[1].Kind)
}
