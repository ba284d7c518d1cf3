package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apptrade "github.com/erp/orderflow/internal/application/trade"
	"github.com/erp/orderflow/internal/domain/inventory"
	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/erp/orderflow/internal/domain/trade"
	"github.com/erp/orderflow/internal/interfaces/http/dto"
	"github.com/erp/orderflow/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderTransitioner implements OrderTransitioner for testing
type MockOrderTransitioner struct {
	mock.Mock
}

func (m *MockOrderTransitioner) Transition(ctx context.Context, req apptrade.TransitionRequest) (*apptrade.TransitionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptrade.TransitionResult), args.Error(1)
}

func (m *MockOrderTransitioner) DescribeStatus(ctx context.Context, entityType trade.EntityType, orderID uuid.UUID) (*apptrade.StatusView, error) {
	args := m.Called(ctx, entityType, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptrade.StatusView), args.Error(1)
}

func setupOrderRouter(svc OrderTransitioner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	router := gin.New()
	router.Use(middleware.RequestID())
	NewOrderTransitionHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func postTransition(router *gin.Engine, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestOrderTransitionHandler_Transition(t *testing.T) {
	orderID := uuid.New()
	path := "/api/v1/orders/sales_order/" + orderID.String() + "/transitions"

	t.Run("ships an order", func(t *testing.T) {
		svc := new(MockOrderTransitioner)
		remarks := "left the dock"
		svc.On("Transition", mock.Anything, apptrade.TransitionRequest{
			EntityType:     trade.EntityTypeSalesOrder,
			OrderID:        orderID,
			TargetStatus:   trade.StatusShipped,
			Remarks:        &remarks,
			IdempotencyKey: "ship-1",
		}).Return(&apptrade.TransitionResult{
			EntityType:     trade.EntityTypeSalesOrder,
			OrderID:        orderID,
			OrderNumber:    "SO-1",
			PreviousStatus: trade.StatusConfirmed,
			Status:         trade.StatusShipped,
			Effect:         trade.EffectDecrement,
			Version:        3,
		}, nil)

		w := postTransition(setupOrderRouter(svc), path,
			map[string]any{"target_status": "shipped", "remarks": remarks, "idempotency_key": "ship-1"}, nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "shipped", data["status"])
		assert.Equal(t, "confirmed", data["previous_status"])
		svc.AssertExpectations(t)
	})

	t.Run("idempotency key from header", func(t *testing.T) {
		svc := new(MockOrderTransitioner)
		svc.On("Transition", mock.Anything, mock.MatchedBy(func(req apptrade.TransitionRequest) bool {
			return req.IdempotencyKey == "hdr-key"
		})).Return(&apptrade.TransitionResult{Status: trade.StatusConfirmed, Replayed: true}, nil)

		w := postTransition(setupOrderRouter(svc), path,
			map[string]any{"target_status": "confirmed"}, map[string]string{IdempotencyKeyHeader: "hdr-key"})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decodeResponse(t, w).Data.(map[string]any)["replayed"])
		svc.AssertExpectations(t)
	})

	t.Run("missing target status", func(t *testing.T) {
		svc := new(MockOrderTransitioner)
		w := postTransition(setupOrderRouter(svc), path, map[string]any{}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
		svc.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything)
	})

	t.Run("status outside the entity set", func(t *testing.T) {
		svc := new(MockOrderTransitioner)
		w := postTransition(setupOrderRouter(svc), path, map[string]any{"target_status": "in_transit"}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, decodeResponse(t, w).Error.Code)
	})

	t.Run("unknown entity type", func(t *testing.T) {
		svc := new(MockOrderTransitioner)
		w := postTransition(setupOrderRouter(svc), "/api/v1/orders/purchase_order/"+orderID.String()+"/transitions",
			map[string]any{"target_status": "shipped"}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidEntityType, decodeResponse(t, w).Error.Code)
	})

	t.Run("malformed order id", func(t *testing.T) {
		svc := new(MockOrderTransitioner)
		w := postTransition(setupOrderRouter(svc), "/api/v1/orders/sales_order/not-a-uuid/transitions",
			map[string]any{"target_status": "shipped"}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrderTransitionHandler_ErrorMapping(t *testing.T) {
	orderID := uuid.New()
	path := "/api/v1/orders/sales_order/" + orderID.String() + "/transitions"
	productID := uuid.New()

	tests := []struct {
		name      string
		err       error
		status    int
		code      string
		retryable bool
		check     func(t *testing.T, details *dto.ErrorDetails)
	}{
		{
			name:   "order not found",
			err:    &trade.OrderNotFoundError{EntityType: trade.EntityTypeSalesOrder, ID: orderID},
			status: http.StatusNotFound,
			code:   dto.ErrCodeNotFound,
		},
		{
			name:   "illegal transition",
			err:    &trade.TransitionError{EntityType: trade.EntityTypeSalesOrder, Current: trade.StatusDraft, Target: trade.StatusShipped},
			status: http.StatusUnprocessableEntity,
			code:   dto.ErrCodeInvalidState,
			check: func(t *testing.T, d *dto.ErrorDetails) {
				require.NotNil(t, d)
				assert.Equal(t, "draft", d.CurrentStatus)
				assert.Equal(t, "shipped", d.TargetStatus)
			},
		},
		{
			name:   "insufficient stock",
			err:    &inventory.InsufficientStockError{ProductID: productID, ProductName: "Widget", Available: 5, Requested: 10},
			status: http.StatusUnprocessableEntity,
			code:   dto.ErrCodeInsufficientStock,
			check: func(t *testing.T, d *dto.ErrorDetails) {
				require.NotNil(t, d)
				assert.Equal(t, productID.String(), d.ProductID)
				assert.Equal(t, int64(5), *d.Available)
				assert.Equal(t, int64(10), *d.Requested)
			},
		},
		{
			name:      "concurrent modification",
			err:       shared.NewConcurrentModificationError("sales_order", orderID),
			status:    http.StatusConflict,
			code:      dto.ErrCodeConcurrencyConflict,
			retryable: true,
		},
		{
			name:   "internal",
			err:    errors.New("connection reset by peer"),
			status: http.StatusInternalServerError,
			code:   dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOrderTransitioner)
			svc.On("Transition", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := postTransition(setupOrderRouter(svc), path, map[string]any{"target_status": "shipped"},
				map[string]string{middleware.RequestIDHeader: "req-err"})

			require.Equal(t, tt.status, w.Code, w.Body.String())
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "req-err", resp.Error.RequestID)
			if tt.retryable {
				require.NotNil(t, resp.Error.Details)
				assert.True(t, resp.Error.Details.Retryable)
			}
			if tt.check != nil {
				tt.check(t, resp.Error.Details)
			}
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, resp.Error.Message, "connection reset")
			}
		})
	}
}

func TestOrderTransitionHandler_GetStatus(t *testing.T) {
	orderID := uuid.New()

	t.Run("returns the status view", func(t *testing.T) {
		svc := new(MockOrderTransitioner)
		svc.On("DescribeStatus", mock.Anything, trade.EntityTypeFactoryShipment, orderID).Return(&apptrade.StatusView{
			EntityType:         trade.EntityTypeFactoryShipment,
			OrderID:            orderID,
			Status:             trade.StatusFactoryShipped,
			AllowedTransitions: []trade.Status{trade.StatusInTransit},
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/factory_shipment/"+orderID.String()+"/status", nil)
		w := httptest.NewRecorder()
		setupOrderRouter(svc).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, "factory_shipped", data["status"])
		assert.Equal(t, []any{"in_transit"}, data["allowed_transitions"])
		assert.Equal(t, false, data["terminal"])
		svc.AssertExpectations(t)
	})

	t.Run("missing order", func(t *testing.T) {
		svc := new(MockOrderTransitioner)
		svc.On("DescribeStatus", mock.Anything, trade.EntityTypeReturnOrder, orderID).
			Return(nil, &trade.OrderNotFoundError{EntityType: trade.EntityTypeReturnOrder, ID: orderID})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/return_order/"+orderID.String()+"/status", nil)
		w := httptest.NewRecorder()
		setupOrderRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
