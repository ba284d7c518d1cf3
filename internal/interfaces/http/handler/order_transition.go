package handler

import (
	"context"
	"strings"

	apptrade "github.com/erp/orderflow/internal/application/trade"
	"github.com/erp/orderflow/internal/domain/trade"
	"github.com/erp/orderflow/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader lets clients pass the replay key as a header instead of in the body
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderTransitioner is the part of the transition service the HTTP layer uses
type OrderTransitioner interface {
	Transition(ctx context.Context, req apptrade.TransitionRequest) (*apptrade.TransitionResult, error)
	DescribeStatus(ctx context.Context, entityType trade.EntityType, orderID uuid.UUID) (*apptrade.StatusView, error)
}

// OrderTransitionHandler exposes order status transitions over HTTP
type OrderTransitionHandler struct {
	BaseHandler
	service OrderTransitioner
}

// NewOrderTransitionHandler creates a new OrderTransitionHandler
func NewOrderTransitionHandler(service OrderTransitioner) *OrderTransitionHandler {
	return &OrderTransitionHandler{service: service}
}

// orderPath binds the :entity_type and :id route parameters
type orderPath struct {
	EntityType string `uri:"entity_type" binding:"required"`
	ID         string `uri:"id" binding:"required,uuid"`
}

// TransitionOrderRequest is the body of POST .../transitions
type TransitionOrderRequest struct {
	TargetStatus   string  `json:"target_status" binding:"required,max=30"`
	Remarks        *string `json:"remarks" binding:"omitempty,max=500"`
	IdempotencyKey string  `json:"idempotency_key" binding:"omitempty,max=128,idempotency_key"`
}

// RegisterRoutes mounts the order routes under rg
func (h *OrderTransitionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders/:entity_type/:id")
	orders.POST("/transitions", h.Transition)
	orders.GET("/status", h.GetStatus)
}

// Transition moves an order to the requested status
func (h *OrderTransitionHandler) Transition(c *gin.Context) {
	entityType, orderID, ok := h.bindOrderPath(c)
	if !ok {
		return
	}

	var req TransitionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	target, err := trade.ParseStatus(entityType, req.TargetStatus)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		key = strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	}

	result, err := h.service.Transition(c.Request.Context(), apptrade.TransitionRequest{
		EntityType:     entityType,
		OrderID:        orderID,
		TargetStatus:   target,
		Remarks:        req.Remarks,
		IdempotencyKey: key,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetStatus returns the order's current status and the transitions it allows
func (h *OrderTransitionHandler) GetStatus(c *gin.Context) {
	entityType, orderID, ok := h.bindOrderPath(c)
	if !ok {
		return
	}

	view, err := h.service.DescribeStatus(c.Request.Context(), entityType, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, view)
}

func (h *OrderTransitionHandler) bindOrderPath(c *gin.Context) (trade.EntityType, uuid.UUID, bool) {
	var path orderPath
	if err := c.ShouldBindUri(&path); err != nil {
		middleware.HandleValidationError(c, err)
		return "", uuid.Nil, false
	}

	entityType, err := trade.ParseEntityType(path.EntityType)
	if err != nil {
		h.HandleError(c, err)
		return "", uuid.Nil, false
	}

	orderID, err := uuid.Parse(path.ID)
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return "", uuid.Nil, false
	}
	return entityType, orderID, true
}
