package handler

import (
	"errors"
	"net/http"

	apptrade "github.com/erp/orderflow/internal/application/trade"
	"github.com/erp/orderflow/internal/domain/inventory"
	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/erp/orderflow/internal/domain/trade"
	"github.com/erp/orderflow/internal/interfaces/http/dto"
	"github.com/erp/orderflow/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// HandleError converts an error from the transition service into a response.
// Internal errors never leak their message to the client.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	kind := apptrade.KindOf(err)
	if kind == apptrade.KindInternal {
		h.InternalError(c)
		return
	}

	code := errorCode(kind, err)
	resp := dto.NewErrorResponseWithRequestID(code, err.Error(), middleware.GetRequestID(c))
	if details := errorDetails(kind, err); details != nil {
		resp = resp.WithDetails(details)
	}
	c.JSON(dto.GetHTTPStatus(code), resp)
}

func errorCode(kind apptrade.ErrorKind, err error) string {
	switch kind {
	case apptrade.KindNotFound:
		return dto.ErrCodeNotFound
	case apptrade.KindTransition:
		return dto.ErrCodeInvalidState
	case apptrade.KindInsufficientStock:
		return dto.ErrCodeInsufficientStock
	case apptrade.KindConcurrentModification:
		return dto.ErrCodeConcurrencyConflict
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return dto.NormalizeErrorCode(domainErr.Code)
	}
	return dto.ErrCodeInvalidInput
}

func errorDetails(kind apptrade.ErrorKind, err error) *dto.ErrorDetails {
	if kind.Retryable() {
		return &dto.ErrorDetails{Retryable: true}
	}

	var te *trade.TransitionError
	if errors.As(err, &te) {
		return &dto.ErrorDetails{
			CurrentStatus: te.Current.String(),
			TargetStatus:  te.Target.String(),
		}
	}

	var ise *inventory.InsufficientStockError
	if errors.As(err, &ise) {
		return &dto.ErrorDetails{
			ProductID: ise.ProductID.String(),
			Available: &ise.Available,
			Requested: &ise.Requested,
		}
	}
	return nil
}
