package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	billdomain "github.com/pesantrenhub/sppbill/internal/bill/domain"
	feesettingsdomain "github.com/pesantrenhub/sppbill/internal/feesettings/domain"
	generationdomain "github.com/pesantrenhub/sppbill/internal/generation/domain"
	reportdomain "github.com/pesantrenhub/sppbill/internal/report/domain"
	studentdomain "github.com/pesantrenhub/sppbill/internal/student/domain"
	"github.com/pesantrenhub/sppbill/pkg/db"
	"gorm.io/gorm"
)

var (
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

type errorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    err.Error(),
			Message: "validation error",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, billdomain.ErrAlreadyPaid):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    billdomain.ErrAlreadyPaid.Error(),
			Message: "bill is already settled",
		}
	case errors.Is(err, billdomain.ErrConcurrentUpdate),
		errors.Is(err, studentdomain.ErrNISExists),
		errors.Is(err, ErrConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case errors.Is(err, ErrServiceUnavailable), db.IsConnectivityErr(err):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, billdomain.ErrInvalidAmount),
		errors.Is(err, billdomain.ErrExceedsRemaining),
		errors.Is(err, generationdomain.ErrInvalidAmount),
		errors.Is(err, generationdomain.ErrEmptyBill),
		errors.Is(err, feesettingsdomain.ErrNotConfigured),
		errors.Is(err, feesettingsdomain.ErrInvalidBillingDay),
		errors.Is(err, feesettingsdomain.ErrInvalidAmount),
		errors.Is(err, reportdomain.ErrInvalidPeriod),
		errors.Is(err, reportdomain.ErrInvalidStatusFilter),
		errors.Is(err, studentdomain.ErrInvalidNIS),
		errors.Is(err, studentdomain.ErrInvalidName),
		errors.Is(err, studentdomain.ErrInvalidID),
		errors.Is(err, studentdomain.ErrInvalidPageToken):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, billdomain.ErrBillNotFound),
		errors.Is(err, studentdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
