package server

import (
	"errors"
	"net/http"

	authdomain "github.com/billfold/billfold/internal/auth/domain"
	authordomain "github.com/billfold/billfold/internal/author/domain"
	carddomain "github.com/billfold/billfold/internal/card/domain"
	categorydomain "github.com/billfold/billfold/internal/category/domain"
	invoicedomain "github.com/billfold/billfold/internal/invoice/domain"
	subscriptiondomain "github.com/billfold/billfold/internal/subscription/domain"
	"github.com/gin-gonic/gin"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid_request")
)

// ErrorHandlingMiddleware turns the last gin error into the JSON error
// envelope. Handlers report failures via AbortWithError and never write
// error bodies themselves.
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
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}

	case errors.Is(err, authordomain.ErrNotFound),
		errors.Is(err, categorydomain.ErrNotFound),
		errors.Is(err, carddomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, invoicedomain.ErrItemNotFound),
		errors.Is(err, invoicedomain.ErrAssignmentNotFound),
		errors.Is(err, invoicedomain.ErrInstallmentGroupNotFound),
		errors.Is(err, subscriptiondomain.ErrNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}

	case errors.Is(err, authdomain.ErrUserExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}

	case errors.Is(err, invoicedomain.ErrInvalidStatusTransition):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, authdomain.ErrInvalidEmail),
		errors.Is(err, authdomain.ErrInvalidName),
		errors.Is(err, authdomain.ErrInvalidPassword),
		errors.Is(err, authordomain.ErrInvalidName),
		errors.Is(err, authordomain.ErrOwnerImmutable),
		errors.Is(err, categorydomain.ErrInvalidName),
		errors.Is(err, categorydomain.ErrDefaultImmutable),
		errors.Is(err, carddomain.ErrInvalidName),
		errors.Is(err, carddomain.ErrInvalidClosingDay),
		errors.Is(err, carddomain.ErrInvalidDueDay),
		errors.Is(err, carddomain.ErrInvalidSharing),
		errors.Is(err, invoicedomain.ErrInvalidAmount),
		errors.Is(err, invoicedomain.ErrInvalidDescription),
		errors.Is(err, invoicedomain.ErrInvalidAuthor),
		errors.Is(err, invoicedomain.ErrInvalidInstallments),
		errors.Is(err, invoicedomain.ErrAssignmentSumMismatch),
		errors.Is(err, subscriptiondomain.ErrInvalidDescription),
		errors.Is(err, subscriptiondomain.ErrInvalidAmount),
		errors.Is(err, subscriptiondomain.ErrInvalidBillingDay),
		errors.Is(err, subscriptiondomain.ErrInvalidBillingCycle),
		errors.Is(err, subscriptiondomain.ErrInvalidAuthor),
		errors.Is(err, subscriptiondomain.ErrAssignmentSumMismatch):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}
