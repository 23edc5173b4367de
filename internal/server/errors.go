package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	assignmentdomain "github.com/smallbiznis/leadhub/internal/assignment/domain"
	auditdomain "github.com/smallbiznis/leadhub/internal/audit/domain"
	"github.com/smallbiznis/leadhub/internal/authorization"
	bundledomain "github.com/smallbiznis/leadhub/internal/bundle/domain"
	catalogdomain "github.com/smallbiznis/leadhub/internal/catalog/domain"
	leaddomain "github.com/smallbiznis/leadhub/internal/lead/domain"
	ledgerdomain "github.com/smallbiznis/leadhub/internal/ledger/domain"
	notificationdomain "github.com/smallbiznis/leadhub/internal/notification/domain"
	paymentdomain "github.com/smallbiznis/leadhub/internal/payment/domain"
	paymentgateway "github.com/smallbiznis/leadhub/internal/payment/gateway"
	userdomain "github.com/smallbiznis/leadhub/internal/user/domain"
	"github.com/smallbiznis/leadhub/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

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

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ledgerdomain.ErrInsufficientCredits):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "insufficient_credits",
			Message: "not enough credits",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, assignmentdomain.ErrForbidden),
		errors.Is(err, userdomain.ErrBlocked):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case errors.Is(err, paymentdomain.ErrChecksumMismatch):
		return http.StatusBadRequest, errorPayload{
			Type:    "checksum_mismatch",
			Message: "checksum mismatch",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, paymentdomain.ErrGatewayRejected),
		errors.Is(err, paymentdomain.ErrGatewayUnavailable):
		return http.StatusBadGateway, errorPayload{
			Type:    "payment_gateway_error",
			Message: "payment gateway error",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, paymentgateway.ErrNotConfigured):
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

// classifyErrorForLog feeds the request logger the same taxonomy the client sees.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		return payload.Type, "internal"
	}
	return payload.Type, err.Error()
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, pagination.ErrInvalidPageToken),
		errors.Is(err, userdomain.ErrInvalidName),
		errors.Is(err, userdomain.ErrInvalidEmail),
		errors.Is(err, userdomain.ErrInvalidPassword),
		errors.Is(err, userdomain.ErrInvalidRole),
		errors.Is(err, userdomain.ErrInvalidStatus),
		errors.Is(err, userdomain.ErrInvalidTrustScore),
		errors.Is(err, userdomain.ErrCannotBlockSelf),
		errors.Is(err, userdomain.ErrInvalidPageToken),
		errors.Is(err, catalogdomain.ErrInvalidName),
		errors.Is(err, catalogdomain.ErrInvalidSlug),
		errors.Is(err, catalogdomain.ErrInvalidCreditCost),
		errors.Is(err, bundledomain.ErrInvalidName),
		errors.Is(err, bundledomain.ErrInvalidPrice),
		errors.Is(err, bundledomain.ErrInvalidCredits),
		errors.Is(err, bundledomain.ErrInvalidCurrency),
		errors.Is(err, leaddomain.ErrInvalidTitle),
		errors.Is(err, leaddomain.ErrInvalidContact),
		errors.Is(err, leaddomain.ErrInvalidStatus),
		errors.Is(err, leaddomain.ErrInvalidIssueNote),
		errors.Is(err, leaddomain.ErrInvalidPageToken),
		errors.Is(err, assignmentdomain.ErrInvalidAction),
		errors.Is(err, assignmentdomain.ErrInvalidStatus),
		errors.Is(err, assignmentdomain.ErrInvalidPageToken),
		errors.Is(err, ledgerdomain.ErrInvalidPageToken),
		errors.Is(err, notificationdomain.ErrInvalidPageToken),
		errors.Is(err, paymentdomain.ErrInvalidStatus),
		errors.Is(err, paymentdomain.ErrInvalidPayload),
		errors.Is(err, paymentdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidAction),
		errors.Is(err, auditdomain.ErrInvalidPageToken):
		return true
	default:
		return false
	}
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, userdomain.ErrInvalidCredentials),
		errors.Is(err, userdomain.ErrUnauthenticated),
		errors.Is(err, leaddomain.ErrUnauthenticated),
		errors.Is(err, assignmentdomain.ErrUnauthenticated),
		errors.Is(err, ledgerdomain.ErrUnauthenticated),
		errors.Is(err, notificationdomain.ErrUnauthenticated),
		errors.Is(err, paymentdomain.ErrUnauthenticated):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, userdomain.ErrNotFound),
		errors.Is(err, userdomain.ErrProfileNotFound),
		errors.Is(err, catalogdomain.ErrCategoryNotFound),
		errors.Is(err, catalogdomain.ErrOfferingNotFound),
		errors.Is(err, bundledomain.ErrNotFound),
		errors.Is(err, leaddomain.ErrNotFound),
		errors.Is(err, leaddomain.ErrServiceNotFound),
		errors.Is(err, assignmentdomain.ErrNotFound),
		errors.Is(err, assignmentdomain.ErrProfessionalNotFound),
		errors.Is(err, ledgerdomain.ErrProfileNotFound),
		errors.Is(err, notificationdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrBundleNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, assignmentdomain.ErrConflict),
		errors.Is(err, assignmentdomain.ErrLeadClosed),
		errors.Is(err, leaddomain.ErrInvalidTransition),
		errors.Is(err, catalogdomain.ErrSlugTaken),
		errors.Is(err, userdomain.ErrEmailTaken),
		errors.Is(err, ledgerdomain.ErrDuplicateEntry),
		errors.Is(err, paymentdomain.ErrNotSettled):
		return true
	default:
		return false
	}
}

// conflictMessage names the blocking status so clients can tell a lost race
// from a repeated click.
func conflictMessage(err error) string {
	var statusErr *assignmentdomain.StatusConflictError
	if errors.As(err, &statusErr) {
		return statusErr.Error()
	}
	switch {
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}
