package handlers

import (
	"errors"
	"net/http"

	"github.com/SAP-F-2025/career-assessment-service/internal/services"
	"github.com/SAP-F-2025/career-assessment-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// Error codes returned alongside access rejections
const (
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeAccessExpired       = "ACCESS_EXPIRED"
	CodeNoActiveAccess      = "NO_ACTIVE_ACCESS"
	CodeCredentialsRequired = "CREDENTIALS_REQUIRED"
	CodeSessionSubmitted    = "SESSION_SUBMITTED"
	CodeSaveFailed          = "SAVE_FAILED"
)

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogError logs error details with request context
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"request_id", utils.GetRequestID(c),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	fields = append(fields, additionalFields...)

	utils.GetLoggerFromContext(c, h.logger).LogError(err, message, fields...)
}

// bindJSON decodes the body and answers 400 itself on failure
func (h *BaseHandler) bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// handleServiceError maps service errors onto HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: services.ValidationErrors{*validationError},
		})
		return
	}

	if reason, ok := services.AccessReason(err); ok {
		status := http.StatusForbidden
		if services.IsCredentialsMissing(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, ErrorResponse{Message: reason, Code: accessCode(err)})
		return
	}

	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Session not found"})
	case errors.Is(err, services.ErrUnknownOperation):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Unknown tool operation"})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Resource not found"})
	case errors.Is(err, services.ErrSessionSubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Assessment has already been submitted",
			Code:    CodeSessionSubmitted,
		})
	case errors.Is(err, services.ErrQuestionNotInCatalog):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Question is not part of the assessment"})
	case errors.Is(err, services.ErrUnsupportedDocument):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Unsupported document type"})
	case services.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Validation failed", Details: err.Error()})
	case services.IsConflict(err):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Resource conflict"})
	case services.IsPersistence(err):
		h.LogError(c, err, "Persistence failure")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to save, please try again",
			Code:    CodeSaveFailed,
		})
	case errors.Is(err, services.ErrGatewayFailed):
		h.LogError(c, err, "Language model gateway failure")
		c.JSON(http.StatusBadGateway, ErrorResponse{Message: "The tool is temporarily unavailable, please try again"})
	case errors.Is(err, services.ErrStorageFailed):
		h.LogError(c, err, "Object storage failure")
		c.JSON(http.StatusBadGateway, ErrorResponse{Message: "Could not store the uploaded file"})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}

func accessCode(err error) string {
	reason, _ := services.AccessReason(err)
	switch {
	case services.IsAccessExpired(err):
		return CodeAccessExpired
	case services.IsCredentialsMissing(err):
		return CodeCredentialsRequired
	case reason == services.ReasonNoActiveAccess:
		return CodeNoActiveAccess
	default:
		return CodeInvalidToken
	}
}
