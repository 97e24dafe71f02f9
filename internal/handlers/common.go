package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/quiz-service/internal/services"
	"github.com/tutorhub/quiz-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

// NewBaseHandler creates a new base handler with logging capability
func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"remote_addr", c.ClientIP(),
		"request_id", c.GetHeader("X-Request-ID"),
		"user_id", h.extractUserID(c),
	}
	fields = append(fields, additionalFields...)

	h.logger.Info(message, fields...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"request_id", c.GetHeader("X-Request-ID"),
		"user_id", h.extractUserID(c),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	fields = append(fields, additionalFields...)

	h.logger.LogError(err, message, fields...)
}

// Helper method to extract user ID from context
func (h *BaseHandler) extractUserID(c *gin.Context) interface{} {
	if userID, exists := c.Get("user_id"); exists {
		return userID
	}
	return nil
}

// requireUserID returns the authenticated user id or writes a 401 and
// returns an empty string.
func (h *BaseHandler) requireUserID(c *gin.Context) string {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return ""
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return ""
	}
	return id
}

// handleServiceError maps service layer errors onto HTTP responses. All
// handlers funnel through here so status codes stay consistent.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	// Handle custom error types first
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
			Details: validationError,
		})
		return
	}

	var incompleteGrading *services.IncompleteGradingError
	if errors.As(err, &incompleteGrading) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Grading incomplete",
			Details: map[string]interface{}{
				"ungraded_indices": incompleteGrading.UngradedIndices,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrQuizNotFound), errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Quiz not found",
		})
	case errors.Is(err, services.ErrAttemptNoProgress):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "No saved attempt progress",
		})
	case services.IsAccessDenied(err):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
		})
	case errors.Is(err, services.ErrQuizNotPosted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Quiz is not posted",
		})
	case errors.Is(err, services.ErrQuizNotCompleted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Quiz attempt is not completed",
		})
	case errors.Is(err, services.ErrAttemptAlreadyCompleted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Quiz already completed",
		})
	case errors.Is(err, services.ErrQuestionIndexOutOfRange):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Question index out of range",
		})
	case errors.Is(err, services.ErrAnswerTypeMismatch):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Answer value does not match question type",
		})
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
