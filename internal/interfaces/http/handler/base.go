package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	campaigndomain "github.com/bva/backend/internal/domain/campaign"
	"github.com/bva/backend/internal/domain/commerce"
	"github.com/bva/backend/internal/domain/integration"
	"github.com/bva/backend/internal/domain/shared"
	"github.com/bva/backend/internal/interfaces/http/dto"
	"github.com/bva/backend/internal/interfaces/http/middleware"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = "X-Request-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	if id := c.GetHeader(RequestIDKey); id != "" {
		return id
	}
	return ""
}

// getUserID extracts the user ID from JWT claims or returns an error
func getUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr := middleware.GetJWTUserID(c)
	if userIDStr == "" {
		return uuid.Nil, errors.New("user ID not found in context")
	}
	return uuid.Parse(userIDStr)
}

// getShopID extracts the shop ID from JWT claims or returns an error
func getShopID(c *gin.Context) (uuid.UUID, error) {
	shopIDStr := middleware.GetJWTShopID(c)
	if shopIDStr == "" {
		return uuid.Nil, errors.New("shop ID not found in context")
	}
	return uuid.Parse(shopIDStr)
}

// parseIDParam parses the :id path parameter as a UUID
func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, message)
}

// UnprocessableEntity sends a 422 unprocessable entity response
func (h *BaseHandler) UnprocessableEntity(c *gin.Context, code, message string) {
	h.Error(c, http.StatusUnprocessableEntity, code, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	requestID := getRequestID(c)
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		requestID,
		details,
	))
}

// sentinelStatus maps well-known domain errors to an error code
var sentinelStatus = []struct {
	err  error
	code string
}{
	{integration.ErrIntegrationNotFound, dto.ErrCodeNotFound},
	{integration.ErrIntegrationInactive, dto.ErrCodeInvalidState},
	{integration.ErrTermsNotAccepted, dto.ErrCodeInvalidState},
	{integration.ErrInvalidShopID, dto.ErrCodeInvalidInput},
	{integration.ErrInvalidPlatformCode, dto.ErrCodeInvalidInput},
	{integration.ErrMissingToken, dto.ErrCodeInvalidInput},
	{integration.ErrDuplicateIntegration, dto.ErrCodeAlreadyExists},
	{integration.ErrPlatformNotRegistered, dto.ErrCodeInvalidInput},
	{integration.ErrConnectionTestFailed, dto.ErrCodeUpstream},
	{integration.ErrRemoteRequestFailed, dto.ErrCodeUpstream},
	{integration.ErrRemoteUnauthenticated, dto.ErrCodeUpstream},
	{commerce.ErrShopNotFound, dto.ErrCodeNotFound},
	{commerce.ErrProductNotFound, dto.ErrCodeNotFound},
	{campaigndomain.ErrCampaignNotFound, dto.ErrCodeNotFound},
	{campaigndomain.ErrScheduleTimeInPast, dto.ErrCodeInvalidInput},
	{campaigndomain.ErrNotScheduled, dto.ErrCodeInvalidState},
	{campaigndomain.ErrAlreadyPublished, dto.ErrCodeInvalidState},
	{campaigndomain.ErrInvalidCampaign, dto.ErrCodeInvalidInput},
	{campaigndomain.ErrPublisherUnavailable, dto.ErrCodeUpstream},
}

// HandleError converts domain errors to HTTP responses. Sentinel errors from
// the domain packages get a specific code; structured DomainErrors carry
// their own; anything else is an internal error.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	requestID := getRequestID(c)

	for _, m := range sentinelStatus {
		if errors.Is(err, m.err) {
			c.JSON(dto.GetHTTPStatus(m.code), dto.NewErrorResponseWithRequestID(m.code, err.Error(), requestID))
			return
		}
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}
