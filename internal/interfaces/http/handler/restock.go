package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	restockapp "github.com/bva/backend/internal/application/restock"
	"github.com/bva/backend/internal/infrastructure/mlservice"
	"github.com/bva/backend/internal/interfaces/http/dto"
	"github.com/bva/backend/internal/interfaces/http/middleware"
)

// RestockHandler handles AI restock strategy API endpoints
type RestockHandler struct {
	BaseHandler
	service *restockapp.Service
}

// NewRestockHandler creates a new RestockHandler
func NewRestockHandler(service *restockapp.Service) *RestockHandler {
	return &RestockHandler{service: service}
}

// RegisterRoutes registers restock strategy routes
func (h *RestockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ai := rg.Group("/ai")
	{
		ai.POST("/restock-strategy", h.ComputeStrategy)
		ai.GET("/health", h.Health)
	}
}

// RestockStrategyRequest is the request body for computing a restock plan
type RestockStrategyRequest struct {
	Budget          decimal.Decimal `json:"budget" binding:"required" example:"1000"`
	Goal            string          `json:"goal" binding:"required" example:"profit"`
	RestockDays     int             `json:"restockDays" binding:"required" example:"7"`
	IsPayday        bool            `json:"isPayday,omitempty"`
	UpcomingHoliday string          `json:"upcomingHoliday,omitempty" example:"11.11"`
}

// ComputeStrategy godoc
// @ID           computeRestockStrategy
// @Summary      Compute a restock strategy
// @Description  Snapshots the catalog and recent sales, then asks the ML optimizer for a restock plan. Results are cached per shop and request shape.
// @Tags         ai
// @Accept       json
// @Produce      json
// @Param        request body RestockStrategyRequest true "Strategy parameters"
// @Success      200 {object} APIResponse[mlservice.StrategyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /ai/restock-strategy [post]
func (h *RestockHandler) ComputeStrategy(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop context required")
		return
	}

	var req RestockStrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	strategy, err := h.service.ComputeRestockPlan(c.Request.Context(), restockapp.PlanRequest{
		ShopID:          shopID,
		Budget:          req.Budget,
		Goal:            req.Goal,
		RestockDays:     req.RestockDays,
		IsPayday:        req.IsPayday,
		UpcomingHoliday: req.UpcomingHoliday,
	})
	if err != nil {
		h.handleStrategyError(c, err)
		return
	}
	h.Success(c, strategy)
}

// handleStrategyError maps restock and optimizer errors to HTTP responses.
// The optimizer's rejection body travels through the error string so clients
// see the actual reason, not a generic upstream failure.
func (h *RestockHandler) handleStrategyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, restockapp.ErrInvalidBudget),
		errors.Is(err, restockapp.ErrInvalidGoal),
		errors.Is(err, restockapp.ErrInvalidRestockDays):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, err.Error())
	case errors.Is(err, restockapp.ErrNoEligibleProducts):
		h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeBusinessRule, err.Error())
	case errors.Is(err, mlservice.ErrRejected):
		h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeBusinessRule, err.Error())
	case errors.Is(err, mlservice.ErrUnavailable), errors.Is(err, mlservice.ErrInvalidResponse):
		h.Error(c, http.StatusBadGateway, dto.ErrCodeUpstream, err.Error())
	default:
		h.HandleError(c, err)
	}
}

// Health godoc
// @ID           restockServiceHealth
// @Summary      Check ML service health
// @Tags         ai
// @Produce      json
// @Success      200 {object} APIResponse[mlservice.HealthResponse]
// @Failure      502 {object} ErrorResponse
// @Router       /ai/health [get]
func (h *RestockHandler) Health(c *gin.Context) {
	health, err := h.service.Health(c.Request.Context())
	if err != nil {
		h.Error(c, http.StatusBadGateway, dto.ErrCodeUpstream, err.Error())
		return
	}
	h.Success(c, health)
}
