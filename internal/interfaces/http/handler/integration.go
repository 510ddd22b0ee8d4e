package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	integrationapp "github.com/bva/backend/internal/application/integration"
	"github.com/bva/backend/internal/domain/integration"
	"github.com/bva/backend/internal/interfaces/http/middleware"
)

// IntegrationHandler handles storefront integration API endpoints
type IntegrationHandler struct {
	BaseHandler
	service *integrationapp.Service
}

// NewIntegrationHandler creates a new IntegrationHandler
func NewIntegrationHandler(service *integrationapp.Service) *IntegrationHandler {
	return &IntegrationHandler{service: service}
}

// RegisterRoutes registers integration routes
func (h *IntegrationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	integrations := rg.Group("/integrations")
	{
		integrations.GET("", h.List)
		integrations.POST("", h.Connect)
		integrations.GET("/:id", h.Get)
		integrations.DELETE("/:id", h.Delete)
		integrations.POST("/:id/sync", h.Sync)
		integrations.POST("/:id/test", h.TestConnection)
	}
}

// ConnectIntegrationRequest is the request body for connecting a storefront
type ConnectIntegrationRequest struct {
	ShopID        string         `json:"shopId" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Platform      string         `json:"platform" binding:"required" example:"shopee"`
	Token         string         `json:"token" binding:"required" example:"sf_live_abc123"`
	TermsAccepted bool           `json:"termsAccepted" example:"true"`
	Settings      map[string]any `json:"settings,omitempty"`
}

// SyncIntegrationRequest optionally supplies a token for integrations whose
// stored settings do not carry one
type SyncIntegrationRequest struct {
	Token string `json:"token,omitempty" example:"sf_live_abc123"`
}

// IntegrationResponse is the API shape of an integration
type IntegrationResponse struct {
	ID              string     `json:"id"`
	ShopID          string     `json:"shopId"`
	Platform        string     `json:"platform"`
	IsActive        bool       `json:"isActive"`
	TermsAccepted   bool       `json:"termsAccepted"`
	ConnectedAt     *time.Time `json:"connectedAt,omitempty"`
	LastConnectedAt *time.Time `json:"lastConnectedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ConnectIntegrationResponse is the outcome of a connect request
type ConnectIntegrationResponse struct {
	Integration IntegrationResponse `json:"integration"`
	Created     bool                `json:"created"`
	SyncWarning string              `json:"syncWarning,omitempty"`
}

func toIntegrationResponse(integ *integration.Integration) IntegrationResponse {
	return IntegrationResponse{
		ID:              integ.ID.String(),
		ShopID:          integ.ShopID.String(),
		Platform:        string(integ.Platform),
		IsActive:        integ.Settings.IsActive,
		TermsAccepted:   integ.Settings.TermsAccepted,
		ConnectedAt:     integ.Settings.ConnectedAt,
		LastConnectedAt: integ.Settings.LastConnectedAt,
		CreatedAt:       integ.CreatedAt,
		UpdatedAt:       integ.UpdatedAt,
	}
}

// Connect godoc
// @ID           connectIntegration
// @Summary      Connect a storefront integration
// @Description  Creates or refreshes the integration for the shop and platform, then attempts an initial sync
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        request body ConnectIntegrationRequest true "Connect request"
// @Success      200 {object} APIResponse[ConnectIntegrationResponse]
// @Success      201 {object} APIResponse[ConnectIntegrationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /integrations [post]
func (h *IntegrationHandler) Connect(c *gin.Context) {
	var req ConnectIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	shopID, err := uuid.Parse(req.ShopID)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}

	settings := integration.Settings{
		TermsAccepted: req.TermsAccepted,
		Extra:         req.Settings,
	}

	result, err := h.service.Connect(c.Request.Context(), shopID, integration.PlatformCode(req.Platform), req.Token, settings)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := ConnectIntegrationResponse{
		Integration: toIntegrationResponse(result.Integration),
		Created:     result.Created,
		SyncWarning: result.SyncWarning,
	}
	if result.Created {
		h.Created(c, resp)
		return
	}
	h.Success(c, resp)
}

// List godoc
// @ID           listIntegrations
// @Summary      List integrations
// @Description  Returns all integrations for the authenticated shop
// @Tags         integrations
// @Produce      json
// @Success      200 {object} APIResponse[[]IntegrationResponse]
// @Failure      401 {object} ErrorResponse
// @Router       /integrations [get]
func (h *IntegrationHandler) List(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop context required")
		return
	}

	integrations, err := h.service.ListByShop(c.Request.Context(), shopID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := make([]IntegrationResponse, 0, len(integrations))
	for i := range integrations {
		resp = append(resp, toIntegrationResponse(&integrations[i]))
	}
	h.Success(c, resp)
}

// Get godoc
// @ID           getIntegration
// @Summary      Get an integration
// @Tags         integrations
// @Produce      json
// @Param        id path string true "Integration ID"
// @Success      200 {object} APIResponse[IntegrationResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /integrations/{id} [get]
func (h *IntegrationHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid integration ID")
		return
	}

	integ, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toIntegrationResponse(integ))
}

// Sync godoc
// @ID           syncIntegration
// @Summary      Sync an integration
// @Description  Pulls products and sales from the remote storefront into the local catalog
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Integration ID"
// @Param        request body SyncIntegrationRequest false "Optional fallback token"
// @Success      200 {object} APIResponse[integrationapp.SyncResult]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /integrations/{id}/sync [post]
func (h *IntegrationHandler) Sync(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid integration ID")
		return
	}

	// Body is optional; an empty or absent body means no fallback token.
	var req SyncIntegrationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	result, err := h.service.Sync(c.Request.Context(), id, req.Token)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// TestConnection godoc
// @ID           testIntegrationConnection
// @Summary      Test integration credentials
// @Description  Verifies the integration's token against the remote storefront
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Integration ID"
// @Param        request body SyncIntegrationRequest false "Optional fallback token"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /integrations/{id}/test [post]
func (h *IntegrationHandler) TestConnection(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid integration ID")
		return
	}

	var req SyncIntegrationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	if err := h.service.TestConnection(c.Request.Context(), id, req.Token); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"connected": true})
}

// Delete godoc
// @ID           deleteIntegration
// @Summary      Delete an integration
// @Description  Removes the integration. Deleting an absent integration is a no-op.
// @Tags         integrations
// @Produce      json
// @Param        id path string true "Integration ID"
// @Success      200 {object} APIResponse[DeletedData]
// @Router       /integrations/{id} [delete]
func (h *IntegrationHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid integration ID")
		return
	}

	deleted, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, DeletedData{Deleted: deleted})
}
