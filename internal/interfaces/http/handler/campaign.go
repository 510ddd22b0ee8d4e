package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	campaignapp "github.com/bva/backend/internal/application/campaign"
	"github.com/bva/backend/internal/domain/campaign"
	"github.com/bva/backend/internal/interfaces/http/middleware"
)

// CampaignHandler handles marketing campaign API endpoints
type CampaignHandler struct {
	BaseHandler
	service *campaignapp.Service
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(service *campaignapp.Service) *CampaignHandler {
	return &CampaignHandler{service: service}
}

// RegisterRoutes registers campaign routes
func (h *CampaignHandler) RegisterRoutes(rg *gin.RouterGroup) {
	campaigns := rg.Group("/campaigns")
	{
		campaigns.GET("", h.List)
		campaigns.POST("", h.Create)
		campaigns.GET("/:id", h.Get)
		campaigns.PUT("/:id", h.Update)
		campaigns.DELETE("/:id", h.Delete)
		campaigns.POST("/:id/schedule", h.Schedule)
		campaigns.POST("/:id/unschedule", h.Unschedule)
		campaigns.POST("/:id/publish", h.Publish)
	}
}

// CampaignContentRequest is the ad payload of a create or update request
type CampaignContentRequest struct {
	Copy     string         `json:"copy" example:"Everything must go"`
	Playbook string         `json:"playbook,omitempty" example:"flash-sale"`
	Hashtags []string       `json:"hashtags,omitempty"`
	Platform string         `json:"platform,omitempty" example:"facebook"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// CreateCampaignRequest is the request body for creating a campaign
type CreateCampaignRequest struct {
	Name     string                 `json:"name" binding:"required" example:"Spring Sale"`
	Content  CampaignContentRequest `json:"content"`
	ImageURL string                 `json:"imageUrl,omitempty"`
}

// UpdateCampaignRequest is the request body for updating a campaign
type UpdateCampaignRequest struct {
	Name     string                 `json:"name,omitempty" example:"Spring Sale"`
	Content  CampaignContentRequest `json:"content"`
	ImageURL string                 `json:"imageUrl,omitempty"`
}

// ScheduleCampaignRequest is the request body for scheduling a campaign
type ScheduleCampaignRequest struct {
	ScheduledAt time.Time `json:"scheduledAt" binding:"required" example:"2026-10-01T09:00:00Z"`
}

// CampaignResponse is the API shape of a campaign
type CampaignResponse struct {
	ID             string         `json:"id"`
	ShopID         string         `json:"shopId"`
	Name           string         `json:"name"`
	Copy           string         `json:"copy"`
	Playbook       string         `json:"playbook,omitempty"`
	Hashtags       []string       `json:"hashtags,omitempty"`
	Platform       string         `json:"platform,omitempty"`
	ImageURL       string         `json:"imageUrl,omitempty"`
	Status         string         `json:"status"`
	ScheduledAt    *time.Time     `json:"scheduledAt,omitempty"`
	ScheduledVia   string         `json:"scheduledVia,omitempty"`
	ExternalPostID string         `json:"externalPostId,omitempty"`
	PublishedAt    *time.Time     `json:"publishedAt,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// ScheduleCampaignResponse is the outcome of a schedule request
type ScheduleCampaignResponse struct {
	Campaign CampaignResponse `json:"campaign"`
	Warning  string           `json:"warning,omitempty"`
}

// UnscheduleCampaignResponse is the outcome of an unschedule request
type UnscheduleCampaignResponse struct {
	Campaign CampaignResponse `json:"campaign"`
	Warning  string           `json:"warning,omitempty"`
}

// PublishCampaignResponse is the outcome of a publish request
type PublishCampaignResponse struct {
	Campaign CampaignResponse `json:"campaign"`
	PostID   string           `json:"postId,omitempty"`
	PostURL  string           `json:"postUrl,omitempty"`
	Warning  string           `json:"warning,omitempty"`
}

func toCampaignResponse(c *campaign.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:             c.ID.String(),
		ShopID:         c.ShopID.String(),
		Name:           c.Name,
		Copy:           c.Content.Copy,
		Playbook:       c.Content.Playbook,
		Hashtags:       c.Content.Hashtags,
		Platform:       c.Content.Platform,
		ImageURL:       c.ImageURL,
		Status:         c.Status.String(),
		ScheduledAt:    c.ScheduledAt,
		ScheduledVia:   string(c.Content.ScheduledVia),
		ExternalPostID: c.Content.ExternalPostID,
		PublishedAt:    c.Content.PublishedAt,
		Extra:          c.Content.Extra,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (r CampaignContentRequest) toContent() campaign.Content {
	return campaign.Content{
		Copy:     r.Copy,
		Playbook: r.Playbook,
		Hashtags: r.Hashtags,
		Platform: r.Platform,
		Extra:    r.Extra,
	}
}

// Create godoc
// @ID           createCampaign
// @Summary      Create a campaign
// @Description  Creates a draft campaign. Data-URL images are uploaded to object storage first.
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        request body CreateCampaignRequest true "Campaign to create"
// @Success      201 {object} APIResponse[CampaignResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /campaigns [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop context required")
		return
	}

	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	created, err := h.service.Create(c.Request.Context(), shopID, req.Name, req.Content.toContent(), req.ImageURL)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCampaignResponse(created))
}

// List godoc
// @ID           listCampaigns
// @Summary      List campaigns
// @Description  Returns all campaigns for the authenticated shop
// @Tags         campaigns
// @Produce      json
// @Success      200 {object} APIResponse[[]CampaignResponse]
// @Failure      401 {object} ErrorResponse
// @Router       /campaigns [get]
func (h *CampaignHandler) List(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop context required")
		return
	}

	campaigns, err := h.service.ListByShop(c.Request.Context(), shopID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := make([]CampaignResponse, 0, len(campaigns))
	for i := range campaigns {
		resp = append(resp, toCampaignResponse(&campaigns[i]))
	}
	h.Success(c, resp)
}

// Get godoc
// @ID           getCampaign
// @Summary      Get a campaign
// @Tags         campaigns
// @Produce      json
// @Param        id path string true "Campaign ID"
// @Success      200 {object} APIResponse[CampaignResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /campaigns/{id} [get]
func (h *CampaignHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid campaign ID")
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCampaignResponse(found))
}

// Update godoc
// @ID           updateCampaign
// @Summary      Update a campaign
// @Description  Updates name, content, and image of an unpublished campaign
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        id path string true "Campaign ID"
// @Param        request body UpdateCampaignRequest true "Fields to update"
// @Success      200 {object} APIResponse[CampaignResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /campaigns/{id} [put]
func (h *CampaignHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid campaign ID")
		return
	}

	var req UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, req.Name, req.Content.toContent(), req.ImageURL)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCampaignResponse(updated))
}

// Delete godoc
// @ID           deleteCampaign
// @Summary      Delete a campaign
// @Tags         campaigns
// @Produce      json
// @Param        id path string true "Campaign ID"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Router       /campaigns/{id} [delete]
func (h *CampaignHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid campaign ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"deleted": true})
}

// Schedule godoc
// @ID           scheduleCampaign
// @Summary      Schedule a campaign
// @Description  Queues the campaign for publishing. Far-future times go to the platform's native scheduler when credentials allow; otherwise the poller picks the campaign up when due.
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        id path string true "Campaign ID"
// @Param        request body ScheduleCampaignRequest true "Schedule time"
// @Success      200 {object} APIResponse[ScheduleCampaignResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /campaigns/{id}/schedule [post]
func (h *CampaignHandler) Schedule(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid campaign ID")
		return
	}

	var req ScheduleCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.service.Schedule(c.Request.Context(), id, req.ScheduledAt)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ScheduleCampaignResponse{
		Campaign: toCampaignResponse(result.Campaign),
		Warning:  result.Warning,
	})
}

// Unschedule godoc
// @ID           unscheduleCampaign
// @Summary      Unschedule a campaign
// @Description  Returns a scheduled campaign to draft. Unscheduling a campaign that is not scheduled is a no-op and reported as a warning.
// @Tags         campaigns
// @Produce      json
// @Param        id path string true "Campaign ID"
// @Success      200 {object} APIResponse[UnscheduleCampaignResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /campaigns/{id}/unschedule [post]
func (h *CampaignHandler) Unschedule(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid campaign ID")
		return
	}

	updated, changed, err := h.service.Unschedule(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := UnscheduleCampaignResponse{Campaign: toCampaignResponse(updated)}
	if !changed {
		resp.Warning = "Campaign is not scheduled; nothing to unschedule"
	}
	h.Success(c, resp)
}

// Publish godoc
// @ID           publishCampaign
// @Summary      Publish a campaign immediately
// @Description  Posts the campaign to the social platform now. A platform failure is reported as a warning and leaves the campaign state unchanged.
// @Tags         campaigns
// @Produce      json
// @Param        id path string true "Campaign ID"
// @Success      200 {object} APIResponse[PublishCampaignResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /campaigns/{id}/publish [post]
func (h *CampaignHandler) Publish(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid campaign ID")
		return
	}

	result, err := h.service.Publish(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, PublishCampaignResponse{
		Campaign: toCampaignResponse(result.Campaign),
		PostID:   result.PostID,
		PostURL:  result.PostURL,
		Warning:  result.Warning,
	})
}
