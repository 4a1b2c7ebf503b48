package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/influencehub/marketplace/internal/core/domain"
	"github.com/influencehub/marketplace/internal/core/ports"
)

// CampaignHandler serves campaigns, collaborations, earnings and the dashboard.
type CampaignHandler struct {
	campaigns ports.CampaignService
	accounts  ports.AccountService
}

func NewCampaignHandler(campaigns ports.CampaignService, accounts ports.AccountService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns, accounts: accounts}
}

// List handles GET /api/campaigns.
//
// @Summary      List campaigns
// @Tags         campaigns
// @Produce      json
// @Security     BearerAuth
// @Param        mine      query     bool    false  "Brands only: restrict to own campaigns"
// @Param        status    query     string  false  "Campaign status"
// @Param        category  query     string  false  "Category"
// @Param        search    query     string  false  "Partial match on title or brand name"
// @Param        page      query     int     false  "Page (1-based)"
// @Param        limit     query     int     false  "Page size (max 100)"
// @Success      200       {object}  listCampaignsResponse
// @Failure      400       {object}  messageResponse
// @Failure      401       {object}  messageResponse
// @Router       /api/campaigns [get]
func (h *CampaignHandler) List(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var q listCampaignsQuery
	err = echo.QueryParamsBinder(c).
		Bool("mine", &q.Mine).
		String("status", &q.Status).
		String("category", &q.Category).
		String("search", &q.Search).
		Int("page", &q.Page).
		Int("limit", &q.Limit).
		BindError()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.campaigns.ListCampaigns(c.Request().Context(), toListCampaignsInput(q, id))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toListCampaignsResponse(result))
}

// Get handles GET /api/campaigns/:id.
//
// @Summary      Get a campaign
// @Tags         campaigns
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Campaign ID"
// @Success      200  {object}  domain.Campaign
// @Failure      404  {object}  messageResponse
// @Router       /api/campaigns/{id} [get]
func (h *CampaignHandler) Get(c echo.Context) error {
	campaign, err := h.campaigns.GetCampaign(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, campaign)
}

// Create handles POST /api/campaigns. Brands only.
//
// @Summary      Create a campaign
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createCampaignRequest  true  "Campaign details"
// @Success      201   {object}  domain.Campaign
// @Failure      400   {object}  messageResponse
// @Failure      403   {object}  messageResponse
// @Router       /api/campaigns [post]
func (h *CampaignHandler) Create(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req createCampaignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	brand, err := h.accounts.Profile(ctx, id.UserID)
	if err != nil {
		return err
	}
	input, err := toCreateCampaignInput(req, brand)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	campaign, err := h.campaigns.CreateCampaign(ctx, input)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/api/campaigns/"+campaign.ID)
	return c.JSON(http.StatusCreated, campaign)
}

// Apply handles POST /api/campaigns/:id/apply. Influencers only.
//
// @Summary      Apply to a campaign
// @Tags         campaigns
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Campaign ID"
// @Success      201  {object}  domain.Collaboration
// @Failure      403  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Failure      409  {object}  messageResponse
// @Failure      422  {object}  messageResponse
// @Router       /api/campaigns/{id}/apply [post]
func (h *CampaignHandler) Apply(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	influencer, err := h.accounts.Profile(ctx, id.UserID)
	if err != nil {
		return err
	}

	collab, err := h.campaigns.Apply(ctx, c.Param("id"), *influencer)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, collab)
}

// Collaborations handles GET /api/collaborations.
//
// @Summary      List the caller's collaborations
// @Tags         collaborations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listCollaborationsResponse
// @Router       /api/collaborations [get]
func (h *CampaignHandler) Collaborations(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	collabs, err := h.campaigns.Collaborations(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	if collabs == nil {
		collabs = []*domain.Collaboration{}
	}

	return c.JSON(http.StatusOK, listCollaborationsResponse{Data: collabs})
}

// Earnings handles GET /api/earnings. Influencers only.
//
// @Summary      Earnings summary
// @Tags         earnings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Earnings
// @Failure      403  {object}  messageResponse
// @Router       /api/earnings [get]
func (h *CampaignHandler) Earnings(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	earnings, err := h.campaigns.Earnings(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, earnings)
}

// Dashboard handles GET /api/dashboard.
//
// @Summary      Role-specific dashboard
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Dashboard
// @Router       /api/dashboard [get]
func (h *CampaignHandler) Dashboard(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	dashboard, err := h.campaigns.Dashboard(c.Request().Context(), domain.User{ID: domain.UserID(id.UserID), Role: id.Role})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboard)
}
