package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/influencehub/marketplace/internal/core/domain"
)

const (
	endpointCampaigns      = "/api/campaigns"
	endpointCollaborations = "/api/collaborations"
	endpointEarnings       = "/api/earnings"
	endpointDashboard      = "/api/dashboard"
	endpointUpload         = "/api/upload"
)

// CampaignQuery filters GET /api/campaigns.
type CampaignQuery struct {
	Mine     bool
	Status   string
	Category string
	Search   string
	Page     int
	Limit    int
}

func (q CampaignQuery) encode() string {
	v := url.Values{}
	if q.Mine {
		v.Set("mine", "true")
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// Pagination accompanies list responses.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// CampaignPage is one page of GET /api/campaigns.
type CampaignPage struct {
	Data       []domain.Campaign `json:"data"`
	Pagination Pagination        `json:"pagination"`
}

// NewCampaign is the body of POST /api/campaigns.
type NewCampaign struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Platforms    []string `json:"platforms"`
	Budget       float64  `json:"budget"`
	Currency     string   `json:"currency,omitempty"`
	MinFollowers int64    `json:"minFollowers,omitempty"`
	Deadline     string   `json:"deadline,omitempty"`
}

// ListCampaigns fetches a page of campaigns.
func (c *Client) ListCampaigns(ctx context.Context, q CampaignQuery) (*CampaignPage, error) {
	var page CampaignPage
	if err := c.getJSON(ctx, Request{Endpoint: endpointCampaigns + q.encode()}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetCampaign fetches one campaign.
func (c *Client) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	var campaign domain.Campaign
	if err := c.getJSON(ctx, Request{Endpoint: endpointCampaigns + "/" + url.PathEscape(id)}, &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// CreateCampaign publishes a campaign. Brand accounts only.
func (c *Client) CreateCampaign(ctx context.Context, in NewCampaign) (*domain.Campaign, error) {
	var campaign domain.Campaign
	req := Request{Endpoint: endpointCampaigns, Method: http.MethodPost, Body: in}
	if err := c.getJSON(ctx, req, &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// ApplyToCampaign applies the current influencer account to a campaign.
func (c *Client) ApplyToCampaign(ctx context.Context, id string) (*domain.Collaboration, error) {
	var collab domain.Collaboration
	req := Request{Endpoint: endpointCampaigns + "/" + url.PathEscape(id) + "/apply", Method: http.MethodPost}
	if err := c.getJSON(ctx, req, &collab); err != nil {
		return nil, err
	}
	return &collab, nil
}

// ListCollaborations returns the collaborations of the current account.
func (c *Client) ListCollaborations(ctx context.Context) ([]domain.Collaboration, error) {
	var out struct {
		Data []domain.Collaboration `json:"data"`
	}
	if err := c.getJSON(ctx, Request{Endpoint: endpointCollaborations}, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Earnings returns the payout summary of the current influencer account.
func (c *Client) Earnings(ctx context.Context) (*domain.Earnings, error) {
	var e domain.Earnings
	if err := c.getJSON(ctx, Request{Endpoint: endpointEarnings}, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Dashboard returns the role-specific summary of the current account.
func (c *Client) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	var d domain.Dashboard
	if err := c.getJSON(ctx, Request{Endpoint: endpointDashboard}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Upload sends a file as multipart/form-data under the "file" field.
func (c *Client) Upload(ctx context.Context, filename, contentType string, content io.Reader) (*domain.Upload, error) {
	var up domain.Upload
	req := Request{
		Endpoint: endpointUpload,
		Method:   http.MethodPost,
		Form: &Multipart{Files: []FilePart{{
			Field:       "file",
			Filename:    filename,
			ContentType: contentType,
			Content:     content,
		}}},
	}
	if err := c.getJSON(ctx, req, &up); err != nil {
		return nil, err
	}
	return &up, nil
}

// getJSON executes req and decodes a JSON success body into v.
func (c *Client) getJSON(ctx context.Context, req Request, v any) error {
	resp, err := c.Execute(ctx, req)
	if err != nil {
		return err
	}
	if err := resp.Decode(v); err != nil {
		if resp.Raw != nil {
			resp.Raw.Body.Close()
		}
		return &domain.APIError{
			Message: fmt.Sprintf("unexpected response from %s: %v", req.Endpoint, err),
			Status:  resp.StatusCode,
			Err:     err,
		}
	}
	return nil
}
