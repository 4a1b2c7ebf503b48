package ports

import (
	"context"
	"time"

	"github.com/influencehub/marketplace/internal/core/domain"
)

// CreateCampaignInput carries all data needed to create a campaign.
type CreateCampaignInput struct {
	BrandID      string
	BrandName    string
	Title        string
	Description  string
	Category     string
	Platforms    []string
	Budget       float64
	Currency     string
	MinFollowers int64
	Deadline     time.Time
}

// ListCampaignsInput carries the parameters for the list endpoint.
type ListCampaignsInput struct {
	Role     domain.Role
	UserID   string
	Mine     bool // brands only: restrict to own campaigns
	Status   string
	Category string
	Search   string
	Page     int
	Limit    int
}

// ListCampaignsResult is returned by ListCampaigns.
type ListCampaignsResult struct {
	Items      []*domain.Campaign
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// CampaignService defines use-case operations for campaigns and their collaborations.
type CampaignService interface {
	CreateCampaign(ctx context.Context, input CreateCampaignInput) (*domain.Campaign, error)
	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context, input ListCampaignsInput) (*ListCampaignsResult, error)
	Apply(ctx context.Context, campaignID string, influencer domain.User) (*domain.Collaboration, error)
	Collaborations(ctx context.Context, userID string) ([]*domain.Collaboration, error)
	Earnings(ctx context.Context, userID string) (*domain.Earnings, error)
	Dashboard(ctx context.Context, user domain.User) (*domain.Dashboard, error)
}
