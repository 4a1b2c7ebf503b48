package ports

import (
	"context"

	"github.com/influencehub/marketplace/internal/core/domain"
)

// ListCampaignsFilter carries the query parameters for listing campaigns.
type ListCampaignsFilter struct {
	BrandID  string // empty = all brands
	Status   string // optional
	Category string // optional
	Search   string // optional: partial match on title or brand name
	Page     int    // 1-based
	Limit    int    // capped at 100 by the service
}

// CampaignRepository defines persistence for campaigns and applications.
type CampaignRepository interface {
	Create(ctx context.Context, c *domain.Campaign) error
	FindByID(ctx context.Context, id string) (*domain.Campaign, error)
	// List returns a page of campaigns matching filter and the total count.
	List(ctx context.Context, filter ListCampaignsFilter) ([]*domain.Campaign, int64, error)
	AddCollaboration(ctx context.Context, collab *domain.Collaboration) error
	// Collaborations returns collaborations where the user is either the brand or the influencer.
	Collaborations(ctx context.Context, userID string) ([]*domain.Collaboration, error)
}
