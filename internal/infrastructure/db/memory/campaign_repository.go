package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/influencehub/marketplace/internal/core/domain"
	"github.com/influencehub/marketplace/internal/core/ports"
)

var _ ports.CampaignRepository = (*CampaignRepository)(nil)

type CampaignRepository struct {
	mu        sync.RWMutex
	campaigns []*domain.Campaign
	collabs   []*domain.Collaboration
}

func NewCampaignRepository() *CampaignRepository {
	return &CampaignRepository{}
}

func (r *CampaignRepository) Create(_ context.Context, c *domain.Campaign) error {
	clone := *c
	clone.Platforms = slices.Clone(c.Platforms)

	r.mu.Lock()
	r.campaigns = append(r.campaigns, &clone)
	r.mu.Unlock()
	return nil
}

func (r *CampaignRepository) FindByID(_ context.Context, id string) (*domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.campaigns {
		if c.ID == id {
			out := *c
			return &out, nil
		}
	}
	return nil, domain.ErrCampaignNotFound
}

// List returns newest campaigns first.
func (r *CampaignRepository) List(_ context.Context, f ports.ListCampaignsFilter) ([]*domain.Campaign, int64, error) {
	search := strings.ToLower(f.Search)

	r.mu.RLock()
	var matched []*domain.Campaign
	for i := len(r.campaigns) - 1; i >= 0; i-- {
		c := r.campaigns[i]
		switch {
		case f.BrandID != "" && c.BrandID != f.BrandID:
		case f.Status != "" && string(c.Status) != f.Status:
		case f.Category != "" && c.Category != f.Category:
		case search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.BrandName), search):
		default:
			out := *c
			matched = append(matched, &out)
		}
	}
	r.mu.RUnlock()

	total := int64(len(matched))
	page, limit := max(f.Page, 1), f.Limit
	if limit < 1 {
		return []*domain.Campaign{}, total, nil
	}
	start := min((page-1)*limit, len(matched))
	end := min(start+limit, len(matched))
	return append([]*domain.Campaign{}, matched[start:end]...), total, nil
}

func (r *CampaignRepository) AddCollaboration(_ context.Context, c *domain.Collaboration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.collabs {
		if existing.CampaignID == c.CampaignID && existing.InfluencerID == c.InfluencerID {
			return domain.ErrAlreadyApplied
		}
	}
	clone := *c
	r.collabs = append(r.collabs, &clone)
	return nil
}

func (r *CampaignRepository) Collaborations(_ context.Context, userID string) ([]*domain.Collaboration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Collaboration{}
	for i := len(r.collabs) - 1; i >= 0; i-- {
		c := r.collabs[i]
		if c.BrandID == userID || c.InfluencerID == userID {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}
