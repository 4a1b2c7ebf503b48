package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/influencehub/marketplace/internal/core/domain"
	"github.com/influencehub/marketplace/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	defaultCurrency  = "USD"
)

type CampaignService struct {
	repo   ports.CampaignRepository
	logger zerolog.Logger
}

func NewCampaignService(repo ports.CampaignRepository, logger zerolog.Logger) *CampaignService {
	return &CampaignService{repo: repo, logger: logger}
}

// CreateCampaign publishes a new active campaign for the given brand.
func (s *CampaignService) CreateCampaign(ctx context.Context, input ports.CreateCampaignInput) (*domain.Campaign, error) {
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	campaign := &domain.Campaign{
		ID:           uuid.NewString(),
		BrandID:      input.BrandID,
		BrandName:    input.BrandName,
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		Category:     strings.ToLower(strings.TrimSpace(input.Category)),
		Platforms:    input.Platforms,
		Budget:       input.Budget,
		Currency:     currency,
		MinFollowers: input.MinFollowers,
		Status:       domain.CampaignActive,
		Deadline:     input.Deadline,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, campaign); err != nil {
		s.logger.Error().Err(err).Msg("failed to create campaign")
		return nil, err
	}

	s.logger.Info().Str("campaign_id", campaign.ID).Str("brand_id", input.BrandID).Msg("campaign created")
	return campaign, nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.repo.FindByID(ctx, id)
}

// ListCampaigns returns a page of campaigns. Brands asking for their own
// campaigns see every status; everyone else sees active campaigns unless a
// status is requested explicitly.
func (s *CampaignService) ListCampaigns(ctx context.Context, input ports.ListCampaignsInput) (*ports.ListCampaignsResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	filter := ports.ListCampaignsFilter{
		Status:   input.Status,
		Category: strings.ToLower(strings.TrimSpace(input.Category)),
		Search:   strings.TrimSpace(input.Search),
		Page:     page,
		Limit:    limit,
	}
	if input.Mine && input.Role == domain.RoleBrand {
		filter.BrandID = input.UserID
	} else if filter.Status == "" {
		filter.Status = string(domain.CampaignActive)
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListCampaignsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// Apply records an influencer's application to an active campaign.
func (s *CampaignService) Apply(ctx context.Context, campaignID string, influencer domain.User) (*domain.Collaboration, error) {
	if influencer.Role != domain.RoleInfluencer {
		return nil, domain.ErrForbidden
	}

	campaign, err := s.repo.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != domain.CampaignActive {
		return nil, domain.ErrCampaignClosed
	}
	if !campaign.Deadline.IsZero() && time.Now().After(campaign.Deadline) {
		return nil, domain.ErrCampaignClosed
	}
	if influencer.Followers < campaign.MinFollowers {
		return nil, fmt.Errorf("%w: campaign requires at least %d followers", domain.ErrForbidden, campaign.MinFollowers)
	}

	collab := &domain.Collaboration{
		ID:           uuid.NewString(),
		CampaignID:   campaign.ID,
		CampaignName: campaign.Title,
		BrandID:      campaign.BrandID,
		InfluencerID: string(influencer.ID),
		Status:       domain.CollaborationPending,
		Payout:       campaign.Budget,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.AddCollaboration(ctx, collab); err != nil {
		return nil, err
	}

	s.logger.Info().Str("campaign_id", campaign.ID).Str("influencer_id", collab.InfluencerID).Msg("campaign application received")
	return collab, nil
}

func (s *CampaignService) Collaborations(ctx context.Context, userID string) ([]*domain.Collaboration, error) {
	return s.repo.Collaborations(ctx, userID)
}

// Earnings sums an influencer's payouts: completed collaborations are paid,
// accepted ones are pending.
func (s *CampaignService) Earnings(ctx context.Context, userID string) (*domain.Earnings, error) {
	collabs, err := s.repo.Collaborations(ctx, userID)
	if err != nil {
		return nil, err
	}

	e := &domain.Earnings{Currency: defaultCurrency, Breakdown: []domain.EarningsRecord{}}
	for _, c := range collabs {
		if c.InfluencerID != userID {
			continue
		}
		var status string
		switch c.Status {
		case domain.CollaborationCompleted:
			e.Paid += c.Payout
			status = "paid"
		case domain.CollaborationAccepted:
			e.Pending += c.Payout
			status = "pending"
		default:
			continue
		}
		e.Breakdown = append(e.Breakdown, domain.EarningsRecord{
			CollaborationID: c.ID,
			CampaignName:    c.CampaignName,
			Amount:          c.Payout,
			Status:          status,
			Date:            c.CreatedAt,
		})
	}
	e.Total = e.Paid + e.Pending
	return e, nil
}

// Dashboard builds the landing summary for the user's role.
func (s *CampaignService) Dashboard(ctx context.Context, user domain.User) (*domain.Dashboard, error) {
	userID := string(user.ID)
	filter := ports.ListCampaignsFilter{Status: string(domain.CampaignActive), Page: 1, Limit: 1}
	if user.Role == domain.RoleBrand {
		filter.BrandID = userID
	}
	_, active, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	collabs, err := s.repo.Collaborations(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := &domain.Dashboard{Role: user.Role, ActiveCampaigns: int(active)}
	for _, c := range collabs {
		switch c.Status {
		case domain.CollaborationPending:
			d.PendingApplications++
		case domain.CollaborationAccepted:
			d.ActiveCollaborations++
		case domain.CollaborationCompleted:
			if user.Role == domain.RoleBrand {
				d.TotalSpend += c.Payout
			} else {
				d.TotalEarnings += c.Payout
			}
		}
	}
	return d, nil
}
