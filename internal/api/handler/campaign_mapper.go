package handler

import (
	"fmt"
	"time"

	"github.com/influencehub/marketplace/internal/core/domain"
	"github.com/influencehub/marketplace/internal/core/ports"
)

// --- Request → Service input ---

func toCreateCampaignInput(req createCampaignRequest, brand *domain.User) (ports.CreateCampaignInput, error) {
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		return ports.CreateCampaignInput{}, err
	}
	return ports.CreateCampaignInput{
		BrandID:      string(brand.ID),
		BrandName:    brand.DisplayName(),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Platforms:    req.Platforms,
		Budget:       req.Budget,
		Currency:     req.Currency,
		MinFollowers: req.MinFollowers,
		Deadline:     deadline,
	}, nil
}

func toListCampaignsInput(q listCampaignsQuery, id identity) ports.ListCampaignsInput {
	return ports.ListCampaignsInput{
		Role:     id.Role,
		UserID:   id.UserID,
		Mine:     q.Mine,
		Status:   q.Status,
		Category: q.Category,
		Search:   q.Search,
		Page:     q.Page,
		Limit:    q.Limit,
	}
}

func parseDeadline(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("deadline must be RFC 3339 or YYYY-MM-DD")
	}
	// A date-only deadline lasts until the end of that day.
	return t.Add(24*time.Hour - time.Second).UTC(), nil
}

// --- Service result → HTTP response ---

func toListCampaignsResponse(r *ports.ListCampaignsResult) listCampaignsResponse {
	items := r.Items
	if items == nil {
		items = []*domain.Campaign{}
	}
	return listCampaignsResponse{
		Data: items,
		Pagination: paginationResponse{
			Total:      r.Total,
			Page:       r.Page,
			Limit:      r.Limit,
			TotalPages: r.TotalPages,
		},
	}
}
