package handler

import "github.com/influencehub/marketplace/internal/core/domain"

// --- Request / Response types ---

type createCampaignRequest struct {
	Title        string   `json:"title"        validate:"required"`
	Description  string   `json:"description"`
	Category     string   `json:"category"     validate:"required"`
	Platforms    []string `json:"platforms"    validate:"omitempty,dive,oneof=instagram tiktok youtube twitter facebook twitch"`
	Budget       float64  `json:"budget"       validate:"required,gt=0"`
	Currency     string   `json:"currency"     validate:"omitempty,len=3"`
	MinFollowers int64    `json:"minFollowers" validate:"gte=0"`
	// Deadline accepts RFC 3339 or a plain YYYY-MM-DD date.
	Deadline string `json:"deadline"`
}

type listCampaignsQuery struct {
	Mine     bool
	Status   string
	Category string
	Search   string
	Page     int
	Limit    int
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type listCampaignsResponse struct {
	Data       []*domain.Campaign `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}

type listCollaborationsResponse struct {
	Data []*domain.Collaboration `json:"data"`
}
