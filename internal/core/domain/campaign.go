package domain

import "time"

// CampaignStatus represents the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

// Campaign is a brand's paid collaboration offer.
type Campaign struct {
	ID           string         `json:"id" bson:"_id,omitempty"`
	BrandID      string         `json:"brandId" bson:"brand_id"`
	BrandName    string         `json:"brandName" bson:"brand_name"`
	Title        string         `json:"title" bson:"title"`
	Description  string         `json:"description" bson:"description"`
	Category     string         `json:"category" bson:"category"`
	Platforms    []string       `json:"platforms" bson:"platforms"`
	Budget       float64        `json:"budget" bson:"budget"`
	Currency     string         `json:"currency" bson:"currency"`
	MinFollowers int64          `json:"minFollowers,omitempty" bson:"min_followers,omitempty"`
	Status       CampaignStatus `json:"status" bson:"status"`
	Deadline     time.Time      `json:"deadline,omitzero" bson:"deadline,omitempty"`
	CreatedAt    time.Time      `json:"createdAt" bson:"created_at"`
}

// CollaborationStatus tracks an influencer's participation in a campaign.
type CollaborationStatus string

const (
	CollaborationPending   CollaborationStatus = "pending"
	CollaborationAccepted  CollaborationStatus = "accepted"
	CollaborationRejected  CollaborationStatus = "rejected"
	CollaborationCompleted CollaborationStatus = "completed"
)

// Collaboration links an influencer to a campaign.
type Collaboration struct {
	ID           string              `json:"id"`
	CampaignID   string              `json:"campaignId"`
	CampaignName string              `json:"campaignName"`
	BrandID      string              `json:"brandId"`
	InfluencerID string              `json:"influencerId"`
	Status       CollaborationStatus `json:"status"`
	Payout       float64             `json:"payout"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// Earnings summarizes an influencer's payouts.
type Earnings struct {
	Currency  string           `json:"currency"`
	Total     float64          `json:"total"`
	Pending   float64          `json:"pending"`
	Paid      float64          `json:"paid"`
	Breakdown []EarningsRecord `json:"breakdown"`
}

// EarningsRecord is one payout line.
type EarningsRecord struct {
	CollaborationID string    `json:"collaborationId"`
	CampaignName    string    `json:"campaignName"`
	Amount          float64   `json:"amount"`
	Status          string    `json:"status"`
	Date            time.Time `json:"date"`
}

// Dashboard is the role-specific landing summary.
type Dashboard struct {
	Role                 Role    `json:"role"`
	ActiveCampaigns      int     `json:"activeCampaigns"`
	PendingApplications  int     `json:"pendingApplications"`
	ActiveCollaborations int     `json:"activeCollaborations"`
	TotalSpend           float64 `json:"totalSpend,omitempty"`
	TotalEarnings        float64 `json:"totalEarnings,omitempty"`
}

// Upload describes a stored file returned by the upload endpoint.
type Upload struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}
