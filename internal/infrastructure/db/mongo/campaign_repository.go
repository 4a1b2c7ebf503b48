package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/influencehub/marketplace/internal/core/domain"
	"github.com/influencehub/marketplace/internal/core/ports"
)

const (
	campaignsCollection      = "campaigns"
	collaborationsCollection = "collaborations"
)

var _ ports.CampaignRepository = (*CampaignRepository)(nil)

type CampaignRepository struct {
	campaigns *mongo.Collection
	collabs   *mongo.Collection
}

func NewCampaignRepository(db *mongo.Database) *CampaignRepository {
	return &CampaignRepository{
		campaigns: db.Collection(campaignsCollection),
		collabs:   db.Collection(collaborationsCollection),
	}
}

type collaborationDoc struct {
	ID           string    `bson:"_id"`
	CampaignID   string    `bson:"campaign_id"`
	CampaignName string    `bson:"campaign_name"`
	BrandID      string    `bson:"brand_id"`
	InfluencerID string    `bson:"influencer_id"`
	Status       string    `bson:"status"`
	Payout       float64   `bson:"payout"`
	CreatedAt    time.Time `bson:"created_at"`
}

// EnsureIndexes creates the indexes used by List and the one-application-per-influencer rule.
func (r *CampaignRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.campaigns.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "brand_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create campaign indexes: %w", err)
	}

	_, err = r.collabs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "campaign_id", Value: 1}, {Key: "influencer_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "brand_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create collaboration indexes: %w", err)
	}
	return nil
}

func (r *CampaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.campaigns.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*domain.Campaign, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var c domain.Campaign
	if err := r.campaigns.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("find campaign: %w", err)
	}
	return &c, nil
}

// List returns newest campaigns first.
func (r *CampaignRepository) List(ctx context.Context, f ports.ListCampaignsFilter) ([]*domain.Campaign, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.BrandID != "" {
		filter["brand_id"] = f.BrandID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Search != "" {
		pattern := primitiveRegex(f.Search)
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"brand_name": pattern},
		}
	}

	total, err := r.campaigns.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))
	cur, err := r.campaigns.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer cur.Close(ctx)

	items := []*domain.Campaign{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode campaigns: %w", err)
	}
	return items, total, nil
}

func (r *CampaignRepository) AddCollaboration(ctx context.Context, c *domain.Collaboration) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := collaborationDoc{
		ID:           c.ID,
		CampaignID:   c.CampaignID,
		CampaignName: c.CampaignName,
		BrandID:      c.BrandID,
		InfluencerID: c.InfluencerID,
		Status:       string(c.Status),
		Payout:       c.Payout,
		CreatedAt:    c.CreatedAt,
	}
	if _, err := r.collabs.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyApplied
		}
		return fmt.Errorf("insert collaboration: %w", err)
	}
	return nil
}

func (r *CampaignRepository) Collaborations(ctx context.Context, userID string) ([]*domain.Collaboration, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"brand_id": userID},
		bson.M{"influencer_id": userID},
	}}
	cur, err := r.collabs.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list collaborations: %w", err)
	}
	defer cur.Close(ctx)

	var docs []collaborationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode collaborations: %w", err)
	}
	out := make([]*domain.Collaboration, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.Collaboration{
			ID:           d.ID,
			CampaignID:   d.CampaignID,
			CampaignName: d.CampaignName,
			BrandID:      d.BrandID,
			InfluencerID: d.InfluencerID,
			Status:       domain.CollaborationStatus(d.Status),
			Payout:       d.Payout,
			CreatedAt:    d.CreatedAt,
		})
	}
	return out, nil
}

// primitiveRegex matches s literally, ignoring case.
func primitiveRegex(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}
