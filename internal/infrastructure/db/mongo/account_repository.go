package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/influencehub/marketplace/internal/core/domain"
	"github.com/influencehub/marketplace/internal/core/ports"
)

const accountsCollection = "accounts"

var _ ports.AccountRepository = (*AccountRepository)(nil)

type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(accountsCollection)}
}

type mongoAccount struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Name         string             `bson:"name,omitempty"`
	Role         string             `bson:"role"`
	BrandName    string             `bson:"brand_name,omitempty"`
	Industry     string             `bson:"industry,omitempty"`
	Website      string             `bson:"website,omitempty"`
	Username     string             `bson:"username,omitempty"`
	Category     string             `bson:"category,omitempty"`
	Followers    int64              `bson:"followers,omitempty"`
	Bio          string             `bson:"bio,omitempty"`
	AvatarURL    string             `bson:"avatar_url,omitempty"`
	CreatedAt    int64              `bson:"created_at"`
}

// EnsureIndexes creates the unique email index Create relies on.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create account indexes: %w", err)
	}
	return nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toMongoAccount(account)
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return fromMongoAccount(doc), nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"password_hash": hash}})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoAccount
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return fromMongoAccount(doc), nil
}

func toMongoAccount(a *domain.Account) mongoAccount {
	return mongoAccount{
		Email:        strings.ToLower(strings.TrimSpace(a.Email)),
		PasswordHash: a.PasswordHash,
		Name:         a.Name,
		Role:         string(a.Role),
		BrandName:    a.BrandName,
		Industry:     a.Industry,
		Website:      a.Website,
		Username:     a.Username,
		Category:     a.Category,
		Followers:    a.Followers,
		Bio:          a.Bio,
		AvatarURL:    a.AvatarURL,
		CreatedAt:    a.CreatedAt.Unix(),
	}
}

func fromMongoAccount(d mongoAccount) *domain.Account {
	return &domain.Account{
		User: domain.User{
			ID:        domain.UserID(d.ID.Hex()),
			Email:     d.Email,
			Name:      d.Name,
			Role:      domain.Role(d.Role),
			BrandName: d.BrandName,
			Industry:  d.Industry,
			Website:   d.Website,
			Username:  d.Username,
			Category:  d.Category,
			Followers: d.Followers,
			Bio:       d.Bio,
			AvatarURL: d.AvatarURL,
			CreatedAt: unixToTime(d.CreatedAt),
		},
		PasswordHash: d.PasswordHash,
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
