package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/influencehub/marketplace/internal/core/ports"
)

const tokensCollection = "session_tokens"

var _ ports.TokenStore = (*TokenStore)(nil)

// TokenStore keeps one document per named session slot.
type TokenStore struct {
	coll *mongo.Collection
	name string
}

type tokenDoc struct {
	Name      string    `bson:"_id"`
	Token     string    `bson:"token"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func NewTokenStore(db *mongo.Database, name string) *TokenStore {
	if name == "" {
		name = "default"
	}
	return &TokenStore{coll: db.Collection(tokensCollection), name: name}
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc tokenDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": s.name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return doc.Token, nil
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	if token == "" {
		return s.Clear(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := tokenDoc{Name: s.name, Token: token, UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": s.name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *TokenStore) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": s.name}); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
