package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// RefreshTokenRepository implements ports.RefreshTokenRepository.
type RefreshTokenRepository struct {
	col *mongo.Collection
}

func NewRefreshTokenRepository(db *mongo.Database) *RefreshTokenRepository {
	return &RefreshTokenRepository{col: db.Collection(collectionRefreshTokens)}
}

type refreshTokenDoc struct {
	ID        string    `bson:"_id"`
	Token     string    `bson:"token"`
	UserID    string    `bson:"user_id"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
	IsRevoked bool      `bson:"is_revoked"`
}

func (r *RefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := refreshTokenDoc{
		ID:        t.ID,
		Token:     t.Token,
		UserID:    t.UserID,
		ExpiresAt: t.ExpiresAt.UTC(),
		CreatedAt: t.CreatedAt.UTC(),
		IsRevoked: t.IsRevoked,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return domain.StorageError("insert refresh token", err)
	}
	return nil
}

func (r *RefreshTokenRepository) FindActive(ctx context.Context, token string, now time.Time) (*domain.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"token":      token,
		"is_revoked": false,
		"expires_at": bson.M{"$gt": now.UTC()},
	}
	var doc refreshTokenDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRefreshTokenNotFound
		}
		return nil, domain.StorageError("find refresh token", err)
	}
	return &domain.RefreshToken{
		ID:        doc.ID,
		Token:     doc.Token,
		UserID:    doc.UserID,
		ExpiresAt: doc.ExpiresAt.UTC(),
		CreatedAt: doc.CreatedAt.UTC(),
		IsRevoked: doc.IsRevoked,
	}, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"token": token}, bson.M{"$set": bson.M{"is_revoked": true}})
	if err != nil {
		return false, domain.StorageError("revoke refresh token", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"expires_at": bson.M{"$lte": now.UTC()}},
		bson.M{"is_revoked": true},
	}}
	res, err := r.col.DeleteMany(ctx, filter)
	if err != nil {
		return 0, domain.StorageError("delete expired refresh tokens", err)
	}
	return res.DeletedCount, nil
}
