package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/craftlink/identity-service/internal/core/domain"
)

const (
	verificationTokensCollection = "verification_tokens"
	refreshTokensCollection      = "refresh_tokens"
)

// VerificationTokenRepository implements ports.VerificationTokenRepository.
type VerificationTokenRepository struct {
	coll *mongo.Collection
}

func NewVerificationTokenRepository(db *mongo.Database) *VerificationTokenRepository {
	return &VerificationTokenRepository{coll: db.Collection(verificationTokensCollection)}
}

type mongoVerificationToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	CodeHash  string             `bson:"code_hash"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (r *VerificationTokenRepository) Create(ctx context.Context, token *domain.VerificationToken) (*domain.VerificationToken, error) {
	doc := mongoVerificationToken{
		UserID:    token.UserID,
		CodeHash:  token.CodeHash,
		ExpiresAt: token.ExpiresAt.UTC(),
		CreatedAt: token.CreatedAt.UTC(),
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert verification token: %w", err)
	}

	id, _ := res.InsertedID.(primitive.ObjectID)
	created := *token
	created.ID = id.Hex()
	return &created, nil
}

func (r *VerificationTokenRepository) FindLiveByUser(ctx context.Context, userID string, now time.Time) (*domain.VerificationToken, error) {
	filter := bson.M{
		"user_id":    userID,
		"expires_at": bson.M{"$gt": now.UTC()},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var doc mongoVerificationToken
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrCodeExpired
		}
		return nil, fmt.Errorf("find verification token: %w", err)
	}

	return &domain.VerificationToken{
		ID:        doc.ID.Hex(),
		UserID:    doc.UserID,
		CodeHash:  doc.CodeHash,
		ExpiresAt: doc.ExpiresAt,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func (r *VerificationTokenRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrCodeExpired
	}
	_, err = r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete verification token: %w", err)
	}
	return nil
}

func (r *VerificationTokenRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("delete verification tokens: %w", err)
	}
	return nil
}

func (r *VerificationTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("delete expired verification tokens: %w", err)
	}
	return res.DeletedCount, nil
}

// RefreshTokenRepository implements ports.RefreshTokenRepository.
type RefreshTokenRepository struct {
	coll *mongo.Collection
}

func NewRefreshTokenRepository(db *mongo.Database) *RefreshTokenRepository {
	return &RefreshTokenRepository{coll: db.Collection(refreshTokensCollection)}
}

type mongoRefreshToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	TokenHash string             `bson:"token_hash"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) (*domain.RefreshToken, error) {
	doc := mongoRefreshToken{
		UserID:    token.UserID,
		TokenHash: token.TokenHash,
		ExpiresAt: token.ExpiresAt.UTC(),
		CreatedAt: token.CreatedAt.UTC(),
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// A 48-byte random collision does not happen; a duplicate here
			// means the same raw token was persisted twice.
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("insert refresh token: %w", err)
	}

	id, _ := res.InsertedID.(primitive.ObjectID)
	created := *token
	created.ID = id.Hex()
	return &created, nil
}

func (r *RefreshTokenRepository) FindByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	var doc mongoRefreshToken
	if err := r.coll.FindOne(ctx, bson.M{"token_hash": tokenHash}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	return &domain.RefreshToken{
		ID:        doc.ID.Hex(),
		UserID:    doc.UserID,
		TokenHash: doc.TokenHash,
		ExpiresAt: doc.ExpiresAt,
		CreatedAt: doc.CreatedAt,
	}, nil
}

// Rotate replaces the record matching oldHash in a single conditional update.
// Two concurrent rotations of the same token race on the filter; the loser
// matches nothing and gets ErrInvalidToken, which keeps refresh tokens
// single-use.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, oldHash, newHash string, expiresAt time.Time) error {
	update := bson.M{"$set": bson.M{
		"token_hash": newHash,
		"expires_at": expiresAt.UTC(),
		"created_at": time.Now().UTC(),
	}}

	err := r.coll.FindOneAndUpdate(ctx, bson.M{"token_hash": oldHash}, update).Err()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return domain.ErrInvalidToken
		}
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) DeleteByHash(ctx context.Context, tokenHash string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"token_hash": tokenHash})
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *RefreshTokenRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("delete refresh tokens: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return res.DeletedCount, nil
}
