package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/craftlink/identity-service/internal/core/domain"
	"github.com/craftlink/identity-service/internal/core/ports"
)

const usersCollection = "users"

// UserRepository implements ports.UserRepository on MongoDB. The artisan
// record is embedded in the user document, which is what makes artisan
// registration atomic with the owning user.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

type mongoArtisan struct {
	ID                string   `bson:"id"`
	BusinessName      string   `bson:"business_name"`
	BusinessLicense   string   `bson:"business_license"`
	TaxID             string   `bson:"tax_id,omitempty"`
	ServiceCategories []string `bson:"service_categories"`
	ServiceAreas      []string `bson:"service_areas"`
	Description       string   `bson:"description,omitempty"`
	HourlyRate        float64  `bson:"hourly_rate"`
	YearsOfExperience int      `bson:"years_of_experience"`
	Qualifications    []string `bson:"qualifications"`
	MaxJobDistance    int      `bson:"max_job_distance"`
	Status            string   `bson:"status"`
	Rating            float64  `bson:"rating"`
	TotalRatings      int      `bson:"total_ratings"`
	IsAvailable       bool     `bson:"is_available"`
	CreatedAt         int64    `bson:"created_at"`
	UpdatedAt         int64    `bson:"updated_at"`
}

type mongoUser struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Email           string             `bson:"email"`
	PasswordHash    string             `bson:"password_hash"`
	FirstName       string             `bson:"first_name"`
	LastName        string             `bson:"last_name"`
	PhoneNumber     string             `bson:"phone_number,omitempty"`
	Role            string             `bson:"role"`
	Status          string             `bson:"status"`
	IsEmailVerified bool               `bson:"is_email_verified"`
	ProfilePicture  string             `bson:"profile_picture,omitempty"`
	Address         string             `bson:"address,omitempty"`
	City            string             `bson:"city,omitempty"`
	State           string             `bson:"state,omitempty"`
	ZipCode         string             `bson:"zip_code,omitempty"`
	Artisan         *mongoArtisan      `bson:"artisan,omitempty"`
	CreatedAt       int64              `bson:"created_at"`
	UpdatedAt       int64              `bson:"updated_at"`
}

func toDoc(user *domain.User) mongoUser {
	doc := mongoUser{
		Email:           user.Email,
		PasswordHash:    user.PasswordHash,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		PhoneNumber:     user.PhoneNumber,
		Role:            string(user.Role),
		Status:          string(user.Status),
		IsEmailVerified: user.IsEmailVerified,
		ProfilePicture:  user.ProfilePicture,
		Address:         user.Address,
		City:            user.City,
		State:           user.State,
		ZipCode:         user.ZipCode,
		CreatedAt:       user.CreatedAt.Unix(),
		UpdatedAt:       user.UpdatedAt.Unix(),
	}
	if a := user.Artisan; a != nil {
		artisanID := a.ID
		if artisanID == "" {
			artisanID = primitive.NewObjectID().Hex()
		}
		doc.Artisan = &mongoArtisan{
			ID:                artisanID,
			BusinessName:      a.BusinessName,
			BusinessLicense:   a.BusinessLicense,
			TaxID:             a.TaxID,
			ServiceCategories: a.ServiceCategories,
			ServiceAreas:      a.ServiceAreas,
			Description:       a.Description,
			HourlyRate:        a.HourlyRate,
			YearsOfExperience: a.YearsOfExperience,
			Qualifications:    a.Qualifications,
			MaxJobDistance:    a.MaxJobDistance,
			Status:            string(a.Status),
			Rating:            a.Rating,
			TotalRatings:      a.TotalRatings,
			IsAvailable:       a.IsAvailable,
			CreatedAt:         a.CreatedAt.Unix(),
			UpdatedAt:         a.UpdatedAt.Unix(),
		}
	}
	return doc
}

func fromDoc(mu *mongoUser) *domain.User {
	user := &domain.User{
		ID:              mu.ID.Hex(),
		Email:           mu.Email,
		PasswordHash:    mu.PasswordHash,
		FirstName:       mu.FirstName,
		LastName:        mu.LastName,
		PhoneNumber:     mu.PhoneNumber,
		Role:            domain.UserRole(mu.Role),
		Status:          domain.UserStatus(mu.Status),
		IsEmailVerified: mu.IsEmailVerified,
		ProfilePicture:  mu.ProfilePicture,
		Address:         mu.Address,
		City:            mu.City,
		State:           mu.State,
		ZipCode:         mu.ZipCode,
		CreatedAt:       unixToTime(mu.CreatedAt),
		UpdatedAt:       unixToTime(mu.UpdatedAt),
	}
	if ma := mu.Artisan; ma != nil {
		user.Artisan = &domain.Artisan{
			ID:                ma.ID,
			UserID:            user.ID,
			BusinessName:      ma.BusinessName,
			BusinessLicense:   ma.BusinessLicense,
			TaxID:             ma.TaxID,
			ServiceCategories: ma.ServiceCategories,
			ServiceAreas:      ma.ServiceAreas,
			Description:       ma.Description,
			HourlyRate:        ma.HourlyRate,
			YearsOfExperience: ma.YearsOfExperience,
			Qualifications:    ma.Qualifications,
			MaxJobDistance:    ma.MaxJobDistance,
			Status:            domain.ArtisanStatus(ma.Status),
			Rating:            ma.Rating,
			TotalRatings:      ma.TotalRatings,
			IsAvailable:       ma.IsAvailable,
			CreatedAt:         unixToTime(ma.CreatedAt),
			UpdatedAt:         unixToTime(ma.UpdatedAt),
		}
	}
	return user
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	res, err := r.coll.InsertOne(ctx, toDoc(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateError(err)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, _ := res.InsertedID.(primitive.ObjectID)
	return r.FindByID(ctx, id.Hex())
}

// duplicateError maps a unique-index violation to the specific conflict the
// caller can act on, based on which index tripped.
func duplicateError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "phone_number"):
		return domain.ErrPhoneExists
	case strings.Contains(msg, "business_license"), strings.Contains(msg, "tax_id"):
		return domain.ErrLicenseExists
	default:
		return domain.ErrUserExists
	}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return fromDoc(&mu), nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	doc := toDoc(user)
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateError(err)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = string(filter.Role)
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*domain.User
	for cursor.Next(ctx) {
		var mu mongoUser
		if err := cursor.Decode(&mu); err != nil {
			return nil, 0, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, fromDoc(&mu))
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (r *UserRepository) FindStalePending(ctx context.Context, createdBefore time.Time) ([]*domain.User, error) {
	cursor, err := r.coll.Find(ctx, bson.M{
		"is_email_verified": false,
		"status":            string(domain.StatusPending),
		"created_at":        bson.M{"$lt": createdBefore.Unix()},
	})
	if err != nil {
		return nil, fmt.Errorf("stale pending users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*domain.User
	for cursor.Next(ctx) {
		var mu mongoUser
		if err := cursor.Decode(&mu); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, fromDoc(&mu))
	}
	return users, cursor.Err()
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
