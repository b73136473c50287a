package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

type UserRepository struct {
	users   *mongo.Collection
	tenants *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users:   db.Collection(collectionUsers),
		tenants: db.Collection(collectionTenants),
	}
}

type mongoUser struct {
	UserID       int64  `bson:"user_id"`
	TenantID     int64  `bson:"tenant_id"`
	Username     string `bson:"username"`
	Email        string `bson:"email"`
	PasswordHash string `bson:"password_hash"`
	Role         string `bson:"role"`
	DepartmentID *int64 `bson:"department_id,omitempty"`
	IsActive     bool   `bson:"is_active"`
}

type mongoTenant struct {
	TenantID int64  `bson:"tenant_id"`
	Name     string `bson:"name"`
}

func (r *UserRepository) FindActive(ctx context.Context, userID, tenantID int64) (*domain.UserRecord, error) {
	return r.find(ctx, bson.M{"user_id": userID, "tenant_id": tenantID, "is_active": true})
}

// FindActiveByEmail expects emails to be stored lower-cased.
func (r *UserRepository) FindActiveByEmail(ctx context.Context, email string) (*domain.UserRecord, error) {
	return r.find(ctx, bson.M{"email": strings.ToLower(email), "is_active": true})
}

func (r *UserRepository) find(ctx context.Context, filter bson.M) (*domain.UserRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.users.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	role, ok := domain.ParseRole(mu.Role)
	if !ok {
		return nil, fmt.Errorf("find user: user %d has unknown role %q", mu.UserID, mu.Role)
	}

	var mt mongoTenant
	err := r.tenants.FindOne(ctx, bson.M{"tenant_id": mu.TenantID}).Decode(&mt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find tenant: %w", err)
	}

	return &domain.UserRecord{
		ID:           mu.UserID,
		TenantID:     mu.TenantID,
		TenantName:   mt.Name,
		Username:     mu.Username,
		Email:        mu.Email,
		PasswordHash: mu.PasswordHash,
		Role:         role,
		DepartmentID: mu.DepartmentID,
		IsActive:     mu.IsActive,
	}, nil
}
