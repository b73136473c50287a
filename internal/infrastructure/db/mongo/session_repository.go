package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

type SessionRepository struct {
	col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{col: db.Collection(collectionSessions)}
}

type mongoSession struct {
	SessionID string    `bson:"session_id"`
	UserID    int64     `bson:"user_id"`
	TenantID  int64     `bson:"tenant_id"`
	UserAgent string    `bson:"user_agent"`
	IP        string    `bson:"ip"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// Exists checks expiry explicitly; the TTL monitor only runs once a minute.
func (r *SessionRepository) Exists(ctx context.Context, userID int64, sessionID string, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"user_id":    userID,
		"session_id": sessionID,
		"expires_at": bson.M{"$gt": now.UTC()},
	}
	err := r.col.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session exists: %w", err)
	}
	return true, nil
}

func (r *SessionRepository) Create(ctx context.Context, s domain.SessionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, mongoSession{
		SessionID: s.SessionID,
		UserID:    s.UserID,
		TenantID:  s.TenantID,
		UserAgent: s.UserAgent,
		IP:        s.IP,
		CreatedAt: s.CreatedAt.UTC(),
		ExpiresAt: s.ExpiresAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Revoke(ctx context.Context, userID int64, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"user_id": userID, "session_id": sessionID}); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
