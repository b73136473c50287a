package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

// AuditRepository persists audit events to the auth_audit_events collection.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAudit)}
}

func (r *AuditRepository) Insert(ctx context.Context, ev *domain.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"occurred_at":     ev.Timestamp.UTC(),
		"request_id":      ev.RequestID,
		"actor_id":        ev.ActorID,
		"actor_tenant_id": ev.ActorTenantID,
		"action":          string(ev.Action),
		"resource":        ev.Resource,
		"ip":              ev.IP,
	}
	if ev.RequestedTenant != "" {
		doc["requested_tenant"] = ev.RequestedTenant
	}
	if ev.Detail != "" {
		doc["detail"] = ev.Detail
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
