package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/identitylab/account-service/internal/core/domain"
)

const auditCollection = "audit_events"

// AuditRepository appends account audit events.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

func (r *AuditRepository) Insert(ctx context.Context, event domain.AuditEvent) error {
	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
