package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opsdesk/dashboard/internal/core/domain"
)

const approvalEventsCollection = "approval_events"

// ApprovalAuditRepository appends admin decisions to the approval_events
// collection.
type ApprovalAuditRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewApprovalAuditRepository(db *mongo.Database) *ApprovalAuditRepository {
	return &ApprovalAuditRepository{coll: db.Collection(approvalEventsCollection), now: time.Now}
}

// EnsureIndexes creates the lookup indexes used when reviewing a candidate's
// history. It is safe to call on every start.
func (r *ApprovalAuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "target_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "actor_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("approval_events indexes: %w", err)
	}
	return nil
}

// InsertApprovalEvent persists one decision.
func (r *ApprovalAuditRepository) InsertApprovalEvent(ctx context.Context, event *domain.ApprovalEvent) error {
	_, err := r.coll.InsertOne(ctx, approvalEventDocument(event, r.now()))
	return err
}

func approvalEventDocument(event *domain.ApprovalEvent, recordedAt time.Time) bson.M {
	return bson.M{
		"target_id":   event.TargetID,
		"actor_id":    event.ActorID,
		"outcome":     string(event.Outcome),
		"from":        bson.M{"role": event.FromRole, "is_approved": event.FromApproved},
		"to":          bson.M{"role": event.ToRole, "is_approved": event.ToApproved},
		"occurred_at": event.OccurredAt.UTC(),
		"recorded_at": recordedAt.UTC(),
	}
}
