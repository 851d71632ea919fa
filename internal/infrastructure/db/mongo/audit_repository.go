package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/user-admin/internal/core/domain"
	"github.com/99minutos/user-admin/internal/core/ports"
)

const userEventsCollection = "user_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	db *mongo.Database
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{db: db}
}

var _ ports.AuditRepository = (*AuditRepository)(nil)

// EnsureIndexes creates the lookup indexes on the audit collection.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(userEventsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}
	return nil
}

// InsertUserEvent persists a user mutation to the user_events collection.
func (r *AuditRepository) InsertUserEvent(ctx context.Context, event domain.UserEvent) error {
	roles := event.Roles
	if roles == nil {
		roles = []string{}
	}
	doc := bson.M{
		"type":             string(event.Type),
		"user_id":          int64(event.UserID),
		"email":            event.Email,
		"roles":            roles,
		"source":           event.Source,
		"password_changed": event.PasswordChanged,
		"roles_replaced":   event.RolesReplaced,
		"occurred_at":      event.OccurredAt.UTC(),
		"recorded_at":      time.Now().UTC(),
	}

	_, err := r.db.Collection(userEventsCollection).InsertOne(ctx, doc)
	return err
}

// ListByUser returns the most recent events of a user, newest first.
func (r *AuditRepository) ListByUser(ctx context.Context, userID uint, limit int64) ([]domain.UserEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(limit)

	cur, err := r.db.Collection(userEventsCollection).Find(ctx, bson.M{"user_id": int64(userID)}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find user events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []struct {
		Type            string    `bson:"type"`
		UserID          int64     `bson:"user_id"`
		Email           string    `bson:"email"`
		Roles           []string  `bson:"roles"`
		Source          string    `bson:"source"`
		PasswordChanged bool      `bson:"password_changed"`
		RolesReplaced   bool      `bson:"roles_replaced"`
		OccurredAt      time.Time `bson:"occurred_at"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode user events: %w", err)
	}

	events := make([]domain.UserEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, domain.UserEvent{
			Type:            domain.UserEventType(d.Type),
			UserID:          uint(d.UserID),
			Email:           d.Email,
			Roles:           d.Roles,
			Source:          d.Source,
			PasswordChanged: d.PasswordChanged,
			RolesReplaced:   d.RolesReplaced,
			OccurredAt:      d.OccurredAt,
		})
	}
	return events, nil
}
