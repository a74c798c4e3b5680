package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dweeb/marketplace/internal/core/domain"
	"github.com/dweeb/marketplace/internal/core/ports"
)

const eventsCollection = "auth_events"

// EventRepository persists auth events to the auth_events audit collection.
type EventRepository struct {
	events *mongo.Collection
	now    func() time.Time
}

var _ ports.EventHandler = (*EventRepository)(nil)

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{events: db.Collection(eventsCollection), now: time.Now}
}

// Events returns the audit log backed by the store's database.
func (s *CredentialStore) Events() *EventRepository {
	return NewEventRepository(s.users.Database())
}

// Handle inserts one audit document per event.
func (r *EventRepository) Handle(ctx context.Context, event domain.AuthEvent) error {
	doc := bson.M{
		"type":         string(event.Type),
		"user_id":      event.UserID,
		"provider":     event.Provider,
		"is_new_user":  event.IsNewUser,
		"timestamp":    event.Timestamp.UTC(),
		"processed_at": r.now().UTC(),
	}
	_, err := r.events.InsertOne(ctx, doc)
	return err
}
