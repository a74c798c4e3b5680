package ports

import (
	"context"

	"github.com/dweeb/marketplace/internal/core/domain"
)

// EventPublisher hands auth events off for asynchronous handling.
type EventPublisher interface {
	Publish(event domain.AuthEvent)
}

// EventHandler processes one auth event.
type EventHandler interface {
	Handle(ctx context.Context, event domain.AuthEvent) error
}
