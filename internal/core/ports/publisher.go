package ports

import (
	"context"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// EventPublisher hands account events to the notification collaborator.
// Publishing never fails the originating operation.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.AccountEvent)
}
