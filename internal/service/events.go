package service

import (
	"context"
	"log/slog"

	"github.com/utafrali/backoffice/internal/domain"
)

// EventPublisher emits domain events. *event.Producer implements it.
type EventPublisher interface {
	UserRegistered(ctx context.Context, u *domain.User) error
	SessionLoggedOut(ctx context.Context, userID string, refreshRevoked bool) error
	ProductCreated(ctx context.Context, p *domain.Product) error
	ProductUpdated(ctx context.Context, p *domain.Product) error
	ProductDeleted(ctx context.Context, id string) error
	CustomerCreated(ctx context.Context, c *domain.Customer) error
	TaskCompleted(ctx context.Context, t *domain.Task) error
}

// logPublishError records a failed publish. Events are best effort and never
// fail the request that triggered them.
func logPublishError(ctx context.Context, l *slog.Logger, eventType, aggregateID string, err error) {
	if err == nil {
		return
	}
	l.ErrorContext(ctx, "failed to publish "+eventType+" event",
		slog.String("aggregate_id", aggregateID),
		slog.String("error", err.Error()),
	)
}
