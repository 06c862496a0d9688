package service

import (
	"context"
	"log/slog"

	"paddock/internal/middleware"
	"paddock/internal/notifications"
)

// FeedPublisher receives feed events after successful mutations.
type FeedPublisher interface {
	PublishFeedEvent(ctx context.Context, event notifications.FeedEvent) error
}

func publishFeedEvent(ctx context.Context, p FeedPublisher, event notifications.FeedEvent) {
	if p == nil {
		return
	}
	if err := p.PublishFeedEvent(ctx, event); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish feed event",
			slog.String("type", event.Type),
			slog.String("error", err.Error()),
		)
	}
}
