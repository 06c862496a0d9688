// Package notifications fans feed events out through Redis pub/sub to live sockets.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"paddock/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// FeedChannel is the Redis channel carrying feed events.
const FeedChannel = "paddock:feed"

// Feed event types.
const (
	EventPostCreated        = "post_created"
	EventPostUpdated        = "post_updated"
	EventPostDeleted        = "post_deleted"
	EventReactionChanged    = "reaction_changed"
	EventPollVoted          = "poll_voted"
	EventRaceWeekendChanged = "race_weekend_changed"
)

// FeedEvent is the message published on FeedChannel.
type FeedEvent struct {
	Type      string         `json:"type"`
	PostID    uint           `json:"post_id,omitempty"`
	UserID    uint           `json:"user_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Notifier publishes feed events into Redis.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier. A nil client turns every call into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishFeedEvent stamps and publishes event on FeedChannel.
func (n *Notifier) PublishFeedEvent(ctx context.Context, event FeedEvent) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal feed event: %w", err)
	}
	return n.rdb.Publish(ctx, FeedChannel, string(payload)).Err()
}

// StartFeedSubscriber subscribes to FeedChannel and calls onMessage for each
// payload until ctx is cancelled.
func (n *Notifier) StartFeedSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, FeedChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", FeedChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in feed subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
