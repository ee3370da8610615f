package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// CommentChannel carries comment events between service instances
const CommentChannel = "fx:comments"

// CommentEvent announces a created, updated or deleted comment
type CommentEvent struct {
	Action    string    `json:"action"` // created, updated, deleted
	Family    string    `json:"family"`
	OwnerID   int64     `json:"owner_id"`
	CommentID int64     `json:"comment_id"`
	Type      string    `json:"comment_type,omitempty"`
	IsAI      bool      `json:"is_ai_response"`
	Timestamp time.Time `json:"timestamp"`
}

// PublishComment publishes a comment event
func (r *RedisClient) PublishComment(ctx context.Context, ev CommentEvent) error {
	return r.Publish(ctx, CommentChannel, ev)
}

// SubscribeComments calls handle for each comment event until ctx is done.
// It returns immediately when Redis is unavailable.
func (r *RedisClient) SubscribeComments(ctx context.Context, logger *zap.Logger, handle func(CommentEvent)) {
	pubsub := r.Subscribe(ctx, CommentChannel)
	if pubsub == nil {
		return
	}
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev CommentEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Warn("⚠️  Dropping malformed comment event", zap.Error(err))
				continue
			}
			handle(ev)
		}
	}
}
