package social

import (
	"context"

	"go.uber.org/zap"

	"github.com/scholarconnect/backend/internal/domain/shared"
	"github.com/scholarconnect/backend/internal/domain/social"
	"github.com/scholarconnect/backend/internal/infrastructure/realtime"
)

// PostChangeRelay translates post domain events into change-stream
// events and publishes them through the realtime broker, from where they
// fan out to every connected client across instances.
type PostChangeRelay struct {
	broker realtime.Broker
	logger *zap.Logger
}

// NewPostChangeRelay creates a new PostChangeRelay
func NewPostChangeRelay(broker realtime.Broker, logger *zap.Logger) *PostChangeRelay {
	return &PostChangeRelay{
		broker: broker,
		logger: logger,
	}
}

// EventTypes returns the post events the relay subscribes to
func (r *PostChangeRelay) EventTypes() []string {
	return []string{
		social.EventTypePostCreated,
		social.EventTypePostUpdated,
		social.EventTypePostDeleted,
		social.EventTypePostLiked,
		social.EventTypePostUnliked,
		social.EventTypeCommentAdded,
		social.EventTypeCommentDeleted,
	}
}

// Handle maps a domain event to a change event. A new post is an insert,
// a removed post is a delete, and everything else (edits, like and
// comment counter movements) is an update of the affected post.
func (r *PostChangeRelay) Handle(ctx context.Context, event shared.DomainEvent) error {
	var changeType realtime.ChangeType
	switch event.EventType() {
	case social.EventTypePostCreated:
		changeType = realtime.ChangeTypeInsert
	case social.EventTypePostDeleted:
		changeType = realtime.ChangeTypeDelete
	case social.EventTypePostUpdated,
		social.EventTypePostLiked,
		social.EventTypePostUnliked,
		social.EventTypeCommentAdded,
		social.EventTypeCommentDeleted:
		changeType = realtime.ChangeTypeUpdate
	default:
		return nil
	}

	change := realtime.NewChangeEvent(changeType, event.AggregateID())
	if err := r.broker.Publish(ctx, change); err != nil {
		r.logger.Error("Failed to publish post change",
			zap.String("event_type", event.EventType()),
			zap.String("post_id", event.AggregateID().String()),
			zap.Error(err))
		return err
	}

	return nil
}

var _ shared.EventHandler = (*PostChangeRelay)(nil)
