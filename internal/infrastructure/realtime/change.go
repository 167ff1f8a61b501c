package realtime

import (
	"time"

	"github.com/google/uuid"
)

// ChangeType describes what happened to a post
type ChangeType string

const (
	ChangeTypeInsert ChangeType = "insert"
	ChangeTypeUpdate ChangeType = "update"
	ChangeTypeDelete ChangeType = "delete"
)

// ChangeEvent is the wire format for the post change stream. Subscribers
// reconcile their local view from these: an insert triggers a fetch of the
// new post, an update patches in place, a delete removes.
type ChangeEvent struct {
	ID        uuid.UUID  `json:"id"`
	Type      ChangeType `json:"type"`
	PostID    uuid.UUID  `json:"post_id"`
	Timestamp int64      `json:"timestamp"` // UnixNano
}

// NewChangeEvent creates a change event for a post
func NewChangeEvent(changeType ChangeType, postID uuid.UUID) ChangeEvent {
	return ChangeEvent{
		ID:        uuid.New(),
		Type:      changeType,
		PostID:    postID,
		Timestamp: time.Now().UnixNano(),
	}
}
