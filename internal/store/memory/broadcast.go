package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActivityPost is one recorded activity-feed entry.
type ActivityPost struct {
	ID        uuid.UUID
	UserID    string
	Message   string
	CreatedAt time.Time
}

// Notification is one recorded in-app notification.
type Notification struct {
	ID          uuid.UUID
	RecipientID string
	ItemID      string
	Type        string
	CreatedAt   time.Time
}

// Broadcaster is the in-memory activity/notification sink. It satisfies the
// notify poster and notifier contracts and keeps everything it receives, so
// tests and the demo wiring can inspect dispatches.
type Broadcaster struct {
	mu            sync.Mutex
	activities    []ActivityPost
	notifications []Notification
}

// NewBroadcaster returns an empty broadcaster.
func NewBroadcaster() *Broadcaster { return &Broadcaster{} }

// PostActivity records an activity-feed post on behalf of a user.
func (b *Broadcaster) PostActivity(_ context.Context, userID, message string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.activities = append(b.activities, ActivityPost{
		ID:        uuid.New(),
		UserID:    userID,
		Message:   message,
		CreatedAt: time.Now(),
	})
	return nil
}

// Notify records an in-app notification for a recipient.
func (b *Broadcaster) Notify(_ context.Context, recipientID, itemID, notificationType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifications = append(b.notifications, Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		ItemID:      itemID,
		Type:        notificationType,
		CreatedAt:   time.Now(),
	})
	return nil
}

// Activities returns a copy of the recorded activity posts.
func (b *Broadcaster) Activities() []ActivityPost {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ActivityPost, len(b.activities))
	copy(out, b.activities)
	return out
}

// Notifications returns a copy of the recorded notifications.
func (b *Broadcaster) Notifications() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notification, len(b.notifications))
	copy(out, b.notifications)
	return out
}
