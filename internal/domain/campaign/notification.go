package campaign

import (
	"context"

	"github.com/bva/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Notification
// ---------------------------------------------------------------------------

// NotificationType classifies a notification for the UI
type NotificationType string

const (
	NotificationTypeSuccess NotificationType = "SUCCESS"
	NotificationTypeError   NotificationType = "ERROR"
	NotificationTypeInfo    NotificationType = "INFO"
)

// Notification is a fire-and-forget user-facing message emitted as a side
// effect of campaign publishing. It is never mutated after creation except
// for the read flag.
type Notification struct {
	shared.BaseEntity
	// UserID is the recipient
	UserID uuid.UUID
	// Title is the short headline
	Title string
	// Message is the body text
	Message string
	// Type classifies the notification
	Type NotificationType
	// IsRead marks whether the user has seen it
	IsRead bool
}

// NewNotification creates an unread notification for a user
func NewNotification(userID uuid.UUID, title, message string, typ NotificationType) *Notification {
	return &Notification{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Title:      title,
		Message:    message,
		Type:       typ,
	}
}

// NotificationRepository defines persistence operations for notifications
type NotificationRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Notification, error)
	Save(ctx context.Context, n *Notification) error
	MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}
