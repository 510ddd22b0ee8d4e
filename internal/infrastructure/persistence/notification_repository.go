package persistence

import (
	"context"

	"github.com/bva/backend/internal/domain/campaign"
	"github.com/bva/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormNotificationRepository implements campaign.NotificationRepository
// using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// FindByUser finds all notifications for a user, newest first
func (r *GormNotificationRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]campaign.Notification, error) {
	var notificationModels []models.NotificationModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notificationModels).Error; err != nil {
		return nil, err
	}

	notifications := make([]campaign.Notification, len(notificationModels))
	for i, model := range notificationModels {
		notifications[i] = *model.ToDomain()
	}
	return notifications, nil
}

// Save creates a notification
func (r *GormNotificationRepository) Save(ctx context.Context, n *campaign.Notification) error {
	model := &models.NotificationModel{}
	model.FromDomain(n)
	return r.db.WithContext(ctx).Create(model).Error
}

// MarkRead flags a notification as read. The user scope prevents marking
// another user's notification.
func (r *GormNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true).Error
}
