package models

import (
	"encoding/json"
	"time"

	"github.com/bva/backend/internal/domain/campaign"
	"github.com/google/uuid"
)

// CampaignModel is the persistence model for the Campaign domain entity.
// The content blob keeps ad copy, hashtags, and the publish audit trail in
// one JSON column; unknown keys round-trip through the domain type.
type CampaignModel struct {
	BaseModel
	ShopID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name        string          `gorm:"type:varchar(200);not null"`
	ContentJSON string          `gorm:"type:jsonb;column:content"`
	ImageURL    string          `gorm:"type:text"`
	Status      campaign.Status `gorm:"type:varchar(20);not null;default:'DRAFT';index:idx_campaign_due,priority:1"`
	ScheduledAt *time.Time      `gorm:"index:idx_campaign_due,priority:2"`
}

// TableName returns the table name for GORM
func (CampaignModel) TableName() string {
	return "campaigns"
}

// ToDomain converts the persistence model to a domain Campaign entity.
func (m *CampaignModel) ToDomain() *campaign.Campaign {
	c := &campaign.Campaign{
		BaseEntity:  m.BaseModel.ToDomain(),
		ShopID:      m.ShopID,
		Name:        m.Name,
		ImageURL:    m.ImageURL,
		Status:      m.Status,
		ScheduledAt: m.ScheduledAt,
	}

	if m.ContentJSON != "" {
		var content campaign.Content
		if err := json.Unmarshal([]byte(m.ContentJSON), &content); err == nil {
			c.Content = content
		}
	}

	return c
}

// FromDomain populates the persistence model from a domain Campaign entity.
func (m *CampaignModel) FromDomain(c *campaign.Campaign) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.ShopID = c.ShopID
	m.Name = c.Name
	m.ImageURL = c.ImageURL
	m.Status = c.Status
	m.ScheduledAt = c.ScheduledAt

	if jsonBytes, err := json.Marshal(c.Content); err == nil {
		m.ContentJSON = string(jsonBytes)
	}
}

// NotificationModel is the persistence model for the Notification domain
// entity.
type NotificationModel struct {
	BaseModel
	UserID  uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Title   string                    `gorm:"type:varchar(200);not null"`
	Message string                    `gorm:"type:text"`
	Type    campaign.NotificationType `gorm:"type:varchar(20);not null;default:'INFO'"`
	IsRead  bool                      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the persistence model to a domain Notification entity.
func (m *NotificationModel) ToDomain() *campaign.Notification {
	return &campaign.Notification{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		Title:      m.Title,
		Message:    m.Message,
		Type:       m.Type,
		IsRead:     m.IsRead,
	}
}

// FromDomain populates the persistence model from a domain Notification entity.
func (m *NotificationModel) FromDomain(n *campaign.Notification) {
	m.FromDomainBaseEntity(n.BaseEntity)
	m.UserID = n.UserID
	m.Title = n.Title
	m.Message = n.Message
	m.Type = n.Type
	m.IsRead = n.IsRead
}
