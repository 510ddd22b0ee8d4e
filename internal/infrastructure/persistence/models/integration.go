package models

import (
	"encoding/json"

	"github.com/bva/backend/internal/domain/integration"
	"github.com/google/uuid"
)

// IntegrationModel is the persistence model for the Integration domain
// entity. Settings are stored as a single JSON blob so unknown keys written
// by other components survive round-trips.
type IntegrationModel struct {
	BaseModel
	ShopID       uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_integration_shop_platform,priority:1;index"`
	Platform     integration.PlatformCode `gorm:"type:varchar(20);not null;uniqueIndex:idx_integration_shop_platform,priority:2"`
	SettingsJSON string                   `gorm:"type:jsonb;column:settings"`
}

// TableName returns the table name for GORM
func (IntegrationModel) TableName() string {
	return "integrations"
}

// ToDomain converts the persistence model to a domain Integration entity.
func (m *IntegrationModel) ToDomain() *integration.Integration {
	i := &integration.Integration{
		BaseEntity: m.BaseModel.ToDomain(),
		ShopID:     m.ShopID,
		Platform:   m.Platform,
	}

	if m.SettingsJSON != "" {
		var settings integration.Settings
		if err := json.Unmarshal([]byte(m.SettingsJSON), &settings); err == nil {
			i.Settings = settings
		}
	}

	return i
}

// FromDomain populates the persistence model from a domain Integration entity.
func (m *IntegrationModel) FromDomain(i *integration.Integration) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.ShopID = i.ShopID
	m.Platform = i.Platform

	if jsonBytes, err := json.Marshal(i.Settings); err == nil {
		m.SettingsJSON = string(jsonBytes)
	}
}

// IntegrationModelFromDomain creates a new persistence model from a domain
// Integration entity.
func IntegrationModelFromDomain(i *integration.Integration) *IntegrationModel {
	m := &IntegrationModel{}
	m.FromDomain(i)
	return m
}
