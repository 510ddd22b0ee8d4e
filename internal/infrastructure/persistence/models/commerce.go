package models

import (
	"encoding/json"
	"time"

	"github.com/bva/backend/internal/domain/commerce"
	"github.com/bva/backend/internal/domain/integration"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShopModel is the persistence model for the Shop domain entity.
type ShopModel struct {
	BaseModel
	Name     string                   `gorm:"type:varchar(200);not null"`
	OwnerID  uuid.UUID                `gorm:"type:uuid;not null;index"`
	Platform integration.PlatformCode `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (ShopModel) TableName() string {
	return "shops"
}

// ToDomain converts the persistence model to a domain Shop entity.
func (m *ShopModel) ToDomain() *commerce.Shop {
	return &commerce.Shop{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		OwnerID:    m.OwnerID,
		Platform:   m.Platform,
	}
}

// FromDomain populates the persistence model from a domain Shop entity.
func (m *ShopModel) FromDomain(s *commerce.Shop) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.Name = s.Name
	m.OwnerID = s.OwnerID
	m.Platform = s.Platform
}

// ShopAccessModel is the persistence model for shop sharing links.
type ShopAccessModel struct {
	BaseModel
	ShopID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shop_access_shop_user,priority:1"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shop_access_shop_user,priority:2;index"`
	Role   string    `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (ShopAccessModel) TableName() string {
	return "shop_accesses"
}

// ToDomain converts the persistence model to a domain ShopAccess entity.
func (m *ShopAccessModel) ToDomain() *commerce.ShopAccess {
	return &commerce.ShopAccess{
		BaseEntity: m.BaseModel.ToDomain(),
		ShopID:     m.ShopID,
		UserID:     m.UserID,
		Role:       m.Role,
	}
}

// ProductModel is the persistence model for the Product domain entity.
// ExternalID and SKU are each unique per shop; the partial external index
// excludes legacy rows with an empty external ID.
type ProductModel struct {
	BaseModel
	ShopID      uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_product_shop_sku,priority:1;uniqueIndex:idx_product_shop_external,priority:1"`
	ExternalID  string          `gorm:"type:varchar(100);uniqueIndex:idx_product_shop_external,priority:2,where:external_id <> ''"`
	SKU         string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_shop_sku,priority:2"`
	Name        string          `gorm:"type:varchar(255);not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Cost        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Category    string          `gorm:"type:varchar(100)"`
	ImageURL    string          `gorm:"type:text"`
	Stock       int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *commerce.Product {
	return &commerce.Product{
		BaseEntity:  m.BaseModel.ToDomain(),
		ShopID:      m.ShopID,
		ExternalID:  m.ExternalID,
		SKU:         m.SKU,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Cost:        m.Cost,
		Category:    m.Category,
		ImageURL:    m.ImageURL,
		Stock:       m.Stock,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *commerce.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.ShopID = p.ShopID
	m.ExternalID = p.ExternalID
	m.SKU = p.SKU
	m.Name = p.Name
	m.Description = p.Description
	m.Price = p.Price
	m.Cost = p.Cost
	m.Category = p.Category
	m.ImageURL = p.ImageURL
	m.Stock = p.Stock
}

// SaleModel is the persistence model for the Sale domain entity.
// Line items are stored as a JSON blob in the items column.
type SaleModel struct {
	BaseModel
	ShopID          uuid.UUID                `gorm:"type:uuid;not null;index;uniqueIndex:idx_sale_shop_external,priority:1"`
	ExternalID      string                   `gorm:"type:varchar(100);not null;uniqueIndex:idx_sale_shop_external,priority:2"`
	Platform        integration.PlatformCode `gorm:"type:varchar(20);not null"`
	PlatformOrderID string                   `gorm:"type:varchar(100)"`
	ItemsJSON       string                   `gorm:"type:jsonb;column:items"`
	Total           decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Revenue         decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Profit          decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Status          string                   `gorm:"type:varchar(50)"`
	CustomerName    string                   `gorm:"type:varchar(200)"`
	CustomerPhone   string                   `gorm:"type:varchar(50)"`
	OrderedAt       time.Time                `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale entity.
func (m *SaleModel) ToDomain() *commerce.Sale {
	sale := &commerce.Sale{
		BaseEntity:      m.BaseModel.ToDomain(),
		ShopID:          m.ShopID,
		ExternalID:      m.ExternalID,
		Platform:        m.Platform,
		PlatformOrderID: m.PlatformOrderID,
		Items:           make([]commerce.SaleItem, 0),
		Total:           m.Total,
		Revenue:         m.Revenue,
		Profit:          m.Profit,
		Status:          m.Status,
		CustomerName:    m.CustomerName,
		CustomerPhone:   m.CustomerPhone,
		OrderedAt:       m.OrderedAt,
	}

	if m.ItemsJSON != "" {
		var items []commerce.SaleItem
		if err := json.Unmarshal([]byte(m.ItemsJSON), &items); err == nil {
			sale.Items = items
		}
	}

	return sale
}

// FromDomain populates the persistence model from a domain Sale entity.
func (m *SaleModel) FromDomain(s *commerce.Sale) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.ShopID = s.ShopID
	m.ExternalID = s.ExternalID
	m.Platform = s.Platform
	m.PlatformOrderID = s.PlatformOrderID
	m.Total = s.Total
	m.Revenue = s.Revenue
	m.Profit = s.Profit
	m.Status = s.Status
	m.CustomerName = s.CustomerName
	m.CustomerPhone = s.CustomerPhone
	m.OrderedAt = s.OrderedAt

	if len(s.Items) > 0 {
		if jsonBytes, err := json.Marshal(s.Items); err == nil {
			m.ItemsJSON = string(jsonBytes)
		}
	} else {
		m.ItemsJSON = "[]"
	}
}
