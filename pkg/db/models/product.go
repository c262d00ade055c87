package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Product is a seller listing with a live stock counter.
type Product struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	SellerID    uuid.UUID  `gorm:"column:seller_id;type:uuid;not null;index"`
	CategoryID  *uuid.UUID `gorm:"column:category_id;type:uuid"`
	Title       string     `gorm:"column:title;not null"`
	PriceCents  int        `gorm:"column:price_cents;not null"`
	Stock       int        `gorm:"column:stock;not null;default:0"`
	IsAvailable bool       `gorm:"column:is_available;not null;default:true"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Category groups products and carries free-form attribute metadata.
type Category struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name       string          `gorm:"column:name;not null"`
	Slug       string          `gorm:"column:slug;not null;uniqueIndex"`
	Attributes json.RawMessage `gorm:"column:attributes;type:jsonb"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
