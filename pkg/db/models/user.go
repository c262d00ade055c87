package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zycart/zycart-backend/pkg/enums"
	"github.com/zycart/zycart-backend/pkg/types"
)

// User represents a marketplace account.
type User struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Email          string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name           string         `gorm:"column:name;not null"`
	Role           enums.Role     `gorm:"column:role;type:text;not null;default:'customer'"`
	DefaultAddress *types.Address `gorm:"column:default_address;type:jsonb"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
