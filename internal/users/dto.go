package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/zycart/zycart-backend/pkg/db/models"
	"github.com/zycart/zycart-backend/pkg/enums"
	"github.com/zycart/zycart-backend/pkg/types"
)

// UserDTO is the transport shape of a marketplace account.
type UserDTO struct {
	ID             uuid.UUID      `json:"id"`
	Email          string         `json:"email"`
	Name           string         `json:"name"`
	Role           enums.Role     `json:"role"`
	DefaultAddress *types.Address `json:"defaultAddress,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email          string
	Name           string
	Role           enums.Role
	DefaultAddress *types.Address
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
		DefaultAddress: u.DefaultAddress,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.RoleCustomer
	}
	return &models.User{
		ID:             uuid.New(),
		Email:          c.Email,
		Name:           c.Name,
		Role:           role,
		DefaultAddress: c.DefaultAddress,
	}
}
