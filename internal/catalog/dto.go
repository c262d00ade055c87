package catalog

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/zycart/zycart-backend/pkg/db/models"
)

// ProductSnapshot is the live view of a product used at checkout.
type ProductSnapshot struct {
	ID          uuid.UUID
	SellerID    uuid.UUID
	Title       string
	PriceCents  int
	Stock       int
	IsAvailable bool
}

// CanFulfil reports whether qty units can be sold right now.
func (p ProductSnapshot) CanFulfil(qty int) bool {
	return p.IsAvailable && qty > 0 && p.Stock >= qty
}

func snapshotFromModel(m models.Product) ProductSnapshot {
	return ProductSnapshot{
		ID:          m.ID,
		SellerID:    m.SellerID,
		Title:       m.Title,
		PriceCents:  m.PriceCents,
		Stock:       m.Stock,
		IsAvailable: m.IsAvailable,
	}
}

// CategoryDTO is the public category shape.
type CategoryDTO struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Slug       string          `json:"slug"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

func categoryFromModel(m models.Category) CategoryDTO {
	return CategoryDTO{
		ID:         m.ID,
		Name:       m.Name,
		Slug:       m.Slug,
		Attributes: m.Attributes,
	}
}
