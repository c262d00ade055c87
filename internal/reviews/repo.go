package reviews

import (
	"context"

	"gorm.io/gorm"

	"github.com/zycart/zycart-backend/pkg/db/models"
)

const uniqueOrderProduct = "ux_reviews_order_product"

// Repository persists product reviews.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a reviews repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}
