package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zycart/zycart-backend/internal/catalog"
	"github.com/zycart/zycart-backend/pkg/db/models"
	"github.com/zycart/zycart-backend/pkg/enums"
	"github.com/zycart/zycart-backend/pkg/pagination"
	"github.com/zycart/zycart-backend/pkg/types"
)

// Repository defines persistence operations for the order aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	LockOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindSellerChildOrder(ctx context.Context, childOrderID, sellerID uuid.UUID) (*models.ChildOrder, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	UpdateChildOrderStatus(ctx context.Context, childOrderID uuid.UUID, status enums.ChildOrderStatus) error
	UpdateChildOrdersStatus(ctx context.Context, orderID uuid.UUID, status enums.ChildOrderStatus) error
	ListCustomerOrders(ctx context.Context, customerID uuid.UUID, params listParams) ([]models.Order, *pagination.Cursor, error)
	ListOrders(ctx context.Context, filters AdminOrderFilters, params listParams) ([]models.Order, *pagination.Cursor, error)
	ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params listParams) ([]sellerRow, *pagination.Cursor, error)
}

type listParams struct {
	Limit  int
	Cursor *pagination.Cursor
}

// CatalogGateway resolves products and commits stock on the caller's transaction.
type CatalogGateway interface {
	LookupProducts(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]catalog.ProductSnapshot, error)
	CommitStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// EventLog reads the outbox history recorded for an aggregate.
type EventLog interface {
	ListByAggregate(ctx context.Context, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID) ([]models.OutboxEvent, error)
}

// CustomerStore reads customers and saves their default address.
type CustomerStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetDefaultAddressIfEmpty(ctx context.Context, userID uuid.UUID, addr types.Address) (bool, error)
}
