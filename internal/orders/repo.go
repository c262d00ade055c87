package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zycart/zycart-backend/pkg/db/models"
	"github.com/zycart/zycart-backend/pkg/enums"
	"github.com/zycart/zycart-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *repository) withAggregate(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("ChildOrders", byPosition).
		Preload("ChildOrders.Items", byPosition)
}

// CreateOrder inserts the parent, its child orders and their items.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.withAggregate(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// LockOrder takes a row lock on the parent before loading the aggregate.
// Every writer locks the parent first so sibling updates serialize.
func (r *repository) LockOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var locked models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", orderID).
		First(&locked).Error
	if err != nil {
		return nil, err
	}
	return r.FindOrder(ctx, orderID)
}

func (r *repository) FindSellerChildOrder(ctx context.Context, childOrderID, sellerID uuid.UUID) (*models.ChildOrder, error) {
	var child models.ChildOrder
	err := r.db.WithContext(ctx).
		Preload("Items", byPosition).
		Where("id = ? AND seller_id = ?", childOrderID, sellerID).
		First(&child).Error
	if err != nil {
		return nil, err
	}
	return &child, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) UpdateChildOrderStatus(ctx context.Context, childOrderID uuid.UUID, status enums.ChildOrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.ChildOrder{}).
		Where("id = ?", childOrderID).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repository) UpdateChildOrdersStatus(ctx context.Context, orderID uuid.UUID, status enums.ChildOrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.ChildOrder{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repository) ListCustomerOrders(ctx context.Context, customerID uuid.UUID, params listParams) ([]models.Order, *pagination.Cursor, error) {
	query := r.withAggregate(ctx).Where("customer_id = ?", customerID)
	return r.pageOrders(query, params)
}

func (r *repository) ListOrders(ctx context.Context, filters AdminOrderFilters, params listParams) ([]models.Order, *pagination.Cursor, error) {
	query := r.withAggregate(ctx)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	return r.pageOrders(query, params)
}

func (r *repository) pageOrders(query *gorm.DB, params listParams) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(limit)).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	rows, next := pagination.Trim(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return rows, next, nil
}

func (r *repository) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params listParams) ([]sellerRow, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Preload("Items", byPosition).
		Where("seller_id = ?", sellerID)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var children []models.ChildOrder
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(limit)).Find(&children).Error; err != nil {
		return nil, nil, err
	}

	children, next := pagination.Trim(children, limit, func(c models.ChildOrder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})
	if len(children) == 0 {
		return []sellerRow{}, nil, nil
	}

	parentIDs := make([]uuid.UUID, 0, len(children))
	seen := make(map[uuid.UUID]struct{}, len(children))
	for _, child := range children {
		if _, ok := seen[child.OrderID]; ok {
			continue
		}
		seen[child.OrderID] = struct{}{}
		parentIDs = append(parentIDs, child.OrderID)
	}
	var parents []models.Order
	if err := r.db.WithContext(ctx).Where("id IN ?", parentIDs).Find(&parents).Error; err != nil {
		return nil, nil, err
	}
	byID := make(map[uuid.UUID]models.Order, len(parents))
	for _, parent := range parents {
		byID[parent.ID] = parent
	}

	rows := make([]sellerRow, 0, len(children))
	for _, child := range children {
		rows = append(rows, sellerRow{Child: child, Parent: byID[child.OrderID]})
	}
	return rows, next, nil
}
