package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zycart/zycart-backend/pkg/enums"
	"github.com/zycart/zycart-backend/pkg/types"
)

// Order is the customer-facing parent order that owns one child order per seller.
type Order struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber      string               `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID       uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index"`
	ShippingAddress  types.Address        `gorm:"column:shipping_address;type:jsonb;not null"`
	TotalAmountCents int                  `gorm:"column:total_amount_cents;not null"`
	Status           enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'Pending'"`
	PaymentMethod    *enums.PaymentMethod `gorm:"column:payment_method;type:text"`
	PaymentStatus    *enums.PaymentStatus `gorm:"column:payment_status;type:text"`
	ChildOrders      []ChildOrder         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// ChildOrder is the slice of a parent order fulfilled by a single seller.
type ChildOrder struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	SellerID    uuid.UUID              `gorm:"column:seller_id;type:uuid;not null;index"`
	Position    int                    `gorm:"column:position;not null"`
	AmountCents int                    `gorm:"column:amount_cents;not null"`
	Status      enums.ChildOrderStatus `gorm:"column:status;type:text;not null;default:'Pending'"`
	Items       []OrderItem            `gorm:"foreignKey:ChildOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots a product line at placement time.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ChildOrderID   uuid.UUID `gorm:"column:child_order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Position       int       `gorm:"column:position;not null"`
	Title          string    `gorm:"column:title;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	SubtotalCents  int       `gorm:"column:subtotal_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// AwaitingConfirmation reports whether stock is still uncommitted. Children
// only leave Pending when payment confirmation commits stock, and an admin
// override never touches them.
func (o *Order) AwaitingConfirmation() bool {
	for _, child := range o.ChildOrders {
		if child.Status == enums.ChildOrderStatusPending {
			return true
		}
	}
	return false
}
