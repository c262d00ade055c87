package payloads

import (
	"github.com/google/uuid"

	"github.com/zycart/zycart-backend/pkg/enums"
)

// OrderPlacedEvent is emitted once the parent order and its child orders exist.
type OrderPlacedEvent struct {
	OrderID          uuid.UUID        `json:"orderId"`
	OrderNumber      string           `json:"orderNumber"`
	CustomerID       uuid.UUID        `json:"customerId"`
	TotalAmountCents int              `json:"totalAmount"`
	ChildOrders      []ChildOrderLine `json:"childOrders"`
}

// ChildOrderLine summarizes one seller slice inside an order event.
type ChildOrderLine struct {
	ChildOrderID uuid.UUID `json:"childOrderId"`
	SellerID     uuid.UUID `json:"sellerId"`
	AmountCents  int       `json:"amount"`
}

// OrderConfirmedEvent is emitted when a finalizing payment confirms the order
// and stock has been committed.
type OrderConfirmedEvent struct {
	OrderID       uuid.UUID           `json:"orderId"`
	OrderNumber   string              `json:"orderNumber"`
	CustomerID    uuid.UUID           `json:"customerId"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	SellerIDs     []uuid.UUID         `json:"sellerIds"`
}

// ChildOrderStatusChangedEvent is emitted for every seller status update.
type ChildOrderStatusChangedEvent struct {
	OrderID      uuid.UUID              `json:"orderId"`
	ChildOrderID uuid.UUID              `json:"childOrderId"`
	SellerID     uuid.UUID              `json:"sellerId"`
	From         enums.ChildOrderStatus `json:"from"`
	To           enums.ChildOrderStatus `json:"to"`
}

// OrderShippedEvent is emitted when the last child order ships and the parent
// is promoted.
type OrderShippedEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	CustomerID  uuid.UUID `json:"customerId"`
}

// OrderStatusOverriddenEvent records an admin override of the parent status.
type OrderStatusOverriddenEvent struct {
	OrderID uuid.UUID         `json:"orderId"`
	AdminID uuid.UUID         `json:"adminId"`
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
}

// ReviewCreatedEvent is emitted after an eligible customer reviews a product.
type ReviewCreatedEvent struct {
	ReviewID   uuid.UUID `json:"reviewId"`
	OrderID    uuid.UUID `json:"orderId"`
	ProductID  uuid.UUID `json:"productId"`
	CustomerID uuid.UUID `json:"customerId"`
	Rating     int       `json:"rating"`
}
