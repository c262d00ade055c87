package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/zycart/zycart-backend/pkg/db/models"
	"github.com/zycart/zycart-backend/pkg/enums"
	"github.com/zycart/zycart-backend/pkg/outbox"
	"github.com/zycart/zycart-backend/pkg/types"
)

// CartItemInput is one requested line at placement.
type CartItemInput struct {
	ProductID uuid.UUID
	Qty       int
}

// PlaceOrderInput carries the checkout request of an authenticated customer.
type PlaceOrderInput struct {
	CustomerID      uuid.UUID
	Items           []CartItemInput
	ShippingAddress types.Address
}

// PlacementResult is returned by Place.
type PlacementResult struct {
	Order         OrderDTO       `json:"order"`
	ProfitDetails []ProfitDetail `json:"profitDetails"`
}

// ConfirmPaymentInput records the payment declared by the customer.
type ConfirmPaymentInput struct {
	OrderID       uuid.UUID
	CustomerID    uuid.UUID
	PaymentMethod *enums.PaymentMethod
	PaymentStatus *enums.PaymentStatus
}

// UpdateChildStatusInput is a seller's status request for their child order.
type UpdateChildStatusInput struct {
	ChildOrderID uuid.UUID
	SellerID     uuid.UUID
	Status       enums.ChildOrderStatus
}

// ChildStatusResult describes the outcome of a seller status update.
type ChildStatusResult struct {
	ChildOrderID   uuid.UUID              `json:"childOrderId"`
	OrderID        uuid.UUID              `json:"orderId"`
	Status         enums.ChildOrderStatus `json:"status"`
	ParentStatus   enums.OrderStatus      `json:"parentStatus"`
	ParentPromoted bool                   `json:"parentPromoted"`
	Changed        bool                   `json:"changed"`
}

// AdminSetStatusInput is an admin override of the parent status.
type AdminSetStatusInput struct {
	OrderID uuid.UUID
	AdminID uuid.UUID
	Status  enums.OrderStatus
}

// AdminStatusResult describes the outcome of an admin override.
type AdminStatusResult struct {
	OrderID        uuid.UUID         `json:"orderId"`
	PreviousStatus enums.OrderStatus `json:"previousStatus"`
	Status         enums.OrderStatus `json:"status"`
	Changed        bool              `json:"changed"`
}

// AdminOrderFilters narrows the admin order list.
type AdminOrderFilters struct {
	Status *enums.OrderStatus
}

// OrderItemDTO is a snapshotted line inside a child order.
type OrderItemDTO struct {
	ProductID uuid.UUID `json:"productId"`
	Title     string    `json:"title"`
	UnitPrice int       `json:"unitPrice"`
	Qty       int       `json:"qty"`
	Subtotal  int       `json:"subtotal"`
}

// ChildOrderDTO is one seller slice of a parent order.
type ChildOrderDTO struct {
	ID        uuid.UUID              `json:"id"`
	SellerID  uuid.UUID              `json:"sellerId"`
	Amount    int                    `json:"amount"`
	Status    enums.ChildOrderStatus `json:"status"`
	Items     []OrderItemDTO         `json:"items"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// OrderDTO is the full parent order with its child orders. Amounts are in
// minor currency units.
type OrderDTO struct {
	ID              uuid.UUID            `json:"id"`
	OrderNumber     string               `json:"orderNumber"`
	CustomerID      uuid.UUID            `json:"customerId"`
	ShippingAddress types.Address        `json:"shippingAddress"`
	TotalAmount     int                  `json:"totalAmount"`
	Status          enums.OrderStatus    `json:"status"`
	PaymentMethod   *enums.PaymentMethod `json:"paymentMethod,omitempty"`
	PaymentStatus   *enums.PaymentStatus `json:"paymentStatus,omitempty"`
	ChildOrders     []ChildOrderDTO      `json:"childOrders"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// OrderList is a cursor page of parent orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// SellerOrderSummary flattens a child order with the parent fields a seller
// needs.
type SellerOrderSummary struct {
	ChildOrderID  uuid.UUID              `json:"childOrderId"`
	OrderID       uuid.UUID              `json:"orderId"`
	OrderNumber   string                 `json:"orderNumber"`
	CustomerID    uuid.UUID              `json:"customerId"`
	Amount        int                    `json:"amount"`
	Status        enums.ChildOrderStatus `json:"status"`
	ParentStatus  enums.OrderStatus      `json:"parentStatus"`
	PaymentMethod *enums.PaymentMethod   `json:"paymentMethod,omitempty"`
	PaymentStatus *enums.PaymentStatus   `json:"paymentStatus,omitempty"`
	Items         []OrderItemDTO         `json:"items"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// SellerOrderList is a cursor page of flattened child orders.
type SellerOrderList struct {
	Orders     []SellerOrderSummary `json:"orders"`
	NextCursor string               `json:"nextCursor,omitempty"`
}

// CustomerSummary identifies the buyer on a seller's order view.
type CustomerSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// SellerOrderDetail enriches a child order with the parent's shipping data.
type SellerOrderDetail struct {
	SellerOrderSummary
	ShippingAddress types.Address    `json:"shippingAddress"`
	Customer        *CustomerSummary `json:"customer,omitempty"`
	SiblingCount    int              `json:"siblingCount"`
}

// sellerRow is a child order loaded with its parent.
type sellerRow struct {
	Child  models.ChildOrder
	Parent models.Order
}

func itemsFromModels(items []models.OrderItem) []OrderItemDTO {
	out := make([]OrderItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, OrderItemDTO{
			ProductID: item.ProductID,
			Title:     item.Title,
			UnitPrice: item.UnitPriceCents,
			Qty:       item.Qty,
			Subtotal:  item.SubtotalCents,
		})
	}
	return out
}

func childFromModel(child models.ChildOrder) ChildOrderDTO {
	return ChildOrderDTO{
		ID:        child.ID,
		SellerID:  child.SellerID,
		Amount:    child.AmountCents,
		Status:    child.Status,
		Items:     itemsFromModels(child.Items),
		CreatedAt: child.CreatedAt,
		UpdatedAt: child.UpdatedAt,
	}
}

// FromModel maps a loaded order aggregate into its transport shape.
func FromModel(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	children := make([]ChildOrderDTO, 0, len(order.ChildOrders))
	for _, child := range order.ChildOrders {
		children = append(children, childFromModel(child))
	}
	return &OrderDTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
		ShippingAddress: order.ShippingAddress,
		TotalAmount:     order.TotalAmountCents,
		Status:          order.Status,
		PaymentMethod:   order.PaymentMethod,
		PaymentStatus:   order.PaymentStatus,
		ChildOrders:     children,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

func sellerSummaryFromRow(row sellerRow) SellerOrderSummary {
	return SellerOrderSummary{
		ChildOrderID:  row.Child.ID,
		OrderID:       row.Parent.ID,
		OrderNumber:   row.Parent.OrderNumber,
		CustomerID:    row.Parent.CustomerID,
		Amount:        row.Child.AmountCents,
		Status:        row.Child.Status,
		ParentStatus:  row.Parent.Status,
		PaymentMethod: row.Parent.PaymentMethod,
		PaymentStatus: row.Parent.PaymentStatus,
		Items:         itemsFromModels(row.Child.Items),
		CreatedAt:     row.Child.CreatedAt,
	}
}

// OrderEventDTO is one entry of an order's event history.
type OrderEventDTO struct {
	ID          uuid.UUID             `json:"id"`
	EventType   enums.OutboxEventType `json:"eventType"`
	OccurredAt  time.Time             `json:"occurredAt"`
	Actor       *outbox.ActorRef      `json:"actor,omitempty"`
	Data        json.RawMessage       `json:"data"`
	PublishedAt *time.Time            `json:"publishedAt,omitempty"`
	Attempts    int                   `json:"attempts"`
	LastError   *string               `json:"lastError,omitempty"`
}

func eventFromModel(row models.OutboxEvent) OrderEventDTO {
	dto := OrderEventDTO{
		ID:          row.ID,
		EventType:   row.EventType,
		OccurredAt:  row.CreatedAt,
		Data:        row.Payload,
		PublishedAt: row.PublishedAt,
		Attempts:    row.AttemptCount,
		LastError:   row.LastError,
	}
	// payloads that do not decode as an envelope are returned raw
	if env, err := outbox.DecodeEnvelope(row.Payload); err == nil {
		dto.OccurredAt = env.OccurredAt
		dto.Actor = env.Actor
		dto.Data = env.Data
	}
	return dto
}
