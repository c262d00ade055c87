package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zycart/zycart-backend/internal/catalog"
	"github.com/zycart/zycart-backend/pkg/db"
	"github.com/zycart/zycart-backend/pkg/db/models"
	"github.com/zycart/zycart-backend/pkg/enums"
	pkgerrors "github.com/zycart/zycart-backend/pkg/errors"
	"github.com/zycart/zycart-backend/pkg/logger"
	"github.com/zycart/zycart-backend/pkg/metrics"
	"github.com/zycart/zycart-backend/pkg/outbox"
	"github.com/zycart/zycart-backend/pkg/outbox/payloads"
	"github.com/zycart/zycart-backend/pkg/pagination"
	"github.com/zycart/zycart-backend/pkg/types"
)

const (
	maxNumberAttempts = 3

	scopeOrder      = "order"
	scopeChildOrder = "child_order"
)

var errOrderNumberTaken = errors.New("order number taken")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service runs the order lifecycle for customers, sellers and admins.
type Service interface {
	Place(ctx context.Context, input PlaceOrderInput) (*PlacementResult, error)
	ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*OrderDTO, error)
	UpdateChildStatus(ctx context.Context, input UpdateChildStatusInput) (*ChildStatusResult, error)
	AdminSetStatus(ctx context.Context, input AdminSetStatusInput) (*AdminStatusResult, error)

	ListCustomerOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error)
	GetCustomerOrder(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDTO, error)
	ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*SellerOrderList, error)
	GetSellerOrder(ctx context.Context, sellerID, childOrderID uuid.UUID) (*SellerOrderDetail, error)
	ListOrders(ctx context.Context, filters AdminOrderFilters, params pagination.Params) (*OrderList, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	ListOrderEvents(ctx context.Context, orderID uuid.UUID) ([]OrderEventDTO, error)
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repo               Repository
	Tx                 txRunner
	Outbox             outboxPublisher
	Events             EventLog
	Catalog            CatalogGateway
	Customers          CustomerStore
	Numbers            NumberGenerator
	PlatformFeePercent int
	Metrics            *metrics.OrderMetrics
	Logger             *logger.Logger
}

type service struct {
	repo        Repository
	tx          txRunner
	outbox      outboxPublisher
	events      EventLog
	catalog     CatalogGateway
	customers   CustomerStore
	numbers     NumberGenerator
	platformFee int
	metrics     *metrics.OrderMetrics
	logg        *logger.Logger
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("event log required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog gateway required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.PlatformFeePercent < 0 || params.PlatformFeePercent > 100 {
		return nil, fmt.Errorf("platform fee percent must be between 0 and 100")
	}
	numbers := params.Numbers
	if numbers == nil {
		numbers = NewNumberGenerator(defaultNumberPrefix, nil)
	}
	return &service{
		repo:        params.Repo,
		tx:          params.Tx,
		outbox:      params.Outbox,
		events:      params.Events,
		catalog:     params.Catalog,
		customers:   params.Customers,
		numbers:     numbers,
		platformFee: params.PlatformFeePercent,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

func (s *service) Place(ctx context.Context, input PlaceOrderInput) (*PlacementResult, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	address := input.ShippingAddress.Normalized()
	if err := address.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}

	productIDs := make([]uuid.UUID, 0, len(input.Items))
	demand := make(map[uuid.UUID]int, len(input.Items))
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required").
				WithDetails(map[string]any{"index": i})
		}
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"index": i, "productId": item.ProductID})
		}
		if _, ok := demand[item.ProductID]; !ok {
			productIDs = append(productIDs, item.ProductID)
		}
		demand[item.ProductID] += item.Qty
	}

	var placed *models.Order
	for attempt := 0; attempt < maxNumberAttempts && placed == nil; attempt++ {
		number, err := s.numbers()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			products, err := s.catalog.LookupProducts(ctx, tx, productIDs)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
			}
			for _, id := range productIDs {
				product, ok := products[id]
				if !ok || !product.CanFulfil(demand[id]) {
					return productUnavailable(id, product.Title)
				}
			}

			order := buildOrder(number, input.CustomerID, address, input.Items, products)
			if err := s.repo.WithTx(tx).CreateOrder(ctx, order); err != nil {
				if isOrderNumberCollision(err) {
					return errOrderNumberTaken
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
			}

			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderPlaced,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         actor(input.CustomerID, enums.RoleCustomer),
				Data:          placedEvent(order),
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order placed")
			}
			placed = order
			return nil
		})
		if errors.Is(err, errOrderNumberTaken) {
			s.logg.Warn(s.logg.WithField(ctx, "order_number", number), "order number collision, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	if placed == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not allocate order number")
	}

	logCtx := s.logg.WithOrderID(ctx, placed.ID.String())
	s.metrics.ObservePlaced(placed.TotalAmountCents)
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
		"order_number": placed.OrderNumber,
		"child_orders": len(placed.ChildOrders),
		"total_amount": placed.TotalAmountCents,
	}), "order placed")

	if _, err := s.customers.SetDefaultAddressIfEmpty(ctx, input.CustomerID, address); err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "save default address failed")
	}

	return &PlacementResult{
		Order:         *FromModel(placed),
		ProfitDetails: s.profitDetails(placed),
	}, nil
}

func (s *service) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*OrderDTO, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.PaymentMethod == nil && input.PaymentStatus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paymentMethod or paymentStatus required")
	}
	if input.PaymentMethod != nil && !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	var (
		result    *models.Order
		confirmed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockOrder(ctx, input.OrderID)
		if err != nil {
			return lookupError(err, "order")
		}
		if order.CustomerID != input.CustomerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
		}

		updates := map[string]any{}
		if input.PaymentMethod != nil {
			updates["payment_method"] = *input.PaymentMethod
			order.PaymentMethod = input.PaymentMethod
		}
		if input.PaymentStatus != nil {
			updates["payment_status"] = *input.PaymentStatus
			order.PaymentStatus = input.PaymentStatus
		}

		// Decided from the children: an admin override may already have
		// moved the parent past Confirmed while stock is still uncommitted.
		finalize := input.PaymentStatus != nil &&
			input.PaymentStatus.Finalizes() &&
			order.AwaitingConfirmation()
		if finalize {
			if err := s.commitStock(ctx, tx, order); err != nil {
				return err
			}
			if err := repo.UpdateChildOrdersStatus(ctx, order.ID, enums.ChildOrderStatusConfirmed); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm child orders")
			}
			if order.Status.CanTransitionTo(enums.OrderStatusConfirmed) {
				updates["status"] = enums.OrderStatusConfirmed
			}
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order payment")
		}

		if finalize {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderConfirmed,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         actor(input.CustomerID, enums.RoleCustomer),
				Data:          confirmedEvent(order),
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order confirmed")
			}
		}

		reloaded, err := repo.FindOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		result = reloaded
		confirmed = finalize
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, result.ID.String())
	if confirmed {
		if result.Status == enums.OrderStatusConfirmed {
			s.metrics.IncTransition(scopeOrder, enums.OrderStatusConfirmed.String())
		}
		s.logg.Info(s.logg.WithField(logCtx, "status", result.Status.String()), "order confirmed")
	} else {
		s.logg.Info(logCtx, "order payment updated")
	}
	return FromModel(result), nil
}

// commitStock decrements stock for every line of the order. Products are
// visited in id order so concurrent confirmations lock rows consistently.
func (s *service) commitStock(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	qty := map[uuid.UUID]int{}
	titles := map[uuid.UUID]string{}
	for _, child := range order.ChildOrders {
		for _, item := range child.Items {
			qty[item.ProductID] += item.Qty
			titles[item.ProductID] = item.Title
		}
	}
	ids := make([]uuid.UUID, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, id := range ids {
		if err := s.catalog.CommitStock(ctx, tx, id, qty[id]); err != nil {
			if errors.Is(err, catalog.ErrInsufficientStock) {
				s.metrics.IncStockConflict()
				return productUnavailable(id, titles[id])
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commit stock")
		}
	}
	return nil
}

func (s *service) UpdateChildStatus(ctx context.Context, input UpdateChildStatusInput) (*ChildStatusResult, error) {
	if input.ChildOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "child order id required")
	}
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Status.SellerSettable() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be Packed or Shipped").
			WithDetails(map[string]any{"status": input.Status})
	}

	var result ChildStatusResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		child, err := repo.FindSellerChildOrder(ctx, input.ChildOrderID, input.SellerID)
		if err != nil {
			return lookupError(err, "child order")
		}
		order, err := repo.LockOrder(ctx, child.OrderID)
		if err != nil {
			return lookupError(err, "order")
		}

		idx := -1
		for i := range order.ChildOrders {
			if order.ChildOrders[i].ID == child.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "child order not found")
		}
		current := order.ChildOrders[idx].Status

		result = ChildStatusResult{
			ChildOrderID: child.ID,
			OrderID:      order.ID,
			Status:       current,
			ParentStatus: order.Status,
		}
		if current == input.Status {
			return nil
		}
		if !current.CanTransitionTo(input.Status) {
			return pkgerrors.InvalidTransition("child order", current, input.Status)
		}

		if err := repo.UpdateChildOrderStatus(ctx, child.ID, input.Status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update child order status")
		}
		order.ChildOrders[idx].Status = input.Status
		result.Status = input.Status
		result.Changed = true

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventChildOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor(input.SellerID, enums.RoleSeller),
			Data: payloads.ChildOrderStatusChangedEvent{
				OrderID:      order.ID,
				ChildOrderID: child.ID,
				SellerID:     input.SellerID,
				From:         current,
				To:           input.Status,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit child order status changed")
		}

		if !allShipped(order.ChildOrders) || !order.Status.CanTransitionTo(enums.OrderStatusShipped) {
			return nil
		}
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"status": enums.OrderStatusShipped}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote order")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderShipped,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor(input.SellerID, enums.RoleSeller),
			Data: payloads.OrderShippedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CustomerID:  order.CustomerID,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order shipped")
		}
		result.ParentStatus = enums.OrderStatusShipped
		result.ParentPromoted = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithField(
		s.logg.WithChildOrderID(s.logg.WithOrderID(ctx, result.OrderID.String()), result.ChildOrderID.String()),
		"status", result.Status.String(),
	)
	if result.Changed {
		s.metrics.IncTransition(scopeChildOrder, result.Status.String())
		s.logg.Info(logCtx, "child order status updated")
	}
	if result.ParentPromoted {
		s.metrics.IncTransition(scopeOrder, enums.OrderStatusShipped.String())
		s.logg.Info(logCtx, "order promoted to shipped")
	}
	return &result, nil
}

func (s *service) AdminSetStatus(ctx context.Context, input AdminSetStatusInput) (*AdminStatusResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.AdminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Status.AdminSettable() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be Shipped, Out for Delivery or Delivered").
			WithDetails(map[string]any{"status": input.Status})
	}

	var result AdminStatusResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockOrder(ctx, input.OrderID)
		if err != nil {
			return lookupError(err, "order")
		}
		result = AdminStatusResult{
			OrderID:        order.ID,
			PreviousStatus: order.Status,
			Status:         order.Status,
		}
		if order.Status == input.Status {
			return nil
		}
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"status": input.Status}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		result.Status = input.Status
		result.Changed = true
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusOverridden,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor(input.AdminID, enums.RoleAdmin),
			Data: payloads.OrderStatusOverriddenEvent{
				OrderID: order.ID,
				AdminID: input.AdminID,
				From:    order.Status,
				To:      input.Status,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order status overridden")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		s.metrics.IncTransition(scopeOrder, result.Status.String())
		s.logg.Info(s.logg.WithFields(s.logg.WithOrderID(ctx, result.OrderID.String()), map[string]any{
			"from": result.PreviousStatus.String(),
			"to":   result.Status.String(),
		}), "order status overridden")
	}
	return &result, nil
}

func (s *service) profitDetails(order *models.Order) []ProfitDetail {
	details := make([]ProfitDetail, 0, len(order.ChildOrders))
	for _, child := range order.ChildOrders {
		seller, platform := splitProfit(child.AmountCents, s.platformFee)
		details = append(details, ProfitDetail{
			ChildOrderID:  child.ID,
			SellerID:      child.SellerID,
			Amount:        child.AmountCents,
			SellerShare:   seller,
			PlatformShare: platform,
		})
	}
	return details
}

// buildOrder partitions the cart by seller in first-appearance order and
// snapshots titles and current catalog prices.
func buildOrder(number string, customerID uuid.UUID, address types.Address, items []CartItemInput, products map[uuid.UUID]catalog.ProductSnapshot) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     number,
		CustomerID:      customerID,
		ShippingAddress: address,
		Status:          enums.OrderStatusPending,
	}

	childBySeller := map[uuid.UUID]int{}
	for _, item := range items {
		product := products[item.ProductID]
		idx, ok := childBySeller[product.SellerID]
		if !ok {
			idx = len(order.ChildOrders)
			childBySeller[product.SellerID] = idx
			order.ChildOrders = append(order.ChildOrders, models.ChildOrder{
				ID:       uuid.New(),
				OrderID:  order.ID,
				SellerID: product.SellerID,
				Position: idx,
				Status:   enums.ChildOrderStatusPending,
			})
		}
		child := &order.ChildOrders[idx]
		subtotal := product.PriceCents * item.Qty
		child.Items = append(child.Items, models.OrderItem{
			ID:             uuid.New(),
			ChildOrderID:   child.ID,
			ProductID:      product.ID,
			Position:       len(child.Items),
			Title:          product.Title,
			UnitPriceCents: product.PriceCents,
			Qty:            item.Qty,
			SubtotalCents:  subtotal,
		})
		child.AmountCents += subtotal
	}
	for _, child := range order.ChildOrders {
		order.TotalAmountCents += child.AmountCents
	}
	return order
}

func allShipped(children []models.ChildOrder) bool {
	if len(children) == 0 {
		return false
	}
	for _, child := range children {
		if child.Status != enums.ChildOrderStatusShipped {
			return false
		}
	}
	return true
}

func placedEvent(order *models.Order) payloads.OrderPlacedEvent {
	lines := make([]payloads.ChildOrderLine, 0, len(order.ChildOrders))
	for _, child := range order.ChildOrders {
		lines = append(lines, payloads.ChildOrderLine{
			ChildOrderID: child.ID,
			SellerID:     child.SellerID,
			AmountCents:  child.AmountCents,
		})
	}
	return payloads.OrderPlacedEvent{
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		CustomerID:       order.CustomerID,
		TotalAmountCents: order.TotalAmountCents,
		ChildOrders:      lines,
	}
}

func confirmedEvent(order *models.Order) payloads.OrderConfirmedEvent {
	sellers := make([]uuid.UUID, 0, len(order.ChildOrders))
	for _, child := range order.ChildOrders {
		sellers = append(sellers, child.SellerID)
	}
	event := payloads.OrderConfirmedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		SellerIDs:   sellers,
	}
	if order.PaymentMethod != nil {
		event.PaymentMethod = *order.PaymentMethod
	}
	if order.PaymentStatus != nil {
		event.PaymentStatus = *order.PaymentStatus
	}
	return event
}

func actor(userID uuid.UUID, role enums.Role) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: userID, Role: role.String()}
}

func productUnavailable(productID uuid.UUID, title string) error {
	if title == "" {
		return pkgerrors.New(pkgerrors.CodeProductUnavailable, "product unavailable").With("productId", productID)
	}
	return pkgerrors.New(pkgerrors.CodeProductUnavailable, fmt.Sprintf("%s is unavailable or out of stock", title)).
		With("productId", productID).
		With("title", title)
}

func lookupError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}

func isOrderNumberCollision(err error) bool {
	return db.IsUniqueViolation(err, "orders_order_number_key") ||
		db.IsUniqueViolation(err, "orders.order_number")
}
