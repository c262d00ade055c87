package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zycart/zycart-backend/pkg/db/models"
	"github.com/zycart/zycart-backend/pkg/enums"
	pkgerrors "github.com/zycart/zycart-backend/pkg/errors"
	"github.com/zycart/zycart-backend/pkg/pagination"
)

func parseListParams(params pagination.Params) (listParams, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return listParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return listParams{Limit: params.Limit, Cursor: cursor}, nil
}

func encodeNext(cursor *pagination.Cursor) string {
	if cursor == nil {
		return ""
	}
	return pagination.EncodeCursor(*cursor)
}

func toOrderList(rows []models.Order, next *pagination.Cursor) *OrderList {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return &OrderList{Orders: out, NextCursor: encodeNext(next)}
}

func (s *service) ListCustomerOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := parseListParams(params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListCustomerOrders(ctx, customerID, list)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer orders")
	}
	return toOrderList(rows, next), nil
}

func (s *service) GetCustomerOrder(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDTO, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, lookupError(err, "order")
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
	}
	return FromModel(order), nil
}

func (s *service) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*SellerOrderList, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := parseListParams(params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListSellerOrders(ctx, sellerID, list)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller orders")
	}
	out := make([]SellerOrderSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, sellerSummaryFromRow(row))
	}
	return &SellerOrderList{Orders: out, NextCursor: encodeNext(next)}, nil
}

// GetSellerOrder returns the seller's child order with its parent context. A
// child owned by another seller is reported as not found.
func (s *service) GetSellerOrder(ctx context.Context, sellerID, childOrderID uuid.UUID) (*SellerOrderDetail, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	child, err := s.repo.FindSellerChildOrder(ctx, childOrderID, sellerID)
	if err != nil {
		return nil, lookupError(err, "child order")
	}
	parent, err := s.repo.FindOrder(ctx, child.OrderID)
	if err != nil {
		return nil, lookupError(err, "order")
	}

	detail := &SellerOrderDetail{
		SellerOrderSummary: sellerSummaryFromRow(sellerRow{Child: *child, Parent: *parent}),
		ShippingAddress:    parent.ShippingAddress,
		SiblingCount:       len(parent.ChildOrders),
	}

	customer, err := s.customers.FindByID(ctx, parent.CustomerID)
	switch {
	case err == nil:
		detail.Customer = &CustomerSummary{ID: customer.ID, Name: customer.Name, Email: customer.Email}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		s.logg.Warn(s.logg.WithField(s.logg.WithOrderID(ctx, parent.ID.String()), "error", err.Error()), "load order customer failed")
	}
	return detail, nil
}

func (s *service) ListOrders(ctx context.Context, filters AdminOrderFilters, params pagination.Params) (*OrderList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	list, err := parseListParams(params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListOrders(ctx, filters, list)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return toOrderList(rows, next), nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, lookupError(err, "order")
	}
	return FromModel(order), nil
}

// ListOrderEvents returns the order's outbox history, oldest first, with the
// publish state of each event.
func (s *service) ListOrderEvents(ctx context.Context, orderID uuid.UUID) ([]OrderEventDTO, error) {
	if _, err := s.repo.FindOrder(ctx, orderID); err != nil {
		return nil, lookupError(err, "order")
	}
	rows, err := s.events.ListByAggregate(ctx, enums.AggregateOrder, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order events")
	}
	out := make([]OrderEventDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, eventFromModel(row))
	}
	return out, nil
}
