package reviews

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zycart/zycart-backend/pkg/db/models"
	"github.com/zycart/zycart-backend/pkg/enums"
	pkgerrors "github.com/zycart/zycart-backend/pkg/errors"
)

type orderReader interface {
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

// Gate decides whether a customer may review a product from an order.
type Gate struct {
	orders orderReader
}

// NewGate builds an eligibility gate over the order store.
func NewGate(orders orderReader) (*Gate, error) {
	if orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	return &Gate{orders: orders}, nil
}

// CheckEligible passes only when the order exists, belongs to the customer,
// has been delivered and contains the product.
func (g *Gate) CheckEligible(ctx context.Context, customerID, orderID, productID uuid.UUID) error {
	order, err := g.orders.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.CustomerID != customerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
	}
	if order.Status != enums.OrderStatusDelivered {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order has not been delivered").
			WithDetails(map[string]any{"status": order.Status})
	}
	for _, child := range order.ChildOrders {
		for _, item := range child.Items {
			if item.ProductID == productID {
				return nil
			}
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "product is not part of the order").
		WithDetails(map[string]any{"productId": productID})
}
