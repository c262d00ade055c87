package orders

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zycart/zycart-backend/internal/catalog"
	"github.com/zycart/zycart-backend/internal/users"
	"github.com/zycart/zycart-backend/pkg/db/dbtest"
	"github.com/zycart/zycart-backend/pkg/db/models"
	"github.com/zycart/zycart-backend/pkg/enums"
	pkgerrors "github.com/zycart/zycart-backend/pkg/errors"
	"github.com/zycart/zycart-backend/pkg/logger"
	"github.com/zycart/zycart-backend/pkg/metrics"
	"github.com/zycart/zycart-backend/pkg/outbox"
	"github.com/zycart/zycart-backend/pkg/types"
)

var bakerStreet = types.Address{Line1: "221B Baker St", City: "London", State: "LDN", PostalCode: "NW1"}

type harness struct {
	conn     *gorm.DB
	svc      Service
	outbox   *outbox.Repository
	users    *users.Repository
	customer uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	client := dbtest.Client(t)
	conn := client.DB()
	gateway, err := catalog.NewGateway(catalog.NewRepository(conn))
	require.NoError(t, err)
	userRepo := users.NewRepository(conn)
	outboxRepo := outbox.NewRepository(conn)

	svc, err := NewService(ServiceParams{
		Repo:               NewRepository(conn),
		Tx:                 client,
		Outbox:             outbox.NewService(outboxRepo, nil),
		Events:             outboxRepo,
		Catalog:            gateway,
		Customers:          userRepo,
		PlatformFeePercent: 20,
		Metrics:            metrics.NewOrderMetrics(prometheus.NewRegistry()),
		Logger:             logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard}),
	})
	require.NoError(t, err)

	customer, err := userRepo.Create(context.Background(), users.CreateUserDTO{
		Email: uuid.NewString() + "@example.com",
		Name:  "Sherlock",
	})
	require.NoError(t, err)

	return &harness{
		conn:     conn,
		svc:      svc,
		outbox:   outboxRepo,
		users:    userRepo,
		customer: customer.ID,
	}
}

func (h *harness) seedProduct(t *testing.T, sellerID uuid.UUID, title string, priceCents, stock int) models.Product {
	t.Helper()
	product := models.Product{
		ID:          uuid.New(),
		SellerID:    sellerID,
		Title:       title,
		PriceCents:  priceCents,
		Stock:       stock,
		IsAvailable: true,
	}
	require.NoError(t, h.conn.Create(&product).Error)
	return product
}

func (h *harness) stock(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var product models.Product
	require.NoError(t, h.conn.Where("id = ?", productID).First(&product).Error)
	return product.Stock
}

func (h *harness) place(t *testing.T, items ...CartItemInput) *PlacementResult {
	t.Helper()
	result, err := h.svc.Place(context.Background(), PlaceOrderInput{
		CustomerID:      h.customer,
		Items:           items,
		ShippingAddress: bakerStreet,
	})
	require.NoError(t, err)
	return result
}

func (h *harness) confirm(t *testing.T, orderID uuid.UUID) *OrderDTO {
	t.Helper()
	status := enums.PaymentStatusCompleted
	method := enums.PaymentMethodCard
	order, err := h.svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		OrderID:       orderID,
		CustomerID:    h.customer,
		PaymentMethod: &method,
		PaymentStatus: &status,
	})
	require.NoError(t, err)
	return order
}

func (h *harness) eventCount(t *testing.T, orderID uuid.UUID, eventType enums.OutboxEventType) int {
	t.Helper()
	rows, err := h.outbox.ListByAggregate(context.Background(), enums.AggregateOrder, orderID)
	require.NoError(t, err)
	count := 0
	for _, row := range rows {
		if row.EventType == eventType {
			count++
		}
	}
	return count
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code(), "unexpected error %v", err)
	return typed
}
