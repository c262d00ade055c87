package reviews

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zycart/zycart-backend/internal/orders"
	"github.com/zycart/zycart-backend/pkg/db/dbtest"
	"github.com/zycart/zycart-backend/pkg/db/models"
	"github.com/zycart/zycart-backend/pkg/enums"
	pkgerrors "github.com/zycart/zycart-backend/pkg/errors"
	"github.com/zycart/zycart-backend/pkg/logger"
	"github.com/zycart/zycart-backend/pkg/outbox"
	"github.com/zycart/zycart-backend/pkg/types"
)

type fixture struct {
	conn      *gorm.DB
	svc       *Service
	outbox    *outbox.Repository
	customer  uuid.UUID
	productID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Client(t)
	conn := client.DB()
	gate, err := NewGate(orders.NewRepository(conn))
	require.NoError(t, err)
	outboxRepo := outbox.NewRepository(conn)
	svc, err := NewService(NewRepository(conn), gate, client, outbox.NewService(outboxRepo, nil),
		logger.New(logger.Options{ServiceName: "reviews-test", Output: io.Discard}))
	require.NoError(t, err)
	return &fixture{conn: conn, svc: svc, outbox: outboxRepo, customer: uuid.New(), productID: uuid.New()}
}

func (f *fixture) seedOrder(t *testing.T, status enums.OrderStatus) uuid.UUID {
	t.Helper()
	order := &models.Order{
		ID:               uuid.New(),
		OrderNumber:      "ZYC-" + uuid.NewString()[:8],
		CustomerID:       f.customer,
		ShippingAddress:  types.Address{Line1: "1 Main", City: "Pune", State: "MH", PostalCode: "411001"},
		TotalAmountCents: 500,
		Status:           status,
	}
	child := models.ChildOrder{
		ID:          uuid.New(),
		OrderID:     order.ID,
		SellerID:    uuid.New(),
		AmountCents: 500,
		Status:      enums.ChildOrderStatusShipped,
	}
	child.Items = []models.OrderItem{{
		ID:             uuid.New(),
		ChildOrderID:   child.ID,
		ProductID:      f.productID,
		Title:          "Teapot",
		UnitPriceCents: 500,
		Qty:            1,
		SubtotalCents:  500,
	}}
	order.ChildOrders = []models.ChildOrder{child}
	require.NoError(t, orders.NewRepository(f.conn).CreateOrder(context.Background(), order))
	return order.ID
}

func TestCreateReviewForDeliveredOrder(t *testing.T) {
	f := newFixture(t)
	orderID := f.seedOrder(t, enums.OrderStatusDelivered)
	comment := "  lovely pot  "

	review, err := f.svc.Create(context.Background(), CreateReviewInput{
		CustomerID: f.customer,
		OrderID:    orderID,
		ProductID:  f.productID,
		Rating:     5,
		Comment:    &comment,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)
	require.NotNil(t, review.Comment)
	assert.Equal(t, "lovely pot", *review.Comment)

	events, err := f.outbox.ListByAggregate(context.Background(), enums.AggregateReview, review.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventReviewCreated, events[0].EventType)

	_, err = f.svc.Create(context.Background(), CreateReviewInput{
		CustomerID: f.customer,
		OrderID:    orderID,
		ProductID:  f.productID,
		Rating:     3,
	})
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestCreateReviewGate(t *testing.T) {
	f := newFixture(t)
	delivered := f.seedOrder(t, enums.OrderStatusDelivered)
	shipped := f.seedOrder(t, enums.OrderStatusShipped)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateReviewInput
		code  pkgerrors.Code
	}{
		{"unknown order", CreateReviewInput{CustomerID: f.customer, OrderID: uuid.New(), ProductID: f.productID, Rating: 4}, pkgerrors.CodeNotFound},
		{"foreign customer", CreateReviewInput{CustomerID: uuid.New(), OrderID: delivered, ProductID: f.productID, Rating: 4}, pkgerrors.CodeForbidden},
		{"not delivered", CreateReviewInput{CustomerID: f.customer, OrderID: shipped, ProductID: f.productID, Rating: 4}, pkgerrors.CodeStateConflict},
		{"product not in order", CreateReviewInput{CustomerID: f.customer, OrderID: delivered, ProductID: uuid.New(), Rating: 4}, pkgerrors.CodeValidation},
		{"rating out of range", CreateReviewInput{CustomerID: f.customer, OrderID: delivered, ProductID: f.productID, Rating: 6}, pkgerrors.CodeValidation},
		{"anonymous", CreateReviewInput{OrderID: delivered, ProductID: f.productID, Rating: 4}, pkgerrors.CodeUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.input)
			requireCode(t, err, tc.code)
		})
	}

	long := strings.Repeat("x", maxCommentLength+1)
	_, err := f.svc.Create(ctx, CreateReviewInput{CustomerID: f.customer, OrderID: delivered, ProductID: f.productID, Rating: 4, Comment: &long})
	requireCode(t, err, pkgerrors.CodeValidation)

	var count int64
	require.NoError(t, f.conn.Model(&models.Review{}).Count(&count).Error)
	assert.Zero(t, count)
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code(), "unexpected error %v", err)
}
