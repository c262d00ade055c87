package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zycart/zycart-backend/pkg/db/dbtest"
	"github.com/zycart/zycart-backend/pkg/db/models"
	"github.com/zycart/zycart-backend/pkg/enums"
	"github.com/zycart/zycart-backend/pkg/outbox/payloads"
)

func TestEmitWritesEnvelope(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)
	orderID := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderShipped,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &ActorRef{UserID: uuid.New(), Role: "seller"},
			Data:          payloads.OrderShippedEvent{OrderID: orderID, OrderNumber: "ZYC-9"},
		})
	})
	require.NoError(t, err)

	rows, err := repo.ListByAggregate(context.Background(), enums.AggregateOrder, orderID)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	var env PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &env))
	assert.Equal(t, 1, env.Version)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "seller", env.Actor.Role)

	var data payloads.OrderShippedEvent
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "ZYC-9", data.OrderNumber)
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)

	boom := errors.New("boom")
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Data:          map[string]string{"k": "v"},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	pending, err := repo.CountPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestEmitRejectsMissingTxAndUnknownType(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	require.Error(t, svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventOrderPlaced}))

	conn := dbtest.Open(t)
	require.Error(t, svc.Emit(context.Background(), conn, DomainEvent{EventType: "nope"}))
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)

	first := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventOrderPlaced, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	second := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventOrderConfirmed, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	require.NoError(t, repo.Insert(conn, first))
	require.NoError(t, repo.Insert(conn, second))

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 3)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		require.NoError(t, repo.MarkPublishedTx(tx, first.ID))
		return repo.MarkFailedTx(tx, second.ID, errors.New("broker down"))
	}))

	var failed models.OutboxEvent
	require.NoError(t, conn.First(&failed, "id = ?", second.ID).Error)
	assert.Equal(t, 1, failed.AttemptCount)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, "broker down", *failed.LastError)
	assert.True(t, failed.Pending())

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 1)
		require.NoError(t, err)
		assert.Empty(t, rows, "rows at the attempt ceiling are skipped")
		return repo.MarkTerminalTx(tx, second.ID, errors.New("gave up"))
	}))

	pending, err := repo.CountPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestDeadLetterRecordTruncatesCause(t *testing.T) {
	conn := dbtest.Open(t)
	dlq := NewDeadLetterRepository(conn)

	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		AttemptCount:  9,
	}
	cause := errors.New(strings.Repeat("x", maxDeadLetterErrorLen+50))
	require.NoError(t, dlq.RecordTx(conn, event, enums.OutboxDLQReasonMaxAttempts, cause))

	row, err := dlq.ByEventID(context.Background(), event.ID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Len(t, *row.ErrorMessage, maxDeadLetterErrorLen)
	assert.Equal(t, 9, row.AttemptCount)
	assert.Equal(t, event.AggregateID, row.AggregateID)

	missing, err := dlq.ByEventID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeadLetterRecentFiltersByReason(t *testing.T) {
	conn := dbtest.Open(t)
	dlq := NewDeadLetterRepository(conn)

	for _, reason := range []enums.OutboxDLQErrorReason{
		enums.OutboxDLQReasonMaxAttempts,
		enums.OutboxDLQReasonNonRetryable,
		enums.OutboxDLQReasonNonRetryable,
	} {
		event := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventOrderShipped, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
		require.NoError(t, dlq.RecordTx(conn, event, reason, errors.New("bad")))
	}

	all, err := dlq.Recent(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	nonRetryable, err := dlq.Recent(context.Background(), enums.OutboxDLQReasonNonRetryable, 10)
	require.NoError(t, err)
	assert.Len(t, nonRetryable, 2)

	require.Error(t, dlq.RecordTx(conn, models.OutboxEvent{ID: uuid.New()}, "gone", nil))
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"version":2,"eventId":"e1","occurredAt":"2026-01-02T03:04:05Z","data":{"orderNumber":"ZYC-1"}}`))
	require.NoError(t, err)
	assert.Equal(t, 2, env.Version)

	var data payloads.OrderShippedEvent
	require.NoError(t, env.DecodeData(&data))
	assert.Equal(t, "ZYC-1", data.OrderNumber)

	_, err = DecodeEnvelope([]byte(`{"version":1,"data":null}`))
	assert.ErrorIs(t, err, ErrEmptyEnvelope)
	_, err = DecodeEnvelope([]byte(`{"version":1}`))
	assert.ErrorIs(t, err, ErrEmptyEnvelope)
	_, err = DecodeEnvelope([]byte(`not-json`))
	assert.Error(t, err)
}

func TestEmitRejectsMismatchedAggregate(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)
	err := svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     enums.EventReviewCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Data:          map[string]string{"k": "v"},
	})
	require.Error(t, err)
}

func TestEmitRejectsMissingAggregate(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)
	err := svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		Data:          map[string]string{"k": "v"},
	})
	require.Error(t, err)
}
