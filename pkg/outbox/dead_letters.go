package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zycart/zycart-backend/pkg/db/models"
	"github.com/zycart/zycart-backend/pkg/enums"
)

const (
	maxDeadLetterErrorLen = 1024
	defaultDeadLetterPage = 50
)

// DeadLetterRepository keeps the events the publisher stopped retrying.
type DeadLetterRepository struct {
	db *gorm.DB
}

func NewDeadLetterRepository(db *gorm.DB) *DeadLetterRepository {
	return &DeadLetterRepository{db: db}
}

// RecordTx copies event into outbox_dlq with the terminal reason and cause.
func (r *DeadLetterRepository) RecordTx(tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	if tx == nil {
		return errTxRequired
	}
	if !reason.IsValid() {
		return fmt.Errorf("unknown dead letter reason %q", reason)
	}
	entry := models.OutboxDLQ{
		ID:            uuid.New(),
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  truncateError(cause, maxDeadLetterErrorLen),
		AttemptCount:  event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	return tx.Create(&entry).Error
}

// ByEventID returns nil without error when the event was never dead-lettered.
func (r *DeadLetterRepository) ByEventID(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	var row models.OutboxDLQ
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Recent lists the newest entries, optionally narrowed to one reason.
func (r *DeadLetterRepository) Recent(ctx context.Context, reason enums.OutboxDLQErrorReason, limit int) ([]models.OutboxDLQ, error) {
	if limit <= 0 {
		limit = defaultDeadLetterPage
	}
	q := r.db.WithContext(ctx).Model(&models.OutboxDLQ{})
	if reason != "" {
		q = q.Where("error_reason = ?", reason)
	}
	var rows []models.OutboxDLQ
	err := q.Order("failed_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
