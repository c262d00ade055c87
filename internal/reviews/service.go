package reviews

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zycart/zycart-backend/pkg/db"
	"github.com/zycart/zycart-backend/pkg/db/models"
	"github.com/zycart/zycart-backend/pkg/enums"
	pkgerrors "github.com/zycart/zycart-backend/pkg/errors"
	"github.com/zycart/zycart-backend/pkg/logger"
	"github.com/zycart/zycart-backend/pkg/outbox"
	"github.com/zycart/zycart-backend/pkg/outbox/payloads"
)

const maxCommentLength = 2000

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CreateReviewInput is a customer's review request.
type CreateReviewInput struct {
	CustomerID uuid.UUID
	OrderID    uuid.UUID
	ProductID  uuid.UUID
	Rating     int
	Comment    *string
}

// ReviewDTO is the public review shape.
type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	OrderID    uuid.UUID `json:"orderId"`
	ProductID  uuid.UUID `json:"productId"`
	CustomerID uuid.UUID `json:"customerId"`
	Rating     int       `json:"rating"`
	Comment    *string   `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Service creates reviews behind the eligibility gate.
type Service struct {
	repo   *Repository
	gate   *Gate
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService wires the review service.
func NewService(repo *Repository, gate *Gate, tx txRunner, ob outboxPublisher, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if gate == nil {
		return nil, fmt.Errorf("eligibility gate required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{repo: repo, gate: gate, tx: tx, outbox: ob, logg: logg}, nil
}

func (s *Service) Create(ctx context.Context, input CreateReviewInput) (*ReviewDTO, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.OrderID == uuid.Nil || input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderId and productId required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	comment := input.Comment
	if comment != nil {
		trimmed := strings.TrimSpace(*comment)
		if utf8.RuneCountInString(trimmed) > maxCommentLength {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment too long")
		}
		if trimmed == "" {
			comment = nil
		} else {
			comment = &trimmed
		}
	}

	if err := s.gate.CheckEligible(ctx, input.CustomerID, input.OrderID, input.ProductID); err != nil {
		return nil, err
	}

	review := &models.Review{
		ID:         uuid.New(),
		OrderID:    input.OrderID,
		ProductID:  input.ProductID,
		CustomerID: input.CustomerID,
		Rating:     input.Rating,
		Comment:    comment,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, review); err != nil {
			if db.IsUniqueViolation(err, uniqueOrderProduct) || db.IsUniqueViolation(err, "reviews.order_id") {
				return pkgerrors.New(pkgerrors.CodeConflict, "product already reviewed for this order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewCreated,
			AggregateType: enums.AggregateReview,
			AggregateID:   review.ID,
			Actor:         &outbox.ActorRef{UserID: input.CustomerID, Role: enums.RoleCustomer.String()},
			Data: payloads.ReviewCreatedEvent{
				ReviewID:   review.ID,
				OrderID:    review.OrderID,
				ProductID:  review.ProductID,
				CustomerID: review.CustomerID,
				Rating:     review.Rating,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(s.logg.WithOrderID(ctx, review.OrderID.String()), map[string]any{
		"review_id":  review.ID.String(),
		"product_id": review.ProductID.String(),
	}), "review created")

	return &ReviewDTO{
		ID:         review.ID,
		OrderID:    review.OrderID,
		ProductID:  review.ProductID,
		CustomerID: review.CustomerID,
		Rating:     review.Rating,
		Comment:    review.Comment,
		CreatedAt:  review.CreatedAt,
	}, nil
}
