package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/zycart/zycart-backend/api/middleware"
	"github.com/zycart/zycart-backend/api/responses"
	"github.com/zycart/zycart-backend/api/validators"
	"github.com/zycart/zycart-backend/internal/reviews"
	pkgerrors "github.com/zycart/zycart-backend/pkg/errors"
	"github.com/zycart/zycart-backend/pkg/logger"
)

type reviewCreator interface {
	Create(ctx context.Context, input reviews.CreateReviewInput) (*reviews.ReviewDTO, error)
}

const maxReviewComment = 2000

type createReviewRequest struct {
	OrderID   string  `json:"orderId" validate:"required,uuid"`
	ProductID string  `json:"productId" validate:"required,uuid"`
	Rating    int     `json:"rating" validate:"required,min=1,max=5"`
	Comment   *string `json:"comment" validate:"omitempty,max=2000"`
}

// CreateReview lets a customer review a product from one of their delivered orders.
func CreateReview(svc reviewCreator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reviews service unavailable"))
			return
		}
		customerID, err := middleware.ActorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createReviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var comment *string
		if body.Comment != nil {
			if cleaned := validators.SanitizeString(*body.Comment, maxReviewComment); cleaned != "" {
				comment = &cleaned
			}
		}

		review, err := svc.Create(r.Context(), reviews.CreateReviewInput{
			CustomerID: customerID,
			OrderID:    uuid.MustParse(body.OrderID),
			ProductID:  uuid.MustParse(body.ProductID),
			Rating:     body.Rating,
			Comment:    comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"review": review})
	}
}
