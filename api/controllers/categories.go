package controllers

import (
	"context"
	"net/http"

	"github.com/zycart/zycart-backend/api/responses"
	"github.com/zycart/zycart-backend/internal/catalog"
	pkgerrors "github.com/zycart/zycart-backend/pkg/errors"
	"github.com/zycart/zycart-backend/pkg/logger"
)

type categorySource interface {
	Get(ctx context.Context) ([]catalog.CategoryDTO, error)
}

// ListCategories serves the product categories from the in-process cache.
func ListCategories(cache categorySource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cache == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category cache unavailable"))
			return
		}
		categories, err := cache.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load categories"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}
