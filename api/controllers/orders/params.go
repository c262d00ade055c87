package orders

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zycart/zycart-backend/api/middleware"
	"github.com/zycart/zycart-backend/api/validators"
	"github.com/zycart/zycart-backend/pkg/pagination"
)

func actorID(r *http.Request) (uuid.UUID, error) {
	return middleware.ActorID(r.Context())
}

func pathUUID(r *http.Request, param, label string) (uuid.UUID, error) {
	return validators.ParseUUID(chi.URLParam(r, param), label)
}

func listParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: validators.QueryString(r, "cursor", maxCursorLen),
	}, nil
}

const maxCursorLen = 256

type orderEnvelope struct {
	Order any `json:"order"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,max=32"`
}
