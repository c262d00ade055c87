package orders

import (
	"fmt"
	"net/http"

	"github.com/zycart/zycart-backend/api/responses"
	"github.com/zycart/zycart-backend/api/validators"
	internalorders "github.com/zycart/zycart-backend/internal/orders"
	"github.com/zycart/zycart-backend/pkg/enums"
	pkgerrors "github.com/zycart/zycart-backend/pkg/errors"
	"github.com/zycart/zycart-backend/pkg/logger"
)

type childStatusResponse struct {
	Message string `json:"message"`
	*internalorders.ChildStatusResult
}

// SellerOrders lists the caller's child orders flattened with their parent context.
func SellerOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		sellerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListSellerOrders(r.Context(), sellerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// SellerOrderDetail returns one child order owned by the caller, enriched with
// the parent's shipping address and customer.
func SellerOrderDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		sellerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		childOrderID, err := pathUUID(r, "orderId", "child order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetSellerOrder(r.Context(), sellerID, childOrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderEnvelope{Order: detail})
	}
}

// SellerUpdateStatus moves the caller's child order to Packed or Shipped.
func SellerUpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		sellerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		childOrderID, err := pathUUID(r, "id", "child order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseChildOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		result, err := svc.UpdateChildStatus(r.Context(), internalorders.UpdateChildStatusInput{
			ChildOrderID: childOrderID,
			SellerID:     sellerID,
			Status:       status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, childStatusResponse{
			Message:           childStatusMessage(result),
			ChildStatusResult: result,
		})
	}
}

func childStatusMessage(result *internalorders.ChildStatusResult) string {
	switch {
	case !result.Changed:
		return fmt.Sprintf("child order already %s", result.Status)
	case result.ParentPromoted:
		return fmt.Sprintf("child order marked %s; order is now %s", result.Status, result.ParentStatus)
	default:
		return fmt.Sprintf("child order marked %s", result.Status)
	}
}
