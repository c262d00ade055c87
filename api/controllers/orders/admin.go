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

type adminStatusResponse struct {
	Message string `json:"message"`
	*internalorders.AdminStatusResult
}

// AdminOrders lists every order, optionally filtered by ?status=.
func AdminOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters internalorders.AdminOrderFilters
		if raw := validators.QueryString(r, "status", 32); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}

		list, err := svc.ListOrders(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminOrderDetail returns any order.
func AdminOrderDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := pathUUID(r, "orderId", "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderEnvelope{Order: order})
	}
}

type orderEventsResponse struct {
	Events []internalorders.OrderEventDTO `json:"events"`
}

// AdminOrderEvents returns the event history of an order with its publish state.
func AdminOrderEvents(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := pathUUID(r, "orderId", "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		events, err := svc.ListOrderEvents(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderEventsResponse{Events: events})
	}
}

// AdminSetStatus forces the parent order into Shipped, Out for Delivery or Delivered.
func AdminSetStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "parentId", "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		result, err := svc.AdminSetStatus(r.Context(), internalorders.AdminSetStatusInput{
			OrderID: orderID,
			AdminID: adminID,
			Status:  status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		msg := fmt.Sprintf("order status set to %s", result.Status)
		if !result.Changed {
			msg = fmt.Sprintf("order already %s", result.Status)
		}
		responses.WriteSuccess(w, adminStatusResponse{Message: msg, AdminStatusResult: result})
	}
}
