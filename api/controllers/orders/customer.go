package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/zycart/zycart-backend/api/responses"
	"github.com/zycart/zycart-backend/api/validators"
	internalorders "github.com/zycart/zycart-backend/internal/orders"
	"github.com/zycart/zycart-backend/pkg/enums"
	pkgerrors "github.com/zycart/zycart-backend/pkg/errors"
	"github.com/zycart/zycart-backend/pkg/logger"
	"github.com/zycart/zycart-backend/pkg/types"
)

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

type placeOrderRequest struct {
	Items   []cartItemRequest `json:"items" validate:"max=100"`
	Address types.Address     `json:"address"`
}

func (p placeOrderRequest) toInput(customerID uuid.UUID) (internalorders.PlaceOrderInput, error) {
	input := internalorders.PlaceOrderInput{
		CustomerID:      customerID,
		ShippingAddress: p.Address,
		Items:           make([]internalorders.CartItemInput, 0, len(p.Items)),
	}
	for i, item := range p.Items {
		productID, err := uuid.Parse(strings.TrimSpace(item.ProductID))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid productId").WithDetails(map[string]any{
				"index": i,
			})
		}
		input.Items = append(input.Items, internalorders.CartItemInput{ProductID: productID, Qty: item.Qty})
	}
	return input, nil
}

type confirmPaymentRequest struct {
	PaymentMethod *string `json:"paymentMethod"`
	PaymentStatus *string `json:"paymentStatus"`
}

func (c confirmPaymentRequest) toInput(orderID, customerID uuid.UUID) (internalorders.ConfirmPaymentInput, error) {
	input := internalorders.ConfirmPaymentInput{OrderID: orderID, CustomerID: customerID}
	if c.PaymentMethod != nil {
		method, err := enums.ParsePaymentMethod(*c.PaymentMethod)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid paymentMethod")
		}
		input.PaymentMethod = &method
	}
	if c.PaymentStatus != nil {
		status, err := enums.ParsePaymentStatus(*c.PaymentStatus)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid paymentStatus")
		}
		input.PaymentStatus = &status
	}
	return input, nil
}

// Place turns the customer's cart into a pending order.
func Place(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body placeOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput(customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Place(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// MyOrders lists the caller's orders, newest first.
func MyOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListCustomerOrders(r.Context(), customerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Detail returns one of the caller's orders.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderId", "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetCustomerOrder(r.Context(), customerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderEnvelope{Order: order})
	}
}

// ConfirmPayment records the payment method and status for the caller's order.
func ConfirmPayment(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderId", "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body confirmPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput(orderID, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ConfirmPayment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderEnvelope{Order: order})
	}
}
