package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zycart/zycart-backend/api/middleware"
	internalorders "github.com/zycart/zycart-backend/internal/orders"
	"github.com/zycart/zycart-backend/pkg/enums"
	pkgerrors "github.com/zycart/zycart-backend/pkg/errors"
	"github.com/zycart/zycart-backend/pkg/pagination"
)

type stubOrdersService struct {
	place        func(ctx context.Context, input internalorders.PlaceOrderInput) (*internalorders.PlacementResult, error)
	confirm      func(ctx context.Context, input internalorders.ConfirmPaymentInput) (*internalorders.OrderDTO, error)
	childStatus  func(ctx context.Context, input internalorders.UpdateChildStatusInput) (*internalorders.ChildStatusResult, error)
	adminStatus  func(ctx context.Context, input internalorders.AdminSetStatusInput) (*internalorders.AdminStatusResult, error)
	listCustomer func(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*internalorders.OrderList, error)
	getCustomer  func(ctx context.Context, customerID, orderID uuid.UUID) (*internalorders.OrderDTO, error)
	getSeller    func(ctx context.Context, sellerID, childOrderID uuid.UUID) (*internalorders.SellerOrderDetail, error)
	listAll      func(ctx context.Context, filters internalorders.AdminOrderFilters, params pagination.Params) (*internalorders.OrderList, error)
	getOrder     func(ctx context.Context, orderID uuid.UUID) (*internalorders.OrderDTO, error)
	listEvents   func(ctx context.Context, orderID uuid.UUID) ([]internalorders.OrderEventDTO, error)
}

func (s *stubOrdersService) Place(ctx context.Context, input internalorders.PlaceOrderInput) (*internalorders.PlacementResult, error) {
	if s.place != nil {
		return s.place(ctx, input)
	}
	panic("not implemented")
}

func (s *stubOrdersService) ConfirmPayment(ctx context.Context, input internalorders.ConfirmPaymentInput) (*internalorders.OrderDTO, error) {
	if s.confirm != nil {
		return s.confirm(ctx, input)
	}
	panic("not implemented")
}

func (s *stubOrdersService) UpdateChildStatus(ctx context.Context, input internalorders.UpdateChildStatusInput) (*internalorders.ChildStatusResult, error) {
	if s.childStatus != nil {
		return s.childStatus(ctx, input)
	}
	panic("not implemented")
}

func (s *stubOrdersService) AdminSetStatus(ctx context.Context, input internalorders.AdminSetStatusInput) (*internalorders.AdminStatusResult, error) {
	if s.adminStatus != nil {
		return s.adminStatus(ctx, input)
	}
	panic("not implemented")
}

func (s *stubOrdersService) ListCustomerOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*internalorders.OrderList, error) {
	if s.listCustomer != nil {
		return s.listCustomer(ctx, customerID, params)
	}
	panic("not implemented")
}

func (s *stubOrdersService) GetCustomerOrder(ctx context.Context, customerID, orderID uuid.UUID) (*internalorders.OrderDTO, error) {
	if s.getCustomer != nil {
		return s.getCustomer(ctx, customerID, orderID)
	}
	panic("not implemented")
}

func (s *stubOrdersService) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*internalorders.SellerOrderList, error) {
	return &internalorders.SellerOrderList{}, nil
}

func (s *stubOrdersService) GetSellerOrder(ctx context.Context, sellerID, childOrderID uuid.UUID) (*internalorders.SellerOrderDetail, error) {
	if s.getSeller != nil {
		return s.getSeller(ctx, sellerID, childOrderID)
	}
	panic("not implemented")
}

func (s *stubOrdersService) ListOrders(ctx context.Context, filters internalorders.AdminOrderFilters, params pagination.Params) (*internalorders.OrderList, error) {
	if s.listAll != nil {
		return s.listAll(ctx, filters, params)
	}
	panic("not implemented")
}

func (s *stubOrdersService) GetOrder(ctx context.Context, orderID uuid.UUID) (*internalorders.OrderDTO, error) {
	if s.getOrder != nil {
		return s.getOrder(ctx, orderID)
	}
	panic("not implemented")
}

func (s *stubOrdersService) ListOrderEvents(ctx context.Context, orderID uuid.UUID) ([]internalorders.OrderEventDTO, error) {
	if s.listEvents != nil {
		return s.listEvents(ctx, orderID)
	}
	panic("not implemented")
}

func serve(t *testing.T, method, pattern, target string, handler http.HandlerFunc, userID string, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	router.Method(method, pattern, handler)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return payload.Error.Code
}

func TestPlaceOrderPassesCartToService(t *testing.T) {
	customerID := uuid.New()
	productID := uuid.New()
	var captured internalorders.PlaceOrderInput
	svc := &stubOrdersService{
		place: func(ctx context.Context, input internalorders.PlaceOrderInput) (*internalorders.PlacementResult, error) {
			captured = input
			return &internalorders.PlacementResult{
				Order: internalorders.OrderDTO{ID: uuid.New(), TotalAmount: 450, Status: enums.OrderStatusPending},
			}, nil
		},
	}

	body := `{"items":[{"productId":"` + productID.String() + `","qty":2}],"address":{"line1":"1 Main","city":"Pune","state":"MH","postalCode":"411001"}}`
	resp := serve(t, http.MethodPost, "/orders/place", "/orders/place", Place(svc, nil), customerID.String(), body)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.CustomerID != customerID {
		t.Fatalf("expected customer %s got %s", customerID, captured.CustomerID)
	}
	if len(captured.Items) != 1 || captured.Items[0].ProductID != productID || captured.Items[0].Qty != 2 {
		t.Fatalf("unexpected items %+v", captured.Items)
	}
	if captured.ShippingAddress.City != "Pune" {
		t.Fatalf("expected address to be forwarded, got %+v", captured.ShippingAddress)
	}

	var result struct {
		Order struct {
			TotalAmount int64  `json:"totalAmount"`
			Status      string `json:"status"`
		} `json:"order"`
		ProfitDetails []any `json:"profitDetails"`
	}
	decodeData(t, resp, &result)
	if result.Order.TotalAmount != 450 || result.Order.Status != "Pending" {
		t.Fatalf("unexpected order payload %+v", result.Order)
	}
}

func TestPlaceOrderRejectsMalformedInput(t *testing.T) {
	svc := &stubOrdersService{}
	customerID := uuid.NewString()
	address := `"address":{"line1":"1 Main","city":"Pune","state":"MH","postalCode":"411001"}`

	tests := []struct {
		name   string
		user   string
		body   string
		status int
	}{
		{"no user", "", `{"items":[],` + address + `}`, http.StatusUnauthorized},
		{"bad json", customerID, `{"items":`, http.StatusBadRequest},
		{"unknown field", customerID, `{"items":[],"coupon":"X",` + address + `}`, http.StatusBadRequest},
		{"bad product id", customerID, `{"items":[{"productId":"nope","qty":1}],` + address + `}`, http.StatusBadRequest},
		{"missing address", customerID, `{"items":[{"productId":"` + uuid.NewString() + `","qty":1}]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp := serve(t, http.MethodPost, "/orders/place", "/orders/place", Place(svc, nil), tt.user, tt.body)
		if resp.Code != tt.status {
			t.Fatalf("%s: expected %d got %d", tt.name, tt.status, resp.Code)
		}
	}
}

func TestPlaceOrderMapsServiceErrors(t *testing.T) {
	svc := &stubOrdersService{
		place: func(ctx context.Context, input internalorders.PlaceOrderInput) (*internalorders.PlacementResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		},
	}
	body := `{"items":[],"address":{"line1":"1 Main","city":"Pune","state":"MH","postalCode":"411001"}}`
	resp := serve(t, http.MethodPost, "/orders/place", "/orders/place", Place(svc, nil), uuid.NewString(), body)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeEmptyCart) {
		t.Fatalf("expected EMPTY_CART got %s", code)
	}
}

func TestConfirmPaymentParsesEnums(t *testing.T) {
	orderID := uuid.New()
	var captured internalorders.ConfirmPaymentInput
	svc := &stubOrdersService{
		confirm: func(ctx context.Context, input internalorders.ConfirmPaymentInput) (*internalorders.OrderDTO, error) {
			captured = input
			return &internalorders.OrderDTO{ID: input.OrderID, Status: enums.OrderStatusConfirmed}, nil
		},
	}

	resp := serve(t, http.MethodPatch, "/orders/{orderId}", "/orders/"+orderID.String(), ConfirmPayment(svc, nil), uuid.NewString(), `{"paymentMethod":"COD","paymentStatus":"pending"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.OrderID != orderID {
		t.Fatalf("expected order %s got %s", orderID, captured.OrderID)
	}
	if captured.PaymentMethod == nil || *captured.PaymentMethod != enums.PaymentMethodCOD {
		t.Fatalf("expected cod method, got %v", captured.PaymentMethod)
	}
	if captured.PaymentStatus == nil || *captured.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("expected pending status, got %v", captured.PaymentStatus)
	}

	var result struct {
		Order struct {
			Status string `json:"status"`
		} `json:"order"`
	}
	decodeData(t, resp, &result)
	if result.Order.Status != "Confirmed" {
		t.Fatalf("unexpected status %s", result.Order.Status)
	}
}

func TestConfirmPaymentRejectsUnknownMethod(t *testing.T) {
	svc := &stubOrdersService{}
	resp := serve(t, http.MethodPatch, "/orders/{orderId}", "/orders/"+uuid.NewString(), ConfirmPayment(svc, nil), uuid.NewString(), `{"paymentMethod":"barter"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	resp = serve(t, http.MethodPatch, "/orders/{orderId}", "/orders/not-a-uuid", ConfirmPayment(svc, nil), uuid.NewString(), `{"paymentMethod":"card"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id got %d", resp.Code)
	}
}

func TestDetailForbiddenForForeignOrder(t *testing.T) {
	svc := &stubOrdersService{
		getCustomer: func(ctx context.Context, customerID, orderID uuid.UUID) (*internalorders.OrderDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
		},
	}
	resp := serve(t, http.MethodGet, "/orders/{orderId}", "/orders/"+uuid.NewString(), Detail(svc, nil), uuid.NewString(), "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestMyOrdersForwardsPagination(t *testing.T) {
	var captured pagination.Params
	svc := &stubOrdersService{
		listCustomer: func(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*internalorders.OrderList, error) {
			captured = params
			return &internalorders.OrderList{Orders: []internalorders.OrderDTO{}, NextCursor: "next"}, nil
		},
	}

	resp := serve(t, http.MethodGet, "/orders/my-orders", "/orders/my-orders?limit=5&cursor=abc", MyOrders(svc, nil), uuid.NewString(), "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.Limit != 5 || captured.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", captured)
	}

	resp = serve(t, http.MethodGet, "/orders/my-orders", "/orders/my-orders?limit=500", MyOrders(svc, nil), uuid.NewString(), "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range limit got %d", resp.Code)
	}
}

func TestSellerUpdateStatus(t *testing.T) {
	sellerID := uuid.New()
	childID := uuid.New()
	var captured internalorders.UpdateChildStatusInput
	svc := &stubOrdersService{
		childStatus: func(ctx context.Context, input internalorders.UpdateChildStatusInput) (*internalorders.ChildStatusResult, error) {
			captured = input
			return &internalorders.ChildStatusResult{
				ChildOrderID:   input.ChildOrderID,
				Status:         input.Status,
				ParentStatus:   enums.OrderStatusShipped,
				ParentPromoted: true,
				Changed:        true,
			}, nil
		},
	}

	resp := serve(t, http.MethodPatch, "/seller/orders/status/{id}", "/seller/orders/status/"+childID.String(), SellerUpdateStatus(svc, nil), sellerID.String(), `{"status":"shipped"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.SellerID != sellerID || captured.ChildOrderID != childID || captured.Status != enums.ChildOrderStatusShipped {
		t.Fatalf("unexpected input %+v", captured)
	}

	var result struct {
		Message        string `json:"message"`
		ParentPromoted bool   `json:"parentPromoted"`
		ParentStatus   string `json:"parentStatus"`
	}
	decodeData(t, resp, &result)
	if !result.ParentPromoted || result.ParentStatus != "Shipped" {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.Contains(result.Message, "Shipped") {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestSellerUpdateStatusStateConflict(t *testing.T) {
	svc := &stubOrdersService{
		childStatus: func(ctx context.Context, input internalorders.UpdateChildStatusInput) (*internalorders.ChildStatusResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invalid status transition")
		},
	}
	resp := serve(t, http.MethodPatch, "/seller/orders/status/{id}", "/seller/orders/status/"+uuid.NewString(), SellerUpdateStatus(svc, nil), uuid.NewString(), `{"status":"Packed"}`)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}

	resp = serve(t, http.MethodPatch, "/seller/orders/status/{id}", "/seller/orders/status/"+uuid.NewString(), SellerUpdateStatus(svc, nil), uuid.NewString(), `{"status":"lost"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status got %d", resp.Code)
	}
}

func TestSellerOrderDetailUsesChildID(t *testing.T) {
	childID := uuid.New()
	var got uuid.UUID
	svc := &stubOrdersService{
		getSeller: func(ctx context.Context, sellerID, childOrderID uuid.UUID) (*internalorders.SellerOrderDetail, error) {
			got = childOrderID
			return &internalorders.SellerOrderDetail{SiblingCount: 1}, nil
		},
	}
	resp := serve(t, http.MethodGet, "/seller/orders/{orderId}", "/seller/orders/"+childID.String(), SellerOrderDetail(svc, nil), uuid.NewString(), "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got != childID {
		t.Fatalf("expected child id %s got %s", childID, got)
	}
}

func TestAdminOrdersStatusFilter(t *testing.T) {
	var captured internalorders.AdminOrderFilters
	svc := &stubOrdersService{
		listAll: func(ctx context.Context, filters internalorders.AdminOrderFilters, params pagination.Params) (*internalorders.OrderList, error) {
			captured = filters
			return &internalorders.OrderList{}, nil
		},
	}

	resp := serve(t, http.MethodGet, "/admin/orders", "/admin/orders?status=out_for_delivery", AdminOrders(svc, nil), uuid.NewString(), "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.Status == nil || *captured.Status != enums.OrderStatusOutForDelivery {
		t.Fatalf("unexpected filter %+v", captured.Status)
	}

	resp = serve(t, http.MethodGet, "/admin/orders", "/admin/orders?status=teleported", AdminOrders(svc, nil), uuid.NewString(), "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminSetStatus(t *testing.T) {
	adminID := uuid.New()
	orderID := uuid.New()
	var captured internalorders.AdminSetStatusInput
	svc := &stubOrdersService{
		adminStatus: func(ctx context.Context, input internalorders.AdminSetStatusInput) (*internalorders.AdminStatusResult, error) {
			captured = input
			return &internalorders.AdminStatusResult{
				OrderID:        input.OrderID,
				PreviousStatus: enums.OrderStatusShipped,
				Status:         input.Status,
				Changed:        true,
			}, nil
		},
	}

	resp := serve(t, http.MethodPatch, "/admin/orders/status/{parentId}", "/admin/orders/status/"+orderID.String(), AdminSetStatus(svc, nil), adminID.String(), `{"status":"Delivered"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.AdminID != adminID || captured.OrderID != orderID || captured.Status != enums.OrderStatusDelivered {
		t.Fatalf("unexpected input %+v", captured)
	}

	var result struct {
		Message        string `json:"message"`
		PreviousStatus string `json:"previousStatus"`
	}
	decodeData(t, resp, &result)
	if result.Message != "order status set to Delivered" || result.PreviousStatus != "Shipped" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestAdminOrderDetailNotFound(t *testing.T) {
	svc := &stubOrdersService{
		getOrder: func(ctx context.Context, orderID uuid.UUID) (*internalorders.OrderDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		},
	}
	resp := serve(t, http.MethodGet, "/admin/orders/{orderId}", "/admin/orders/"+uuid.NewString(), AdminOrderDetail(svc, nil), uuid.NewString(), "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAdminOrderEvents(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{
		listEvents: func(ctx context.Context, id uuid.UUID) ([]internalorders.OrderEventDTO, error) {
			if id != orderID {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return []internalorders.OrderEventDTO{
				{ID: uuid.New(), EventType: enums.EventOrderPlaced, Data: json.RawMessage(`{"orderNumber":"ZYC-1"}`)},
			}, nil
		},
	}

	resp := serve(t, http.MethodGet, "/admin/orders/{orderId}/events", "/admin/orders/"+orderID.String()+"/events", AdminOrderEvents(svc, nil), uuid.NewString(), "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var body struct {
		Events []internalorders.OrderEventDTO `json:"events"`
	}
	decodeData(t, resp, &body)
	if len(body.Events) != 1 || body.Events[0].EventType != enums.EventOrderPlaced {
		t.Fatalf("unexpected events %+v", body.Events)
	}

	resp = serve(t, http.MethodGet, "/admin/orders/{orderId}/events", "/admin/orders/"+uuid.NewString()+"/events", AdminOrderEvents(svc, nil), uuid.NewString(), "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	resp = serve(t, http.MethodGet, "/admin/orders/{orderId}/events", "/admin/orders/nope/events", AdminOrderEvents(svc, nil), uuid.NewString(), "")
	if resp.Code != http.StatusBadRequest || errorCode(t, resp) != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error got %d", resp.Code)
	}
}
