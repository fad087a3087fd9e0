package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tavolo-app/tavolo-backend/api/middleware"
	"github.com/tavolo-app/tavolo-backend/internal/orders"
	"github.com/tavolo-app/tavolo-backend/pkg/db/models"
	"github.com/tavolo-app/tavolo-backend/pkg/enums"
	pkgerrors "github.com/tavolo-app/tavolo-backend/pkg/errors"
	"github.com/tavolo-app/tavolo-backend/pkg/pagination"
)

type stubOrderService struct {
	order      *models.Order
	list       *orders.OrderList
	err        error
	gotActor   orders.Actor
	gotInput   orders.CreateOrderInput
	gotOrderID uuid.UUID
	gotTarget  enums.OrderStatus
	gotParams  pagination.Params
	deleted    bool
}

func (s *stubOrderService) Create(_ context.Context, actor orders.Actor, input orders.CreateOrderInput) (*models.Order, error) {
	s.gotActor = actor
	s.gotInput = input
	return s.order, s.err
}

func (s *stubOrderService) Transition(_ context.Context, actor orders.Actor, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	s.gotActor = actor
	s.gotOrderID = orderID
	s.gotTarget = target
	return s.order, s.err
}

func (s *stubOrderService) GetByID(_ context.Context, actor orders.Actor, orderID uuid.UUID) (*models.Order, error) {
	s.gotActor = actor
	s.gotOrderID = orderID
	return s.order, s.err
}

func (s *stubOrderService) ListMine(_ context.Context, actor orders.Actor, params pagination.Params) (*orders.OrderList, error) {
	s.gotActor = actor
	s.gotParams = params
	return s.list, s.err
}

func (s *stubOrderService) ListForRestaurant(_ context.Context, actor orders.Actor, restaurantID uuid.UUID, params pagination.Params) (*orders.OrderList, error) {
	s.gotActor = actor
	s.gotOrderID = restaurantID
	s.gotParams = params
	return s.list, s.err
}

func (s *stubOrderService) ListAll(_ context.Context, actor orders.Actor, params pagination.Params) (*orders.OrderList, error) {
	s.gotActor = actor
	s.gotParams = params
	return s.list, s.err
}

func (s *stubOrderService) ListVisible(_ context.Context, actor orders.Actor, params pagination.Params) (*orders.OrderList, error) {
	s.gotActor = actor
	s.gotParams = params
	return s.list, s.err
}

func (s *stubOrderService) Delete(_ context.Context, actor orders.Actor, orderID uuid.UUID) error {
	s.gotActor = actor
	s.gotOrderID = orderID
	s.deleted = true
	return s.err
}

func authedRequest(method, target string, body []byte, userID uuid.UUID, role enums.UserRole) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, role.String())
	return req.WithContext(ctx)
}

func TestCreateOrderSuccess(t *testing.T) {
	customerID := uuid.New()
	restaurantID := uuid.New()
	mealID := uuid.New()
	svc := &stubOrderService{order: &models.Order{
		ID:           uuid.New(),
		CustomerID:   customerID,
		RestaurantID: restaurantID,
		Status:       enums.OrderStatusPlaced,
		Subtotal:     decimal.RequireFromString("25.00"),
		TotalAmount:  decimal.RequireFromString("25.00"),
	}}
	handler := CreateOrder(svc, nil)

	payload := []byte(`{
		"restaurant_id": "` + restaurantID.String() + `",
		"items": [{"meal_id": "` + mealID.String() + `", "quantity": 2}],
		"tip_amount": "3.00"
	}`)
	req := authedRequest(http.MethodPost, "/api/v1/orders", payload, customerID, enums.UserRoleCustomer)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", rec.Code, rec.Body.String())
	}
	if svc.gotActor.UserID != customerID || svc.gotActor.Role != enums.UserRoleCustomer {
		t.Fatalf("unexpected actor %+v", svc.gotActor)
	}
	if svc.gotInput.RestaurantID != restaurantID {
		t.Fatalf("expected restaurant %s got %s", restaurantID, svc.gotInput.RestaurantID)
	}
	if len(svc.gotInput.Items) != 1 || svc.gotInput.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", svc.gotInput.Items)
	}

	var envelope struct {
		Data models.Order `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != enums.OrderStatusPlaced {
		t.Fatalf("expected placed got %s", envelope.Data.Status)
	}
}

func TestCreateOrderMissingContext(t *testing.T) {
	handler := CreateOrder(&stubOrderService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestCreateOrderRejectsUnknownFields(t *testing.T) {
	handler := CreateOrder(&stubOrderService{}, nil)

	payload := []byte(`{"restaurant_id": "` + uuid.NewString() + `", "items": [], "total_amount": "0.01"}`)
	req := authedRequest(http.MethodPost, "/api/v1/orders", payload, uuid.New(), enums.UserRoleCustomer)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestTransitionOrderSuccess(t *testing.T) {
	ownerID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrderService{order: &models.Order{ID: orderID, Status: enums.OrderStatusProcessing}}

	router := chi.NewRouter()
	router.Patch("/orders/{id}/status", TransitionOrder(svc, nil))

	payload := []byte(`{"status": "processing"}`)
	req := authedRequest(http.MethodPatch, "/orders/"+orderID.String()+"/status", payload, ownerID, enums.UserRoleRestaurantOwner)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rec.Code, rec.Body.String())
	}
	if svc.gotOrderID != orderID {
		t.Fatalf("expected order %s got %s", orderID, svc.gotOrderID)
	}
	if svc.gotTarget != enums.OrderStatusProcessing {
		t.Fatalf("expected processing got %s", svc.gotTarget)
	}
}

func TestTransitionOrderInvalidStatus(t *testing.T) {
	router := chi.NewRouter()
	router.Patch("/orders/{id}/status", TransitionOrder(&stubOrderService{}, nil))

	payload := []byte(`{"status": "shipped"}`)
	req := authedRequest(http.MethodPatch, "/orders/"+uuid.NewString()+"/status", payload, uuid.New(), enums.UserRoleAdmin)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestTransitionOrderConflictPassthrough(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeConflict, "order status changed concurrently")}

	router := chi.NewRouter()
	router.Patch("/orders/{id}/status", TransitionOrder(svc, nil))

	payload := []byte(`{"status": "canceled"}`)
	req := authedRequest(http.MethodPatch, "/orders/"+uuid.NewString()+"/status", payload, uuid.New(), enums.UserRoleCustomer)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

func TestGetOrderForbiddenPassthrough(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeForbidden, "not your order")}

	router := chi.NewRouter()
	router.Get("/orders/{id}", GetOrder(svc, nil))

	req := authedRequest(http.MethodGet, "/orders/"+uuid.NewString(), nil, uuid.New(), enums.UserRoleCustomer)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestGetOrderInvalidID(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/orders/{id}", GetOrder(&stubOrderService{}, nil))

	req := authedRequest(http.MethodGet, "/orders/not-a-uuid", nil, uuid.New(), enums.UserRoleCustomer)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestMyOrdersPagination(t *testing.T) {
	customerID := uuid.New()
	svc := &stubOrderService{list: &orders.OrderList{Orders: []models.Order{}, Skip: 10, Limit: 20}}
	handler := MyOrders(svc, nil)

	req := authedRequest(http.MethodGet, "/api/v1/orders/my-orders?skip=10&limit=20", nil, customerID, enums.UserRoleCustomer)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.gotParams.Skip != 10 || svc.gotParams.Limit != 20 {
		t.Fatalf("unexpected params %+v", svc.gotParams)
	}
}

func TestMyOrdersClampsLimit(t *testing.T) {
	svc := &stubOrderService{list: &orders.OrderList{}}
	handler := MyOrders(svc, nil)

	req := authedRequest(http.MethodGet, "/api/v1/orders/my-orders?limit=5000", nil, uuid.New(), enums.UserRoleCustomer)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.gotParams.Limit != pagination.MaxLimit {
		t.Fatalf("expected limit %d got %d", pagination.MaxLimit, svc.gotParams.Limit)
	}
}

func TestRestaurantOrdersPassesRestaurantID(t *testing.T) {
	restaurantID := uuid.New()
	svc := &stubOrderService{list: &orders.OrderList{}}

	router := chi.NewRouter()
	router.Get("/orders/restaurant/{id}", RestaurantOrders(svc, nil))

	req := authedRequest(http.MethodGet, "/orders/restaurant/"+restaurantID.String(), nil, uuid.New(), enums.UserRoleRestaurantOwner)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.gotOrderID != restaurantID {
		t.Fatalf("expected restaurant %s got %s", restaurantID, svc.gotOrderID)
	}
}

func TestDeleteOrderSuccess(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrderService{}

	router := chi.NewRouter()
	router.Delete("/orders/{id}", DeleteOrder(svc, nil))

	req := authedRequest(http.MethodDelete, "/orders/"+orderID.String(), nil, uuid.New(), enums.UserRoleAdmin)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !svc.deleted || svc.gotOrderID != orderID {
		t.Fatalf("expected delete of %s, got deleted=%v id=%s", orderID, svc.deleted, svc.gotOrderID)
	}
}
