package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavolo-app/tavolo-backend/pkg/db/models"
	"github.com/tavolo-app/tavolo-backend/pkg/enums"
	pkgerrors "github.com/tavolo-app/tavolo-backend/pkg/errors"
	"github.com/tavolo-app/tavolo-backend/pkg/pagination"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubUsers struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUsers) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubOrdersRepo struct {
	orders  map[uuid.UUID]*models.Order
	history map[uuid.UUID][]models.OrderStatusHistory

	// raceOnce makes the first guarded update report zero rows while
	// flipping the persisted status, emulating a concurrent writer.
	raceOnce   *enums.OrderStatus
	guardCalls int
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{
		orders:  map[uuid.UUID]*models.Order{},
		history: map[uuid.UUID][]models.OrderStatusHistory{},
	}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	for i := range order.StatusHistory {
		order.StatusHistory[i].OrderID = order.ID
		s.history[order.ID] = append(s.history[order.ID], order.StatusHistory[i])
	}
	copied := *order
	s.orders[order.ID] = &copied
	return nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	copied.StatusHistory = append([]models.OrderStatusHistory(nil), s.history[id]...)
	return &copied, nil
}

func (s *stubOrdersRepo) UpdateStatusGuarded(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (int64, error) {
	s.guardCalls++
	order, ok := s.orders[orderID]
	if !ok {
		return 0, nil
	}
	if s.raceOnce != nil {
		order.Status = *s.raceOnce
		s.raceOnce = nil
		return 0, nil
	}
	if order.Status != from {
		return 0, nil
	}
	order.Status = to
	order.UpdatedAt = time.Now().UTC()
	return 1, nil
}

func (s *stubOrdersRepo) AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	s.history[entry.OrderID] = append(s.history[entry.OrderID], *entry)
	return nil
}

func (s *stubOrdersRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.CustomerID == customerID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *stubOrdersRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.RestaurantID == restaurantID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *stubOrdersRepo) ListByRestaurantOwner(ctx context.Context, ownerID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrdersRepo) ListAll(ctx context.Context, params pagination.Params) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		out = append(out, *order)
	}
	return out, nil
}

func (s *stubOrdersRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.orders, id)
	delete(s.history, id)
	return nil
}

type serviceFixture struct {
	service      Service
	repo         *stubOrdersRepo
	users        *stubUsers
	catalog      *stubCatalog
	coupons      *stubCoupons
	customer     *models.User
	owner        *models.User
	admin        *models.User
	restaurantID uuid.UUID
	mealID       uuid.UUID
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	customer := &models.User{ID: uuid.New(), Email: "c@example.com", Role: enums.UserRoleCustomer}
	owner := &models.User{ID: uuid.New(), Email: "o@example.com", Role: enums.UserRoleRestaurantOwner}
	admin := &models.User{ID: uuid.New(), Email: "a@example.com", Role: enums.UserRoleAdmin}

	restaurantID := uuid.New()
	catalog := &stubCatalog{
		restaurants: map[uuid.UUID]*models.Restaurant{
			restaurantID: {ID: restaurantID, Name: "Trattoria", OwnerID: owner.ID},
		},
		meals: map[uuid.UUID]models.Meal{},
	}
	mealID := addMeal(catalog, restaurantID, "10.00")

	users := &stubUsers{users: map[uuid.UUID]*models.User{
		customer.ID: customer,
		owner.ID:    owner,
		admin.ID:    admin,
	}}
	coupons := &stubCoupons{coupons: map[string]*models.Coupon{}}

	pricing, err := NewPricingEngine(catalog, coupons)
	if err != nil {
		t.Fatalf("new pricing engine: %v", err)
	}

	repo := newStubOrdersRepo()
	svc, err := NewService(repo, stubTx{}, users, catalog, pricing)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	return &serviceFixture{
		service:      svc,
		repo:         repo,
		users:        users,
		catalog:      catalog,
		coupons:      coupons,
		customer:     customer,
		owner:        owner,
		admin:        admin,
		restaurantID: restaurantID,
		mealID:       mealID,
	}
}

func (f *serviceFixture) actor(user *models.User) Actor {
	return Actor{UserID: user.ID, Role: user.Role}
}

func (f *serviceFixture) placeOrder(t *testing.T) *models.Order {
	t.Helper()
	order, err := f.service.Create(context.Background(), f.actor(f.customer), CreateOrderInput{
		RestaurantID: f.restaurantID,
		Items:        []OrderItemInput{{MealID: f.mealID, Quantity: 2}},
		TipAmount:    money("2.00"),
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	return order
}

func TestCreateOrderPersistsSnapshotAndInitialHistory(t *testing.T) {
	f := newServiceFixture(t)

	order := f.placeOrder(t)

	if order.Status != enums.OrderStatusPlaced {
		t.Errorf("status = %s, want placed", order.Status)
	}
	if !order.Subtotal.Equal(money("20.00")) {
		t.Errorf("subtotal = %s, want 20.00", order.Subtotal)
	}
	if !order.TotalAmount.Equal(money("22.00")) {
		t.Errorf("total = %s, want 22.00", order.TotalAmount)
	}
	if len(order.Items) != 1 || !order.Items[0].PriceAtOrder.Equal(money("10.00")) {
		t.Fatalf("expected one item with price_at_order 10.00, got %+v", order.Items)
	}
	if len(order.StatusHistory) != 1 {
		t.Fatalf("expected one history row, got %d", len(order.StatusHistory))
	}
	if order.StatusHistory[0].Status != enums.OrderStatusPlaced {
		t.Errorf("history status = %s, want placed", order.StatusHistory[0].Status)
	}
	if order.StatusHistory[0].ChangedByUserID != f.customer.ID {
		t.Errorf("history actor = %s, want customer", order.StatusHistory[0].ChangedByUserID)
	}
}

func TestCreateOrderLaterPriceChangeDoesNotAffectSnapshot(t *testing.T) {
	f := newServiceFixture(t)

	order := f.placeOrder(t)

	meal := f.catalog.meals[f.mealID]
	meal.Price = money("99.99")
	f.catalog.meals[f.mealID] = meal

	reloaded, err := f.service.GetByID(context.Background(), f.actor(f.customer), order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if !reloaded.Items[0].PriceAtOrder.Equal(money("10.00")) {
		t.Errorf("price_at_order = %s, want 10.00", reloaded.Items[0].PriceAtOrder)
	}
}

func TestCreateOrderRejectsRestaurantOwnerRole(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Create(context.Background(), f.actor(f.owner), CreateOrderInput{
		RestaurantID: f.restaurantID,
		Items:        []OrderItemInput{{MealID: f.mealID, Quantity: 1}},
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestCreateOrderRejectsBlockedCustomer(t *testing.T) {
	f := newServiceFixture(t)
	f.customer.IsBlocked = true

	_, err := f.service.Create(context.Background(), f.actor(f.customer), CreateOrderInput{
		RestaurantID: f.restaurantID,
		Items:        []OrderItemInput{{MealID: f.mealID, Quantity: 1}},
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestCreateOrderRejectsUnknownRestaurant(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Create(context.Background(), f.actor(f.customer), CreateOrderInput{
		RestaurantID: uuid.New(),
		Items:        []OrderItemInput{{MealID: f.mealID, Quantity: 1}},
	})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateOrderRejectsBlockedRestaurant(t *testing.T) {
	f := newServiceFixture(t)
	f.catalog.restaurants[f.restaurantID].IsBlocked = true

	_, err := f.service.Create(context.Background(), f.actor(f.customer), CreateOrderInput{
		RestaurantID: f.restaurantID,
		Items:        []OrderItemInput{{MealID: f.mealID, Quantity: 1}},
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestTransitionOwnerMovesPlacedToProcessing(t *testing.T) {
	f := newServiceFixture(t)
	order := f.placeOrder(t)

	updated, err := f.service.Transition(context.Background(), f.actor(f.owner), order.ID, enums.OrderStatusProcessing)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != enums.OrderStatusProcessing {
		t.Errorf("status = %s, want processing", updated.Status)
	}
	if len(updated.StatusHistory) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(updated.StatusHistory))
	}
	last := updated.StatusHistory[len(updated.StatusHistory)-1]
	if last.Status != enums.OrderStatusProcessing || last.ChangedByUserID != f.owner.ID {
		t.Errorf("unexpected history tail %+v", last)
	}
}

func TestTransitionCustomerCancelsPlacedOrder(t *testing.T) {
	f := newServiceFixture(t)
	order := f.placeOrder(t)

	updated, err := f.service.Transition(context.Background(), f.actor(f.customer), order.ID, enums.OrderStatusCanceled)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != enums.OrderStatusCanceled {
		t.Errorf("status = %s, want canceled", updated.Status)
	}
}

func TestTransitionCustomerCannotCancelProcessingOrder(t *testing.T) {
	f := newServiceFixture(t)
	order := f.placeOrder(t)

	if _, err := f.service.Transition(context.Background(), f.actor(f.owner), order.ID, enums.OrderStatusProcessing); err != nil {
		t.Fatalf("setup transition: %v", err)
	}

	_, err := f.service.Transition(context.Background(), f.actor(f.customer), order.ID, enums.OrderStatusCanceled)
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestTransitionCustomerMarksDeliveredAsReceived(t *testing.T) {
	f := newServiceFixture(t)
	order := f.placeOrder(t)
	ctx := context.Background()

	steps := []enums.OrderStatus{
		enums.OrderStatusProcessing,
		enums.OrderStatusInRoute,
		enums.OrderStatusDelivered,
	}
	for _, step := range steps {
		if _, err := f.service.Transition(ctx, f.actor(f.owner), order.ID, step); err != nil {
			t.Fatalf("setup transition to %s: %v", step, err)
		}
	}

	// The owner does not get to confirm receipt.
	_, err := f.service.Transition(ctx, f.actor(f.owner), order.ID, enums.OrderStatusReceived)
	assertCode(t, err, pkgerrors.CodeForbidden)

	updated, err := f.service.Transition(ctx, f.actor(f.customer), order.ID, enums.OrderStatusReceived)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != enums.OrderStatusReceived {
		t.Errorf("status = %s, want received", updated.Status)
	}
	if len(updated.StatusHistory) != 5 {
		t.Errorf("expected 5 history rows, got %d", len(updated.StatusHistory))
	}
}

func TestTransitionRejectsIllegalEdge(t *testing.T) {
	f := newServiceFixture(t)
	order := f.placeOrder(t)

	_, err := f.service.Transition(context.Background(), f.actor(f.owner), order.ID, enums.OrderStatusDelivered)
	assertCode(t, err, pkgerrors.CodeInvalidTransition)
}

func TestTransitionRejectsSameState(t *testing.T) {
	f := newServiceFixture(t)
	order := f.placeOrder(t)

	_, err := f.service.Transition(context.Background(), f.actor(f.admin), order.ID, enums.OrderStatusPlaced)
	assertCode(t, err, pkgerrors.CodeInvalidTransition)
}

func TestTransitionRejectsExitFromTerminalState(t *testing.T) {
	f := newServiceFixture(t)
	order := f.placeOrder(t)
	ctx := context.Background()

	if _, err := f.service.Transition(ctx, f.actor(f.customer), order.ID, enums.OrderStatusCanceled); err != nil {
		t.Fatalf("setup cancel: %v", err)
	}

	_, err := f.service.Transition(ctx, f.actor(f.admin), order.ID, enums.OrderStatusProcessing)
	assertCode(t, err, pkgerrors.CodeInvalidTransition)
}

func TestTransitionRejectsBlockedActorBeforePolicy(t *testing.T) {
	f := newServiceFixture(t)
	order := f.placeOrder(t)
	f.owner.IsBlocked = true

	_, err := f.service.Transition(context.Background(), f.actor(f.owner), order.ID, enums.OrderStatusProcessing)
	assertCode(t, err, pkgerrors.CodeForbidden)
	if f.repo.guardCalls != 0 {
		t.Errorf("guarded update must not run for blocked actors (ran %d times)", f.repo.guardCalls)
	}
}

func TestTransitionRejectsForeignOwner(t *testing.T) {
	f := newServiceFixture(t)
	order := f.placeOrder(t)

	stranger := &models.User{ID: uuid.New(), Email: "s@example.com", Role: enums.UserRoleRestaurantOwner}
	f.users.users[stranger.ID] = stranger

	_, err := f.service.Transition(context.Background(), f.actor(stranger), order.ID, enums.OrderStatusProcessing)
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestTransitionUnknownOrderIsNotFound(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Transition(context.Background(), f.actor(f.admin), uuid.New(), enums.OrderStatusProcessing)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestTransitionLostRaceReportsConflict(t *testing.T) {
	f := newServiceFixture(t)
	order := f.placeOrder(t)

	// A concurrent writer cancels the order between our read and write.
	canceled := enums.OrderStatusCanceled
	f.repo.raceOnce = &canceled

	_, err := f.service.Transition(context.Background(), f.actor(f.owner), order.ID, enums.OrderStatusProcessing)
	assertCode(t, err, pkgerrors.CodeConflict)

	reloaded, err := f.repo.FindByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.StatusHistory) != 1 {
		t.Errorf("lost race must not append history (got %d rows)", len(reloaded.StatusHistory))
	}
}

func TestGetByIDForbiddenForUnrelatedCustomer(t *testing.T) {
	f := newServiceFixture(t)
	order := f.placeOrder(t)

	stranger := &models.User{ID: uuid.New(), Email: "x@example.com", Role: enums.UserRoleCustomer}
	f.users.users[stranger.ID] = stranger

	_, err := f.service.GetByID(context.Background(), f.actor(stranger), order.ID)
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestGetByIDVisibleToOwnerAndAdmin(t *testing.T) {
	f := newServiceFixture(t)
	order := f.placeOrder(t)
	ctx := context.Background()

	if _, err := f.service.GetByID(ctx, f.actor(f.owner), order.ID); err != nil {
		t.Errorf("owner should see the order: %v", err)
	}
	if _, err := f.service.GetByID(ctx, f.actor(f.admin), order.ID); err != nil {
		t.Errorf("admin should see the order: %v", err)
	}
}

func TestListAllRequiresAdmin(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.ListAll(context.Background(), f.actor(f.customer), pagination.Params{})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestListForRestaurantRequiresOwnership(t *testing.T) {
	f := newServiceFixture(t)
	f.placeOrder(t)
	ctx := context.Background()

	stranger := &models.User{ID: uuid.New(), Email: "x@example.com", Role: enums.UserRoleRestaurantOwner}
	f.users.users[stranger.ID] = stranger

	_, err := f.service.ListForRestaurant(ctx, f.actor(stranger), f.restaurantID, pagination.Params{})
	assertCode(t, err, pkgerrors.CodeForbidden)

	list, err := f.service.ListForRestaurant(ctx, f.actor(f.owner), f.restaurantID, pagination.Params{})
	if err != nil {
		t.Fatalf("owner list: %v", err)
	}
	if len(list.Orders) != 1 {
		t.Errorf("expected 1 order, got %d", len(list.Orders))
	}
}

func TestListForRestaurantUnknownRestaurant(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.ListForRestaurant(context.Background(), f.actor(f.admin), uuid.New(), pagination.Params{})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestDeleteRequiresAdmin(t *testing.T) {
	f := newServiceFixture(t)
	order := f.placeOrder(t)
	ctx := context.Background()

	err := f.service.Delete(ctx, f.actor(f.customer), order.ID)
	assertCode(t, err, pkgerrors.CodeForbidden)

	if err := f.service.Delete(ctx, f.actor(f.admin), order.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, err := f.repo.FindByID(ctx, order.ID); err == nil {
		t.Error("order should be gone after delete")
	}
}
