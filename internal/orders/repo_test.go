package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tavolo-app/tavolo-backend/pkg/db/models"
	"github.com/tavolo-app/tavolo-backend/pkg/enums"
	"github.com/tavolo-app/tavolo-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	restaurants := `
CREATE TABLE IF NOT EXISTS restaurants (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  owner_id TEXT NOT NULL,
  is_blocked INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  restaurant_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'placed',
  subtotal TEXT NOT NULL,
  discount_amount TEXT NOT NULL DEFAULT '0',
  tip_amount TEXT NOT NULL DEFAULT '0',
  total_amount TEXT NOT NULL,
  coupon_id TEXT,
  delivery_address TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  meal_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price_at_order TEXT NOT NULL,
  created_at DATETIME
);`
	history := `
CREATE TABLE IF NOT EXISTS order_status_history (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL,
  changed_at DATETIME NOT NULL,
  changed_by_user_id TEXT NOT NULL
);`

	for _, ddl := range []string{restaurants, orders, orderItems, history} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func insertOrder(t *testing.T, repo Repository, customerID, restaurantID uuid.UUID, createdAt time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:             uuid.New(),
		CustomerID:     customerID,
		RestaurantID:   restaurantID,
		Status:         enums.OrderStatusPlaced,
		Subtotal:       money("20.00"),
		DiscountAmount: money("0"),
		TipAmount:      money("2.00"),
		TotalAmount:    money("22.00"),
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
		Items: []models.OrderItem{{
			ID:           uuid.New(),
			MealID:       uuid.New(),
			Quantity:     2,
			PriceAtOrder: money("10.00"),
		}},
		StatusHistory: []models.OrderStatusHistory{{
			ID:              uuid.New(),
			Status:          enums.OrderStatusPlaced,
			ChangedAt:       createdAt,
			ChangedByUserID: customerID,
		}},
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestRepositoryCreateAndFindByID(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := insertOrder(t, repo, uuid.New(), uuid.New(), time.Now().UTC())

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, enums.OrderStatusPlaced, found.Status)
	require.Len(t, found.Items, 1)
	assert.True(t, found.Items[0].PriceAtOrder.Equal(money("10.00")))
	require.Len(t, found.StatusHistory, 1)
	assert.Equal(t, enums.OrderStatusPlaced, found.StatusHistory[0].Status)
}

func TestRepositoryFindByIDMissing(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryGuardedUpdateMatchesOnlyExpectedStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := insertOrder(t, repo, uuid.New(), uuid.New(), time.Now().UTC())

	rows, err := repo.UpdateStatusGuarded(ctx, order.ID, enums.OrderStatusPlaced, enums.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// Second guarded update against the stale `from` must match nothing.
	rows, err = repo.UpdateStatusGuarded(ctx, order.ID, enums.OrderStatusPlaced, enums.OrderStatusCanceled)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, found.Status)
}

func TestRepositoryHistoryAppendPreservesChronology(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	order := insertOrder(t, repo, uuid.New(), uuid.New(), base)

	for i, status := range []enums.OrderStatus{enums.OrderStatusProcessing, enums.OrderStatusInRoute} {
		require.NoError(t, repo.AppendHistory(ctx, &models.OrderStatusHistory{
			ID:              uuid.New(),
			OrderID:         order.ID,
			Status:          status,
			ChangedAt:       base.Add(time.Duration(i+1) * time.Minute),
			ChangedByUserID: uuid.New(),
		}))
	}

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, found.StatusHistory, 3)
	assert.Equal(t, enums.OrderStatusPlaced, found.StatusHistory[0].Status)
	assert.Equal(t, enums.OrderStatusProcessing, found.StatusHistory[1].Status)
	assert.Equal(t, enums.OrderStatusInRoute, found.StatusHistory[2].Status)
}

func TestRepositoryListByCustomerNewestFirst(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	oldest := insertOrder(t, repo, customerID, uuid.New(), base)
	middle := insertOrder(t, repo, customerID, uuid.New(), base.Add(time.Minute))
	newest := insertOrder(t, repo, customerID, uuid.New(), base.Add(2*time.Minute))
	insertOrder(t, repo, uuid.New(), uuid.New(), base) // someone else's

	found, err := repo.ListByCustomer(ctx, customerID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, newest.ID, found[0].ID)
	assert.Equal(t, middle.ID, found[1].ID)
	assert.Equal(t, oldest.ID, found[2].ID)

	page, err := repo.ListByCustomer(ctx, customerID, pagination.Params{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, middle.ID, page[0].ID)
}

func TestRepositoryListByRestaurantOwner(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	ownerID := uuid.New()
	restaurant := &models.Restaurant{ID: uuid.New(), Name: "Trattoria", OwnerID: ownerID}
	require.NoError(t, db.Create(restaurant).Error)

	mine := insertOrder(t, repo, uuid.New(), restaurant.ID, time.Now().UTC())
	insertOrder(t, repo, uuid.New(), uuid.New(), time.Now().UTC()) // different restaurant

	found, err := repo.ListByRestaurantOwner(ctx, ownerID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, mine.ID, found[0].ID)
}

func TestRepositoryDeleteRemovesComposedRows(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := insertOrder(t, repo, uuid.New(), uuid.New(), time.Now().UTC())

	require.NoError(t, repo.Delete(ctx, order.ID))

	_, err := repo.FindByID(ctx, order.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var itemCount int64
	require.NoError(t, db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)

	var historyCount int64
	require.NoError(t, db.Model(&models.OrderStatusHistory{}).Where("order_id = ?", order.ID).Count(&historyCount).Error)
	assert.Zero(t, historyCount)
}
