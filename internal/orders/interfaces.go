package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavolo-app/tavolo-backend/pkg/db/models"
	"github.com/tavolo-app/tavolo-backend/pkg/enums"
	"github.com/tavolo-app/tavolo-backend/pkg/pagination"
)

// Repository defines persistence operations for the order aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatusGuarded(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (int64, error)
	AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, params pagination.Params) ([]models.Order, error)
	ListByRestaurantOwner(ctx context.Context, ownerID uuid.UUID, params pagination.Params) ([]models.Order, error)
	ListAll(ctx context.Context, params pagination.Params) ([]models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// IdentityDirectory resolves the acting user with fresh blocked/role state.
type IdentityDirectory interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// CatalogLookup resolves restaurants and meals at pricing time.
type CatalogLookup interface {
	FindRestaurantByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	FindMealsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Meal, error)
}

// CouponResolver resolves a coupon code, active or not.
type CouponResolver interface {
	FindCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
}

// Service defines the order lifecycle operations exposed to controllers.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateOrderInput) (*models.Order, error)
	Transition(ctx context.Context, actor Actor, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error)
	GetByID(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	ListMine(ctx context.Context, actor Actor, params pagination.Params) (*OrderList, error)
	ListForRestaurant(ctx context.Context, actor Actor, restaurantID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAll(ctx context.Context, actor Actor, params pagination.Params) (*OrderList, error)
	ListVisible(ctx context.Context, actor Actor, params pagination.Params) (*OrderList, error)
	Delete(ctx context.Context, actor Actor, orderID uuid.UUID) error
}
