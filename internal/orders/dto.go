package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tavolo-app/tavolo-backend/pkg/db/models"
	"github.com/tavolo-app/tavolo-backend/pkg/enums"
)

// Actor identifies the authenticated caller as seen by the HTTP layer.
// Blocked flags are never trusted from the token; services re-read them.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// OrderItemInput is one requested line in a creation payload.
type OrderItemInput struct {
	MealID   uuid.UUID `json:"meal_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1"`
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	RestaurantID    uuid.UUID        `json:"restaurant_id" validate:"required"`
	Items           []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	TipAmount       decimal.Decimal  `json:"tip_amount"`
	CouponCode      *string          `json:"coupon_code,omitempty"`
	DeliveryAddress *string          `json:"delivery_address,omitempty"`
}

// TransitionInput is the PATCH body for a status change.
type TransitionInput struct {
	Status string `json:"status" validate:"required"`
}

// ResolvedItem is a line item after catalog resolution; UnitPrice is the
// snapshot that becomes price_at_order.
type ResolvedItem struct {
	MealID    uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// Quote is the pricing engine's output. All amounts are rounded to two
// decimal places.
type Quote struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	Items          []ResolvedItem
	Coupon         *models.Coupon
}

// OrderList wraps a page of orders plus the offsets used to produce it.
type OrderList struct {
	Orders []models.Order `json:"orders"`
	Skip   int            `json:"skip"`
	Limit  int            `json:"limit"`
}
