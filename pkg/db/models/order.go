package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tavolo-app/tavolo-backend/pkg/enums"
)

// Order is the aggregate root: items and status history live and die with it.
// Money fields are computed once at creation and never mutated afterwards;
// status (plus updated_at) is the only field that changes after insert.
type Order struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID      uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index"`
	RestaurantID    uuid.UUID            `gorm:"column:restaurant_id;type:uuid;not null;index"`
	Status          enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'placed'"`
	Subtotal        decimal.Decimal      `gorm:"column:subtotal;type:numeric(10,2);not null"`
	DiscountAmount  decimal.Decimal      `gorm:"column:discount_amount;type:numeric(10,2);not null;default:0"`
	TipAmount       decimal.Decimal      `gorm:"column:tip_amount;type:numeric(10,2);not null;default:0"`
	TotalAmount     decimal.Decimal      `gorm:"column:total_amount;type:numeric(10,2);not null"`
	CouponID        *uuid.UUID           `gorm:"column:coupon_id;type:uuid"`
	DeliveryAddress *string              `gorm:"column:delivery_address"`
	Items           []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory   []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
