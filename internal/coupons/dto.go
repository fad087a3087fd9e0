package coupons

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tavolo-app/tavolo-backend/pkg/db/models"
)

// CreateCouponInput is the POST body for a new coupon.
type CreateCouponInput struct {
	Code               string          `json:"code" validate:"required,min=1,max=64"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

// UpdateCouponInput is the PATCH body for coupon edits. Edits never touch
// discounts already snapshotted into orders.
type UpdateCouponInput struct {
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	IsActive           *bool            `json:"is_active,omitempty"`
}

// CouponView is the outward representation of a coupon.
type CouponView struct {
	ID                 uuid.UUID       `json:"id"`
	Code               string          `json:"code"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	IsActive           bool            `json:"is_active"`
	CreatedAt          time.Time       `json:"created_at"`
}

// NewCouponView maps a model to its public shape.
func NewCouponView(c *models.Coupon) CouponView {
	return CouponView{
		ID:                 c.ID,
		Code:               c.Code,
		DiscountPercentage: c.DiscountPercentage,
		IsActive:           c.IsActive,
		CreatedAt:          c.CreatedAt,
	}
}
