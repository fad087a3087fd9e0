package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tavolo-app/tavolo-backend/pkg/db/models"
	pkgerrors "github.com/tavolo-app/tavolo-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// PricingEngine turns a requested line-item list into a priced quote. It
// performs reads only; persisting the snapshot is the caller's job.
type PricingEngine struct {
	catalog CatalogLookup
	coupons CouponResolver
}

// NewPricingEngine builds a pricing engine over the catalog and coupon lookups.
func NewPricingEngine(catalog CatalogLookup, coupons CouponResolver) (*PricingEngine, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon resolver required")
	}
	return &PricingEngine{catalog: catalog, coupons: coupons}, nil
}

// Quote prices the requested items against the live catalog. Unit prices are
// captured here and never re-read; the discount is subtotal x pct / 100
// rounded half-up to two decimal places.
func (p *PricingEngine) Quote(ctx context.Context, input CreateOrderInput) (*Quote, error) {
	if input.TipAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tip amount cannot be negative")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	resolved, subtotal, err := p.resolveItems(ctx, input)
	if err != nil {
		return nil, err
	}

	quote := &Quote{
		Subtotal:       subtotal.Round(2),
		DiscountAmount: decimal.Zero,
		Items:          resolved,
	}

	if input.CouponCode != nil && strings.TrimSpace(*input.CouponCode) != "" {
		coupon, err := p.resolveCoupon(ctx, *input.CouponCode)
		if err != nil {
			return nil, err
		}
		quote.Coupon = coupon
		quote.DiscountAmount = quote.Subtotal.
			Mul(coupon.DiscountPercentage).
			Div(oneHundred).
			Round(2)
	}

	quote.TotalAmount = quote.Subtotal.
		Sub(quote.DiscountAmount).
		Add(input.TipAmount).
		Round(2)

	return quote, nil
}

func (p *PricingEngine) resolveItems(ctx context.Context, input CreateOrderInput) ([]ResolvedItem, decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("invalid quantity for meal %s", item.MealID)).
				WithDetails(map[string]any{"meal_id": item.MealID})
		}
		ids = append(ids, item.MealID)
	}

	meals, err := p.catalog.FindMealsByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve meals")
	}

	byID := make(map[uuid.UUID]int, len(meals))
	for i := range meals {
		byID[meals[i].ID] = i
	}

	resolved := make([]ResolvedItem, 0, len(input.Items))
	subtotal := decimal.Zero
	for _, item := range input.Items {
		idx, ok := byID[item.MealID]
		if !ok {
			return nil, decimal.Zero, invalidLineItem(item.MealID, "meal not found")
		}
		meal := meals[idx]
		if meal.RestaurantID != input.RestaurantID {
			return nil, decimal.Zero, invalidLineItem(item.MealID, "meal belongs to a different restaurant")
		}
		if meal.IsBlocked {
			return nil, decimal.Zero, invalidLineItem(item.MealID, "meal is unavailable")
		}

		resolved = append(resolved, ResolvedItem{
			MealID:    meal.ID,
			Quantity:  item.Quantity,
			UnitPrice: meal.Price,
		})
		subtotal = subtotal.Add(meal.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return resolved, subtotal, nil
}

func (p *PricingEngine) resolveCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := p.coupons.FindCouponByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve coupon")
	}
	if !coupon.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is no longer active")
	}
	return coupon, nil
}

func invalidLineItem(mealID uuid.UUID, reason string) error {
	return pkgerrors.New(pkgerrors.CodeValidation,
		fmt.Sprintf("invalid line item %s: %s", mealID, reason)).
		WithDetails(map[string]any{"meal_id": mealID})
}
