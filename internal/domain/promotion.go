package domain

import (
	"math"
	"strings"
	"time"
)

// DiscountType selects how a promotion computes its discount.
type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

// Promotion is a discount code that customers can apply to a trip.
type Promotion struct {
	ID          string
	Code        string // Stored uppercase.
	Type        DiscountType
	Value       float64
	MaxDiscount float64 // Cap for percentage discounts; zero means uncapped.
	MinAmount   float64
	ExpiresAt   time.Time
	UsageLimit  int
	UsedCount   int
	Active      bool
}

// AppliedPromo is the outcome of applying a promotion to an amount.
type AppliedPromo struct {
	Code              string
	PreDiscountAmount float64
	DiscountAmount    float64
	NewTotal          float64
}

// NormalizePromoCode returns the canonical form used for lookup.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CheckEligible reports why the promotion cannot be used for amount at now.
func (p *Promotion) CheckEligible(amount float64, now time.Time) error {
	if !p.Active {
		return Errorf(KindInvalidPromo, "promo code %s is not active", p.Code)
	}
	if !p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt) {
		return Errorf(KindPromoExpired, "promo code %s has expired", p.Code)
	}
	if p.UsedCount >= p.UsageLimit {
		return Errorf(KindPromoLimitReached, "promo code %s has reached its usage limit", p.Code)
	}
	if amount < p.MinAmount {
		return Errorf(KindInvalidPromo, "promo code %s requires a minimum amount of %.2f", p.Code, p.MinAmount)
	}
	return nil
}

// Discount computes the discount for amount without checking eligibility.
func (p *Promotion) Discount(amount float64) float64 {
	var d float64
	switch p.Type {
	case DiscountPercentage:
		d = amount * p.Value / 100
		if p.MaxDiscount > 0 {
			d = math.Min(d, p.MaxDiscount)
		}
	case DiscountFixed:
		d = math.Min(p.Value, amount)
	}
	return RoundMoney(d)
}

// ApplyPromo validates p against amount and returns the discounted total.
// The discount must be strictly between zero and amount.
func ApplyPromo(p *Promotion, amount float64, now time.Time) (AppliedPromo, error) {
	if err := p.CheckEligible(amount, now); err != nil {
		return AppliedPromo{}, err
	}
	d := p.Discount(amount)
	if d <= 0 || d >= amount {
		return AppliedPromo{}, Errorf(KindInvalidPromo, "promo code %s does not apply to an amount of %.2f", p.Code, amount)
	}
	return AppliedPromo{
		Code:              p.Code,
		PreDiscountAmount: amount,
		DiscountAmount:    d,
		NewTotal:          RoundMoney(amount - d),
	}, nil
}
