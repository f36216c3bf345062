package pricing

import (
	"fmt"
	"time"

	"github.com/cheikhbeye/oleashop-backend/pkg/db/models"
	"github.com/cheikhbeye/oleashop-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Rejection reasons surfaced to the storefront when a code cannot apply.
const (
	ReasonUnknownCode    = "Code promo invalide"
	ReasonNotYetActive   = "Ce code promo n'est pas encore actif"
	ReasonExpired        = "Ce code promo a expiré"
	ReasonExhausted      = "Ce code promo a atteint sa limite d'utilisation"
	ReasonNotComputable  = "Ce code promo n'est pas utilisable en ligne"
	reasonMinOrderFormat = "Montant minimum de commande: %.0f %s"
)

// promoOutcome is the result of validating one code against one subtotal.
// Reason is empty when the code applies.
type promoOutcome struct {
	Discount     decimal.Decimal
	FreeShipping bool
	Reason       string
}

func rejected(reason string) promoOutcome {
	return promoOutcome{Discount: decimal.Zero, Reason: reason}
}

// evaluatePromo runs the validity checks and the per-type discount math.
// A nil promo means the code lookup found nothing.
func evaluatePromo(promo *models.PromoCode, subtotal decimal.Decimal, now time.Time, currency string) promoOutcome {
	if promo == nil || !promo.IsActive {
		return rejected(ReasonUnknownCode)
	}
	if now.Before(promo.ValidFrom) {
		return rejected(ReasonNotYetActive)
	}
	if promo.ValidUntil != nil && now.After(*promo.ValidUntil) {
		return rejected(ReasonExpired)
	}
	if promo.MaxUses != nil && promo.UsesCount >= *promo.MaxUses {
		return rejected(ReasonExhausted)
	}
	if promo.MinOrderAmount != nil {
		min := decimal.NewFromFloat(*promo.MinOrderAmount)
		if subtotal.LessThan(min) {
			return rejected(fmt.Sprintf(reasonMinOrderFormat, *promo.MinOrderAmount, currency))
		}
	}

	switch promo.DiscountType {
	case enums.DiscountTypePercentage:
		amount := subtotal.
			Mul(decimal.NewFromFloat(promo.DiscountValue)).
			Div(decimal.NewFromInt(100))
		if promo.MaxDiscountAmount != nil {
			ceiling := decimal.NewFromFloat(*promo.MaxDiscountAmount)
			if amount.GreaterThan(ceiling) {
				amount = ceiling
			}
		}
		return promoOutcome{Discount: clampToSubtotal(amount, subtotal)}
	case enums.DiscountTypeFixedAmount:
		amount := decimal.NewFromFloat(promo.DiscountValue)
		return promoOutcome{Discount: clampToSubtotal(amount, subtotal)}
	case enums.DiscountTypeFreeShipping:
		return promoOutcome{Discount: decimal.Zero, FreeShipping: true}
	default:
		// buy_x_get_y codes carry no defined computation; admin validation
		// rejects them at creation, this covers rows that predate it.
		return rejected(ReasonNotComputable)
	}
}

// clampToSubtotal keeps a discount from pushing the total negative.
func clampToSubtotal(amount, subtotal decimal.Decimal) decimal.Decimal {
	if amount.GreaterThan(subtotal) {
		return subtotal
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}
