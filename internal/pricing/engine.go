// Package pricing computes checkout totals: subtotal aggregation, zone-based
// shipping with free-shipping thresholds, and promo code discounts. All money
// math goes through decimals so repeated percentage discounts cannot drift.
package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cheikhbeye/oleashop-backend/pkg/config"
	"github.com/cheikhbeye/oleashop-backend/pkg/db/models"
	"github.com/cheikhbeye/oleashop-backend/pkg/enums"
	pkgerrors "github.com/cheikhbeye/oleashop-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateResolver is the slice of the shipping service the engine needs.
type RateResolver interface {
	ResolveRate(ctx context.Context, city, country string, method enums.DeliveryMethod) (*models.ShippingRate, error)
}

// PromoFinder is the slice of the promo service the engine needs.
type PromoFinder interface {
	GetByCode(ctx context.Context, code string) (*models.PromoCode, error)
}

// LineItem is one priced cart line. The caller resolves products to unit
// prices before quoting.
type LineItem struct {
	ProductID *uuid.UUID
	Title     string
	UnitPrice float64
	Quantity  int
}

// QuoteInput describes one cart to price.
type QuoteInput struct {
	Items     []LineItem
	City      string
	Country   string
	Method    enums.DeliveryMethod
	PromoCode string
}

// Quote is the priced cart. PromoReason is set when a supplied code was
// rejected; PromoCodeID is set only when the code applied.
type Quote struct {
	Subtotal     float64    `json:"subtotal"`
	ShippingCost float64    `json:"shipping_cost"`
	FreeShipping bool       `json:"free_shipping"`
	Discount     float64    `json:"discount"`
	Total        float64    `json:"total"`
	PromoCodeID  *uuid.UUID `json:"promo_code_id,omitempty"`
	PromoReason  string     `json:"promo_reason,omitempty"`
}

// PromoApplied reports whether a supplied code landed on this quote.
func (q Quote) PromoApplied() bool {
	return q.PromoCodeID != nil
}

// Engine wires the resolver, the promo lookup, and the checkout defaults.
type Engine struct {
	rates    RateResolver
	promos   PromoFinder
	cfg      config.CheckoutConfig
	timeFunc func() time.Time
}

func NewEngine(rates RateResolver, promos PromoFinder, cfg config.CheckoutConfig) (*Engine, error) {
	if rates == nil {
		return nil, fmt.Errorf("rate resolver required")
	}
	if promos == nil {
		return nil, fmt.Errorf("promo finder required")
	}
	return &Engine{rates: rates, promos: promos, cfg: cfg, timeFunc: time.Now}, nil
}

// Quote prices the cart. Promo rejection is reported inside the quote, not as
// an error; errors are reserved for bad input and store failures.
func (e *Engine) Quote(ctx context.Context, input QuoteInput) (*Quote, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery method")
	}

	subtotal := decimal.Zero
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.UnitPrice < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
		line := decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}

	quote := &Quote{Subtotal: subtotal.InexactFloat64()}

	discount := decimal.Zero
	promoFreeShipping := false
	if code := strings.TrimSpace(input.PromoCode); code != "" {
		promo, err := e.promos.GetByCode(ctx, code)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup promo code")
		}
		outcome := evaluatePromo(promo, subtotal, e.timeFunc().UTC(), e.cfg.Currency)
		if outcome.Reason != "" {
			quote.PromoReason = outcome.Reason
		} else {
			discount = outcome.Discount
			promoFreeShipping = outcome.FreeShipping
			id := promo.ID
			quote.PromoCodeID = &id
		}
	}
	quote.Discount = discount.Round(2).InexactFloat64()

	shipping, freeShipping, err := e.resolveShipping(ctx, input, subtotal)
	if err != nil {
		return nil, err
	}
	if promoFreeShipping {
		shipping = decimal.Zero
		freeShipping = true
	}
	quote.ShippingCost = shipping.InexactFloat64()
	quote.FreeShipping = freeShipping

	quote.Total = subtotal.Sub(discount).Add(shipping).Round(2).InexactFloat64()
	return quote, nil
}

// resolveShipping applies the method and threshold rules. A missing zone or
// rate falls back to the configured default cost instead of blocking the
// checkout.
func (e *Engine) resolveShipping(ctx context.Context, input QuoteInput, subtotal decimal.Decimal) (decimal.Decimal, bool, error) {
	if input.Method == enums.DeliveryMethodPickup {
		return decimal.Zero, false, nil
	}

	rate, err := e.rates.ResolveRate(ctx, input.City, input.Country, input.Method)
	if err != nil {
		return decimal.Zero, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: resolve shipping rate")
	}
	if rate == nil {
		return decimal.NewFromFloat(e.cfg.FallbackShippingCost), false, nil
	}
	if rate.FreeShippingThreshold != nil {
		threshold := decimal.NewFromFloat(*rate.FreeShippingThreshold)
		if subtotal.GreaterThanOrEqual(threshold) {
			return decimal.Zero, true, nil
		}
	}
	return decimal.NewFromFloat(rate.Price), false, nil
}
