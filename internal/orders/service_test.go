package orders

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cheikhbeye/oleashop-backend/internal/catalog"
	"github.com/cheikhbeye/oleashop-backend/internal/pricing"
	promo "github.com/cheikhbeye/oleashop-backend/internal/promos"
	"github.com/cheikhbeye/oleashop-backend/pkg/config"
	"github.com/cheikhbeye/oleashop-backend/pkg/db"
	"github.com/cheikhbeye/oleashop-backend/pkg/db/models"
	"github.com/cheikhbeye/oleashop-backend/pkg/enums"
	pkgerrors "github.com/cheikhbeye/oleashop-backend/pkg/errors"
	"github.com/cheikhbeye/oleashop-backend/pkg/logger"
	"github.com/cheikhbeye/oleashop-backend/pkg/payment"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	stmts := []string{`
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  parent_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  sku TEXT UNIQUE,
  description TEXT,
  price REAL NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0,
  capacity TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS product_categories (
  product_id TEXT NOT NULL,
  category_id TEXT NOT NULL,
  PRIMARY KEY (product_id, category_id)
);`, `
CREATE TABLE IF NOT EXISTS product_images (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  image_url TEXT NOT NULL,
  display_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  UNIQUE (product_id, image_url)
);`, `
CREATE TABLE IF NOT EXISTS promo_codes (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  description TEXT,
  discount_type TEXT NOT NULL,
  discount_value REAL NOT NULL DEFAULT 0,
  min_order_amount REAL,
  max_discount_amount REAL,
  max_uses INTEGER,
  uses_count INTEGER NOT NULL DEFAULT 0,
  buy_quantity INTEGER,
  get_quantity INTEGER,
  valid_from DATETIME NOT NULL,
  valid_until DATETIME,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  reference TEXT NOT NULL UNIQUE,
  customer_name TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  customer_email TEXT,
  city TEXT NOT NULL,
  country TEXT NOT NULL,
  address TEXT,
  delivery_method TEXT NOT NULL,
  subtotal REAL NOT NULL,
  shipping_cost REAL NOT NULL DEFAULT 0,
  discount REAL NOT NULL DEFAULT 0,
  total REAL NOT NULL,
  promo_code_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_ref TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT,
  title TEXT NOT NULL,
  unit_price REAL NOT NULL,
  quantity INTEGER NOT NULL,
  total REAL NOT NULL,
  created_at DATETIME
);`}
	for _, stmt := range stmts {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

type fixedRates struct {
	rate *models.ShippingRate
}

func (f *fixedRates) ResolveRate(_ context.Context, _, _ string, _ enums.DeliveryMethod) (*models.ShippingRate, error) {
	return f.rate, nil
}

type capturingPayments struct {
	requests []payment.RequestPayment
	err      error
}

func (c *capturingPayments) OpenSession(_ context.Context, req payment.RequestPayment) (*payment.Session, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	return &payment.Session{Token: "tok", RedirectURL: "https://pay.example/session/tok"}, nil
}

type checkoutFixture struct {
	conn     *gorm.DB
	svc      Service
	payments *capturingPayments
}

func setupCheckout(t *testing.T) *checkoutFixture {
	t.Helper()

	conn := setupOrdersTestDB(t)
	promoRepo := promo.NewRepository(conn)
	promoService, err := promo.NewService(promoRepo)
	require.NoError(t, err)
	engine, err := pricing.NewEngine(
		&fixedRates{rate: &models.ShippingRate{Price: 2000}},
		promoService,
		config.CheckoutConfig{Currency: "XOF", FallbackShippingCost: 2000},
	)
	require.NoError(t, err)

	payments := &capturingPayments{}
	logg := logger.New(logger.Options{ServiceName: "orders-test", Level: zerolog.ErrorLevel})
	svc, err := NewService(
		NewRepository(conn),
		catalog.NewRepository(conn),
		promoRepo,
		engine,
		payments,
		db.NewWithConn(conn),
		logg,
		nil,
		config.CheckoutConfig{Currency: "XOF", FallbackShippingCost: 2000},
	)
	require.NoError(t, err)
	return &checkoutFixture{conn: conn, svc: svc, payments: payments}
}

func (f *checkoutFixture) mustProduct(t *testing.T, title string, price float64) *models.Product {
	t.Helper()
	productSlug := fmt.Sprintf("%s-%s", strings.ToLower(strings.ReplaceAll(title, " ", "-")), uuid.New().String()[:8])
	product := &models.Product{
		ID:       uuid.New(),
		Title:    title,
		Slug:     &productSlug,
		Price:    price,
		IsActive: true,
	}
	require.NoError(t, f.conn.Create(product).Error)
	return product
}

func (f *checkoutFixture) mustPromo(t *testing.T, code string, maxUses *int) *models.PromoCode {
	t.Helper()
	p := &models.PromoCode{
		ID:            uuid.New(),
		Code:          code,
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: 10,
		MaxUses:       maxUses,
		ValidFrom:     time.Now().UTC().Add(-time.Hour),
		IsActive:      true,
	}
	require.NoError(t, f.conn.Create(p).Error)
	return p
}

func baseInput(items ...CheckoutItem) CheckoutInput {
	return CheckoutInput{
		CustomerName:   "Awa Diop",
		CustomerPhone:  "+221770000000",
		City:           "Dakar",
		Country:        "Sénégal",
		DeliveryMethod: enums.DeliveryMethodStandard,
		Items:          items,
	}
}

func TestQuotePricesCartWithoutCommitting(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()

	soap := f.mustProduct(t, "Savon noir", 2500)
	f.mustPromo(t, "BIENVENUE10", nil)

	quote, err := f.svc.Quote(ctx, QuoteInput{
		City:           "Dakar",
		Country:        "Sénégal",
		DeliveryMethod: enums.DeliveryMethodStandard,
		PromoCode:      "bienvenue10",
		Items:          []CheckoutItem{{ProductID: soap.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, float64(10000), quote.Subtotal)
	assert.Equal(t, float64(1000), quote.Discount)
	assert.True(t, quote.PromoApplied())

	var orderCount int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)

	var stored models.PromoCode
	require.NoError(t, f.conn.First(&stored, "code = ?", "BIENVENUE10").Error)
	assert.Zero(t, stored.UsesCount)
}

func TestQuoteSurfacesPromoReasonInsteadOfFailing(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()

	soap := f.mustProduct(t, "Savon noir", 2500)

	quote, err := f.svc.Quote(ctx, QuoteInput{
		City:           "Dakar",
		Country:        "Sénégal",
		DeliveryMethod: enums.DeliveryMethodStandard,
		PromoCode:      "INCONNU",
		Items:          []CheckoutItem{{ProductID: soap.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.False(t, quote.PromoApplied())
	assert.Equal(t, pricing.ReasonUnknownCode, quote.PromoReason)
	assert.Equal(t, float64(4500), quote.Total)
}

func TestCheckoutCreatesOrderWithItems(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()

	soap := f.mustProduct(t, "Savon noir", 2500)
	butter := f.mustProduct(t, "Beurre de karité", 4000)

	result, err := f.svc.Checkout(ctx, baseInput(
		CheckoutItem{ProductID: soap.ID, Quantity: 2},
		CheckoutItem{ProductID: butter.ID, Quantity: 1},
	))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Reference, "OLEA-"))
	assert.Equal(t, "https://pay.example/session/tok", result.RedirectURL)
	assert.Equal(t, float64(9000), result.Quote.Subtotal)
	assert.Equal(t, float64(11000), result.Quote.Total)

	var stored models.Order
	require.NoError(t, f.conn.Preload("Items").First(&stored, "id = ?", result.OrderID).Error)
	assert.Equal(t, enums.OrderStatusPending, stored.Status)
	assert.Equal(t, float64(11000), stored.Total)
	require.Len(t, stored.Items, 2)

	require.Len(t, f.payments.requests, 1)
	assert.Equal(t, stored.Reference, f.payments.requests[0].Reference)
	assert.Equal(t, float64(11000), f.payments.requests[0].Amount)
	assert.Equal(t, "XOF", f.payments.requests[0].Currency)
}

func TestCheckoutInputValidation(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()
	product := f.mustProduct(t, "Savon noir", 2500)

	tests := []struct {
		name   string
		mutate func(*CheckoutInput)
	}{
		{"missing name", func(in *CheckoutInput) { in.CustomerName = " " }},
		{"missing phone", func(in *CheckoutInput) { in.CustomerPhone = "" }},
		{"bad method", func(in *CheckoutInput) { in.DeliveryMethod = "drone" }},
		{"missing destination", func(in *CheckoutInput) { in.City = ""; in.Country = "" }},
		{"empty cart", func(in *CheckoutInput) { in.Items = nil }},
		{"zero quantity", func(in *CheckoutInput) { in.Items[0].Quantity = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := baseInput(CheckoutItem{ProductID: product.ID, Quantity: 1})
			tc.mutate(&input)
			_, err := f.svc.Checkout(ctx, input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestCheckoutRejectsUnavailableProduct(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()

	hidden := f.mustProduct(t, "Savon noir", 2500)
	require.NoError(t, f.conn.Model(hidden).Update("is_active", false).Error)

	_, err := f.svc.Checkout(ctx, baseInput(CheckoutItem{ProductID: hidden.ID, Quantity: 1}))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = f.svc.Checkout(ctx, baseInput(CheckoutItem{ProductID: uuid.New(), Quantity: 1}))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCheckoutAppliesAndRedeemsPromo(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()

	product := f.mustProduct(t, "Savon noir", 10000)
	maxUses := 1
	p := f.mustPromo(t, "REMISE10", &maxUses)

	input := baseInput(CheckoutItem{ProductID: product.ID, Quantity: 1})
	input.PromoCode = "remise10"
	result, err := f.svc.Checkout(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, float64(1000), result.Quote.Discount)
	assert.Equal(t, float64(11000), result.Quote.Total)

	var stored models.PromoCode
	require.NoError(t, f.conn.First(&stored, "id = ?", p.ID).Error)
	assert.Equal(t, 1, stored.UsesCount)

	// The cap is reached, so a second checkout fails validation up front and
	// no second order is written.
	_, err = f.svc.Checkout(ctx, input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Equal(t, pricing.ReasonExhausted, pkgerrors.As(err).Message())

	var count int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCheckoutRejectsUnknownPromo(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()

	product := f.mustProduct(t, "Savon noir", 2500)
	input := baseInput(CheckoutItem{ProductID: product.ID, Quantity: 1})
	input.PromoCode = "INCONNU"

	_, err := f.svc.Checkout(ctx, input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Equal(t, pricing.ReasonUnknownCode, pkgerrors.As(err).Message())
}

func TestCheckoutPaymentFailureKeepsPendingOrder(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()

	product := f.mustProduct(t, "Savon noir", 2500)
	f.payments.err = fmt.Errorf("provider unavailable")

	_, err := f.svc.Checkout(ctx, baseInput(CheckoutItem{ProductID: product.ID, Quantity: 1}))
	require.Error(t, err)

	var stored models.Order
	require.NoError(t, f.conn.First(&stored).Error)
	assert.Equal(t, enums.OrderStatusPending, stored.Status)
	assert.Nil(t, stored.PaymentRef)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()

	product := f.mustProduct(t, "Savon noir", 2500)
	result, err := f.svc.Checkout(ctx, baseInput(CheckoutItem{ProductID: product.ID, Quantity: 1}))
	require.NoError(t, err)

	require.NoError(t, f.svc.ConfirmPayment(ctx, result.Reference, "psp-123"))

	var stored models.Order
	require.NoError(t, f.conn.First(&stored, "reference = ?", result.Reference).Error)
	assert.Equal(t, enums.OrderStatusPaid, stored.Status)
	require.NotNil(t, stored.PaymentRef)
	assert.Equal(t, "psp-123", *stored.PaymentRef)

	// Replayed callback keeps the first provider reference.
	require.NoError(t, f.svc.ConfirmPayment(ctx, result.Reference, "psp-456"))
	require.NoError(t, f.conn.First(&stored, "reference = ?", result.Reference).Error)
	assert.Equal(t, "psp-123", *stored.PaymentRef)

	err = f.svc.ConfirmPayment(ctx, "OLEA-00000000-XXXX", "psp-789")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateStatus(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()

	product := f.mustProduct(t, "Savon noir", 2500)
	result, err := f.svc.Checkout(ctx, baseInput(CheckoutItem{ProductID: product.ID, Quantity: 1}))
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateStatus(ctx, result.OrderID, enums.OrderStatusCancelled))
	order, err := f.svc.GetOrder(ctx, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, order.Status)

	err = f.svc.UpdateStatus(ctx, result.OrderID, "weird")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	err = f.svc.UpdateStatus(ctx, uuid.New(), enums.OrderStatusPaid)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateStatusRejectsIllegalTransitions(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()

	product := f.mustProduct(t, "Huile de baobab", 4000)
	result, err := f.svc.Checkout(ctx, baseInput(CheckoutItem{ProductID: product.ID, Quantity: 1}))
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateStatus(ctx, result.OrderID, enums.OrderStatusCancelled))

	// A cancelled order is terminal; it cannot be revived.
	err = f.svc.UpdateStatus(ctx, result.OrderID, enums.OrderStatusPaid)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	err = f.svc.UpdateStatus(ctx, result.OrderID, enums.OrderStatusPending)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	// Re-submitting the current status is a harmless replay.
	require.NoError(t, f.svc.UpdateStatus(ctx, result.OrderID, enums.OrderStatusCancelled))

	order, err := f.svc.GetOrder(ctx, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, order.Status)
}

func TestUpdateStatusAllowsVoidingPaidOrders(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()

	product := f.mustProduct(t, "Beurre de cacao", 3500)
	result, err := f.svc.Checkout(ctx, baseInput(CheckoutItem{ProductID: product.ID, Quantity: 1}))
	require.NoError(t, err)
	require.NoError(t, f.svc.ConfirmPayment(ctx, result.Reference, "psp-void"))

	err = f.svc.UpdateStatus(ctx, result.OrderID, enums.OrderStatusPending)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	require.NoError(t, f.svc.UpdateStatus(ctx, result.OrderID, enums.OrderStatusCancelled))
}
