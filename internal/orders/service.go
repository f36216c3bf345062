package orders

import (
	"context"
	"fmt"
	"strings"
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
	"github.com/cheikhbeye/oleashop-backend/pkg/metrics"
	"github.com/cheikhbeye/oleashop-backend/pkg/pagination"
	"github.com/cheikhbeye/oleashop-backend/pkg/payment"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentOpener is the slice of the payment client checkout needs.
type PaymentOpener interface {
	OpenSession(ctx context.Context, req payment.RequestPayment) (*payment.Session, error)
}

// CheckoutItem is one cart line as submitted by the storefront.
type CheckoutItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// CheckoutInput is the full checkout submission.
type CheckoutInput struct {
	CustomerName   string
	CustomerPhone  string
	CustomerEmail  *string
	City           string
	Country        string
	Address        *string
	DeliveryMethod enums.DeliveryMethod
	PromoCode      string
	Items          []CheckoutItem
}

// CheckoutResult points the shopper at the payment page.
type CheckoutResult struct {
	OrderID     uuid.UUID     `json:"order_id"`
	Reference   string        `json:"reference"`
	RedirectURL string        `json:"redirect_url"`
	Quote       pricing.Quote `json:"quote"`
}

// OrderDTO is the admin-facing order shape.
type OrderDTO struct {
	ID             uuid.UUID            `json:"id"`
	Reference      string               `json:"reference"`
	CustomerName   string               `json:"customer_name"`
	CustomerPhone  string               `json:"customer_phone"`
	CustomerEmail  *string              `json:"customer_email,omitempty"`
	City           string               `json:"city"`
	Country        string               `json:"country"`
	Address        *string              `json:"address,omitempty"`
	DeliveryMethod enums.DeliveryMethod `json:"delivery_method"`
	Subtotal       float64              `json:"subtotal"`
	ShippingCost   float64              `json:"shipping_cost"`
	Discount       float64              `json:"discount"`
	Total          float64              `json:"total"`
	Status         enums.OrderStatus    `json:"status"`
	PaymentRef     *string              `json:"payment_ref,omitempty"`
	Items          []OrderItemDTO       `json:"items"`
	CreatedAt      time.Time            `json:"created_at"`
}

type OrderItemDTO struct {
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	Title     string     `json:"title"`
	UnitPrice float64    `json:"unit_price"`
	Quantity  int        `json:"quantity"`
	Total     float64    `json:"total"`
}

// OrderListResult pages orders for the admin screen.
type OrderListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// QuoteInput prices a cart without committing anything.
type QuoteInput struct {
	City           string
	Country        string
	DeliveryMethod enums.DeliveryMethod
	PromoCode      string
	Items          []CheckoutItem
}

// Service runs checkout and the payment confirmation callback.
type Service interface {
	Quote(ctx context.Context, input QuoteInput) (*pricing.Quote, error)
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	ConfirmPayment(ctx context.Context, reference, paymentRef string) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	GetOrderByReference(ctx context.Context, reference string) (*OrderDTO, error)
	ListOrders(ctx context.Context, params pagination.Params) (*OrderListResult, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
}

type service struct {
	repo      *Repository
	products  *catalog.Repository
	promoRepo *promo.Repository
	engine    *pricing.Engine
	payments  PaymentOpener
	dbClient  *db.Client
	logg      *logger.Logger
	metrics   *metrics.CheckoutMetrics
	cfg       config.CheckoutConfig
	timeFunc  func() time.Time
}

// NewService constructs the checkout service. The metrics collector is
// optional; everything else is required.
func NewService(
	repo *Repository,
	products *catalog.Repository,
	promoRepo *promo.Repository,
	engine *pricing.Engine,
	payments PaymentOpener,
	dbClient *db.Client,
	logg *logger.Logger,
	m *metrics.CheckoutMetrics,
	cfg config.CheckoutConfig,
) (Service, error) {
	if repo == nil || products == nil || promoRepo == nil {
		return nil, fmt.Errorf("order, product and promo repositories required")
	}
	if engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment client required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		products:  products,
		promoRepo: promoRepo,
		engine:    engine,
		payments:  payments,
		dbClient:  dbClient,
		logg:      logg,
		metrics:   m,
		cfg:       cfg,
		timeFunc:  time.Now,
	}, nil
}

func validateCheckoutInput(input CheckoutInput) error {
	if strings.TrimSpace(input.CustomerName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer phone is required")
	}
	if !input.DeliveryMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery method")
	}
	if input.DeliveryMethod != enums.DeliveryMethodPickup {
		if strings.TrimSpace(input.City) == "" || strings.TrimSpace(input.Country) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "delivery destination is required")
		}
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product id is required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}
	return nil
}

// Quote prices a cart for the storefront summary. A rejected promo code is
// not an error here; the reason comes back on the quote so the shopper can
// fix or drop the code before submitting.
func (s *service) Quote(ctx context.Context, input QuoteInput) (*pricing.Quote, error) {
	if !input.DeliveryMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery method")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id is required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}

	lines, _, err := s.resolveItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	return s.engine.Quote(ctx, pricing.QuoteInput{
		Items:     lines,
		City:      input.City,
		Country:   input.Country,
		Method:    input.DeliveryMethod,
		PromoCode: input.PromoCode,
	})
}

// Checkout prices the cart, commits the order with its promo redemption in
// one transaction, and opens the payment session the shopper is redirected
// to. A rejected promo code blocks checkout so the shopper never pays a total
// they did not see.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if err := validateCheckoutInput(input); err != nil {
		return nil, err
	}

	lines, orderItems, err := s.resolveItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	quote, err := s.engine.Quote(ctx, pricing.QuoteInput{
		Items:     lines,
		City:      input.City,
		Country:   input.Country,
		Method:    input.DeliveryMethod,
		PromoCode: input.PromoCode,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.PromoCode) != "" && !quote.PromoApplied() {
		s.metrics.IncPromoResult("rejected")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, quote.PromoReason)
	}

	for i := range orderItems {
		orderItems[i].Total = orderItems[i].UnitPrice * float64(orderItems[i].Quantity)
	}

	order := &models.Order{
		Reference:      s.newReference(),
		CustomerName:   strings.TrimSpace(input.CustomerName),
		CustomerPhone:  strings.TrimSpace(input.CustomerPhone),
		CustomerEmail:  input.CustomerEmail,
		City:           strings.TrimSpace(input.City),
		Country:        strings.TrimSpace(input.Country),
		Address:        input.Address,
		DeliveryMethod: input.DeliveryMethod,
		Subtotal:       quote.Subtotal,
		ShippingCost:   quote.ShippingCost,
		Discount:       quote.Discount,
		Total:          quote.Total,
		PromoCodeID:    quote.PromoCodeID,
		Status:         enums.OrderStatusPending,
		Items:          orderItems,
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if quote.PromoCodeID != nil {
			ok, err := s.promoRepo.WithTx(tx).Redeem(ctx, *quote.PromoCodeID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: redeem promo code")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict, "promo code is no longer available")
			}
		}
		if _, err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	session, err := s.payments.OpenSession(ctx, payment.RequestPayment{
		Reference: order.Reference,
		ItemName:  itemSummary(orderItems),
		Amount:    order.Total,
		Currency:  s.cfg.Currency,
	})
	if err != nil {
		// The order stays pending without a payment ref; the shopper can
		// retry from the order page and the callback reconciles the rest.
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{
			"order_reference": order.Reference,
		}), "payment session failed", err)
		return nil, err
	}

	s.metrics.IncOrders()
	if quote.PromoCodeID != nil {
		s.metrics.IncPromoResult("applied")
	} else {
		s.metrics.IncPromoResult("none")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_reference": order.Reference,
		"order_total":     order.Total,
	})
	s.logg.Info(ctx, "order committed")

	return &CheckoutResult{
		OrderID:     order.ID,
		Reference:   order.Reference,
		RedirectURL: session.RedirectURL,
		Quote:       *quote,
	}, nil
}

// ConfirmPayment handles the provider callback. Replays are a no-op once the
// order is paid.
func (s *service) ConfirmPayment(ctx context.Context, reference, paymentRef string) error {
	if strings.TrimSpace(reference) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order reference is required")
	}

	flipped, err := s.repo.MarkPaid(ctx, reference, paymentRef)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: confirm payment")
	}
	if flipped {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_reference": reference,
		}), "order paid")
		return nil
	}

	order, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	// Already paid or cancelled; nothing to do.
	return nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return newOrderDTO(order), nil
}

func (s *service) GetOrderByReference(ctx context.Context, reference string) (*OrderDTO, error) {
	order, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return newOrderDTO(order), nil
}

func (s *service) ListOrders(ctx context.Context, params pagination.Params) (*OrderListResult, error) {
	params.Limit = pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}

	result := &OrderListResult{}
	if len(rows) > params.Limit {
		rows = rows[:params.Limit]
		last := rows[len(rows)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	result.Orders = make([]OrderDTO, 0, len(rows))
	for i := range rows {
		result.Orders = append(result.Orders, *newOrderDTO(&rows[i]))
	}
	return result, nil
}

// Legal admin status moves. Payment settles pending orders through
// ConfirmPayment; everything a back-office operator may do by hand is here.
var orderStatusTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusPaid, enums.OrderStatusCancelled},
	enums.OrderStatusPaid:      {enums.OrderStatusCancelled},
	enums.OrderStatusCancelled: {},
}

func canTransitionOrderStatus(from, to enums.OrderStatus) bool {
	for _, candidate := range orderStatusTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status == status {
		return nil
	}
	if !canTransitionOrderStatus(order.Status, status) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %q to %q", order.Status, status))
	}
	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order status")
	}
	return nil
}

// resolveItems loads each product and snapshots its current title and price.
func (s *service) resolveItems(ctx context.Context, items []CheckoutItem) ([]pricing.LineItem, []models.OrderItem, error) {
	lines := make([]pricing.LineItem, 0, len(items))
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		product, err := s.products.FindProductByID(ctx, item.ProductID)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
		}
		if product == nil || !product.IsActive {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "a product in the cart is no longer available")
		}
		productID := product.ID
		lines = append(lines, pricing.LineItem{
			ProductID: &productID,
			Title:     product.Title,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
		})
		orderItems = append(orderItems, models.OrderItem{
			ProductID: &productID,
			Title:     product.Title,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
		})
	}
	return lines, orderItems, nil
}

// newReference builds the shopper-facing order reference, unique enough for
// the uniqueness index to never trip in practice.
func (s *service) newReference() string {
	stamp := s.timeFunc().UTC().Format("20060102")
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:10])
	return fmt.Sprintf("OLEA-%s-%s", stamp, suffix)
}

// itemSummary labels the payment page; providers cap the length.
func itemSummary(items []models.OrderItem) string {
	if len(items) == 1 && items[0].Quantity == 1 {
		return items[0].Title
	}
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return fmt.Sprintf("Commande Oléa (%d articles)", count)
}

func newOrderDTO(order *models.Order) *OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ProductID: item.ProductID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Total:     item.Total,
		})
	}
	return &OrderDTO{
		ID:             order.ID,
		Reference:      order.Reference,
		CustomerName:   order.CustomerName,
		CustomerPhone:  order.CustomerPhone,
		CustomerEmail:  order.CustomerEmail,
		City:           order.City,
		Country:        order.Country,
		Address:        order.Address,
		DeliveryMethod: order.DeliveryMethod,
		Subtotal:       order.Subtotal,
		ShippingCost:   order.ShippingCost,
		Discount:       order.Discount,
		Total:          order.Total,
		Status:         order.Status,
		PaymentRef:     order.PaymentRef,
		Items:          items,
		CreatedAt:      order.CreatedAt,
	}
}
