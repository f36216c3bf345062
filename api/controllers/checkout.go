package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cheikhbeye/oleashop-backend/api/responses"
	"github.com/cheikhbeye/oleashop-backend/api/validators"
	"github.com/cheikhbeye/oleashop-backend/internal/orders"
	"github.com/cheikhbeye/oleashop-backend/pkg/enums"
	"github.com/cheikhbeye/oleashop-backend/pkg/logger"
	"github.com/cheikhbeye/oleashop-backend/pkg/payment"
)

// CallbackVerifier checks the provider signature on IPN posts.
type CallbackVerifier interface {
	VerifyCallback(cb payment.Callback) bool
}

type cartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type quoteRequest struct {
	City           string            `json:"city,omitempty"`
	Country        string            `json:"country,omitempty"`
	DeliveryMethod string            `json:"delivery_method" validate:"required"`
	PromoCode      string            `json:"promo_code,omitempty"`
	Items          []cartItemRequest `json:"items" validate:"required,min=1,dive"`
}

type checkoutRequest struct {
	CustomerName   string            `json:"customer_name" validate:"required"`
	CustomerPhone  string            `json:"customer_phone" validate:"required"`
	CustomerEmail  *string           `json:"customer_email,omitempty" validate:"omitempty,email"`
	City           string            `json:"city,omitempty"`
	Country        string            `json:"country,omitempty"`
	Address        *string           `json:"address,omitempty"`
	DeliveryMethod string            `json:"delivery_method" validate:"required"`
	PromoCode      string            `json:"promo_code,omitempty"`
	Items          []cartItemRequest `json:"items" validate:"required,min=1,dive"`
}

func toCheckoutItems(items []cartItemRequest) []orders.CheckoutItem {
	out := make([]orders.CheckoutItem, 0, len(items))
	for _, item := range items {
		out = append(out, orders.CheckoutItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return out
}

func QuoteCart(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), orders.QuoteInput{
			City:           req.City,
			Country:        req.Country,
			DeliveryMethod: enums.DeliveryMethod(req.DeliveryMethod),
			PromoCode:      req.PromoCode,
			Items:          toCheckoutItems(req.Items),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

func Checkout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), orders.CheckoutInput{
			CustomerName:   req.CustomerName,
			CustomerPhone:  req.CustomerPhone,
			CustomerEmail:  req.CustomerEmail,
			City:           req.City,
			Country:        req.Country,
			Address:        req.Address,
			DeliveryMethod: enums.DeliveryMethod(req.DeliveryMethod),
			PromoCode:      req.PromoCode,
			Items:          toCheckoutItems(req.Items),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PaymentCallback receives the provider IPN. The provider retries until it
// gets a 2xx, so everything past signature verification answers 200.
func PaymentCallback(svc orders.Service, verifier CallbackVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cb, err := payment.ParseCallback(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !verifier.VerifyCallback(cb) {
			logg.Warn(logg.WithFields(r.Context(), map[string]any{
				"order_reference": cb.Reference,
			}), "payment callback signature rejected")
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if cb.Event != payment.EventSaleComplete {
			w.WriteHeader(http.StatusOK)
			return
		}

		if err := svc.ConfirmPayment(r.Context(), cb.Reference, cb.Token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// GetOrderByReference backs the shopper-facing order status page.
func GetOrderByReference(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := svc.GetOrderByReference(r.Context(), chi.URLParam(r, "reference"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
