package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cheikhbeye/oleashop-backend/api/responses"
	"github.com/cheikhbeye/oleashop-backend/api/validators"
	promo "github.com/cheikhbeye/oleashop-backend/internal/promos"
	"github.com/cheikhbeye/oleashop-backend/pkg/enums"
	"github.com/cheikhbeye/oleashop-backend/pkg/logger"
)

type promoRequest struct {
	Code              string     `json:"code" validate:"required"`
	Description       *string    `json:"description,omitempty"`
	DiscountType      string     `json:"discount_type" validate:"required"`
	DiscountValue     float64    `json:"discount_value" validate:"gte=0"`
	MinOrderAmount    *float64   `json:"min_order_amount,omitempty"`
	MaxDiscountAmount *float64   `json:"max_discount_amount,omitempty"`
	MaxUses           *int       `json:"max_uses,omitempty"`
	ValidFrom         *time.Time `json:"valid_from,omitempty"`
	ValidUntil        *time.Time `json:"valid_until,omitempty"`
	IsActive          bool       `json:"is_active"`
}

func (req promoRequest) toInput() promo.PromoInput {
	input := promo.PromoInput{
		Code:              req.Code,
		Description:       req.Description,
		DiscountType:      enums.DiscountType(req.DiscountType),
		DiscountValue:     req.DiscountValue,
		MinOrderAmount:    req.MinOrderAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		MaxUses:           req.MaxUses,
		ValidUntil:        req.ValidUntil,
		IsActive:          req.IsActive,
	}
	if req.ValidFrom != nil {
		input.ValidFrom = *req.ValidFrom
	}
	return input
}

func AdminCreatePromo(svc promo.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req promoRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func AdminUpdatePromo(svc promo.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		promoID, err := validators.ParsePathUUID(chi.URLParam(r, "promoId"), "promoId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req promoRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), promoID, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func AdminDeletePromo(svc promo.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		promoID, err := validators.ParsePathUUID(chi.URLParam(r, "promoId"), "promoId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), promoID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func AdminListPromos(svc promo.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		promos, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"promo_codes": promos})
	}
}
