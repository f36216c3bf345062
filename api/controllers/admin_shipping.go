package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cheikhbeye/oleashop-backend/api/responses"
	"github.com/cheikhbeye/oleashop-backend/api/validators"
	"github.com/cheikhbeye/oleashop-backend/internal/shipping"
	"github.com/cheikhbeye/oleashop-backend/pkg/enums"
	"github.com/cheikhbeye/oleashop-backend/pkg/logger"
)

type zoneRequest struct {
	Name      string   `json:"name" validate:"required"`
	Cities    []string `json:"cities,omitempty"`
	Countries []string `json:"countries,omitempty"`
	IsActive  bool     `json:"is_active"`
}

func (req zoneRequest) toInput() shipping.ZoneInput {
	return shipping.ZoneInput{
		Name:      req.Name,
		Cities:    req.Cities,
		Countries: req.Countries,
		IsActive:  req.IsActive,
	}
}

type rateRequest struct {
	Method                string   `json:"method" validate:"required"`
	Price                 float64  `json:"price" validate:"gte=0"`
	FreeShippingThreshold *float64 `json:"free_shipping_threshold,omitempty"`
	MinOrderAmount        *float64 `json:"min_order_amount,omitempty"`
	EstimatedDays         *int     `json:"estimated_days,omitempty"`
}

func AdminCreateZone(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req zoneRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		zone, err := svc.CreateZone(r.Context(), req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, zone)
	}
}

func AdminUpdateZone(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zoneID, err := validators.ParsePathUUID(chi.URLParam(r, "zoneId"), "zoneId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req zoneRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		zone, err := svc.UpdateZone(r.Context(), zoneID, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, zone)
	}
}

func AdminDeleteZone(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zoneID, err := validators.ParsePathUUID(chi.URLParam(r, "zoneId"), "zoneId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteZone(r.Context(), zoneID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func AdminListZones(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zones, err := svc.ListZones(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"zones": zones})
	}
}

func AdminSetZoneRate(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zoneID, err := validators.ParsePathUUID(chi.URLParam(r, "zoneId"), "zoneId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req rateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rate, err := svc.SetRate(r.Context(), zoneID, shipping.RateInput{
			Method:                enums.DeliveryMethod(req.Method),
			Price:                 req.Price,
			FreeShippingThreshold: req.FreeShippingThreshold,
			MinOrderAmount:        req.MinOrderAmount,
			EstimatedDays:         req.EstimatedDays,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rate)
	}
}

func AdminDeleteZoneRate(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rateID, err := validators.ParsePathUUID(chi.URLParam(r, "rateId"), "rateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteRate(r.Context(), rateID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
