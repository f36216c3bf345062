package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cheikhbeye/oleashop-backend/api/responses"
	"github.com/cheikhbeye/oleashop-backend/api/validators"
	"github.com/cheikhbeye/oleashop-backend/internal/catalog"
	"github.com/cheikhbeye/oleashop-backend/pkg/logger"
	"github.com/cheikhbeye/oleashop-backend/pkg/pagination"
)

type productRequest struct {
	Title       string   `json:"title" validate:"required"`
	SKU         *string  `json:"sku,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       float64  `json:"price" validate:"gte=0"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Capacity    *string  `json:"capacity,omitempty"`
	IsActive    bool     `json:"is_active"`
	Categories  []string `json:"categories,omitempty"`
	ImageURLs   []string `json:"image_urls,omitempty"`
}

func (req productRequest) toInput() catalog.ProductInput {
	return catalog.ProductInput{
		Title:       req.Title,
		SKU:         req.SKU,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Capacity:    req.Capacity,
		IsActive:    req.IsActive,
		Categories:  req.Categories,
		ImageURLs:   req.ImageURLs,
	}
}

func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req productRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req productRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), productID, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminDeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AdminListProducts includes inactive products, unlike the storefront list.
func AdminListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := catalog.ListFilter{
			CategorySlug: r.URL.Query().Get("category"),
			Search:       r.URL.Query().Get("q"),
			OnlyActive:   false,
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: r.URL.Query().Get("cursor"),
			},
		}

		result, err := svc.ListProducts(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
