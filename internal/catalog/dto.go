package catalog

import (
	"time"

	"github.com/cheikhbeye/oleashop-backend/pkg/db/models"
	"github.com/google/uuid"
)

// ProductDTO is the API-facing product shape.
type ProductDTO struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Slug        *string       `json:"slug"`
	SKU         *string       `json:"sku,omitempty"`
	Description *string       `json:"description,omitempty"`
	Price       float64       `json:"price"`
	Stock       int           `json:"stock"`
	Capacity    *string       `json:"capacity,omitempty"`
	IsActive    bool          `json:"is_active"`
	Categories  []CategoryDTO `json:"categories"`
	Images      []ImageDTO    `json:"images"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// CategoryDTO is the API-facing category shape.
type CategoryDTO struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// ImageDTO is the API-facing product image shape.
type ImageDTO struct {
	ID           uuid.UUID `json:"id"`
	ImageURL     string    `json:"image_url"`
	DisplayOrder int       `json:"display_order"`
}

// ProductListResult is one page of products plus the cursor for the next one.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// NewProductDTO maps the stored product into its API shape. Categories and
// images must be preloaded by the caller.
func NewProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:          product.ID,
		Title:       product.Title,
		Slug:        product.Slug,
		SKU:         product.SKU,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		Capacity:    product.Capacity,
		IsActive:    product.IsActive,
		Categories:  make([]CategoryDTO, 0, len(product.Categories)),
		Images:      make([]ImageDTO, 0, len(product.Images)),
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
	for _, category := range product.Categories {
		dto.Categories = append(dto.Categories, NewCategoryDTO(&category))
	}
	for _, image := range product.Images {
		dto.Images = append(dto.Images, ImageDTO{
			ID:           image.ID,
			ImageURL:     image.ImageURL,
			DisplayOrder: image.DisplayOrder,
		})
	}
	return dto
}

// NewCategoryDTO maps the stored category into its API shape.
func NewCategoryDTO(category *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:       category.ID,
		Name:     category.Name,
		Slug:     category.Slug,
		ParentID: category.ParentID,
	}
}
