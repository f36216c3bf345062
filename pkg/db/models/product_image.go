package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductImage stores one gallery entry. (product_id, image_url) is unique so
// re-importing the same file never duplicates images.
type ProductImage struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_product_images_product_url"`
	ImageURL     string    `gorm:"column:image_url;not null;uniqueIndex:idx_product_images_product_url"`
	DisplayOrder int       `gorm:"column:display_order;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
