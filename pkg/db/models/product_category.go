package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductCategory links a product to a category. The (product_id, category_id)
// pair is unique so the import pipeline can upsert the link idempotently.
type ProductCategory struct {
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	CategoryID uuid.UUID `gorm:"column:category_id;type:uuid;primaryKey"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the join table name explicit.
func (ProductCategory) TableName() string {
	return "product_categories"
}
