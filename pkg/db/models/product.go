package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the canonical catalog entry. Slug and SKU are both identity
// columns for import reconciliation: SKU acts as the external id when the
// source file carries one, slug is the fallback derived from the title.
type Product struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title       string         `gorm:"column:title;not null"`
	Slug        *string        `gorm:"column:slug;uniqueIndex"`
	SKU         *string        `gorm:"column:sku;uniqueIndex"`
	Description *string        `gorm:"column:description"`
	Price       float64        `gorm:"column:price;not null"`
	Stock       int            `gorm:"column:stock;not null;default:0"`
	Capacity    *string        `gorm:"column:capacity"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	Categories  []Category     `gorm:"many2many:product_categories;joinForeignKey:ProductID;joinReferences:CategoryID"`
	Images      []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
