package models

import (
	"time"

	"github.com/cheikhbeye/oleashop-backend/pkg/enums"
	"github.com/google/uuid"
)

// PromoCode drives checkout discounts. DiscountValue is 0 only for the
// free_shipping type; UsesCount is bumped through a conditional UPDATE so two
// concurrent redemptions cannot both pass a max_uses limit.
type PromoCode struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code              string             `gorm:"column:code;not null;uniqueIndex"`
	Description       *string            `gorm:"column:description"`
	DiscountType      enums.DiscountType `gorm:"column:discount_type;not null"`
	DiscountValue     float64            `gorm:"column:discount_value;not null;default:0"`
	MinOrderAmount    *float64           `gorm:"column:min_order_amount"`
	MaxDiscountAmount *float64           `gorm:"column:max_discount_amount"`
	MaxUses           *int               `gorm:"column:max_uses"`
	UsesCount         int                `gorm:"column:uses_count;not null;default:0"`
	BuyQuantity       *int               `gorm:"column:buy_quantity"`
	GetQuantity       *int               `gorm:"column:get_quantity"`
	ValidFrom         time.Time          `gorm:"column:valid_from;not null"`
	ValidUntil        *time.Time         `gorm:"column:valid_until"`
	IsActive          bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
