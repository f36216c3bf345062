package models

import (
	"time"

	"github.com/cheikhbeye/oleashop-backend/pkg/enums"
	"github.com/google/uuid"
)

// ShippingRate prices one delivery method within a zone.
type ShippingRate struct {
	ID                    uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ZoneID                uuid.UUID            `gorm:"column:zone_id;type:uuid;not null;uniqueIndex:idx_shipping_rates_zone_method"`
	Method                enums.DeliveryMethod `gorm:"column:method;not null;uniqueIndex:idx_shipping_rates_zone_method"`
	Price                 float64              `gorm:"column:price;not null"`
	FreeShippingThreshold *float64             `gorm:"column:free_shipping_threshold"`
	MinOrderAmount        *float64             `gorm:"column:min_order_amount"`
	EstimatedDays         *int                 `gorm:"column:estimated_days"`
	CreatedAt             time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
