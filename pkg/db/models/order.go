package models

import (
	"time"

	"github.com/cheikhbeye/oleashop-backend/pkg/enums"
	"github.com/google/uuid"
)

// Order is a priced checkout committed by a shopper. Amounts are frozen at
// commit time; later promo or rate edits never reprice an existing order.
type Order struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference      string               `gorm:"column:reference;not null;uniqueIndex"`
	CustomerName   string               `gorm:"column:customer_name;not null"`
	CustomerPhone  string               `gorm:"column:customer_phone;not null"`
	CustomerEmail  *string              `gorm:"column:customer_email"`
	City           string               `gorm:"column:city;not null"`
	Country        string               `gorm:"column:country;not null"`
	Address        *string              `gorm:"column:address"`
	DeliveryMethod enums.DeliveryMethod `gorm:"column:delivery_method;not null"`
	Subtotal       float64              `gorm:"column:subtotal;not null"`
	ShippingCost   float64              `gorm:"column:shipping_cost;not null;default:0"`
	Discount       float64              `gorm:"column:discount;not null;default:0"`
	Total          float64              `gorm:"column:total;not null"`
	PromoCodeID    *uuid.UUID           `gorm:"column:promo_code_id;type:uuid"`
	Status         enums.OrderStatus    `gorm:"column:status;not null;default:pending"`
	PaymentRef     *string              `gorm:"column:payment_ref"`
	Items          []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots a purchased line; title and unit price are copied from
// the product so catalog edits never rewrite order history.
type OrderItem struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	ProductID *uuid.UUID `gorm:"column:product_id;type:uuid"`
	Title     string     `gorm:"column:title;not null"`
	UnitPrice float64    `gorm:"column:unit_price;not null"`
	Quantity  int        `gorm:"column:quantity;not null"`
	Total     float64    `gorm:"column:total;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
