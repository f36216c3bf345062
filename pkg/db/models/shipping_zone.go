package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ShippingZone groups destinations. City matching wins over country matching;
// both lists are compared case- and diacritic-insensitively.
type ShippingZone struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	Cities    pq.StringArray `gorm:"column:cities;type:text[]"`
	Countries pq.StringArray `gorm:"column:countries;type:text[]"`
	IsActive  bool           `gorm:"column:is_active;not null;default:true"`
	Rates     []ShippingRate `gorm:"foreignKey:ZoneID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
