package shipping

import (
	"context"
	"errors"
	"strings"

	"github.com/cheikhbeye/oleashop-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository wraps zone and rate persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) FindZoneByID(ctx context.Context, id uuid.UUID) (*models.ShippingZone, error) {
	var zone models.ShippingZone
	err := r.db.WithContext(ctx).
		Preload("Rates").
		First(&zone, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &zone, nil
}

func (r *Repository) FindZoneByName(ctx context.Context, name string) (*models.ShippingZone, error) {
	var zone models.ShippingZone
	err := r.db.WithContext(ctx).
		First(&zone, "LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &zone, nil
}

func (r *Repository) CreateZone(ctx context.Context, zone *models.ShippingZone) (*models.ShippingZone, error) {
	if zone.ID == uuid.Nil {
		zone.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Create(zone).Error; err != nil {
		return nil, err
	}
	return zone, nil
}

func (r *Repository) UpdateZone(ctx context.Context, zone *models.ShippingZone) (*models.ShippingZone, error) {
	if err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Save(zone).Error; err != nil {
		return nil, err
	}
	return zone, nil
}

func (r *Repository) DeleteZone(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ShippingZone{}, "id = ?", id).Error
}

func (r *Repository) ListZones(ctx context.Context) ([]models.ShippingZone, error) {
	var zones []models.ShippingZone
	err := r.db.WithContext(ctx).
		Preload("Rates").
		Order("created_at ASC").
		Find(&zones).Error
	if err != nil {
		return nil, err
	}
	return zones, nil
}

// ListActiveZones feeds destination matching; rates are preloaded because the
// match and the rate lookup always happen together.
func (r *Repository) ListActiveZones(ctx context.Context) ([]models.ShippingZone, error) {
	var zones []models.ShippingZone
	err := r.db.WithContext(ctx).
		Preload("Rates").
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&zones).Error
	if err != nil {
		return nil, err
	}
	return zones, nil
}

// UpsertRate replaces the price for a (zone, method) pair in place.
func (r *Repository) UpsertRate(ctx context.Context, rate *models.ShippingRate) (*models.ShippingRate, error) {
	if rate.ID == uuid.Nil {
		rate.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "zone_id"}, {Name: "method"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"price", "free_shipping_threshold", "min_order_amount", "estimated_days", "updated_at",
			}),
		}).
		Create(rate).Error
	if err != nil {
		return nil, err
	}
	return rate, nil
}

func (r *Repository) DeleteRate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ShippingRate{}, "id = ?", id).Error
}
