package promo

import (
	"context"
	"errors"
	"strings"

	"github.com/cheikhbeye/oleashop-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository wires promo code persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByCode resolves a promo code case-insensitively.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	var promo models.PromoCode
	err := r.db.WithContext(ctx).First(&promo, "UPPER(code) = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// FindByID loads a promo code by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := r.db.WithContext(ctx).First(&promo, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// Create inserts a new promo code row.
func (r *Repository) Create(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	if promo.ID == uuid.Nil {
		promo.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

// Update saves the full promo row keeping its id.
func (r *Repository) Update(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	if err := r.db.WithContext(ctx).Save(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

// Delete removes the promo code.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.PromoCode{}, "id = ?", id).Error
}

// List returns promo codes newest first.
func (r *Repository) List(ctx context.Context) ([]models.PromoCode, error) {
	var promos []models.PromoCode
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&promos).Error; err != nil {
		return nil, err
	}
	return promos, nil
}

// Redeem increments uses_count only while the code is still active and under
// its usage cap. The condition lives in the UPDATE itself so two concurrent
// redemptions of the last slot cannot both win. Returns false when the
// increment did not land.
func (r *Repository) Redeem(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.PromoCode{}).
		Where("id = ? AND is_active = ?", id, true).
		Where("max_uses IS NULL OR uses_count < max_uses").
		UpdateColumn("uses_count", gorm.Expr("uses_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
