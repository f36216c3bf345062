package promo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cheikhbeye/oleashop-backend/pkg/db/models"
	"github.com/cheikhbeye/oleashop-backend/pkg/enums"
	pkgerrors "github.com/cheikhbeye/oleashop-backend/pkg/errors"
	"github.com/google/uuid"
)

// Service exposes promo code administration plus the redemption hook used by
// checkout.
type Service interface {
	Create(ctx context.Context, input PromoInput) (*PromoDTO, error)
	Update(ctx context.Context, promoID uuid.UUID, input PromoInput) (*PromoDTO, error)
	Delete(ctx context.Context, promoID uuid.UUID) error
	List(ctx context.Context) ([]PromoDTO, error)
	GetByCode(ctx context.Context, code string) (*models.PromoCode, error)
	Redeem(ctx context.Context, promoID uuid.UUID) error
}

// PromoInput holds the validated payload to create or replace a promo code.
type PromoInput struct {
	Code              string
	Description       *string
	DiscountType      enums.DiscountType
	DiscountValue     float64
	MinOrderAmount    *float64
	MaxDiscountAmount *float64
	MaxUses           *int
	ValidFrom         time.Time
	ValidUntil        *time.Time
	IsActive          bool
}

// PromoDTO is the API-facing promo code shape.
type PromoDTO struct {
	ID                uuid.UUID          `json:"id"`
	Code              string             `json:"code"`
	Description       *string            `json:"description,omitempty"`
	DiscountType      enums.DiscountType `json:"discount_type"`
	DiscountValue     float64            `json:"discount_value"`
	MinOrderAmount    *float64           `json:"min_order_amount,omitempty"`
	MaxDiscountAmount *float64           `json:"max_discount_amount,omitempty"`
	MaxUses           *int               `json:"max_uses,omitempty"`
	UsesCount         int                `json:"uses_count"`
	ValidFrom         time.Time          `json:"valid_from"`
	ValidUntil        *time.Time         `json:"valid_until,omitempty"`
	IsActive          bool               `json:"is_active"`
}

type service struct {
	repo *Repository
}

// NewService constructs a promo service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promo repository required")
	}
	return &service{repo: repo}, nil
}

func validatePromoInput(input PromoInput) error {
	if strings.TrimSpace(input.Code) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if !input.DiscountType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown discount type")
	}
	// Present in the data model but with no defined computation; rejected
	// until the discount math is specified.
	if input.DiscountType == enums.DiscountTypeBuyXGetY {
		return pkgerrors.New(pkgerrors.CodeValidation, "buy_x_get_y codes are not supported")
	}
	if input.DiscountValue < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value cannot be negative")
	}
	if input.DiscountType == enums.DiscountTypePercentage && input.DiscountValue > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if input.MaxUses != nil && *input.MaxUses <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "max uses must be positive")
	}
	if input.ValidUntil != nil && input.ValidUntil.Before(input.ValidFrom) {
		return pkgerrors.New(pkgerrors.CodeValidation, "valid_until cannot precede valid_from")
	}
	return nil
}

// Create registers a new promo code. Codes are stored upper-cased.
func (s *service) Create(ctx context.Context, input PromoInput) (*PromoDTO, error) {
	if err := validatePromoInput(input); err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(input.Code))
	existing, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup promo code")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a promo code with this name already exists")
	}

	validFrom := input.ValidFrom
	if validFrom.IsZero() {
		validFrom = time.Now().UTC()
	}

	promo := &models.PromoCode{
		Code:              code,
		Description:       input.Description,
		DiscountType:      input.DiscountType,
		DiscountValue:     input.DiscountValue,
		MinOrderAmount:    input.MinOrderAmount,
		MaxDiscountAmount: input.MaxDiscountAmount,
		MaxUses:           input.MaxUses,
		ValidFrom:         validFrom,
		ValidUntil:        input.ValidUntil,
		IsActive:          input.IsActive,
	}
	created, err := s.repo.Create(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert promo code")
	}
	return newPromoDTO(created), nil
}

// Update replaces the promo fields keeping its usage counter.
func (s *service) Update(ctx context.Context, promoID uuid.UUID, input PromoInput) (*PromoDTO, error) {
	if err := validatePromoInput(input); err != nil {
		return nil, err
	}

	promo, err := s.repo.FindByID(ctx, promoID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load promo code")
	}
	if promo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
	}

	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if byCode, err := s.repo.FindByCode(ctx, code); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup promo code")
	} else if byCode != nil && byCode.ID != promo.ID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a promo code with this name already exists")
	}

	promo.Code = code
	promo.Description = input.Description
	promo.DiscountType = input.DiscountType
	promo.DiscountValue = input.DiscountValue
	promo.MinOrderAmount = input.MinOrderAmount
	promo.MaxDiscountAmount = input.MaxDiscountAmount
	promo.MaxUses = input.MaxUses
	if !input.ValidFrom.IsZero() {
		promo.ValidFrom = input.ValidFrom
	}
	promo.ValidUntil = input.ValidUntil
	promo.IsActive = input.IsActive

	updated, err := s.repo.Update(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update promo code")
	}
	return newPromoDTO(updated), nil
}

// Delete removes the promo code.
func (s *service) Delete(ctx context.Context, promoID uuid.UUID) error {
	promo, err := s.repo.FindByID(ctx, promoID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load promo code")
	}
	if promo == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
	}
	if err := s.repo.Delete(ctx, promoID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete promo code")
	}
	return nil
}

// List returns every promo code for the admin screen.
func (s *service) List(ctx context.Context) ([]PromoDTO, error) {
	promos, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list promo codes")
	}
	dtos := make([]PromoDTO, 0, len(promos))
	for i := range promos {
		dtos = append(dtos, *newPromoDTO(&promos[i]))
	}
	return dtos, nil
}

// GetByCode exposes the raw row for the pricing engine.
func (s *service) GetByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	promo, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup promo code")
	}
	return promo, nil
}

// Redeem consumes one use of the code. A conflict means the code was
// deactivated or exhausted between pricing and commit.
func (s *service) Redeem(ctx context.Context, promoID uuid.UUID) error {
	ok, err := s.repo.Redeem(ctx, promoID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: redeem promo code")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "promo code is no longer available")
	}
	return nil
}

func newPromoDTO(promo *models.PromoCode) *PromoDTO {
	return &PromoDTO{
		ID:                promo.ID,
		Code:              promo.Code,
		Description:       promo.Description,
		DiscountType:      promo.DiscountType,
		DiscountValue:     promo.DiscountValue,
		MinOrderAmount:    promo.MinOrderAmount,
		MaxDiscountAmount: promo.MaxDiscountAmount,
		MaxUses:           promo.MaxUses,
		UsesCount:         promo.UsesCount,
		ValidFrom:         promo.ValidFrom,
		ValidUntil:        promo.ValidUntil,
		IsActive:          promo.IsActive,
	}
}
