package shipping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cheikhbeye/oleashop-backend/pkg/db/models"
	"github.com/cheikhbeye/oleashop-backend/pkg/enums"
	pkgerrors "github.com/cheikhbeye/oleashop-backend/pkg/errors"
	"github.com/cheikhbeye/oleashop-backend/pkg/slug"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Service exposes zone administration plus the rate resolver checkout relies
// on.
type Service interface {
	CreateZone(ctx context.Context, input ZoneInput) (*ZoneDTO, error)
	UpdateZone(ctx context.Context, zoneID uuid.UUID, input ZoneInput) (*ZoneDTO, error)
	DeleteZone(ctx context.Context, zoneID uuid.UUID) error
	ListZones(ctx context.Context) ([]ZoneDTO, error)
	SetRate(ctx context.Context, zoneID uuid.UUID, input RateInput) (*RateDTO, error)
	DeleteRate(ctx context.Context, rateID uuid.UUID) error
	ResolveRate(ctx context.Context, city, country string, method enums.DeliveryMethod) (*models.ShippingRate, error)
}

// ZoneInput holds the admin payload for creating or replacing a zone.
type ZoneInput struct {
	Name      string
	Cities    []string
	Countries []string
	IsActive  bool
}

// RateInput prices one delivery method inside a zone.
type RateInput struct {
	Method                enums.DeliveryMethod
	Price                 float64
	FreeShippingThreshold *float64
	MinOrderAmount        *float64
	EstimatedDays         *int
}

type ZoneDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Cities    []string  `json:"cities"`
	Countries []string  `json:"countries"`
	IsActive  bool      `json:"is_active"`
	Rates     []RateDTO `json:"rates"`
	CreatedAt time.Time `json:"created_at"`
}

type RateDTO struct {
	ID                    uuid.UUID            `json:"id"`
	ZoneID                uuid.UUID            `json:"zone_id"`
	Method                enums.DeliveryMethod `json:"method"`
	Price                 float64              `json:"price"`
	FreeShippingThreshold *float64             `json:"free_shipping_threshold,omitempty"`
	MinOrderAmount        *float64             `json:"min_order_amount,omitempty"`
	EstimatedDays         *int                 `json:"estimated_days,omitempty"`
}

type service struct {
	repo *Repository
}

// NewService constructs a shipping service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	return &service{repo: repo}, nil
}

func validateZoneInput(input ZoneInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "zone name is required")
	}
	if len(input.Cities) == 0 && len(input.Countries) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "a zone needs at least one city or country")
	}
	return nil
}

func (s *service) CreateZone(ctx context.Context, input ZoneInput) (*ZoneDTO, error) {
	if err := validateZoneInput(input); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	existing, err := s.repo.FindZoneByName(ctx, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup shipping zone")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a shipping zone with this name already exists")
	}

	zone := &models.ShippingZone{
		Name:      name,
		Cities:    trimAll(input.Cities),
		Countries: trimAll(input.Countries),
		IsActive:  input.IsActive,
	}
	created, err := s.repo.CreateZone(ctx, zone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert shipping zone")
	}
	return newZoneDTO(created), nil
}

func (s *service) UpdateZone(ctx context.Context, zoneID uuid.UUID, input ZoneInput) (*ZoneDTO, error) {
	if err := validateZoneInput(input); err != nil {
		return nil, err
	}

	zone, err := s.repo.FindZoneByID(ctx, zoneID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load shipping zone")
	}
	if zone == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipping zone not found")
	}

	zone.Name = strings.TrimSpace(input.Name)
	zone.Cities = trimAll(input.Cities)
	zone.Countries = trimAll(input.Countries)
	zone.IsActive = input.IsActive

	updated, err := s.repo.UpdateZone(ctx, zone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update shipping zone")
	}
	updated.Rates = zone.Rates
	return newZoneDTO(updated), nil
}

func (s *service) DeleteZone(ctx context.Context, zoneID uuid.UUID) error {
	zone, err := s.repo.FindZoneByID(ctx, zoneID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load shipping zone")
	}
	if zone == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "shipping zone not found")
	}
	if err := s.repo.DeleteZone(ctx, zoneID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete shipping zone")
	}
	return nil
}

func (s *service) ListZones(ctx context.Context) ([]ZoneDTO, error) {
	zones, err := s.repo.ListZones(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list shipping zones")
	}
	dtos := make([]ZoneDTO, 0, len(zones))
	for i := range zones {
		dtos = append(dtos, *newZoneDTO(&zones[i]))
	}
	return dtos, nil
}

func (s *service) SetRate(ctx context.Context, zoneID uuid.UUID, input RateInput) (*RateDTO, error) {
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery method")
	}
	if input.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rate price cannot be negative")
	}

	zone, err := s.repo.FindZoneByID(ctx, zoneID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load shipping zone")
	}
	if zone == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipping zone not found")
	}

	rate := &models.ShippingRate{
		ZoneID:                zoneID,
		Method:                input.Method,
		Price:                 input.Price,
		FreeShippingThreshold: input.FreeShippingThreshold,
		MinOrderAmount:        input.MinOrderAmount,
		EstimatedDays:         input.EstimatedDays,
	}
	saved, err := s.repo.UpsertRate(ctx, rate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: upsert shipping rate")
	}
	dto := newRateDTO(saved)
	return &dto, nil
}

func (s *service) DeleteRate(ctx context.Context, rateID uuid.UUID) error {
	if err := s.repo.DeleteRate(ctx, rateID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete shipping rate")
	}
	return nil
}

// ResolveRate finds the rate for a destination. A zone listing the city wins
// over one only listing the country, regardless of zone order. Returns nil
// when no active zone covers the destination; the caller decides the
// fallback.
func (s *service) ResolveRate(ctx context.Context, city, country string, method enums.DeliveryMethod) (*models.ShippingRate, error) {
	zones, err := s.repo.ListActiveZones(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list shipping zones")
	}

	cityKey := slug.Make(city)
	countryKey := slug.Make(country)

	var countryMatch *models.ShippingZone
	for i := range zones {
		zone := &zones[i]
		if cityKey != "" && containsNormalized(zone.Cities, cityKey) {
			return rateForMethod(zone, method), nil
		}
		if countryMatch == nil && countryKey != "" && containsNormalized(zone.Countries, countryKey) {
			countryMatch = zone
		}
	}
	if countryMatch != nil {
		return rateForMethod(countryMatch, method), nil
	}
	return nil, nil
}

func containsNormalized(values pq.StringArray, key string) bool {
	for _, v := range values {
		if slug.Make(v) == key {
			return true
		}
	}
	return false
}

func rateForMethod(zone *models.ShippingZone, method enums.DeliveryMethod) *models.ShippingRate {
	for i := range zone.Rates {
		if zone.Rates[i].Method == method {
			return &zone.Rates[i]
		}
	}
	return nil
}

func trimAll(values []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func newZoneDTO(zone *models.ShippingZone) *ZoneDTO {
	rates := make([]RateDTO, 0, len(zone.Rates))
	for i := range zone.Rates {
		rates = append(rates, newRateDTO(&zone.Rates[i]))
	}
	return &ZoneDTO{
		ID:        zone.ID,
		Name:      zone.Name,
		Cities:    append([]string(nil), zone.Cities...),
		Countries: append([]string(nil), zone.Countries...),
		IsActive:  zone.IsActive,
		Rates:     rates,
		CreatedAt: zone.CreatedAt,
	}
}

func newRateDTO(rate *models.ShippingRate) RateDTO {
	return RateDTO{
		ID:                    rate.ID,
		ZoneID:                rate.ZoneID,
		Method:                rate.Method,
		Price:                 rate.Price,
		FreeShippingThreshold: rate.FreeShippingThreshold,
		MinOrderAmount:        rate.MinOrderAmount,
		EstimatedDays:         rate.EstimatedDays,
	}
}
