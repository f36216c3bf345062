package promo

import (
	"context"
	"testing"
	"time"

	"github.com/cheikhbeye/oleashop-backend/pkg/db/models"
	"github.com/cheikhbeye/oleashop-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupPromoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	stmt := `
CREATE TABLE IF NOT EXISTS promo_codes (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  description TEXT,
  discount_type TEXT NOT NULL,
  discount_value REAL NOT NULL DEFAULT 0,
  min_order_amount REAL,
  max_discount_amount REAL,
  max_uses INTEGER,
  uses_count INTEGER NOT NULL DEFAULT 0,
  buy_quantity INTEGER,
  get_quantity INTEGER,
  valid_from DATETIME NOT NULL,
  valid_until DATETIME,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(stmt).Error)
	return conn
}

func mustCreatePromo(t *testing.T, conn *gorm.DB, code string, maxUses *int) *models.PromoCode {
	t.Helper()
	promo := &models.PromoCode{
		ID:            uuid.New(),
		Code:          code,
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: 10,
		MaxUses:       maxUses,
		ValidFrom:     time.Now().UTC().Add(-time.Hour),
		IsActive:      true,
	}
	require.NoError(t, conn.Create(promo).Error)
	return promo
}

func TestFindByCodeIsCaseInsensitive(t *testing.T) {
	conn := setupPromoTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	created := mustCreatePromo(t, conn, "BIENVENUE10", nil)

	found, err := repo.FindByCode(ctx, "bienvenue10")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	missing, err := repo.FindByCode(ctx, "INCONNU")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRedeemIncrementsUntilCapped(t *testing.T) {
	conn := setupPromoTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	maxUses := 2
	promo := mustCreatePromo(t, conn, "LIMITE2", &maxUses)

	for i := 0; i < 2; i++ {
		ok, err := repo.Redeem(ctx, promo.ID)
		require.NoError(t, err)
		assert.True(t, ok, "redemption %d should land", i+1)
	}

	// Third redemption hits the cap inside the UPDATE condition.
	ok, err := repo.Redeem(ctx, promo.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	var stored models.PromoCode
	require.NoError(t, conn.First(&stored, "id = ?", promo.ID).Error)
	assert.Equal(t, 2, stored.UsesCount)
}

func TestRedeemUnlimitedWhenMaxUsesNull(t *testing.T) {
	conn := setupPromoTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	promo := mustCreatePromo(t, conn, "SANSLIMITE", nil)

	for i := 0; i < 5; i++ {
		ok, err := repo.Redeem(ctx, promo.ID)
		require.NoError(t, err)
		require.True(t, ok)
	}

	var stored models.PromoCode
	require.NoError(t, conn.First(&stored, "id = ?", promo.ID).Error)
	assert.Equal(t, 5, stored.UsesCount)
}

func TestRedeemRejectsInactiveCode(t *testing.T) {
	conn := setupPromoTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	promo := mustCreatePromo(t, conn, "DESACTIVE", nil)
	require.NoError(t, conn.Model(promo).Update("is_active", false).Error)

	ok, err := repo.Redeem(ctx, promo.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
