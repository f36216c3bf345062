package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cheikhbeye/oleashop-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestCatalogMigrationContainsUpsertConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_catalog_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no catalog migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	// The import reconciliation depends on these uniqueness guarantees.
	checks := []string{
		"CONSTRAINT uq_products_slug UNIQUE (slug)",
		"CONSTRAINT uq_products_sku UNIQUE (sku)",
		"CONSTRAINT uq_categories_slug UNIQUE (slug)",
		"CONSTRAINT uq_product_images_product_url UNIQUE (product_id, image_url)",
		"PRIMARY KEY (product_id, category_id)",
		"DROP TABLE IF EXISTS products",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestPromoMigrationContainsRedemptionGuards(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_promos_and_shipping.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no promo migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CONSTRAINT uq_promo_codes_code UNIQUE (code)",
		"CHECK (uses_count >= 0)",
		"CONSTRAINT uq_shipping_rates_zone_method UNIQUE (zone_id, method)",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
