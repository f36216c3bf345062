package enums

import (
	"fmt"
	"strings"
)

// ImportField identifies the product attribute a CSV column feeds.
type ImportField string

const (
	ImportFieldTitle       ImportField = "title"
	ImportFieldPrice       ImportField = "price"
	ImportFieldCategory    ImportField = "category"
	ImportFieldSubcategory ImportField = "subcategory"
	ImportFieldCapacity    ImportField = "capacity"
	ImportFieldImageURL    ImportField = "image_url"
	ImportFieldStock       ImportField = "stock"
	ImportFieldSKU         ImportField = "sku"
	ImportFieldDescription ImportField = "description"
	ImportFieldExternalID  ImportField = "external_id"
	ImportFieldIgnore      ImportField = "ignore"
)

var validImportFields = []ImportField{
	ImportFieldTitle,
	ImportFieldPrice,
	ImportFieldCategory,
	ImportFieldSubcategory,
	ImportFieldCapacity,
	ImportFieldImageURL,
	ImportFieldStock,
	ImportFieldSKU,
	ImportFieldDescription,
	ImportFieldExternalID,
	ImportFieldIgnore,
}

// String implements fmt.Stringer.
func (f ImportField) String() string {
	return string(f)
}

// IsValid reports whether the value is known.
func (f ImportField) IsValid() bool {
	for _, candidate := range validImportFields {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseImportField converts raw input into an ImportField.
func ParseImportField(value string) (ImportField, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validImportFields {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid import field %q", value)
}
