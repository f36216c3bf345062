package importer

import (
	"fmt"
	"strings"

	"github.com/cheikhbeye/oleashop-backend/pkg/enums"
	pkgerrors "github.com/cheikhbeye/oleashop-backend/pkg/errors"
	"github.com/cheikhbeye/oleashop-backend/pkg/slug"
)

// ColumnMapping binds one source header to a product field. The operator may
// overwrite any suggested entry before committing the import.
type ColumnMapping struct {
	Header string            `json:"header"`
	Field  enums.ImportField `json:"field"`
}

// SuggestMapping proposes a default mapping from header text alone. Every
// header gets exactly one target, defaulting to ignore.
func SuggestMapping(headers []string) []ColumnMapping {
	mappings := make([]ColumnMapping, 0, len(headers))
	for _, header := range headers {
		mappings = append(mappings, ColumnMapping{
			Header: header,
			Field:  suggestField(header),
		})
	}
	return mappings
}

// suggestField matches known substrings in priority order. Headers are
// slug-normalized first so accented forms like "Catégorie" still match. The
// branch order is load-bearing: the plain category rule excludes "sous" so
// compound headers like "Sous-catégorie" fall through to the subcategory
// rule, and the id rule excludes "image" so headers like "id_image" stay
// images.
func suggestField(header string) enums.ImportField {
	h := slug.Make(header)
	switch {
	case strings.Contains(h, "nom") || strings.Contains(h, "title"):
		return enums.ImportFieldTitle
	case strings.Contains(h, "prix") || strings.Contains(h, "price"):
		return enums.ImportFieldPrice
	case strings.Contains(h, "categorie") && !strings.Contains(h, "sous"):
		return enums.ImportFieldCategory
	case strings.Contains(h, "sous") && strings.Contains(h, "categorie"):
		return enums.ImportFieldSubcategory
	case strings.Contains(h, "contenance") || strings.Contains(h, "capacity"):
		return enums.ImportFieldCapacity
	case strings.Contains(h, "image"):
		return enums.ImportFieldImageURL
	case strings.Contains(h, "stock"):
		return enums.ImportFieldStock
	case strings.Contains(h, "sku"):
		return enums.ImportFieldSKU
	case strings.Contains(h, "description"):
		return enums.ImportFieldDescription
	case strings.Contains(h, "id") && !strings.Contains(h, "image"):
		return enums.ImportFieldExternalID
	default:
		return enums.ImportFieldIgnore
	}
}

// ValidateMapping checks the operator-confirmed mapping before an import may
// run: title and price must be bound, and no product field other than ignore
// may be bound twice.
func ValidateMapping(mappings []ColumnMapping) error {
	counts := make(map[enums.ImportField]int, len(mappings))
	for _, m := range mappings {
		if !m.Field.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("unknown import field %q for header %q", m.Field, m.Header))
		}
		counts[m.Field]++
	}
	if counts[enums.ImportFieldTitle] == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "mapping must bind a title column")
	}
	if counts[enums.ImportFieldPrice] == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "mapping must bind a price column")
	}
	for field, count := range counts {
		if field != enums.ImportFieldIgnore && count > 1 {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("field %q is bound to %d columns", field, count))
		}
	}
	return nil
}

// projectRow applies the mapping to one raw row, dropping ignored columns and
// empty values.
func projectRow(mappings []ColumnMapping, row Row) map[enums.ImportField]string {
	projected := make(map[enums.ImportField]string)
	for _, m := range mappings {
		if m.Field == enums.ImportFieldIgnore {
			continue
		}
		value := strings.TrimSpace(row.Values[m.Header])
		if value == "" {
			continue
		}
		projected[m.Field] = value
	}
	return projected
}
