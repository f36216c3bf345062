package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cheikhbeye/oleashop-backend/internal/catalog"
	"github.com/cheikhbeye/oleashop-backend/pkg/config"
	"github.com/cheikhbeye/oleashop-backend/pkg/db"
	"github.com/cheikhbeye/oleashop-backend/pkg/db/models"
	"github.com/cheikhbeye/oleashop-backend/pkg/enums"
	pkgerrors "github.com/cheikhbeye/oleashop-backend/pkg/errors"
	"github.com/cheikhbeye/oleashop-backend/pkg/logger"
	"github.com/cheikhbeye/oleashop-backend/pkg/metrics"
	"github.com/cheikhbeye/oleashop-backend/pkg/slug"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// errMissingTitleOrPrice is the operator-facing message for rows that cannot
// become a product. The wording matches the storefront's import screen.
const errMissingTitleOrPrice = "Titre ou prix manquant"

const previewRowCount = 10

// Result reports an import run: rows written plus per-row error messages.
// A run with some errors and some successes is still considered committed.
type Result struct {
	SuccessCount int      `json:"successCount"`
	Errors       []string `json:"errors"`
}

// SessionDTO is the API-facing view of an import session.
type SessionDTO struct {
	ID       uuid.UUID           `json:"id"`
	Step     enums.ImportStep    `json:"step"`
	Headers  []string            `json:"headers"`
	Mapping  []ColumnMapping     `json:"mapping"`
	RowCount int                 `json:"row_count"`
	Preview  []map[string]string `json:"preview"`
	Result   *Result             `json:"result,omitempty"`
}

// Service drives the operator import flow: analyze a file, confirm a
// mapping, then commit rows as catalog upserts.
type Service interface {
	Analyze(ctx context.Context, raw string) (*SessionDTO, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (*SessionDTO, error)
	SetMapping(ctx context.Context, sessionID uuid.UUID, mappings []ColumnMapping) (*SessionDTO, error)
	Commit(ctx context.Context, sessionID uuid.UUID) (*Result, error)
}

type service struct {
	sessions *sessionStore
	repo     *catalog.Repository
	dbClient *db.Client
	logg     *logger.Logger
	metrics  *metrics.ImportMetrics
	maxRows  int
}

// NewService constructs the import service.
func NewService(repo *catalog.Repository, dbClient *db.Client, logg *logger.Logger, m *metrics.ImportMetrics, cfg config.ImportConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = 5000
	}
	return &service{
		sessions: newSessionStore(),
		repo:     repo,
		dbClient: dbClient,
		logg:     logg,
		metrics:  m,
		maxRows:  maxRows,
	}, nil
}

// Analyze opens a session around the uploaded content and suggests a mapping.
func (s *service) Analyze(ctx context.Context, raw string) (*SessionDTO, error) {
	session := NewSession()
	if err := session.AttachFile(raw); err != nil {
		return nil, err
	}
	if len(session.Doc.Rows) > s.maxRows {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("file has %d rows, the limit is %d", len(session.Doc.Rows), s.maxRows))
	}

	s.sessions.put(session)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"import_session": session.ID.String(),
		"rows":           len(session.Doc.Rows),
	})
	s.logg.Info(ctx, "import file analyzed")
	return newSessionDTO(session), nil
}

// GetSession returns the current state of an open session.
func (s *service) GetSession(ctx context.Context, sessionID uuid.UUID) (*SessionDTO, error) {
	session, err := s.sessions.get(sessionID)
	if err != nil {
		return nil, err
	}
	return newSessionDTO(session), nil
}

// SetMapping stores the operator-confirmed mapping.
func (s *service) SetMapping(ctx context.Context, sessionID uuid.UUID, mappings []ColumnMapping) (*SessionDTO, error) {
	session, err := s.sessions.get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.SetMapping(mappings); err != nil {
		return nil, err
	}
	return newSessionDTO(session), nil
}

// Commit runs the import for a session sitting in preview. Each row commits
// in its own transaction so one bad row never poisons the batch; failures
// are collected as operator-facing messages.
func (s *service) Commit(ctx context.Context, sessionID uuid.UUID) (*Result, error) {
	session, err := s.sessions.get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Confirm(); err != nil {
		return nil, err
	}

	started := time.Now()
	result := s.run(ctx, session.Mapping, session.Doc.Rows)
	if err := session.Complete(result); err != nil {
		return nil, err
	}

	s.metrics.IncRows("success", result.SuccessCount)
	s.metrics.IncRows("failed", len(result.Errors))
	s.metrics.ObserveDuration(time.Since(started))

	ctx = s.logg.WithFields(ctx, map[string]any{
		"import_session": session.ID.String(),
		"success_count":  result.SuccessCount,
		"error_count":    len(result.Errors),
	})
	if len(result.Errors) > 0 {
		s.logg.Warn(ctx, "import committed with row errors")
	} else {
		s.logg.Info(ctx, "import committed")
	}
	return result, nil
}

func (s *service) run(ctx context.Context, mappings []ColumnMapping, rows []Row) *Result {
	result := &Result{Errors: []string{}}
	var runErr error

	for _, row := range rows {
		if err := s.importRow(ctx, mappings, row); err != nil {
			msg := rowErrorMessage(err)
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", row.Line, msg))
			runErr = multierr.Append(runErr, fmt.Errorf("row %d: %w", row.Line, err))
			continue
		}
		result.SuccessCount++
	}

	if runErr != nil {
		s.logg.Error(ctx, "import rows failed", runErr)
	}
	return result
}

// importRow writes one row inside a single transaction: the product upsert,
// its category links and its image either all land or none do.
func (s *service) importRow(ctx context.Context, mappings []ColumnMapping, row Row) error {
	projected := projectRow(mappings, row)

	title := projected[enums.ImportFieldTitle]
	priceRaw := projected[enums.ImportFieldPrice]
	if title == "" || priceRaw == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, errMissingTitleOrPrice)
	}

	productSlug := slug.Make(title)
	price := parseLeadingFloat(priceRaw)
	stock := int(parseLeadingFloat(projected[enums.ImportFieldStock]))

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product, err := s.resolveProduct(ctx, txRepo, projected, productSlug)
		if err != nil {
			return err
		}

		sku := firstNonEmpty(projected[enums.ImportFieldExternalID], projected[enums.ImportFieldSKU])

		isNew := product == nil
		if isNew {
			product = &models.Product{IsActive: true}
		}
		product.Title = title
		product.Slug = &productSlug
		product.Price = price
		if _, ok := projected[enums.ImportFieldStock]; ok {
			product.Stock = stock
		}
		if sku != "" {
			product.SKU = &sku
		}
		if v, ok := projected[enums.ImportFieldDescription]; ok {
			product.Description = &v
		}
		if v, ok := projected[enums.ImportFieldCapacity]; ok {
			product.Capacity = &v
		}

		if isNew {
			if product, err = txRepo.CreateProduct(ctx, product); err != nil {
				return err
			}
		} else {
			if product, err = txRepo.UpdateProduct(ctx, product); err != nil {
				return err
			}
		}

		var parent *models.Category
		if name, ok := projected[enums.ImportFieldCategory]; ok {
			if parent, err = txRepo.ResolveCategory(ctx, name); err != nil {
				return err
			}
			if parent != nil {
				if err := txRepo.LinkProductCategory(ctx, product.ID, parent.ID); err != nil {
					return err
				}
			}
		}
		if name, ok := projected[enums.ImportFieldSubcategory]; ok {
			child, err := txRepo.ResolveCategory(ctx, name)
			if err != nil {
				return err
			}
			if child != nil {
				if parent != nil && child.ParentID == nil && child.ID != parent.ID {
					if err := txRepo.SetCategoryParent(ctx, child.ID, parent.ID); err != nil {
						return err
					}
				}
				if err := txRepo.LinkProductCategory(ctx, product.ID, child.ID); err != nil {
					return err
				}
			}
		}

		if imageURL, ok := projected[enums.ImportFieldImageURL]; ok {
			if err := txRepo.UpsertProductImage(ctx, product.ID, imageURL, 0); err != nil {
				return err
			}
		}
		return nil
	})
}

// resolveProduct matches the row against existing products: the external id
// (stored in the sku column) wins, the title slug is the fallback.
func (s *service) resolveProduct(ctx context.Context, txRepo *catalog.Repository, projected map[enums.ImportField]string, productSlug string) (*models.Product, error) {
	if externalID := projected[enums.ImportFieldExternalID]; externalID != "" {
		product, err := txRepo.FindProductBySKU(ctx, externalID)
		if err != nil {
			return nil, err
		}
		if product != nil {
			return product, nil
		}
	}
	return txRepo.FindProductBySlug(ctx, productSlug)
}

func newSessionDTO(session *Session) *SessionDTO {
	session.mu.Lock()
	defer session.mu.Unlock()
	dto := &SessionDTO{
		ID:      session.ID,
		Step:    session.Step,
		Mapping: session.Mapping,
		Result:  session.Result,
	}
	if session.Doc != nil {
		dto.Headers = session.Doc.Headers
		dto.RowCount = len(session.Doc.Rows)
		limit := previewRowCount
		if len(session.Doc.Rows) < limit {
			limit = len(session.Doc.Rows)
		}
		dto.Preview = make([]map[string]string, 0, limit)
		for _, row := range session.Doc.Rows[:limit] {
			dto.Preview = append(dto.Preview, row.Values)
		}
	}
	return dto
}

func rowErrorMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}

// parseLeadingFloat coerces the longest numeric prefix of the value, the way
// the storefront's number inputs did. Unparseable values become 0.
func parseLeadingFloat(value string) float64 {
	value = strings.TrimSpace(value)
	end := 0
	seenDot := false
	for i, ch := range value {
		if ch >= '0' && ch <= '9' {
			end = i + 1
			continue
		}
		if ch == '.' && !seenDot {
			seenDot = true
			continue
		}
		if (ch == '-' || ch == '+') && i == 0 {
			continue
		}
		break
	}
	if end == 0 {
		return 0
	}
	var out float64
	if _, err := fmt.Sscanf(value[:end], "%g", &out); err != nil {
		return 0
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
