package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/cheikhbeye/oleashop-backend/pkg/db"
	"github.com/cheikhbeye/oleashop-backend/pkg/db/models"
	pkgerrors "github.com/cheikhbeye/oleashop-backend/pkg/errors"
	"github.com/cheikhbeye/oleashop-backend/pkg/pagination"
	"github.com/cheikhbeye/oleashop-backend/pkg/slug"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes catalog management and storefront read operations.
type Service interface {
	CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input ProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	GetProductBySlug(ctx context.Context, productSlug string) (*ProductDTO, error)
	ListProducts(ctx context.Context, filter ListFilter) (*ProductListResult, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, categoryID uuid.UUID, input CategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, categoryID uuid.UUID) error
}

// CategoryInput holds the validated payload to create or replace a category.
type CategoryInput struct {
	Name     string
	ParentID *uuid.UUID
}

// ProductInput holds the validated payload to create or replace a product.
type ProductInput struct {
	Title       string
	SKU         *string
	Description *string
	Price       float64
	Stock       int
	Capacity    *string
	IsActive    bool
	Categories  []string
	ImageURLs   []string
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.Price < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	return nil
}

// CreateProduct creates the product with its category links and images.
func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	productSlug := slug.Make(input.Title)
	var createdID uuid.UUID
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		existing, err := txRepo.FindProductBySlug(ctx, productSlug)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup product slug")
		}
		if existing != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "a product with this title already exists")
		}

		product := &models.Product{
			Title:       strings.TrimSpace(input.Title),
			Slug:        &productSlug,
			SKU:         normalizeOptional(input.SKU),
			Description: input.Description,
			Price:       input.Price,
			Stock:       input.Stock,
			Capacity:    normalizeOptional(input.Capacity),
			IsActive:    input.IsActive,
		}
		created, err := txRepo.CreateProduct(ctx, product)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}
		createdID = created.ID

		if err := s.applyAssociations(ctx, txRepo, created.ID, input); err != nil {
			return err
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	return s.loadDTO(ctx, createdID)
}

// UpdateProduct replaces the product fields plus its links and images.
func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input ProductInput) (*ProductDTO, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product, err := txRepo.FindProductByID(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
		}
		if product == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}

		productSlug := slug.Make(input.Title)
		if bySlug, err := txRepo.FindProductBySlug(ctx, productSlug); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup product slug")
		} else if bySlug != nil && bySlug.ID != product.ID {
			return pkgerrors.New(pkgerrors.CodeConflict, "a product with this title already exists")
		}

		product.Title = strings.TrimSpace(input.Title)
		product.Slug = &productSlug
		product.SKU = normalizeOptional(input.SKU)
		product.Description = input.Description
		product.Price = input.Price
		product.Stock = input.Stock
		product.Capacity = normalizeOptional(input.Capacity)
		product.IsActive = input.IsActive

		if _, err := txRepo.UpdateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}

		if err := s.applyAssociations(ctx, txRepo, product.ID, input); err != nil {
			return err
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	return s.loadDTO(ctx, productID)
}

// applyAssociations replaces category links and images for the product.
func (s *service) applyAssociations(ctx context.Context, txRepo *Repository, productID uuid.UUID, input ProductInput) error {
	categoryIDs := make([]uuid.UUID, 0, len(input.Categories))
	for _, name := range input.Categories {
		category, err := txRepo.ResolveCategory(ctx, name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: resolve category")
		}
		if category == nil {
			continue
		}
		categoryIDs = append(categoryIDs, category.ID)
	}
	if err := txRepo.ReplaceProductCategories(ctx, productID, categoryIDs); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace category links")
	}
	if err := txRepo.ReplaceProductImages(ctx, productID, input.ImageURLs); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace images")
	}
	return nil
}

// DeleteProduct removes the product and its dependent rows.
func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	return nil
}

// GetProductBySlug loads the storefront detail view.
func (s *service) GetProductBySlug(ctx context.Context, productSlug string) (*ProductDTO, error) {
	product, err := s.repo.FindProductBySlug(ctx, productSlug)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return s.loadDTO(ctx, product.ID)
}

// ListProducts returns a storefront page with the next cursor when more rows exist.
func (s *service) ListProducts(ctx context.Context, filter ListFilter) (*ProductListResult, error) {
	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}

	limit := pagination.NormalizeLimit(filter.Pagination.Limit)
	result := &ProductListResult{Products: make([]ProductDTO, 0, len(products))}
	hasMore := len(products) > limit
	if hasMore {
		products = products[:limit]
	}
	for i := range products {
		result.Products = append(result.Products, *NewProductDTO(&products[i]))
	}
	if hasMore {
		last := products[len(products)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

// ListCategories returns every category for storefront navigation.
func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list categories")
	}
	dtos := make([]CategoryDTO, 0, len(categories))
	for i := range categories {
		dtos = append(dtos, NewCategoryDTO(&categories[i]))
	}
	return dtos, nil
}

// CreateCategory adds a category the admin can curate directly; the importer
// still resolves its own categories by slug.
func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	categorySlug := slug.Make(name)

	existing, err := s.repo.FindCategoryBySlug(ctx, categorySlug)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup category slug")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a category with this name already exists")
	}
	if input.ParentID != nil {
		parent, err := s.repo.FindCategoryByID(ctx, *input.ParentID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load parent category")
		}
		if parent == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "parent category not found")
		}
	}

	created, err := s.repo.CreateCategory(ctx, &models.Category{
		Name:     name,
		Slug:     categorySlug,
		ParentID: input.ParentID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert category")
	}
	dto := NewCategoryDTO(created)
	return &dto, nil
}

func (s *service) UpdateCategory(ctx context.Context, categoryID uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}

	category, err := s.repo.FindCategoryByID(ctx, categoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load category")
	}
	if category == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}

	categorySlug := slug.Make(name)
	if bySlug, err := s.repo.FindCategoryBySlug(ctx, categorySlug); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup category slug")
	} else if bySlug != nil && bySlug.ID != category.ID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a category with this name already exists")
	}
	if input.ParentID != nil {
		if *input.ParentID == category.ID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category cannot be its own parent")
		}
		parent, err := s.repo.FindCategoryByID(ctx, *input.ParentID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load parent category")
		}
		if parent == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "parent category not found")
		}
	}

	category.Name = name
	category.Slug = categorySlug
	category.ParentID = input.ParentID
	updated, err := s.repo.UpdateCategory(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update category")
	}
	dto := NewCategoryDTO(updated)
	return &dto, nil
}

func (s *service) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	category, err := s.repo.FindCategoryByID(ctx, categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load category")
	}
	if category == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteCategory(ctx, categoryID)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete category")
	}
	return nil
}

func (s *service) loadDTO(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product detail")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return NewProductDTO(product), nil
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
