package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/cheikhbeye/oleashop-backend/pkg/db/models"
	"github.com/cheikhbeye/oleashop-backend/pkg/pagination"
	"github.com/cheikhbeye/oleashop-backend/pkg/slug"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductReader exposes the lookup operations other domains rely on.
type ProductReader interface {
	FindProductByID(context.Context, uuid.UUID) (*models.Product, error)
	FindProductBySKU(context.Context, string) (*models.Product, error)
	FindProductBySlug(context.Context, string) (*models.Product, error)
}

// ListFilter narrows the public product listing.
type ListFilter struct {
	CategorySlug string
	Search       string
	OnlyActive   bool
	Pagination   pagination.Params
}

// Repository wires together catalog persistence helpers.
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

// FindProductByID loads the product with its categories and images.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Categories").
		Preload("Images").
		First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProductBySKU resolves a product by its caller-supplied identifier.
func (r *Repository) FindProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, nil
	}
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "sku = ?", sku).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProductBySlug resolves a product by slug.
func (r *Repository) FindProductBySlug(ctx context.Context, productSlug string) (*models.Product, error) {
	productSlug = strings.TrimSpace(productSlug)
	if productSlug == "" {
		return nil, nil
	}
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "slug = ?", productSlug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	// Associations are managed through the explicit link helpers below.
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct saves the full product row keeping its id.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes the product; links and images cascade.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

// ListProducts returns a filtered page ordered by (created_at, id) descending.
func (r *Repository) ListProducts(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	cursor, err := pagination.ParseCursor(filter.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Model(&models.Product{}).
		Preload("Categories").
		Preload("Images")

	if filter.OnlyActive {
		query = query.Where("products.is_active = ?", true)
	}
	if filter.CategorySlug != "" {
		query = query.
			Joins("JOIN product_categories pc ON pc.product_id = products.id").
			Joins("JOIN categories c ON c.id = pc.category_id").
			Where("c.slug = ?", filter.CategorySlug)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(products.title) LIKE ? OR products.sku = ?", like, search)
	}
	if cursor != nil {
		query = query.Where(
			"(products.created_at < ?) OR (products.created_at = ? AND products.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var products []models.Product
	err = query.
		Order("products.created_at DESC, products.id DESC").
		Limit(pagination.LimitWithBuffer(filter.Pagination.Limit)).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// ResolveCategory finds the category whose slug matches the given name,
// creating it when absent. The returned row always has a stable id.
func (r *Repository) ResolveCategory(ctx context.Context, name string) (*models.Category, error) {
	categorySlug := slug.Make(name)
	if categorySlug == "" {
		return nil, nil
	}

	var category models.Category
	err := r.db.WithContext(ctx).First(&category, "slug = ?", categorySlug).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category = models.Category{
		ID:   uuid.New(),
		Name: strings.TrimSpace(name),
		Slug: categorySlug,
	}
	if err := r.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindCategoryByID loads a single category row.
func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// FindCategoryBySlug resolves a category by slug.
func (r *Repository) FindCategoryBySlug(ctx context.Context, categorySlug string) (*models.Category, error) {
	categorySlug = strings.TrimSpace(categorySlug)
	if categorySlug == "" {
		return nil, nil
	}
	var category models.Category
	err := r.db.WithContext(ctx).First(&category, "slug = ?", categorySlug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateCategory inserts a new category row.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory saves the full category row keeping its id.
func (r *Repository) UpdateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes the category, its product links, and detaches children.
func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("parent_id = ?", id).
		Update("parent_id", nil).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).
		Delete(&models.ProductCategory{}, "category_id = ?", id).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id).Error
}

// SetCategoryParent records the parent of a category when it has none yet.
func (r *Repository) SetCategoryParent(ctx context.Context, categoryID, parentID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Category{}).
		Where("id = ? AND parent_id IS NULL", categoryID).
		Update("parent_id", parentID).Error
}

// ListCategories returns every category ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// LinkProductCategory upserts the product/category link; repeat links are no-ops.
func (r *Repository) LinkProductCategory(ctx context.Context, productID, categoryID uuid.UUID) error {
	link := models.ProductCategory{ProductID: productID, CategoryID: categoryID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link).Error
}

// ReplaceProductCategories swaps the product's category links for the given set.
func (r *Repository) ReplaceProductCategories(ctx context.Context, productID uuid.UUID, categoryIDs []uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Delete(&models.ProductCategory{}, "product_id = ?", productID).Error; err != nil {
		return err
	}
	for _, categoryID := range categoryIDs {
		if err := r.LinkProductCategory(ctx, productID, categoryID); err != nil {
			return err
		}
	}
	return nil
}

// UpsertProductImage records an image keyed by (product, url); repeats are no-ops.
func (r *Repository) UpsertProductImage(ctx context.Context, productID uuid.UUID, imageURL string, displayOrder int) error {
	image := models.ProductImage{
		ID:           uuid.New(),
		ProductID:    productID,
		ImageURL:     imageURL,
		DisplayOrder: displayOrder,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&image).Error
}

// ReplaceProductImages swaps the product's images for the given ordered list.
func (r *Repository) ReplaceProductImages(ctx context.Context, productID uuid.UUID, imageURLs []string) error {
	if err := r.db.WithContext(ctx).
		Delete(&models.ProductImage{}, "product_id = ?", productID).Error; err != nil {
		return err
	}
	for i, url := range imageURLs {
		if err := r.UpsertProductImage(ctx, productID, url, i); err != nil {
			return err
		}
	}
	return nil
}
