package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/backoffice/internal/domain"
	"github.com/utafrali/backoffice/internal/repository"
	apperrors "github.com/utafrali/backoffice/pkg/errors"
	"github.com/utafrali/backoffice/pkg/pagination"
	"github.com/utafrali/backoffice/pkg/slug"
)

// --- Categories ---

// CreateCategoryInput holds the parameters for creating a product category.
// Slug is derived from Name when nil.
type CreateCategoryInput struct {
	Name        string
	Slug        *string
	Description *string
}

// UpdateCategoryInput holds a partial category update.
type UpdateCategoryInput struct {
	Name        *string
	Slug        *string
	Description *string
}

// CategoryService implements the business logic for product categories.
type CategoryService struct {
	repo   repository.CategoryRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewCategoryService creates a new category service.
func NewCategoryService(repo repository.CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new category.
func (s *CategoryService) Create(ctx context.Context, input CreateCategoryInput) (*domain.ProductCategory, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.Validation("name must not be empty")
	}
	sl, err := resolveSlug(name, input.Slug)
	if err != nil {
		return nil, err
	}

	now := s.now()
	category := &domain.ProductCategory{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        sl,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.InfoContext(ctx, "product category created",
		slog.String("category_id", category.ID),
		slog.String("slug", category.Slug),
	)
	return category, nil
}

// Get returns a category by ID.
func (s *CategoryService) Get(ctx context.Context, id string) (*domain.ProductCategory, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, categoryError("get category", id, err)
	}
	return category, nil
}

// Update applies a partial update. Renaming keeps the slug unless a new one is given.
func (s *CategoryService) Update(ctx context.Context, id string, input UpdateCategoryInput) (*domain.ProductCategory, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, categoryError("get category for update", id, err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.Validation("name must not be empty")
		}
		category.Name = name
	}
	if input.Slug != nil {
		sl, err := resolveSlug(category.Name, input.Slug)
		if err != nil {
			return nil, err
		}
		category.Slug = sl
	}
	if input.Description != nil {
		category.Description = input.Description
	}
	category.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, categoryError("update category", id, err)
	}
	return category, nil
}

// Delete removes a category. It is a Conflict while products reference it.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return categoryError("delete category", id, err)
	}
	s.logger.InfoContext(ctx, "product category deleted", slog.String("category_id", id))
	return nil
}

// List returns one page of categories ordered by name.
func (s *CategoryService) List(ctx context.Context, page pagination.Params) (pagination.Page[domain.ProductCategory], error) {
	items, total, err := s.repo.List(ctx, page.PerPage, page.Offset())
	if err != nil {
		return pagination.Page[domain.ProductCategory]{}, fmt.Errorf("list categories: %w", err)
	}
	return pagination.NewPage(items, total, page), nil
}

func categoryError(op, id string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		if _, ok := apperrors.IsAppError(err); !ok {
			return apperrors.NotFound("product category", id)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// --- Products ---

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	CategoryID  string
	Name        string
	Slug        *string
	Description *string
	Price       int64
	Currency    string
	Stock       int
	IsActive    *bool
}

// UpdateProductInput holds a partial product update.
type UpdateProductInput struct {
	CategoryID  *string
	Name        *string
	Slug        *string
	Description *string
	Price       *int64
	Currency    *string
	Stock       *int
	IsActive    *bool
}

// ProductService implements the business logic for products.
type ProductService struct {
	repo       repository.ProductRepository
	categories repository.CategoryRepository
	events     EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewProductService creates a new product service.
func NewProductService(
	repo repository.ProductRepository,
	categories repository.CategoryRepository,
	events EventPublisher,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		repo:       repo,
		categories: categories,
		events:     events,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new product in an existing category.
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.Validation("name must not be empty")
	}
	sl, err := resolveSlug(name, input.Slug)
	if err != nil {
		return nil, err
	}
	currency, err := normalizeCurrency(input.Currency)
	if err != nil {
		return nil, err
	}
	if err := checkAmounts(input.Price, input.Stock); err != nil {
		return nil, err
	}

	category, err := s.category(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	now := s.now()
	product := &domain.Product{
		ID:          uuid.NewString(),
		CategoryID:  category.ID,
		Category:    category,
		Name:        name,
		Slug:        sl,
		Description: input.Description,
		Price:       input.Price,
		Currency:    currency,
		Stock:       input.Stock,
		IsActive:    active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	logPublishError(ctx, s.logger, "product.created", product.ID, s.events.ProductCreated(ctx, product))

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("slug", product.Slug),
	)
	return product, nil
}

// Get returns a product with its category.
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, productError("get product", id, err)
	}
	return product, nil
}

// Update applies a partial update.
func (s *ProductService) Update(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, productError("get product for update", id, err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.Validation("name must not be empty")
		}
		product.Name = name
	}
	if input.Slug != nil {
		sl, err := resolveSlug(product.Name, input.Slug)
		if err != nil {
			return nil, err
		}
		product.Slug = sl
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if err := checkAmounts(product.Price, product.Stock); err != nil {
		return nil, err
	}
	if input.Currency != nil {
		currency, err := normalizeCurrency(*input.Currency)
		if err != nil {
			return nil, err
		}
		product.Currency = currency
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.CategoryID != nil && *input.CategoryID != product.CategoryID {
		category, err := s.category(ctx, *input.CategoryID)
		if err != nil {
			return nil, err
		}
		product.CategoryID = category.ID
		product.Category = category
	}
	product.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, productError("update product", id, err)
	}

	logPublishError(ctx, s.logger, "product.updated", product.ID, s.events.ProductUpdated(ctx, product))
	return product, nil
}

// Delete removes a product.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return productError("delete product", id, err)
	}

	logPublishError(ctx, s.logger, "product.deleted", id, s.events.ProductDeleted(ctx, id))

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}

// List returns one page of products, optionally limited to one category.
func (s *ProductService) List(ctx context.Context, categoryID *string, page pagination.Params) (pagination.Page[domain.Product], error) {
	items, total, err := s.repo.List(ctx, domain.ProductFilter{
		CategoryID: categoryID,
		Limit:      page.PerPage,
		Offset:     page.Offset(),
	})
	if err != nil {
		return pagination.Page[domain.Product]{}, fmt.Errorf("list products: %w", err)
	}
	return pagination.NewPage(items, total, page), nil
}

func (s *ProductService) category(ctx context.Context, id string) (*domain.ProductCategory, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, categoryError("get product category", id, err)
	}
	return category, nil
}

func productError(op, id string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		if _, ok := apperrors.IsAppError(err); !ok {
			return apperrors.NotFound("product", id)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// --- Shared validation ---

// resolveSlug returns the explicit slug when given, otherwise one derived from name.
func resolveSlug(name string, explicit *string) (string, error) {
	if explicit != nil {
		if !slug.Valid(*explicit) {
			return "", apperrors.Validation("slug must contain only lowercase letters, digits and single hyphens")
		}
		return *explicit, nil
	}
	sl := slug.Generate(name)
	if sl == "" {
		return "", apperrors.Validation("name must contain at least one letter or digit")
	}
	return sl, nil
}

func normalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 || strings.IndexFunc(code, func(r rune) bool { return r < 'A' || r > 'Z' }) >= 0 {
		return "", apperrors.Validation("currency must be a 3-letter ISO code")
	}
	return code, nil
}

func checkAmounts(price int64, stock int) error {
	if price < 0 {
		return apperrors.Validation("price must not be negative")
	}
	if stock < 0 {
		return apperrors.Validation("stock must not be negative")
	}
	return nil
}
