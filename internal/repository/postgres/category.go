package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/backoffice/internal/domain"
	"github.com/utafrali/backoffice/pkg/database"
	apperrors "github.com/utafrali/backoffice/pkg/errors"
)

const categoryColumns = `id, name, slug, description, created_at, updated_at`

// CategoryRepository implements repository.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	db database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(db database.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a new product category.
func (r *CategoryRepository) Create(ctx context.Context, c *domain.ProductCategory) (err error) {
	query := `INSERT INTO product_categories (` + categoryColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, end := database.TraceQuery(ctx, "CreateCategory", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query, c.ID, c.Name, c.Slug, c.Description, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateCategory(err, c)
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// GetByID retrieves a category by its ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (_ *domain.ProductCategory, err error) {
	query := `SELECT ` + categoryColumns + ` FROM product_categories WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetCategory", query)
	defer func() { end(err) }()

	var c domain.ProductCategory
	err = r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}
	return &c, nil
}

// Update overwrites the mutable fields of a category.
func (r *CategoryRepository) Update(ctx context.Context, c *domain.ProductCategory) (err error) {
	query := `
		UPDATE product_categories
		SET name = $1, slug = $2, description = $3, updated_at = $4
		WHERE id = $5`

	ctx, end := database.TraceQuery(ctx, "UpdateCategory", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, c.Name, c.Slug, c.Description, c.UpdatedAt, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateCategory(err, c)
		}
		return fmt.Errorf("update category: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes a category. Categories still referenced by products are kept.
func (r *CategoryRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM product_categories WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteCategory", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.Conflict("category still has products")
		}
		return fmt.Errorf("delete category: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// List returns categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context, limit, offset int) (_ []domain.ProductCategory, _ int, err error) {
	query := `
		SELECT ` + categoryColumns + `, count(*) OVER() AS total_count
		FROM product_categories
		ORDER BY name, id
		LIMIT $1 OFFSET $2`

	ctx, end := database.TraceQuery(ctx, "ListCategories", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var (
		categories = []domain.ProductCategory{}
		total      int
	)
	for rows.Next() {
		var c domain.ProductCategory
		if err = rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate category rows: %w", err)
	}

	if len(categories) == 0 && offset > 0 {
		total, err = countRows(ctx, r.db, "product_categories", &whereBuilder{})
		if err != nil {
			return nil, 0, err
		}
	}

	return categories, total, nil
}

func duplicateCategory(err error, c *domain.ProductCategory) error {
	if violatedConstraint(err) == "product_categories_name_key" {
		return apperrors.AlreadyExists("product category", "name", c.Name)
	}
	return apperrors.AlreadyExists("product category", "slug", c.Slug)
}
