package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/backoffice/internal/domain"
	"github.com/utafrali/backoffice/pkg/database"
	apperrors "github.com/utafrali/backoffice/pkg/errors"
)

const productSelect = `
	SELECT p.id, p.category_id, p.name, p.slug, p.description, p.price, p.currency,
	       p.stock, p.is_active, p.created_at, p.updated_at,
	       c.id, c.name, c.slug, c.description, c.created_at, c.updated_at`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	query := `
		INSERT INTO products (id, category_id, name, slug, description, price, currency, stock, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		p.ID,
		p.CategoryID,
		p.Name,
		p.Slug,
		p.Description,
		p.Price,
		p.Currency,
		p.Stock,
		p.IsActive,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return productWriteError("insert product", err, p)
	}
	return nil
}

// GetByID retrieves a product together with its category.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	query := productSelect + `
		FROM products p
		LEFT JOIN product_categories c ON c.id = p.category_id
		WHERE p.id = $1`

	ctx, end := database.TraceQuery(ctx, "GetProduct", query)
	defer func() { end(err) }()

	p, err := scanProduct(r.db.QueryRow(ctx, query, id), nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return p, nil
}

// Update overwrites the mutable fields of a product.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (err error) {
	query := `
		UPDATE products
		SET category_id = $1, name = $2, slug = $3, description = $4, price = $5,
		    currency = $6, stock = $7, is_active = $8, updated_at = $9
		WHERE id = $10`

	ctx, end := database.TraceQuery(ctx, "UpdateProduct", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query,
		p.CategoryID,
		p.Name,
		p.Slug,
		p.Description,
		p.Price,
		p.Currency,
		p.Stock,
		p.IsActive,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return productWriteError("update product", err, p)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteProduct", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// List returns products newest first, optionally limited to one category.
func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) (_ []domain.Product, _ int, err error) {
	var where whereBuilder
	if filter.CategoryID != nil {
		where.add("p.category_id = $%d", *filter.CategoryID)
	}
	args, limitIdx, offsetIdx := where.pageArgs(filter.Limit, filter.Offset)

	query := fmt.Sprintf(`%s, count(*) OVER() AS total_count
		FROM products p
		LEFT JOIN product_categories c ON c.id = p.category_id
		%s
		ORDER BY p.created_at DESC, p.id
		LIMIT $%d OFFSET $%d`,
		productSelect, where.clause(), limitIdx, offsetIdx,
	)

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products = []domain.Product{}
		total    int
	)
	for rows.Next() {
		p, err := scanProduct(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	if len(products) == 0 && filter.Offset > 0 {
		total, err = countRows(ctx, r.db, "products p", &where)
		if err != nil {
			return nil, 0, err
		}
	}

	return products, total, nil
}

// scanProduct reads one productSelect row. When total is non-nil a trailing
// window count column is expected as well.
func scanProduct(row pgx.Row, total *int) (*domain.Product, error) {
	var (
		p   domain.Product
		cat struct {
			id, name, slug *string
			description    *string
			created        *time.Time
			updated        *time.Time
		}
	)
	dest := []any{
		&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Currency,
		&p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		&cat.id, &cat.name, &cat.slug, &cat.description, &cat.created, &cat.updated,
	}
	if total != nil {
		dest = append(dest, total)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if cat.id != nil {
		p.Category = &domain.ProductCategory{
			ID:          *cat.id,
			Name:        deref(cat.name),
			Slug:        deref(cat.slug),
			Description: cat.description,
		}
		if cat.created != nil {
			p.Category.CreatedAt = *cat.created
		}
		if cat.updated != nil {
			p.Category.UpdatedAt = *cat.updated
		}
	}
	return &p, nil
}

func productWriteError(op string, err error, p *domain.Product) error {
	switch {
	case isUniqueViolation(err):
		return apperrors.AlreadyExists("product", "slug", p.Slug)
	case isForeignKeyViolation(err):
		return apperrors.NotFound("product category", p.CategoryID)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
