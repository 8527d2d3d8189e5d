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

const customerColumns = `id, name, last_name, description, email, age, created_at, updated_at`

const duplicateEmailMessage = "This email is already registered"

// CustomerRepository implements repository.CustomerRepository using PostgreSQL.
type CustomerRepository struct {
	db database.DBTX
}

// NewCustomerRepository creates a new PostgreSQL-backed customer repository.
func NewCustomerRepository(db database.DBTX) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create inserts a new customer.
func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) (err error) {
	query := `INSERT INTO customers (` + customerColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	ctx, end := database.TraceQuery(ctx, "CreateCustomer", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query, c.ID, c.Name, c.LastName, c.Description, c.Email, c.Age, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExistsMessage(duplicateEmailMessage)
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByID retrieves a customer by its ID.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (_ *domain.Customer, err error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetCustomer", query)
	defer func() { end(err) }()

	var c domain.Customer
	err = r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.LastName, &c.Description, &c.Email, &c.Age, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	return &c, nil
}

// Update overwrites the mutable fields of a customer.
func (r *CustomerRepository) Update(ctx context.Context, c *domain.Customer) (err error) {
	query := `
		UPDATE customers
		SET name = $1, last_name = $2, description = $3, email = $4, age = $5, updated_at = $6
		WHERE id = $7`

	ctx, end := database.TraceQuery(ctx, "UpdateCustomer", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, c.Name, c.LastName, c.Description, c.Email, c.Age, c.UpdatedAt, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExistsMessage(duplicateEmailMessage)
		}
		return fmt.Errorf("update customer: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes a customer.
func (r *CustomerRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM customers WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteCustomer", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// List returns customers ordered by name.
func (r *CustomerRepository) List(ctx context.Context, limit, offset int) (_ []domain.Customer, _ int, err error) {
	query := `
		SELECT ` + customerColumns + `, count(*) OVER() AS total_count
		FROM customers
		ORDER BY name, last_name NULLS FIRST, id
		LIMIT $1 OFFSET $2`

	ctx, end := database.TraceQuery(ctx, "ListCustomers", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var (
		customers = []domain.Customer{}
		total     int
	)
	for rows.Next() {
		var c domain.Customer
		if err = rows.Scan(
			&c.ID, &c.Name, &c.LastName, &c.Description, &c.Email, &c.Age, &c.CreatedAt, &c.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan customer row: %w", err)
		}
		customers = append(customers, c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate customer rows: %w", err)
	}

	if len(customers) == 0 && offset > 0 {
		total, err = countRows(ctx, r.db, "customers", &whereBuilder{})
		if err != nil {
			return nil, 0, err
		}
	}

	return customers, total, nil
}
