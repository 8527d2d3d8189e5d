package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/backoffice/internal/domain"
	apperrors "github.com/utafrali/backoffice/pkg/errors"
)

func newCustomerTestFixture(t *testing.T) (*CustomerRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewCustomerRepository(mock), mock
}

func sampleCustomer() *domain.Customer {
	now := time.Now().UTC().Truncate(time.Microsecond)
	age := 34
	return &domain.Customer{
		ID:        "5d6c7b8a-1234-4cde-8f90-abcdef012345",
		Name:      "Deniz",
		LastName:  strPtr("Kaya"),
		Email:     "deniz@example.com",
		Age:       &age,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func customerArgs(c *domain.Customer) []any {
	return []any{c.ID, c.Name, c.LastName, c.Description, c.Email, c.Age, c.CreatedAt, c.UpdatedAt}
}

func TestCustomerRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newCustomerTestFixture(t)
	defer mock.Close()

	c := sampleCustomer()
	mock.ExpectExec("INSERT INTO customers").
		WithArgs(customerArgs(c)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "customers_email_key"})

	err := repo.Create(context.Background(), c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))

	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "This email is already registered", appErr.Message)
}

func TestCustomerRepository_GetByID(t *testing.T) {
	repo, mock := newCustomerTestFixture(t)
	defer mock.Close()

	c := sampleCustomer()
	mock.ExpectQuery("SELECT .+ FROM customers WHERE id =").
		WithArgs(c.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "last_name", "description", "email", "age", "created_at", "updated_at"}).
			AddRow(customerArgs(c)...))

	got, err := repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kaya", *got.LastName)
	assert.Equal(t, 34, *got.Age)
	assert.Nil(t, got.Description)
}

func TestCustomerRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newCustomerTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM customers").
		WithArgs("gone").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "gone")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
