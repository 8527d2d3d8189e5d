package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/backoffice/pkg/errors"
)

func newRoleTestFixture(t *testing.T) (*RoleRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewRoleRepository(mock), mock
}

func roleRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "description", "icon", "is_active"})
}

var menuColumns = []string{
	"g_id", "g_name", "g_description", "g_icon", "g_sort_order",
	"m_id", "m_group_id", "m_name", "m_route", "m_icon", "m_description", "m_sort_order", "m_is_active",
}

func TestRoleRepository_ListActive(t *testing.T) {
	repo, mock := newRoleTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM roles r WHERE r.is_active ORDER BY r.name").
		WillReturnRows(roleRows().
			AddRow(int64(1), "admin", strPtr("Full access"), (*string)(nil), true).
			AddRow(int64(2), "editor", (*string)(nil), strPtr("pencil"), true))

	roles, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "admin", roles[0].Name)
	assert.Equal(t, "pencil", *roles[1].Icon)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepository_ListActiveByUser_Empty(t *testing.T) {
	repo, mock := newRoleTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("FROM roles r JOIN user_roles ur").
		WithArgs("u-1").
		WillReturnRows(roleRows())

	roles, err := repo.ListActiveByUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.NotNil(t, roles)
	assert.Empty(t, roles)
}

func TestRoleRepository_GetActive_NotFound(t *testing.T) {
	repo, mock := newRoleTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("FROM roles r WHERE r.id =").
		WithArgs(int64(9)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetActive(context.Background(), 9)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Contains(t, err.Error(), "role with id 9")
}

func TestRoleRepository_UserHasActiveRole(t *testing.T) {
	repo, mock := newRoleTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("u-1", int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.UserHasActiveRole(context.Background(), "u-1", 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepository_AssignToUser_UnknownRole(t *testing.T) {
	repo, mock := newRoleTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO user_roles").
		WithArgs("u-1", int64(404)).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.AssignToUser(context.Background(), "u-1", 404)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestRoleRepository_ListMenu_GroupsRows(t *testing.T) {
	repo, mock := newRoleTestFixture(t)
	defer mock.Close()

	none := (*string)(nil)
	mock.ExpectQuery("FROM role_modules rm").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(menuColumns).
			AddRow(int64(10), "Catalog", none, strPtr("box"), 1,
				int64(100), int64(10), "Categories", "/categories", none, none, 1, true).
			AddRow(int64(10), "Catalog", none, strPtr("box"), 1,
				int64(101), int64(10), "Products", "/products", none, none, 2, true).
			AddRow(int64(20), "People", none, none, 2,
				int64(200), int64(20), "Customers", "/customers", none, none, 1, true))

	menu, err := repo.ListMenu(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, menu, 2)
	assert.Equal(t, "Catalog", menu[0].Name)
	require.Len(t, menu[0].Modules, 2)
	assert.Equal(t, "Products", menu[0].Modules[1].Name)
	assert.Equal(t, "People", menu[1].Name)
	assert.Len(t, menu[1].Modules, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepository_ListMenu_Empty(t *testing.T) {
	repo, mock := newRoleTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("FROM role_modules rm").
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows(menuColumns))

	menu, err := repo.ListMenu(context.Background(), 2)
	require.NoError(t, err)
	assert.NotNil(t, menu)
	assert.Empty(t, menu)
}
