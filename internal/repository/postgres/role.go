package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/backoffice/internal/domain"
	"github.com/utafrali/backoffice/pkg/database"
	apperrors "github.com/utafrali/backoffice/pkg/errors"
)

const roleColumns = `r.id, r.name, r.description, r.icon, r.is_active`

// RoleRepository implements repository.RoleRepository using PostgreSQL.
type RoleRepository struct {
	db database.DBTX
}

// NewRoleRepository creates a new PostgreSQL-backed role repository.
func NewRoleRepository(db database.DBTX) *RoleRepository {
	return &RoleRepository{db: db}
}

// ListActive returns all active roles ordered by name.
func (r *RoleRepository) ListActive(ctx context.Context) ([]domain.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles r WHERE r.is_active ORDER BY r.name`
	return r.queryRoles(ctx, "ListActiveRoles", query)
}

// ListActiveByUser returns the active roles assigned to a user.
func (r *RoleRepository) ListActiveByUser(ctx context.Context, userID string) ([]domain.Role, error) {
	query := `
		SELECT ` + roleColumns + `
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1 AND r.is_active
		ORDER BY r.name`
	return r.queryRoles(ctx, "ListUserRoles", query, userID)
}

// GetActive retrieves an active role by ID.
func (r *RoleRepository) GetActive(ctx context.Context, id int64) (*domain.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles r WHERE r.id = $1 AND r.is_active`
	role, err := r.scanRole(ctx, "GetActiveRole", query, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.NotFound("role", strconv.FormatInt(id, 10))
	}
	return role, err
}

// GetByName retrieves a role by name regardless of its status.
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles r WHERE r.name = $1`
	return r.scanRole(ctx, "GetRoleByName", query, name)
}

// UserHasActiveRole reports whether the user is assigned an active role.
func (r *RoleRepository) UserHasActiveRole(ctx context.Context, userID string, roleID int64) (_ bool, err error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM user_roles ur
			JOIN roles r ON r.id = ur.role_id
			WHERE ur.user_id = $1 AND ur.role_id = $2 AND r.is_active
		)`

	ctx, end := database.TraceQuery(ctx, "UserHasActiveRole", query)
	defer func() { end(err) }()

	var ok bool
	if err = r.db.QueryRow(ctx, query, userID, roleID).Scan(&ok); err != nil {
		return false, fmt.Errorf("check user role: %w", err)
	}
	return ok, nil
}

// AssignToUser grants a role to a user.
func (r *RoleRepository) AssignToUser(ctx context.Context, userID string, roleID int64) (err error) {
	query := `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role_id) DO NOTHING`

	ctx, end := database.TraceQuery(ctx, "AssignRole", query)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, query, userID, roleID); err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("role", strconv.FormatInt(roleID, 10))
		}
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

// ListMenu returns the active modules a role grants, grouped by module group.
// Groups without any granted module are omitted.
func (r *RoleRepository) ListMenu(ctx context.Context, roleID int64) (_ []domain.MenuGroup, err error) {
	query := `
		SELECT g.id, g.name, g.description, g.icon, g.sort_order,
		       m.id, m.group_id, m.name, m.route, m.icon, m.description, m.sort_order, m.is_active
		FROM role_modules rm
		JOIN modules m ON m.id = rm.module_id
		JOIN module_groups g ON g.id = m.group_id
		WHERE rm.role_id = $1 AND m.is_active
		ORDER BY g.sort_order, g.name, g.id, m.sort_order, m.name`

	ctx, end := database.TraceQuery(ctx, "ListRoleMenu", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, roleID)
	if err != nil {
		return nil, fmt.Errorf("query menu: %w", err)
	}
	defer rows.Close()

	menu := []domain.MenuGroup{}
	for rows.Next() {
		var (
			g domain.ModuleGroup
			m domain.Module
		)
		if err = rows.Scan(
			&g.ID, &g.Name, &g.Description, &g.Icon, &g.SortOrder,
			&m.ID, &m.GroupID, &m.Name, &m.Route, &m.Icon, &m.Description, &m.SortOrder, &m.IsActive,
		); err != nil {
			return nil, fmt.Errorf("scan menu row: %w", err)
		}

		// Rows arrive ordered by group, so a new group id starts a new section.
		if n := len(menu); n == 0 || menu[n-1].ID != g.ID {
			menu = append(menu, domain.MenuGroup{ModuleGroup: g})
		}
		last := &menu[len(menu)-1]
		last.Modules = append(last.Modules, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu rows: %w", err)
	}

	return menu, nil
}

func (r *RoleRepository) queryRoles(ctx context.Context, op, query string, args ...any) (_ []domain.Role, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	roles := []domain.Role{}
	for rows.Next() {
		var role domain.Role
		if err = rows.Scan(&role.ID, &role.Name, &role.Description, &role.Icon, &role.IsActive); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}

	return roles, nil
}

func (r *RoleRepository) scanRole(ctx context.Context, op, query string, args ...any) (_ *domain.Role, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	var role domain.Role
	err = r.db.QueryRow(ctx, query, args...).Scan(&role.ID, &role.Name, &role.Description, &role.Icon, &role.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan role: %w", err)
	}
	return &role, nil
}
