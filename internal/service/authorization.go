package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/utafrali/backoffice/internal/domain"
	"github.com/utafrali/backoffice/internal/repository"
	apperrors "github.com/utafrali/backoffice/pkg/errors"
)

// Resolver answers which roles a user holds and which menu a role grants.
type Resolver struct {
	roles repository.RoleRepository
}

// NewResolver creates a new authorization resolver.
func NewResolver(roles repository.RoleRepository) *Resolver {
	return &Resolver{roles: roles}
}

// RolesOf returns the user's active roles ordered by name. Superusers hold
// every active role whether or not it is assigned to them.
func (r *Resolver) RolesOf(ctx context.Context, user *domain.User) ([]domain.Role, error) {
	var (
		roles []domain.Role
		err   error
	)
	if user.IsSuperuser {
		roles, err = r.roles.ListActive(ctx)
	} else {
		roles, err = r.roles.ListActiveByUser(ctx, user.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// MenuOf returns the module tree granted by roleID. It is NotFound unless the
// user holds that role.
func (r *Resolver) MenuOf(ctx context.Context, user *domain.User, roleID int64) ([]domain.MenuGroup, error) {
	if err := r.requireRole(ctx, user, roleID); err != nil {
		return nil, err
	}

	menu, err := r.roles.ListMenu(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	return menu, nil
}

func (r *Resolver) requireRole(ctx context.Context, user *domain.User, roleID int64) error {
	if user.IsSuperuser {
		_, err := r.roles.GetActive(ctx, roleID)
		return err
	}

	held, err := r.roles.UserHasActiveRole(ctx, user.ID, roleID)
	if err != nil {
		return fmt.Errorf("check role: %w", err)
	}
	if !held {
		return apperrors.NotFound("role", strconv.FormatInt(roleID, 10))
	}
	return nil
}
