package repository

import (
	"context"
	"time"

	"github.com/utafrali/backoffice/internal/domain"
)

// UserRepository persists user accounts.
type UserRepository interface {
	// Create inserts a new user. Duplicate usernames or emails are reported
	// as AlreadyExists naming the offending field.
	Create(ctx context.Context, user *domain.User) error

	// GetByID returns ErrNotFound when no user has id.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername returns ErrNotFound when no user has username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// TouchLastLogin records a successful login.
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// RoleRepository reads roles and the module menu they grant.
type RoleRepository interface {
	// ListActive returns every active role ordered by name.
	ListActive(ctx context.Context) ([]domain.Role, error)

	// ListActiveByUser returns the active roles assigned to userID, ordered by name.
	ListActiveByUser(ctx context.Context, userID string) ([]domain.Role, error)

	// GetActive returns ErrNotFound unless an active role has id.
	GetActive(ctx context.Context, id int64) (*domain.Role, error)

	// GetByName returns ErrNotFound when no role has name.
	GetByName(ctx context.Context, name string) (*domain.Role, error)

	// UserHasActiveRole reports whether userID holds the active role roleID.
	UserHasActiveRole(ctx context.Context, userID string, roleID int64) (bool, error)

	// AssignToUser grants roleID to userID. Assigning twice is a no-op.
	AssignToUser(ctx context.Context, userID string, roleID int64) error

	// ListMenu returns the active modules granted to roleID grouped by
	// module group, ordered by sort order then name at both levels.
	ListMenu(ctx context.Context, roleID int64) ([]domain.MenuGroup, error)
}

// RevocationRepository is the durable ledger of revoked refresh tokens.
type RevocationRepository interface {
	// Revoke records entry and reports whether this call added it. Revoking
	// an already revoked id succeeds with false.
	Revoke(ctx context.Context, entry domain.RevokedToken) (bool, error)

	// IsRevoked reports whether jti has been revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// PurgeExpired deletes entries whose token expired before the given time
	// and returns how many were removed.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// RevocationCache is a best-effort read-through cache in front of the ledger.
type RevocationCache interface {
	MarkRevoked(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// TaskRepository persists tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
	// List returns one page of tasks and the total matching filter.
	List(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, int, error)
}

// CategoryRepository persists product categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.ProductCategory) error
	GetByID(ctx context.Context, id string) (*domain.ProductCategory, error)
	Update(ctx context.Context, category *domain.ProductCategory) error
	// Delete returns a Conflict while products still reference the category.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]domain.ProductCategory, int, error)
}

// ProductRepository persists products. Reads include the category.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error)
}

// CustomerRepository persists customers.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	Update(ctx context.Context, customer *domain.Customer) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]domain.Customer, int, error)
}
