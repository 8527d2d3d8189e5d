package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/backoffice/internal/auth"
	"github.com/utafrali/backoffice/internal/domain"
	"github.com/utafrali/backoffice/internal/repository"
	apperrors "github.com/utafrali/backoffice/pkg/errors"
)

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

const msgBadCredentials = "incorrect username or password"

// CreateUserInput holds the parameters for creating a user account.
type CreateUserInput struct {
	Username    string
	Email       string
	FirstName   *string
	LastName    *string
	Password    string
	IsSuperuser bool
}

// CredentialStore creates accounts and verifies passwords.
type CredentialStore struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	now    func() time.Time
}

// NewCredentialStore creates a new credential store.
func NewCredentialStore(users repository.UserRepository, hasher *auth.PasswordHasher) *CredentialStore {
	return &CredentialStore{
		users:  users,
		hasher: hasher,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create hashes the password and stores a new active, unverified user.
func (s *CredentialStore) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
		IsSuperuser:  input.IsSuperuser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Verify returns the user when username and password match an active account.
// Every kind of mismatch yields the same Unauthorized error.
func (s *CredentialStore) Verify(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.hasher.CompareDummy(password)
			return nil, apperrors.Unauthorized(msgBadCredentials)
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperrors.Unauthorized(msgBadCredentials)
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, apperrors.Unauthorized(msgBadCredentials)
	}

	return user, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if len(password) > auth.MaxPasswordBytes {
		return apperrors.Validation(fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
	}
	return nil
}
