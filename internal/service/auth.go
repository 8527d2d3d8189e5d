package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/backoffice/internal/auth"
	"github.com/utafrali/backoffice/internal/domain"
	"github.com/utafrali/backoffice/internal/repository"
	apperrors "github.com/utafrali/backoffice/pkg/errors"
)

const msgInvalidCredentials = "could not validate credentials"

// AuthService drives the session lifecycle: register, login, refresh, logout,
// and per-request authentication of access tokens.
type AuthService struct {
	credentials *CredentialStore
	tokens      *auth.TokenManager
	ledger      *RevocationLedger
	users       repository.UserRepository
	events      EventPublisher
	metrics     *AuthMetrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewAuthService creates a new auth service. metrics may be nil.
func NewAuthService(
	credentials *CredentialStore,
	tokens *auth.TokenManager,
	ledger *RevocationLedger,
	users repository.UserRepository,
	events EventPublisher,
	metrics *AuthMetrics,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		credentials: credentials,
		tokens:      tokens,
		ledger:      ledger,
		users:       users,
		events:      events,
		metrics:     metrics,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a new account.
func (s *AuthService) Register(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	input.IsSuperuser = false

	user, err := s.credentials.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	logPublishError(ctx, s.logger, "user.registered", user.ID, s.events.UserRegistered(ctx, user))

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, username, password string, client domain.ClientInfo) (*auth.TokenPair, error) {
	user, err := s.credentials.Verify(ctx, username, password)
	if err != nil {
		s.metrics.login("failure")
		if errors.Is(err, apperrors.ErrUnauthorized) {
			s.logger.InfoContext(ctx, "login rejected",
				slog.String("username", username),
				slog.String("ip", client.IP),
			)
		}
		return nil, err
	}

	pair, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.WarnContext(ctx, "failed to record last login",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.metrics.login("success")
	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("ip", client.IP),
		slog.String("user_agent", client.UserAgent),
	)
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// consumed: it is revoked before the new pair is returned and any later use
// is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.tokens.Validate(refreshToken, auth.KindRefresh)
	if err != nil {
		s.metrics.refresh("invalid")
		return nil, tokenError(err)
	}
	expiresAt := claims.ExpiresAt.Time

	revoked, err := s.ledger.IsRevoked(ctx, claims.ID, expiresAt)
	if err != nil {
		s.metrics.refresh("error")
		s.logger.ErrorContext(ctx, "revocation check failed, refusing refresh",
			slog.String("user_id", claims.Subject),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Unauthorized(msgInvalidCredentials)
	}
	if revoked {
		s.metrics.refresh("revoked")
		return nil, apperrors.Unauthorized(msgInvalidCredentials)
	}

	user, err := s.activeUser(ctx, claims.Subject)
	if err != nil {
		s.metrics.refresh("invalid")
		return nil, err
	}

	consumed, err := s.ledger.Consume(ctx, claims.ID, user.ID, expiresAt)
	if err != nil {
		s.metrics.refresh("error")
		s.logger.ErrorContext(ctx, "failed to revoke consumed refresh token",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Unauthorized(msgInvalidCredentials)
	}
	if !consumed {
		s.metrics.refresh("revoked")
		return nil, apperrors.Unauthorized(msgInvalidCredentials)
	}

	pair, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	s.metrics.refresh("success")
	s.logger.InfoContext(ctx, "tokens refreshed", slog.String("user_id", user.ID))
	return pair, nil
}

// Logout revokes refreshToken when one is given. It must belong to the same
// user as accessToken. Access tokens stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	access, err := s.tokens.Validate(accessToken, auth.KindAccess)
	if err != nil {
		return tokenError(err)
	}

	revoked := false
	if refreshToken != "" {
		refresh, err := s.tokens.Validate(refreshToken, auth.KindRefresh)
		if err != nil {
			return tokenError(err)
		}
		if refresh.Subject != access.Subject {
			return apperrors.Unauthorized(msgInvalidCredentials)
		}
		if err := s.ledger.Revoke(ctx, refresh.ID, refresh.Subject, refresh.ExpiresAt.Time); err != nil {
			return err
		}
		revoked = true
	}

	logPublishError(ctx, s.logger, "session.logged_out", access.Subject,
		s.events.SessionLoggedOut(ctx, access.Subject, revoked))

	s.metrics.logout()
	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", access.Subject),
		slog.Bool("refresh_revoked", revoked),
	)
	return nil
}

// Authenticate validates an access token and loads its active subject.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.tokens.Validate(accessToken, auth.KindAccess)
	if err != nil {
		return nil, tokenError(err)
	}
	return s.activeUser(ctx, claims.Subject)
}

func (s *AuthService) activeUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("inactive user")
	}
	return user, nil
}

func tokenError(err error) error {
	if errors.Is(err, auth.ErrExpiredToken) {
		return apperrors.Unauthorized("token has expired")
	}
	return apperrors.Unauthorized(msgInvalidCredentials)
}
