package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/backoffice/internal/domain"
	"github.com/utafrali/backoffice/internal/repository"
)

// RevocationLedger records revoked refresh tokens in Postgres, optionally
// fronted by a cache. Postgres is authoritative: cache failures are logged
// and skipped, ledger failures are returned so callers can fail closed.
type RevocationLedger struct {
	repo   repository.RevocationRepository
	cache  repository.RevocationCache
	logger *slog.Logger
	now    func() time.Time
}

// NewRevocationLedger creates a ledger. cache may be nil.
func NewRevocationLedger(repo repository.RevocationRepository, cache repository.RevocationCache, logger *slog.Logger) *RevocationLedger {
	return &RevocationLedger{
		repo:   repo,
		cache:  cache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Revoke records the token id. It succeeds for ids that are already revoked.
func (l *RevocationLedger) Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	_, err := l.Consume(ctx, jti, userID, expiresAt)
	return err
}

// Consume records the token id and reports whether this call was the one that
// revoked it. Two concurrent consumers of the same id see exactly one true.
func (l *RevocationLedger) Consume(ctx context.Context, jti, userID string, expiresAt time.Time) (bool, error) {
	now := l.now()
	added, err := l.repo.Revoke(ctx, domain.RevokedToken{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
		RevokedAt: now,
	})
	if err != nil {
		return false, fmt.Errorf("revoke token: %w", err)
	}
	l.cacheRevoked(ctx, jti, expiresAt.Sub(now))
	return added, nil
}

// IsRevoked checks the cache, then the ledger. A ledger hit back-fills the
// cache for the rest of the token's lifetime.
func (l *RevocationLedger) IsRevoked(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	if l.cache != nil {
		revoked, err := l.cache.IsRevoked(ctx, jti)
		if err != nil {
			l.logger.WarnContext(ctx, "revocation cache read failed",
				slog.String("error", err.Error()),
			)
		} else if revoked {
			return true, nil
		}
	}

	revoked, err := l.repo.IsRevoked(ctx, jti)
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		l.cacheRevoked(ctx, jti, expiresAt.Sub(l.now()))
	}
	return revoked, nil
}

// PurgeExpired deletes ledger entries for tokens that expired before the cutoff.
func (l *RevocationLedger) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	n, err := l.repo.PurgeExpired(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("purge revocations: %w", err)
	}
	return n, nil
}

func (l *RevocationLedger) cacheRevoked(ctx context.Context, jti string, ttl time.Duration) {
	if l.cache == nil {
		return
	}
	if err := l.cache.MarkRevoked(ctx, jti, ttl); err != nil {
		l.logger.WarnContext(ctx, "revocation cache write failed",
			slog.String("error", err.Error()),
		)
	}
}
