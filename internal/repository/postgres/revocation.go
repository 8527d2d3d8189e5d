package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/utafrali/backoffice/internal/domain"
	"github.com/utafrali/backoffice/pkg/database"
)

// RevocationRepository implements repository.RevocationRepository using PostgreSQL.
type RevocationRepository struct {
	db database.DBTX
}

// NewRevocationRepository creates a new PostgreSQL-backed revocation ledger.
func NewRevocationRepository(db database.DBTX) *RevocationRepository {
	return &RevocationRepository{db: db}
}

// Revoke records a token id. Existing entries are left untouched and the
// call reports false.
func (r *RevocationRepository) Revoke(ctx context.Context, t domain.RevokedToken) (_ bool, err error) {
	query := `
		INSERT INTO revoked_tokens (jti, user_id, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (jti) DO NOTHING`

	ctx, end := database.TraceQuery(ctx, "RevokeToken", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, t.JTI, t.UserID, t.ExpiresAt, t.RevokedAt)
	if err != nil {
		return false, fmt.Errorf("insert revoked token: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// IsRevoked reports whether a token id is in the ledger.
func (r *RevocationRepository) IsRevoked(ctx context.Context, jti string) (_ bool, err error) {
	query := `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)`

	ctx, end := database.TraceQuery(ctx, "IsTokenRevoked", query)
	defer func() { end(err) }()

	var revoked bool
	if err = r.db.QueryRow(ctx, query, jti).Scan(&revoked); err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// PurgeExpired removes entries for tokens that expired before the cutoff.
// Such tokens fail signature-time validation anyway.
func (r *RevocationRepository) PurgeExpired(ctx context.Context, before time.Time) (_ int64, err error) {
	query := `DELETE FROM revoked_tokens WHERE expires_at < $1`

	ctx, end := database.TraceQuery(ctx, "PurgeRevokedTokens", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("purge revoked tokens: %w", err)
	}
	return ct.RowsAffected(), nil
}
