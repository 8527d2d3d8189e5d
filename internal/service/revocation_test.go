package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/backoffice/internal/domain"
	"github.com/utafrali/backoffice/internal/repository"
	"github.com/utafrali/backoffice/pkg/logger"
)

func newTestLedger(repo *mockRevocationRepository, cache repository.RevocationCache, now time.Time) *RevocationLedger {
	l := NewRevocationLedger(repo, cache, logger.Discard())
	l.now = func() time.Time { return now }
	return l
}

func TestRevocationLedger_CacheHitSkipsDatabase(t *testing.T) {
	repo, cache := new(mockRevocationRepository), new(mockRevocationCache)
	cache.On("IsRevoked", mock.Anything, "jti-1").Return(true, nil)

	revoked, err := newTestLedger(repo, cache, time.Now()).IsRevoked(context.Background(), "jti-1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, revoked)
	repo.AssertNotCalled(t, "IsRevoked", mock.Anything, mock.Anything)
}

func TestRevocationLedger_DatabaseHitBackfillsCache(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	expires := now.Add(90 * time.Minute)

	repo, cache := new(mockRevocationRepository), new(mockRevocationCache)
	cache.On("IsRevoked", mock.Anything, "jti-1").Return(false, nil)
	repo.On("IsRevoked", mock.Anything, "jti-1").Return(true, nil)
	cache.On("MarkRevoked", mock.Anything, "jti-1", 90*time.Minute).Return(nil)

	revoked, err := newTestLedger(repo, cache, now).IsRevoked(context.Background(), "jti-1", expires)
	require.NoError(t, err)
	assert.True(t, revoked)
	cache.AssertExpectations(t)
}

func TestRevocationLedger_CacheErrorFallsBack(t *testing.T) {
	repo, cache := new(mockRevocationRepository), new(mockRevocationCache)
	cache.On("IsRevoked", mock.Anything, "jti-1").Return(false, errors.New("redis down"))
	repo.On("IsRevoked", mock.Anything, "jti-1").Return(false, nil)

	revoked, err := newTestLedger(repo, cache, time.Now()).IsRevoked(context.Background(), "jti-1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, revoked)
	cache.AssertNotCalled(t, "MarkRevoked", mock.Anything, mock.Anything, mock.Anything)
}

func TestRevocationLedger_DatabaseErrorIsReturned(t *testing.T) {
	repo := new(mockRevocationRepository)
	repo.On("IsRevoked", mock.Anything, "jti-1").Return(false, errors.New("connection refused"))

	_, err := newTestLedger(repo, nil, time.Now()).IsRevoked(context.Background(), "jti-1", time.Now())
	assert.Error(t, err)
	repo.AssertExpectations(t)
}

func TestRevocationLedger_RevokeWritesLedgerThenCache(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	expires := now.Add(time.Hour)

	repo, cache := new(mockRevocationRepository), new(mockRevocationCache)
	repo.On("Revoke", mock.Anything, domain.RevokedToken{JTI: "jti-1", UserID: "u-1", ExpiresAt: expires, RevokedAt: now}).
		Return(true, nil)
	cache.On("MarkRevoked", mock.Anything, "jti-1", time.Hour).Return(errors.New("redis down"))

	err := newTestLedger(repo, cache, now).Revoke(context.Background(), "jti-1", "u-1", expires)
	assert.NoError(t, err, "cache failures never fail a revoke")
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestRevocationLedger_RevokeFailsWithDatabase(t *testing.T) {
	repo := new(mockRevocationRepository)
	repo.On("Revoke", mock.Anything, mock.Anything).Return(false, errors.New("read-only transaction"))

	err := newTestLedger(repo, nil, time.Now()).Revoke(context.Background(), "jti-1", "u-1", time.Now())
	assert.Error(t, err)
}

func TestRevocationLedger_PurgeExpired(t *testing.T) {
	cutoff := time.Now()
	repo := new(mockRevocationRepository)
	repo.On("PurgeExpired", mock.Anything, cutoff).Return(int64(4), nil)

	n, err := newTestLedger(repo, nil, cutoff).PurgeExpired(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
