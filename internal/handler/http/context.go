package http

import (
	"context"
	"net/http"

	"github.com/utafrali/backoffice/internal/domain"
)

type contextKey struct{}

func withCurrentUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// currentUser returns the user loaded by the auth middleware, or nil on
// routes mounted without it.
func currentUser(r *http.Request) *domain.User {
	user, _ := r.Context().Value(contextKey{}).(*domain.User)
	return user
}
