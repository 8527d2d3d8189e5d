package http

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/backoffice/internal/auth"
	"github.com/utafrali/backoffice/internal/domain"
	"github.com/utafrali/backoffice/internal/service"
	apperrors "github.com/utafrali/backoffice/pkg/errors"
	"github.com/utafrali/backoffice/pkg/httputil"
	"github.com/utafrali/backoffice/pkg/middleware"
	"github.com/utafrali/backoffice/pkg/validator"
)

// AuthHandler serves the session endpoints. Its success bodies are bare JSON
// in the OAuth2 token-endpoint shape rather than the data envelope.
type AuthHandler struct {
	auth     *service.AuthService
	resolver *service.Resolver
	logger   *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(authService *service.AuthService, resolver *service.Resolver, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, resolver: resolver, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for POST /users/.
type RegisterRequest struct {
	Username  string  `json:"username" validate:"required,min=3,max=50,username"`
	Email     string  `json:"email" validate:"required,email,max=255"`
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
}

// LoginForm holds the form fields of POST /token.
type LoginForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token in a JSON body.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest optionally names the refresh token to revoke.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// --- Response types ---

// UserResponse is the public view of an account.
type UserResponse struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	IsVerified bool    `json:"is_verified"`
}

// TokenResponse is returned by the token endpoints.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
}

// RoleInfo describes a role the caller holds.
type RoleInfo struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
}

// ModuleInfo is a single menu entry.
type ModuleInfo struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Route       string  `json:"route"`
	Icon        *string `json:"icon"`
	Description *string `json:"description"`
	SortOrder   int     `json:"sort_order"`
}

// ModuleGroupMenu is a menu section with the modules granted inside it.
type ModuleGroupMenu struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description"`
	Icon        *string      `json:"icon"`
	SortOrder   int          `json:"sort_order"`
	Modules     []ModuleInfo `json:"modules"`
}

type messageResponse struct {
	Msg string `json:"msg"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		IsVerified: u.IsVerified,
	}
}

func toTokenResponse(pair *auth.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  pair.AccessToken,
		TokenType:    "bearer",
		RefreshToken: pair.RefreshToken,
	}
}

// --- Handlers ---

// Register handles POST /users/
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	user, err := h.auth.Register(r.Context(), service.CreateUserInput{
		Username:  req.Username,
		Email:     strings.ToLower(req.Email),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// Token handles POST /token with form-encoded credentials.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, validator.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid form body"), h.logger)
		return
	}

	form := LoginForm{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
	if err := validator.Validate(form); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	pair, err := h.auth.Login(r.Context(), form.Username, form.Password, clientInfo(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toTokenResponse(pair))
}

// Refresh handles POST /token/refresh. The token is read from the
// refresh_token query parameter, falling back to a JSON body.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("refresh_token")
	if token == "" {
		var req RefreshRequest
		if err := validator.DecodeAndValidate(w, r, &req); err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		token = req.RefreshToken
	}

	pair, err := h.auth.Refresh(r.Context(), token)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toTokenResponse(pair))
}

// Logout handles POST /logout. The body is optional.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := validator.DecodeJSON(w, r, &req); err != nil && !validator.IsEmptyBody(err) {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	accessToken := middleware.BearerTokenFromContext(r.Context())
	if err := h.auth.Logout(r.Context(), accessToken, req.RefreshToken); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, messageResponse{Msg: "Successfully logged out"})
}

// Me handles GET /users/me/
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(currentUser(r)))
}

// Roles handles GET /me/roles
func (h *AuthHandler) Roles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.resolver.RolesOf(r.Context(), currentUser(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	out := make([]RoleInfo, len(roles))
	for i, role := range roles {
		out[i] = RoleInfo{ID: role.ID, Name: role.Name, Description: role.Description, Icon: role.Icon}
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// Menu handles GET /me/menu/{role_id}
func (h *AuthHandler) Menu(w http.ResponseWriter, r *http.Request) {
	roleID, ok := httputil.ParseInt64(w, chi.URLParam(r, "role_id"))
	if !ok {
		return
	}

	menu, err := h.resolver.MenuOf(r.Context(), currentUser(r), roleID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	out := make([]ModuleGroupMenu, len(menu))
	for i, g := range menu {
		modules := make([]ModuleInfo, len(g.Modules))
		for j, m := range g.Modules {
			modules[j] = ModuleInfo{
				ID:          m.ID,
				Name:        m.Name,
				Route:       m.Route,
				Icon:        m.Icon,
				Description: m.Description,
				SortOrder:   m.SortOrder,
			}
		}
		out[i] = ModuleGroupMenu{
			ID:          g.ID,
			Name:        g.Name,
			Description: g.Description,
			Icon:        g.Icon,
			SortOrder:   g.SortOrder,
			Modules:     modules,
		}
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func clientInfo(r *http.Request) domain.ClientInfo {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return domain.ClientInfo{IP: ip, UserAgent: r.UserAgent()}
}
