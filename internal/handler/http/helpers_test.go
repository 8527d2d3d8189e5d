package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/backoffice/internal/auth"
	"github.com/utafrali/backoffice/internal/domain"
	"github.com/utafrali/backoffice/internal/event"
	"github.com/utafrali/backoffice/internal/service"
	apperrors "github.com/utafrali/backoffice/pkg/errors"
	"github.com/utafrali/backoffice/pkg/health"
	"github.com/utafrali/backoffice/pkg/httputil"
	"github.com/utafrali/backoffice/pkg/logger"
	"github.com/utafrali/backoffice/pkg/middleware"
)

// ============================================================================
// In-memory repositories
// ============================================================================

type memUsers struct {
	mu   sync.Mutex
	byID map[string]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[string]*domain.User)}
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Username == user.Username {
			return apperrors.AlreadyExists("user", "username", user.Username)
		}
		if u.Email == user.Email {
			return apperrors.AlreadyExists("user", "email", user.Email)
		}
	}
	cp := *user
	m.byID[user.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memUsers) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.LastLoginAt = &at
	return nil
}

type memRevocations struct {
	mu      sync.Mutex
	entries map[string]domain.RevokedToken
}

func (m *memRevocations) Revoke(_ context.Context, entry domain.RevokedToken) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.JTI]; ok {
		return false, nil
	}
	m.entries[entry.JTI] = entry
	return true, nil
}

func (m *memRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[jti]
	return ok, nil
}

func (m *memRevocations) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// ============================================================================
// Mock Repositories
// ============================================================================

type mockRoleRepo struct {
	mock.Mock
}

func (m *mockRoleRepo) ListActive(ctx context.Context) ([]domain.Role, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Role), args.Error(1)
}

func (m *mockRoleRepo) ListActiveByUser(ctx context.Context, userID string) ([]domain.Role, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Role), args.Error(1)
}

func (m *mockRoleRepo) GetActive(ctx context.Context, id int64) (*domain.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Role), args.Error(1)
}

func (m *mockRoleRepo) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Role), args.Error(1)
}

func (m *mockRoleRepo) UserHasActiveRole(ctx context.Context, userID string, roleID int64) (bool, error) {
	args := m.Called(ctx, userID, roleID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRoleRepo) AssignToUser(ctx context.Context, userID string, roleID int64) error {
	return m.Called(ctx, userID, roleID).Error(0)
}

func (m *mockRoleRepo) ListMenu(ctx context.Context, roleID int64) ([]domain.MenuGroup, error) {
	args := m.Called(ctx, roleID)
	return args.Get(0).([]domain.MenuGroup), args.Error(1)
}

type mockTaskRepo struct {
	mock.Mock
}

func (m *mockTaskRepo) Create(ctx context.Context, task *domain.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *mockTaskRepo) Update(ctx context.Context, task *domain.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *mockTaskRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTaskRepo) List(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Task), args.Int(1), args.Error(2)
}

type mockCategoryRepo struct {
	mock.Mock
}

func (m *mockCategoryRepo) Create(ctx context.Context, c *domain.ProductCategory) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCategoryRepo) GetByID(ctx context.Context, id string) (*domain.ProductCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductCategory), args.Error(1)
}

func (m *mockCategoryRepo) Update(ctx context.Context, c *domain.ProductCategory) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCategoryRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCategoryRepo) List(ctx context.Context, limit, offset int) ([]domain.ProductCategory, int, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]domain.ProductCategory), args.Int(1), args.Error(2)
}

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) Create(ctx context.Context, p *domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) Update(ctx context.Context, p *domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProductRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProductRepo) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

type mockCustomerRepo struct {
	mock.Mock
}

func (m *mockCustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCustomerRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *mockCustomerRepo) Update(ctx context.Context, c *domain.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCustomerRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCustomerRepo) List(ctx context.Context, limit, offset int) ([]domain.Customer, int, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]domain.Customer), args.Int(1), args.Error(2)
}

// ============================================================================
// Test server
// ============================================================================

const (
	testSecret   = "handler-test-secret-at-least-32-bytes"
	testPassword = "correct-horse"
)

type testServer struct {
	handler    http.Handler
	users      *memUsers
	roles      *mockRoleRepo
	tasks      *mockTaskRepo
	categories *mockCategoryRepo
	products   *mockProductRepo
	customers  *mockCustomerRepo
}

func newTestServer(t *testing.T, loginBurst int) *testServer {
	t.Helper()

	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenManager(testSecret, "backoffice-test", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	events, err := event.NewProducer(event.Discard, event.DefaultBreakerConfig(), reg, logger.Discard())
	require.NoError(t, err)

	ts := &testServer{
		users:      newMemUsers(),
		roles:      new(mockRoleRepo),
		tasks:      new(mockTaskRepo),
		categories: new(mockCategoryRepo),
		products:   new(mockProductRepo),
		customers:  new(mockCustomerRepo),
	}
	revocations := &memRevocations{entries: make(map[string]domain.RevokedToken)}

	l := logger.Discard()
	svc := Services{
		Auth: service.NewAuthService(
			service.NewCredentialStore(ts.users, hasher),
			tokens,
			service.NewRevocationLedger(revocations, nil, l),
			ts.users,
			events,
			service.NewAuthMetrics(reg),
			l,
		),
		Resolver:   service.NewResolver(ts.roles),
		Tasks:      service.NewTaskService(ts.tasks, events, l),
		Categories: service.NewCategoryService(ts.categories, l),
		Products:   service.NewProductService(ts.products, ts.categories, events, l),
		Customers:  service.NewCustomerService(ts.customers, events, l),
	}

	ts.handler = NewRouter(svc, health.NewHandler(), reg, RouterConfig{
		CORS:                middleware.CORSConfig{AllowedOrigins: []string{"*"}},
		LoginRateLimitRPS:   1,
		LoginRateLimitBurst: loginBurst,
	}, l)
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) doJSON(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ts.do(req)
}

func (ts *testServer) login(username, password string) *httptest.ResponseRecorder {
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ts.do(req)
}

// registerAndLogin creates alice through the API and returns her tokens.
func (ts *testServer) registerAndLogin(t *testing.T) TokenResponse {
	t.Helper()

	rec := ts.doJSON(http.MethodPost, "/users/", "",
		`{"username":"alice","email":"alice@example.com","password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.login("alice", testPassword)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[TokenResponse](t, rec)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	resp := decodeBody[httputil.Response](t, rec)
	require.NotNil(t, resp.Error)
	return resp.Error
}
