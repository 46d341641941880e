package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andressep95/realty-core/internal/authz"
	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/handler/middleware"
	"github.com/andressep95/realty-core/internal/repository/memory"
	"github.com/andressep95/realty-core/internal/service"
	"github.com/andressep95/realty-core/pkg/blacklist"
	"github.com/andressep95/realty-core/pkg/hash"
	"github.com/andressep95/realty-core/pkg/jwt"
	"github.com/andressep95/realty-core/pkg/metrics"
	"github.com/andressep95/realty-core/pkg/validator"
)

const testPassword = "correct-horse"

type testServer struct {
	app    *fiber.App
	store  *memory.Store
	tokens *jwt.TokenService
	quota  *service.QuotaService
	hasher *hash.Hasher
}

func newTestServer(t *testing.T, bl *blacklist.TokenBlacklist) *testServer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tokens := jwt.NewTokenServiceFromKeys(key, &key.PublicKey, 15*time.Minute, "realty-core")

	hasher, err := hash.NewHasher(hash.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)

	store := memory.NewStore()
	resolver := authz.NewResolver(authz.DefaultCatalog())
	log := zap.NewNop()
	m := metrics.New("realty-core-test")
	validate := validator.NewValidator()

	var (
		accountRevoker service.TokenRevoker
		tokenRevoker   service.AccessTokenRevoker
	)
	if bl != nil {
		accountRevoker = bl
		tokenRevoker = bl
	}

	quotaService := service.NewQuotaService(store.Accounts(), store.Listings(), store.Leads(), store, m, log)
	accountService := service.NewAccountService(store.Accounts(), store, accountRevoker, time.Hour, hasher, log)
	authService := service.NewAuthService(store.Accounts(), tokens, tokenRevoker, hasher, log)
	listingService := service.NewListingService(store.Listings(), store.Inquiries(), quotaService, resolver)
	leadService := service.NewLeadService(store.Leads(), quotaService, resolver)
	catalogService := service.NewCatalogService(store.Listings())
	inquiryService := service.NewInquiryService(store.Listings(), store.Inquiries(), store.Accounts(), quotaService, nil, m, log)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(middleware.LoggerMiddleware(log))
	app.Use(middleware.RecoveryMiddleware())
	app.Use(middleware.MetricsMiddleware(m))

	SetupRoutes(app, Handlers{
		Auth:    NewAuthHandler(authService, validate),
		Me:      NewMeHandler(accountService, quotaService, resolver),
		Listing: NewListingHandler(listingService, validate),
		Lead:    NewLeadHandler(leadService, validate),
		Company: NewCompanyHandler(accountService, validate),
		Quota:   NewQuotaHandler(quotaService),
		Admin:   NewAdminHandler(accountService, quotaService, validate),
		Public:  NewPublicHandler(catalogService, inquiryService, validate),
		Health: NewHealthHandler("realty-core", map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
		}),
	},
		resolver,
		middleware.AuthMiddleware(tokens, bl),
		adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})),
	)

	return &testServer{app: app, store: store, tokens: tokens, quota: quotaService, hasher: hasher}
}

// seed stores an account directly, with a cheap password hash
func (s *testServer) seed(t *testing.T, accountType domain.AccountType, quota *domain.Quota) *domain.Account {
	t.Helper()

	passwordHash, err := s.hasher.Hash(testPassword)
	require.NoError(t, err)

	owner := accountType == domain.AccountTypeCorporateCompany
	account := &domain.Account{
		ID:             uuid.New(),
		TenantID:       uuid.New(),
		AccountType:    accountType,
		IsCompanyOwner: owner,
		Roles:          domain.DefaultRoles(accountType, owner),
		Email:          uuid.NewString() + "@example.com",
		PasswordHash:   passwordHash,
		FirstName:      "Ana",
		LastName:       "Ruiz",
		IsActive:       true,
		Quota:          domain.InitialQuota(accountType, owner),
	}
	if quota != nil {
		account.Quota = *quota
	}
	require.NoError(t, s.store.Accounts().Create(context.Background(), account))
	return account
}

func (s *testServer) listing(t *testing.T, owner *domain.Account) *domain.Listing {
	t.Helper()
	l, err := s.quota.CreateListing(context.Background(), owner.ID, &domain.Listing{
		Title:             "Two bedroom apartment",
		PropertyType:      "apartment",
		Price:             125000,
		City:              "Santiago",
		Bedrooms:          2,
		IsPubliclyVisible: true,
	})
	require.NoError(t, err)
	return l
}

func (s *testServer) bearer(t *testing.T, account *domain.Account) string {
	t.Helper()
	pair, err := s.tokens.GenerateAccessToken(account)
	require.NoError(t, err)
	return "Bearer " + pair.AccessToken
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, auth string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestHealthReadyAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	status, body = s.do(t, http.MethodGet, "/ready", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"database": "ok"}, body["checks"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "http_requests_total")
}

func TestAuthenticationRequired(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do(t, http.MethodGet, "/api/v1/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "missing authorization header", body["error"])

	status, _ = s.do(t, http.MethodGet, "/api/v1/me", nil, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/me", nil, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPermissionGuards(t *testing.T) {
	s := newTestServer(t, nil)
	buyer := s.seed(t, domain.AccountTypeCustomer, nil)
	broker := s.seed(t, domain.AccountTypeIndividualBroker, nil)

	status, _ := s.do(t, http.MethodPost, "/api/v1/listings", map[string]interface{}{
		"title": "x", "property_type": "house", "price": 1, "city": "Santiago",
	}, s.bearer(t, buyer))
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/admin/accounts", map[string]interface{}{}, s.bearer(t, broker))
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/company/employees", map[string]interface{}{}, s.bearer(t, broker))
	assert.Equal(t, http.StatusForbidden, status)

	status, body := s.do(t, http.MethodGet, "/api/v1/me/permissions", nil, s.bearer(t, broker))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "self", body["scope"])
	assert.Contains(t, body["permissions"], "manage_own_listings")
}

func TestLeadGuards_ViewAllLeadsIsReadOnly(t *testing.T) {
	s := newTestServer(t, nil)
	broker := s.seed(t, domain.AccountTypeIndividualBroker, nil)
	lead, err := s.quota.CreateLead(context.Background(), broker.ID, &domain.Lead{FirstName: "Eva", Email: "eva@example.com"})
	require.NoError(t, err)

	subAdmin := s.seed(t, domain.AccountTypePlatformAdmin, nil)
	subAdmin.Roles = domain.RoleList{domain.RoleSubAdmin}
	auth := s.bearer(t, subAdmin)

	status, _ := s.do(t, http.MethodDelete, "/api/v1/leads/"+lead.ID.String(), nil, auth)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/leads", map[string]interface{}{
		"first_name": "Eva", "email": "eva@example.com",
	}, auth)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/quota/customers", nil, auth)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := s.do(t, http.MethodGet, "/api/v1/leads/"+lead.ID.String(), nil, auth)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, lead.ID.String(), body["id"])

	stored, err := s.store.Leads().GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, broker.ID, stored.OwnerID)

	status, _ = s.do(t, http.MethodDelete, "/api/v1/leads/"+lead.ID.String(), nil, s.bearer(t, broker))
	assert.Equal(t, http.StatusNoContent, status)
}

func TestCreateListing_QuotaExceededIsConflict(t *testing.T) {
	s := newTestServer(t, nil)
	broker := s.seed(t, domain.AccountTypeIndividualBroker, &domain.Quota{MaxActiveListings: 1, MaxCustomers: 1})
	auth := s.bearer(t, broker)

	req := map[string]interface{}{
		"title": "Loft", "property_type": "apartment", "price": 90000, "city": "Valparaiso",
	}

	status, body := s.do(t, http.MethodPost, "/api/v1/listings", req, auth)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "active", body["status"])

	status, body = s.do(t, http.MethodPost, "/api/v1/listings", req, auth)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, float64(1), body["limit"])
	assert.Equal(t, float64(1), body["current"])
	assert.Equal(t, "active listing limit reached: 1 of 1 in use", body["message"])

	status, body = s.do(t, http.MethodGet, "/api/v1/quota/listings", nil, auth)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["allowed"])
}

func TestCreateListing_ValidationIsBadRequest(t *testing.T) {
	s := newTestServer(t, nil)
	broker := s.seed(t, domain.AccountTypeIndividualBroker, nil)

	status, body := s.do(t, http.MethodPost, "/api/v1/listings", map[string]interface{}{"title": "no price", "status": "archived"}, s.bearer(t, broker))
	assert.Equal(t, http.StatusBadRequest, status)
	fields := body["fields"].(map[string]interface{})
	assert.Equal(t, "price must be greater than 0", fields["price"])
	assert.Equal(t, "status must be one of active, pending, sold, withdrawn", fields["status"])
	assert.Contains(t, fields, "city")

	status, body = s.do(t, http.MethodGet, "/api/v1/listings/not-a-uuid", nil, s.bearer(t, broker))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid id", body["error"])
}

func TestGetListing_OutOfScopeIsNotFound(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.seed(t, domain.AccountTypeIndividualBroker, nil)
	b := s.seed(t, domain.AccountTypeIndividualBroker, nil)
	admin := s.seed(t, domain.AccountTypePlatformAdmin, nil)
	listing := s.listing(t, a)

	status, _ := s.do(t, http.MethodGet, "/api/v1/listings/"+listing.ID.String(), nil, s.bearer(t, b))
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodPatch, "/api/v1/listings/"+listing.ID.String()+"/status",
		map[string]string{"status": "sold"}, s.bearer(t, b))
	assert.Equal(t, http.StatusNotFound, status)

	status, body := s.do(t, http.MethodGet, "/api/v1/listings/"+listing.ID.String(), nil, s.bearer(t, admin))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, listing.ID.String(), body["id"])

	status, body = s.do(t, http.MethodPatch, "/api/v1/listings/"+listing.ID.String()+"/status",
		map[string]string{"status": "sold"}, s.bearer(t, a))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "sold", body["status"])
}

func TestPublicCatalogAndInquiry(t *testing.T) {
	s := newTestServer(t, nil)
	broker := s.seed(t, domain.AccountTypeIndividualBroker, &domain.Quota{MaxActiveListings: 5, MaxCustomers: 0})
	listing := s.listing(t, broker)

	status, body := s.do(t, http.MethodGet, "/api/v1/public/listings?city=santiago&min_bedrooms=2", nil, "")
	require.Equal(t, http.StatusOK, status)
	listings := body["listings"].([]interface{})
	require.Len(t, listings, 1)
	projected := listings[0].(map[string]interface{})
	assert.NotContains(t, projected, "tenant_id")
	assert.NotContains(t, projected, "owner_id")
	assert.Equal(t, "Ana Ruiz", projected["broker"].(map[string]interface{})["name"])

	status, _ = s.do(t, http.MethodGet, "/api/v1/public/listings?min_price=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)

	path := "/api/v1/public/listings/" + listing.ID.String() + "/inquiries"
	status, body = s.do(t, http.MethodPost, path, map[string]string{
		"name": "Maria Lopez", "email": "maria@example.com", "message": "Hola",
	}, "")
	assert.Equal(t, http.StatusCreated, status, "inquiries succeed even when the owner cannot take more customers")
	assert.NotContains(t, body, "lead_created")

	status, _ = s.do(t, http.MethodPost, path, map[string]string{"name": "No Email"}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/public/listings/"+uuid.NewString()+"/inquiries", map[string]string{
		"name": "Maria", "email": "maria@example.com",
	}, "")
	assert.Equal(t, http.StatusNotFound, status)

	inquiries, err := s.store.Inquiries().ListByListing(context.Background(), listing.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, inquiries, 1)
}

func TestLoginAndMe(t *testing.T) {
	s := newTestServer(t, nil)
	broker := s.seed(t, domain.AccountTypeIndividualBroker, nil)

	status, body := s.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": broker.Email, "password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, status)
	tokens := body["tokens"].(map[string]interface{})
	auth := "Bearer " + tokens["access_token"].(string)

	status, body = s.do(t, http.MethodGet, "/api/v1/me", nil, auth)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, broker.ID.String(), body["id"])
	assert.NotContains(t, body, "password_hash")

	status, body = s.do(t, http.MethodGet, "/api/v1/me/quota", nil, auth)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(30), body["listings"].(map[string]interface{})["limit"])

	status, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": broker.Email, "password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAdminAccountLifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	bl := blacklist.NewTokenBlacklist(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	s := newTestServer(t, bl)
	admin := s.seed(t, domain.AccountTypePlatformAdmin, nil)
	adminAuth := s.bearer(t, admin)

	broker := s.seed(t, domain.AccountTypeIndividualBroker, nil)
	brokerAuth := s.bearer(t, broker)
	status, _ := s.do(t, http.MethodGet, "/api/v1/me", nil, brokerAuth)
	require.Equal(t, http.StatusOK, status)

	status, body := s.do(t, http.MethodPatch, "/api/v1/admin/accounts/"+broker.ID.String()+"/quota",
		map[string]int{"max_active_listings": 60}, adminAuth)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(60), body["quota"].(map[string]interface{})["max_active_listings"])

	status, _ = s.do(t, http.MethodPost, "/api/v1/admin/accounts/"+broker.ID.String()+"/deactivate", nil, adminAuth)
	require.Equal(t, http.StatusOK, status)

	// tokens issued before the deactivation stop working
	status, body = s.do(t, http.MethodGet, "/api/v1/me", nil, brokerAuth)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "account has been deactivated", body["error"])

	status, _ = s.do(t, http.MethodPost, "/api/v1/admin/accounts/"+uuid.NewString()+"/deactivate", nil, adminAuth)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLogoutRevokesToken(t *testing.T) {
	mr := miniredis.RunT(t)
	bl := blacklist.NewTokenBlacklist(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	s := newTestServer(t, bl)
	broker := s.seed(t, domain.AccountTypeIndividualBroker, nil)
	auth := s.bearer(t, broker)

	status, _ := s.do(t, http.MethodPost, "/api/v1/auth/logout", nil, auth)
	require.Equal(t, http.StatusOK, status)

	status, body := s.do(t, http.MethodGet, "/api/v1/me", nil, auth)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "token has been revoked", body["error"])
}
