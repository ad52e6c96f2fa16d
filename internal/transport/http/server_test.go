package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"commerce/internal/domain/apperr"
	"commerce/internal/domain/models"
	httptransport "commerce/internal/transport/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testValidator struct {
	validate *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (models.Session, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(models.Session), args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, username, password string) (models.Session, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(models.Session), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, cookieToken string) (models.Session, error) {
	args := m.Called(ctx, cookieToken)
	return args.Get(0).(models.Session), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, cookieToken string) error {
	args := m.Called(ctx, cookieToken)
	return args.Error(0)
}

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) CreateProduct(ctx context.Context, product models.Product) (models.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *MockCatalogService) UpdateProduct(ctx context.Context, product models.Product) (models.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *MockCatalogService) DeleteProduct(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCatalogService) Product(ctx context.Context, id int) (models.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *MockCatalogService) Products(ctx context.Context, query string, tags []string, includeHidden bool) ([]models.Product, error) {
	args := m.Called(ctx, query, tags, includeHidden)
	return args.Get(0).([]models.Product), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) UserByID(ctx context.Context, id int) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}

const testRefreshTTL = 7 * 24 * time.Hour

func newTestServer(auth *MockAuthService, catalog *MockCatalogService, users *MockUserService) (*echo.Echo, *httptransport.Routers) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	routers := httptransport.NewRouter(log, auth, catalog, users, testRefreshTTL)

	e := echo.New()
	e.Validator = &testValidator{validate: validator.New()}
	e.HTTPErrorHandler = routers.ErrorHandler

	e.POST("/api/auth/login", routers.Login)
	e.POST("/api/auth/signup", routers.Signup)
	e.POST("/api/auth/refresh-token", routers.RefreshToken)
	e.POST("/api/auth/logout", routers.Logout)
	e.GET("/api/products", routers.ListProducts)
	e.GET("/api/products/:id", routers.GetProduct)
	e.POST("/api/products", routers.CreateProduct)

	return e, routers
}

func testSession() models.Session {
	return models.Session{
		AccessToken:  "access-jwt",
		RefreshToken: "refresh-jwt",
		User:         models.User{ID: 1, Username: "alice", Role: models.RoleUser},
	}
}

func refreshCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	res := rec.Result()
	defer res.Body.Close()

	for _, cookie := range res.Cookies() {
		if cookie.Name == httptransport.RefreshCookieName {
			return cookie
		}
	}

	return nil
}

func TestLogin(t *testing.T) {
	t.Run("success sets the refresh cookie", func(t *testing.T) {
		auth := new(MockAuthService)
		auth.On("Login", mock.Anything, "alice", "secret123").Return(testSession(), nil)

		e, _ := newTestServer(auth, new(MockCatalogService), new(MockUserService))

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"username":"alice","password":"secret123"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			AccessToken string      `json:"accessToken"`
			User        models.User `json:"user"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "access-jwt", body.AccessToken)
		assert.Equal(t, "alice", body.User.Username)
		assert.NotContains(t, rec.Body.String(), "refresh-jwt", "refresh token must not leak into the body")

		cookie := refreshCookieFrom(t, rec)
		require.NotNil(t, cookie)
		assert.Equal(t, "refresh-jwt", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, int(testRefreshTTL.Seconds()), cookie.MaxAge)
	})

	t.Run("bad credentials render the taxonomy envelope", func(t *testing.T) {
		auth := new(MockAuthService)
		auth.On("Login", mock.Anything, "alice", "wrongpass").
			Return(models.Session{}, apperr.ErrInvalidCredentials)

		e, _ := newTestServer(auth, new(MockCatalogService), new(MockUserService))

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"username":"alice","password":"wrongpass"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var body struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "INVALID_CREDENTIALS", body.Code)

		assert.Nil(t, refreshCookieFrom(t, rec))
	})
}

func TestSignup(t *testing.T) {
	auth := new(MockAuthService)
	auth.On("Register", mock.Anything, "bob", "secret123").Return(models.Session{
		AccessToken:  "access-jwt",
		RefreshToken: "refresh-jwt",
		User:         models.User{ID: 2, Username: "bob", Role: models.RoleUser},
	}, nil)

	e, _ := newTestServer(auth, new(MockCatalogService), new(MockUserService))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"username":"bob","password":"secret123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, refreshCookieFrom(t, rec))
}

func TestSignup_ShortPasswordRejectedBeforeService(t *testing.T) {
	auth := new(MockAuthService)

	e, _ := newTestServer(auth, new(MockCatalogService), new(MockUserService))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"username":"bob","password":"short"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshToken(t *testing.T) {
	t.Run("missing cookie is passed through as empty", func(t *testing.T) {
		auth := new(MockAuthService)
		auth.On("Refresh", mock.Anything, "").
			Return(models.Session{}, apperr.ErrInvalidCredentials)

		e, _ := newTestServer(auth, new(MockCatalogService), new(MockUserService))

		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh-token", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("live session keeps the cookie untouched", func(t *testing.T) {
		session := testSession()

		auth := new(MockAuthService)
		auth.On("Refresh", mock.Anything, "refresh-jwt").Return(session, nil)

		e, _ := newTestServer(auth, new(MockCatalogService), new(MockUserService))

		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh-token", nil)
		req.AddCookie(&http.Cookie{Name: httptransport.RefreshCookieName, Value: "refresh-jwt"})
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, refreshCookieFrom(t, rec), "no Set-Cookie on a healthy refresh")
	})

	t.Run("dead session clears the cookie but still returns a token", func(t *testing.T) {
		session := testSession()
		session.ClearCookie = true

		auth := new(MockAuthService)
		auth.On("Refresh", mock.Anything, "refresh-jwt").Return(session, nil)

		e, _ := newTestServer(auth, new(MockCatalogService), new(MockUserService))

		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh-token", nil)
		req.AddCookie(&http.Cookie{Name: httptransport.RefreshCookieName, Value: "refresh-jwt"})
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "access-jwt")

		cookie := refreshCookieFrom(t, rec)
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
	})
}

func TestLogout(t *testing.T) {
	auth := new(MockAuthService)
	auth.On("Logout", mock.Anything, "refresh-jwt").Return(nil)

	e, _ := newTestServer(auth, new(MockCatalogService), new(MockUserService))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: httptransport.RefreshCookieName, Value: "refresh-jwt"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)

	cookie := refreshCookieFrom(t, rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
}

func TestGetProduct(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		catalog := new(MockCatalogService)
		catalog.On("Product", mock.Anything, 99).
			Return(models.Product{}, apperr.ErrProductNotFound.With(map[string]string{"id": "99"}))

		e, _ := newTestServer(new(MockAuthService), catalog, new(MockUserService))

		req := httptest.NewRequest(http.MethodGet, "/api/products/99", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "PRODUCT_NOT_FOUND")
		assert.Contains(t, rec.Body.String(), "Product 99 not found")
	})

	t.Run("invalid id", func(t *testing.T) {
		e, _ := newTestServer(new(MockAuthService), new(MockCatalogService), new(MockUserService))

		req := httptest.NewRequest(http.MethodGet, "/api/products/abc", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListProducts_PassesFilters(t *testing.T) {
	catalog := new(MockCatalogService)
	catalog.On("Products", mock.Anything, "milk", []string{"fresh", "dairy"}, false).
		Return([]models.Product{{ID: 1, Name: "Oat Milk"}}, nil)

	e, _ := newTestServer(new(MockAuthService), catalog, new(MockUserService))

	req := httptest.NewRequest(http.MethodGet, "/api/products?query=milk&tags=fresh,dairy", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	catalog.AssertExpectations(t)
}

func TestCreateProduct(t *testing.T) {
	created := models.Product{ID: 5, Name: "Oat Milk"}

	catalog := new(MockCatalogService)
	catalog.On("CreateProduct", mock.Anything, mock.MatchedBy(func(p models.Product) bool {
		return p.ID == 0 && p.Name == "Oat Milk"
	})).Return(created, nil)

	e, _ := newTestServer(new(MockAuthService), catalog, new(MockUserService))

	req := httptest.NewRequest(http.MethodPost, "/api/products",
		strings.NewReader(`{"name":"Oat Milk","variants":[{"variantName":"1L","sku":{"price":3.5,"stockQuantity":10}}]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":5`)
}
