package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"commerce/internal/domain/apperr"
	"commerce/internal/domain/models"
	"commerce/internal/lib/logger/sl"
	mw "commerce/internal/middleware"
	"commerce/internal/storage"
	"commerce/internal/transport/http/dto/request"
	"commerce/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (models.Session, error)
	Register(ctx context.Context, username, password string) (models.Session, error)
	Refresh(ctx context.Context, cookieToken string) (models.Session, error)
	Logout(ctx context.Context, cookieToken string) error
}

type CatalogService interface {
	CreateProduct(ctx context.Context, product models.Product) (models.Product, error)
	UpdateProduct(ctx context.Context, product models.Product) (models.Product, error)
	DeleteProduct(ctx context.Context, id int) error
	Product(ctx context.Context, id int) (models.Product, error)
	Products(ctx context.Context, query string, tags []string, includeHidden bool) ([]models.Product, error)
}

type UserService interface {
	UserByID(ctx context.Context, id int) (models.User, error)
}

type Routers struct {
	log        *slog.Logger
	Auth       AuthService
	Catalog    CatalogService
	Users      UserService
	refreshTTL time.Duration
}

func NewRouter(log *slog.Logger, auth AuthService, catalog CatalogService, users UserService, refreshTTL time.Duration) *Routers {
	return &Routers{
		log:        log,
		Auth:       auth,
		Catalog:    catalog,
		Users:      users,
		refreshTTL: refreshTTL,
	}
}

// ErrorHandler renders every error through the taxonomy envelope. Echo's
// own HTTP errors (unknown routes, bind failures) keep their status and
// get a code derived from it.
func (r *Routers) ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var status int
	var body response.ErrorResponse

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		status = echoErr.Code
		body = response.ErrorResponse{
			Code:    strings.ReplaceAll(strings.ToUpper(http.StatusText(echoErr.Code)), " ", "_"),
			Message: fmt.Sprint(echoErr.Message),
		}
	} else {
		status, body = response.FromError(err)
	}

	if status == http.StatusInternalServerError {
		r.log.Error("request failed", sl.Err(err))
	}

	if err := c.JSON(status, body); err != nil {
		r.log.Error("failed to write error response", sl.Err(err))
	}
}

func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	var req request.LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.ErrInvalidCredentials
	}
	if err := c.Validate(req); err != nil {
		r.log.Warn("invalid login payload", slog.String("op", op), sl.Err(err))
		return apperr.ErrInvalidCredentials
	}

	session, err := r.Auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	c.SetCookie(RefreshCookie(session.RefreshToken, r.refreshTTL))

	return c.JSON(http.StatusOK, response.NewAuthResponse(session))
}

func (r *Routers) Signup(c echo.Context) error {
	const op = "http.routers.Signup"

	var req request.SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(req); err != nil {
		r.log.Warn("invalid signup payload", slog.String("op", op), sl.Err(err))
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	session, err := r.Auth.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	c.SetCookie(RefreshCookie(session.RefreshToken, r.refreshTTL))

	return c.JSON(http.StatusCreated, response.NewAuthResponse(session))
}

// RefreshToken exchanges the refresh cookie for a fresh access token. The
// cookie itself is left alone on success (the same refresh token remains
// valid) and cleared when the session turned out to be dead.
func (r *Routers) RefreshToken(c echo.Context) error {
	token := r.refreshCookieValue(c)

	session, err := r.Auth.Refresh(c.Request().Context(), token)
	if err != nil {
		return err
	}

	if session.ClearCookie {
		c.SetCookie(ClearRefreshCookie())
	}

	return c.JSON(http.StatusOK, response.NewAuthResponse(session))
}

// Logout revokes the session and clears the cookie. Always 204: logging
// out twice is not an error.
func (r *Routers) Logout(c echo.Context) error {
	if err := r.Auth.Logout(c.Request().Context(), r.refreshCookieValue(c)); err != nil {
		return err
	}

	c.SetCookie(ClearRefreshCookie())

	return c.NoContent(http.StatusNoContent)
}

func (r *Routers) refreshCookieValue(c echo.Context) string {
	cookie, err := c.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (r *Routers) ListProducts(c echo.Context) error {
	products, err := r.Catalog.Products(c.Request().Context(), c.QueryParam("query"), queryTags(c), false)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, products)
}

// ListAllProducts is the admin listing: hidden products included.
func (r *Routers) ListAllProducts(c echo.Context) error {
	products, err := r.Catalog.Products(c.Request().Context(), c.QueryParam("query"), queryTags(c), true)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, products)
}

func (r *Routers) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	product, err := r.Catalog.Product(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}

func (r *Routers) CreateProduct(c echo.Context) error {
	var req request.ProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	product, err := r.Catalog.CreateProduct(c.Request().Context(), req.ToModel(0))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, product)
}

func (r *Routers) UpdateProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var req request.ProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	product, err := r.Catalog.UpdateProduct(c.Request().Context(), req.ToModel(id))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}

func (r *Routers) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	if err := r.Catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Me returns the stored profile of the authenticated caller.
func (r *Routers) Me(c echo.Context) error {
	identity, ok := mw.Identity(c)
	if !ok {
		return apperr.ErrUnauthorized
	}

	user, err := r.Users.UserByID(c.Request().Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.ErrUserNotFound.With(map[string]string{"id": strconv.Itoa(identity.UserID)})
		}
		return err
	}

	return c.JSON(http.StatusOK, user)
}

func queryTags(c echo.Context) []string {
	raw := c.QueryParam("tags")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
