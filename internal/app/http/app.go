package httpapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mw "commerce/internal/middleware"
	httprouters "commerce/internal/transport/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type Server struct {
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	authMW  echo.MiddlewareFunc
	adminMW echo.MiddlewareFunc
	host    string
	port    string
}

func New(log *slog.Logger, host, port string, allowedOrigins []string, routers *httprouters.Routers, authMW, adminMW echo.MiddlewareFunc) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = routers.ErrorHandler

	e.Use(middleware.Recover())

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// The storefront runs on another origin and the refresh token rides a
	// cookie, so credentialed CORS with an explicit origin list.
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote ip", v.RemoteIP),
			)

			return nil
		},
	}))

	e.Use(mw.PrometheusMetrics)

	return &Server{
		log:     log,
		e:       e,
		routers: routers,
		authMW:  authMW,
		adminMW: adminMW,
		host:    host,
		port:    port,
	}
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info("starting http server", slog.String("op", op), slog.String("port", s.port))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(fmt.Sprintf("%s:%s", s.host, s.port)); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	s.log.Info("stopping http server", slog.String("op", op))

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s: could not shutdown server gracefully: %w", op, err)
	}

	return nil
}

func (s *Server) BuildRouters() {
	s.e.GET("/metrics", echoprometheus.NewHandler())

	api := s.e.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/signup", s.routers.Signup)
			authGroup.POST("/login", s.routers.Login)
			authGroup.POST("/refresh-token", s.routers.RefreshToken)
			authGroup.POST("/logout", s.routers.Logout)
		}

		productGroup := api.Group("/products", s.authMW)
		{
			productGroup.GET("", s.routers.ListProducts)
			productGroup.GET("/:id", s.routers.GetProduct)
		}

		userGroup := api.Group("/users", s.authMW)
		{
			userGroup.GET("/me", s.routers.Me)
		}

		adminGroup := api.Group("/admin", s.authMW, s.adminMW)
		{
			adminGroup.GET("/products", s.routers.ListAllProducts)
			adminGroup.POST("/products", s.routers.CreateProduct)
			adminGroup.PUT("/products/:id", s.routers.UpdateProduct)
			adminGroup.DELETE("/products/:id", s.routers.DeleteProduct)
		}
	}
}
