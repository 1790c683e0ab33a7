package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/artoo-backend/internal/config"
	"github.com/shinyyama/artoo-backend/internal/handler"
	"github.com/shinyyama/artoo-backend/internal/metrics"
	appmw "github.com/shinyyama/artoo-backend/internal/middleware"
	"github.com/shinyyama/artoo-backend/internal/repository"
	"github.com/shinyyama/artoo-backend/internal/service"
	"go.uber.org/zap"
)

type Server struct {
	e *echo.Echo
}

// Deps are the collaborators built by main. Auth may be nil only in tests;
// authenticated routes then see no caller.
type Deps struct {
	Config *config.Config
	Store  repository.Store
	Auth   *appmw.AuthMiddleware
	Logger *zap.Logger
	Now    func() time.Time
	SHA    string
	Build  string
}

func New(d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin,
	}))

	likeSvc := service.NewLikeService(d.Store)
	artworkSvc := service.NewArtworkService(d.Store, likeSvc)
	purchaseSvc := service.NewPurchaseService(d.Store, d.Now, d.Logger)
	noticeSvc := service.NewNoticeService(d.Store, d.Config.EscrowUID, d.Logger)
	displaySvc := service.NewDisplayService(d.Store, d.Now)
	userSvc := service.NewUserService(d.Store)

	artworkHandler := handler.NewArtworkHandler(artworkSvc, likeSvc)
	purchaseHandler := handler.NewPurchaseHandler(purchaseSvc)
	noticeHandler := handler.NewNoticeHandler(noticeSvc, displaySvc)
	var userHandler *handler.UserHandler
	if d.Auth != nil && d.Auth.Client() != nil {
		userHandler = handler.NewUserHandler(userSvc, d.Auth.Client())
	} else {
		userHandler = handler.NewUserHandler(userSvc, nil)
	}

	requireAuth := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if d.Auth != nil {
		requireAuth = d.Auth.RequireAuth
	}
	requireAdmin := appmw.RequireAdmin(d.Config.IsAdmin)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    d.SHA,
			"build_time": d.Build,
		})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := e.Group("/api")
	api.POST("/artworks", artworkHandler.Create, requireAuth)
	api.GET("/artworks/:id", artworkHandler.Get, optionalAuth(d.Auth))
	api.GET("/artworks/:id/delivery-fee", artworkHandler.DeliveryFee)
	api.POST("/artworks/:id/purchase", purchaseHandler.Create, requireAuth)
	api.POST("/artworks/:id/like", artworkHandler.ToggleLike, requireAuth)
	api.GET("/artworks/:id/likes", artworkHandler.Likes)

	api.GET("/purchases/:id", purchaseHandler.Get, requireAuth)
	api.POST("/purchases/:id/comment", purchaseHandler.Comment, requireAuth)
	api.POST("/purchases/:id/refund", purchaseHandler.Refund, requireAuth)
	api.POST("/purchases/:id/dispatch", purchaseHandler.Dispatch, requireAuth)
	api.POST("/purchases/:id/receive", purchaseHandler.Receive, requireAuth)
	api.POST("/admin/purchases/:id/confirm-payment", purchaseHandler.ConfirmPayment, requireAuth, requireAdmin)

	api.GET("/me/buys", noticeHandler.Buys, requireAuth)
	api.GET("/me/sells", noticeHandler.Sells, requireAuth)
	api.GET("/me/displays", noticeHandler.Displays, requireAuth)
	api.PUT("/me/profile", userHandler.UpdateProfile, requireAuth)
	api.POST("/displays/:id/apply", noticeHandler.Apply, requireAuth)

	api.GET("/users/:uid/public", userHandler.GetPublic)

	return &Server{e: e}
}

// optionalAuth sets the caller when a valid token is present and lets the
// request through either way.
func optionalAuth(m *appmw.AuthMiddleware) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if m == nil {
			return next
		}
		authed := m.RequireAuth(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}
			return authed(c)
		}
	}
}

func allowOrigin(origin string) (bool, error) {
	low := strings.ToLower(origin)
	if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
		strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
		return true, nil
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false, nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false, nil
	}
	host := u.Hostname()
	if strings.HasSuffix(host, "vercel.app") {
		return true, nil
	}
	return false, nil
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
