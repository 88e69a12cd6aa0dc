package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/opsicle/seatkeep/internal/config"
	"github.com/opsicle/seatkeep/internal/handler"
	"github.com/opsicle/seatkeep/internal/middleware"
)

// Dependencies bundles every handler this service registers routes for.
type Dependencies struct {
	Auth      *handler.AuthHandler
	Booking   *handler.BookingHandler
	Waitlist  *handler.WaitlistHandler
	Inventory *handler.InventoryHandler
	Tour      *handler.TourHandler
	Departure *handler.DepartureHandler
	Readiness *handler.ReadinessHandler
}

// RegisterRoutes wires every endpoint behind the appropriate middleware:
// rate limiting and response caching globally (both no-ops when Redis is
// unavailable), JWT auth plus role checks on operator-only routes.
func RegisterRoutes(e *echo.Echo, cfg config.Config, rdb *redis.Client, deps Dependencies) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", deps.Readiness.Ready)

	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	e.Use(rateLimit, cache)

	auth := e.Group("/v1/auth")
	auth.POST("/register", deps.Auth.Register)
	auth.POST("/login", deps.Auth.Login)
	auth.POST("/refresh", deps.Auth.Refresh)
	auth.POST("/logout", deps.Auth.Logout)
	auth.GET("/me", deps.Auth.Me, middleware.JWTAuth(cfg.JWTSecret))

	e.GET("/v1/tours/:id", deps.Tour.Get)
	e.GET("/v1/departures/:id", deps.Departure.Get)

	bk := e.Group("/v1/booking")
	bk.POST("/hold", deps.Booking.CreateHold)
	bk.POST("/confirm", deps.Booking.Confirm)
	bk.POST("/cancel", deps.Booking.Cancel)
	bk.GET("/:id", deps.Booking.Get)

	wl := e.Group("/v1/waitlist")
	wl.POST("/join", deps.Waitlist.Join)
	wl.POST("/notify", deps.Waitlist.Notify)

	inv := e.Group("/v1/inventory", middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole("ADMIN", "OPERATOR"))
	inv.POST("/adjust", deps.Inventory.Adjust)
}
