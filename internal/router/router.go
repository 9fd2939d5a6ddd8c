package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/villaedu/reserva/internal/config"
	"github.com/villaedu/reserva/internal/handler"    // import the handlers that implement business logic
	"github.com/villaedu/reserva/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/villaedu/reserva/internal/utils"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the two login endpoints.  Neither requires an
// existing session.  The admin login is the one surface worth brute
// forcing, so it alone carries the redis token bucket; with no redis
// available the limiter is a pass-through.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1/auth")
	g.POST("/family", a.FamilyLogin)
	g.POST("/admin", a.AdminLogin, middleware.NewTokenBucket(rlCfg, rdb))
}

// RegisterFamily registers the family-facing endpoints under /v1.  Every
// route requires a valid token; cancel additionally accepts an admin
// token for the override path, which is why both roles are allowed on
// this group and the holder check lives in the engine.
func RegisterFamily(e *echo.Echo, f *handler.FamilyHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(utils.RoleFamily, utils.RoleAdmin))
	g.GET("/items", f.ListItems)
	g.POST("/items/:id/reserve", f.Reserve)
	g.POST("/items/:id/cancel", f.Cancel)
	g.GET("/me/reservations", f.MyReservations)
}

// RegisterAdmin registers the administrative endpoints under /v1/admin,
// restricted to the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(utils.RoleAdmin))

	g.GET("/items", a.ListItems)
	g.POST("/items", a.AddItems)
	g.PATCH("/items/:id", a.UpdateItem)
	g.DELETE("/items/:id", a.DeleteItem)

	g.GET("/reservations", a.ListReservations)
	g.GET("/reports", a.Stats)
	g.GET("/reports/export", a.ExportReservations)

	g.GET("/students", a.ListStudents)
	g.POST("/students", a.AddStudent)
	g.DELETE("/students", a.DeleteStudent)
	g.POST("/students/import", a.ImportStudents)

	g.PUT("/secret", a.RotateSecret)
}
