package main // Entry point package

import (
	"github.com/joho/godotenv"    // optional .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/villaedu/reserva/internal/config"
	"github.com/villaedu/reserva/internal/engine"
	"github.com/villaedu/reserva/internal/handler"
	"github.com/villaedu/reserva/internal/logger"
	"github.com/villaedu/reserva/internal/model"
	"github.com/villaedu/reserva/internal/router"
	"github.com/villaedu/reserva/internal/store"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine; real deployments use the environment

	cfg := config.Load()
	sync := logger.Init(cfg.Env)
	defer sync()

	rdb := config.NewRedisClient() // may be nil; rate limiting degrades gracefully

	st := buildStore(cfg, rdb)
	eng := engine.NewReservationEngine(st, quotasFromConfig(cfg.Quotas))
	roster := engine.NewRosterEngine(st)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(st, eng, roster, cfg.JWTSecret, cfg.AccessTTLMin), config.LoadRateLimitConfig(), rdb)
	router.RegisterFamily(e, handler.NewFamilyHandler(st, eng), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(st, eng, roster), cfg.JWTSecret)

	addr := ":" + cfg.Port
	zap.S().Infow("listening", "addr", addr, "env", cfg.Env, "store", cfg.StoreBackend)

	if err := e.Start(addr); err != nil {
		zap.S().Fatal(err)
	}
}

// buildStore selects the document store backend from configuration.
func buildStore(cfg config.Config, rdb *redis.Client) store.Store {
	switch cfg.StoreBackend {
	case "github":
		return store.NewGitHubStore(cfg.GitHubToken, cfg.GitHubRepo, cfg.GitHubPath)
	case "mysql":
		st, err := store.OpenMySQL(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			zap.S().Fatalw("mysql store init failed", "err", err)
		}
		return st
	case "redis":
		if rdb == nil {
			zap.S().Fatal("redis store backend selected but redis is unreachable")
		}
		return store.NewRedisStore(rdb, cfg.RedisDocKey)
	default:
		zap.S().Warnw("using in-memory store, data will not survive restarts")
		return store.NewMemoryStore()
	}
}

// quotasFromConfig converts the flat config integers into the engine's
// quota table.
func quotasFromConfig(q config.QuotaConfig) engine.QuotaConfig {
	return engine.QuotaConfig{
		EarlyYears: map[model.Category]int{
			model.CategoryBook: q.EarlyBook,
			model.CategoryGame: q.EarlyGame,
			model.CategoryToy:  q.EarlyToy,
		},
		Primary: map[model.Category]int{
			model.CategoryBook: q.PrimBook,
			model.CategoryGame: q.PrimGame,
			model.CategoryToy:  q.PrimToy,
		},
	}
}
