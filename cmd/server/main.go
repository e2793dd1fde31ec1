package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/belgrade-mama-market/internal/config"
	"github.com/iliyamo/belgrade-mama-market/internal/database"
	"github.com/iliyamo/belgrade-mama-market/internal/handler"
	"github.com/iliyamo/belgrade-mama-market/internal/logger"
	"github.com/iliyamo/belgrade-mama-market/internal/metrics"
	"github.com/iliyamo/belgrade-mama-market/internal/middleware"
	"github.com/iliyamo/belgrade-mama-market/internal/queue"
	"github.com/iliyamo/belgrade-mama-market/internal/repository"
	"github.com/iliyamo/belgrade-mama-market/internal/router"
	"github.com/iliyamo/belgrade-mama-market/internal/service"
	"github.com/iliyamo/belgrade-mama-market/internal/storage"
	"github.com/iliyamo/belgrade-mama-market/internal/validation"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("migrate database", zap.Error(err))
		}
		log.Info("migrations applied")
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig(), log)
	if rdb != nil {
		defer rdb.Close()
	}

	storeCfg := config.LoadStorageConfig()
	files, err := storage.New(ctx, storeCfg, log)
	if err != nil {
		log.Fatal("init file storage", zap.Error(err))
	}
	uploadDir := ""
	if ls, ok := files.(*storage.LocalStore); ok {
		uploadDir = ls.Dir()
	}

	m := metrics.New()

	evCfg := config.LoadEventsConfig()
	var events service.EventPublisher = queue.Discard{}
	if evCfg.Enabled {
		events = queue.NewPublisher(evCfg.URL, evCfg.Queue, log)
		if evCfg.ConsumerEnabled {
			consumer := queue.NewConsumer(evCfg.URL, evCfg.Queue, evCfg.LogDir, log)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("order event consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	if cfg.StoreCardNumbers {
		log.Warn("full card numbers are stored in plaintext; set PAYMENT_STORE_CARD_NUMBER=false outside demos")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	listings := repository.NewListingRepo(db)
	photos := repository.NewPhotoRepo(db)
	isos := repository.NewISORepo(db)
	orders := repository.NewOrderRepo(db)

	orderSvc := service.NewOrderService(listings, orders, events, m, log, service.OrderOptions{
		StrictTransitions: cfg.StrictOrderTransitions,
		StoreCardNumbers:  cfg.StoreCardNumbers,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = handler.ErrorHandler(log)

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(m.Middleware())
	e.Use(echomw.SecureWithConfig(echomw.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		ReferrerPolicy:     "no-referrer",
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Limit: "10M",
		// uploads carry their own, larger limit
		Skipper: func(c echo.Context) bool { return strings.HasPrefix(c.Path(), "/upload") },
	}))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))

	cacheCfg := config.LoadCacheConfig()
	router.RegisterRoutes(e, db, m, uploadDir)
	router.RegisterAuth(e,
		handler.NewAuthHandler(cfg, users, tokens, log),
		cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadAuthRateLimitConfig(), rdb, log))
	router.RegisterListings(e, handler.NewListingHandler(listings), cfg.JWTSecret,
		middleware.NewRedisCache(cacheCfg, rdb, log),
		middleware.PurgeOnSuccess(cacheCfg, rdb, log))
	router.RegisterISO(e, handler.NewISOHandler(isos), cfg.JWTSecret)
	router.RegisterOrders(e, handler.NewOrderHandler(orderSvc), cfg.JWTSecret)
	router.RegisterUploads(e,
		handler.NewUploadHandler(files, listings, photos, storeCfg, log),
		cfg.JWTSecret,
		middleware.PurgeOnSuccess(cacheCfg, rdb, log))

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
