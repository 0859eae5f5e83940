package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"furnistore/internal/auth"
	"furnistore/internal/bootstrap"
	"furnistore/internal/config"
	cronpkg "furnistore/internal/cron"
	"furnistore/internal/middleware"
	"furnistore/internal/payment"
	"furnistore/internal/pkg/telegram"
	"furnistore/internal/router"
	"furnistore/internal/service"
	"furnistore/internal/storage"
)

const (
	callbackDedupTTL = 10 * time.Minute
	demoPerCategory  = 6
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.Server.IsDevelopment() {
		if dev, err := zap.NewDevelopment(); err == nil {
			logger = dev
		}
	}

	if hasArg("--bootstrap-db") {
		if err := runDBBootstrap(cfg, logger); err != nil {
			logger.Fatal("Database bootstrap failed", zap.Error(err))
		}
		logger.Info("Database bootstrap completed")
		return
	}
	if hasArg("--seed-demo") {
		if err := runSeedDemo(logger); err != nil {
			logger.Fatal("Demo seed failed", zap.Error(err))
		}
		return
	}
	if email, ok := argValue("--make-admin"); ok {
		if err := runMakeAdmin(email, logger); err != nil {
			logger.Fatal("Make admin failed", zap.Error(err))
		}
		logger.Info("Account promoted to admin", zap.String("email", email))
		return
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database, cfg.Server.IsDevelopment(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.MigrateAndSeed(db, bootstrap.SeedOptions{
		AdminEmail:    cfg.Admin.Email,
		AdminPassword: cfg.Admin.Password,
	}); err != nil {
		logger.Fatal("Failed to bootstrap database schema", zap.Error(err))
	}

	// --- Redis (optional; token revocation and callback dedup fall back to memory) ---
	redisClient, err := config.NewRedis(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory fallback", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// --- Object storage ---
	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	storageDir := ""
	if local, ok := store.(*storage.LocalStorage); ok {
		storageDir = local.Dir()
	}

	// --- Payment gateway ---
	sslcz := cfg.Payment.SSLCommerz
	gateway := payment.NewSSLCommerzGateway(payment.SSLCommerzConfig{
		StoreID:       sslcz.StoreID,
		StorePassword: sslcz.StorePassword,
		Sandbox:       sslcz.Sandbox,
		SuccessURL:    sslcz.SuccessURL,
		FailURL:       sslcz.FailURL,
		CancelURL:     sslcz.CancelURL,
		Timeout:       sslcz.Timeout,
	}, logger)

	// --- Admin notifications ---
	var notifier service.Notifier
	if n := telegram.NewNotifier(cfg.Telegram.Token, cfg.Telegram.AdminChatID, logger); n != nil {
		notifier = n
	} else {
		logger.Info("Telegram notifications disabled (BOT_TOKEN or BOT_ADMIN_CHAT_ID empty)")
	}

	// --- Services ---
	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiry)
	authService := service.NewAuthService(db, tokens, auth.NewTokenBlacklist(redisClient), logger)
	orderService := service.NewOrderService(db, notifier, logger)
	paymentService := service.NewPaymentService(db, gateway, notifier, logger)

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	// --- Routes ---
	router.Setup(e, router.Deps{
		DB:              db,
		Logger:          logger,
		Auth:            authService,
		Orders:          orderService,
		Payments:        paymentService,
		Storage:         store,
		StorageDir:      storageDir,
		CallbackDeduper: middleware.NewCallbackDeduper(redisClient, callbackDedupTTL),
		FrontendURL:     cfg.Server.FrontendURL,
		CORSOrigins:     cfg.CORS.AllowedOrigins,
	})

	// --- Cron Scheduler ---
	scheduler := cronpkg.New(cfg.Cron.ReconcileSpec, sslcz.PendingTTL, paymentService, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start cron scheduler", zap.Error(err))
	}

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting furnistore server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop cron
	ctx := scheduler.Stop()
	<-ctx.Done()

	// Stop HTTP server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func hasArg(name string) bool {
	for _, arg := range os.Args[1:] {
		if arg == name {
			return true
		}
	}
	return false
}

// argValue returns the argument following name.
func argValue(name string) (string, bool) {
	args := os.Args[1:]
	for i, arg := range args {
		if arg == name && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

func openDatabase(logger *zap.Logger) (*gorm.DB, error) {
	dbCfg, err := config.LoadDatabaseOnly()
	if err != nil {
		return nil, err
	}
	return config.NewDatabase(dbCfg, false, logger)
}

func runDBBootstrap(cfg *config.Config, logger *zap.Logger) error {
	db, err := config.NewDatabase(&cfg.Database, false, logger)
	if err != nil {
		return err
	}
	if err := bootstrap.MigrateAndSeed(db, bootstrap.SeedOptions{
		AdminEmail:    cfg.Admin.Email,
		AdminPassword: cfg.Admin.Password,
	}); err != nil {
		return err
	}
	logger.Info("Schema migration and default seed completed")
	return nil
}

func runSeedDemo(logger *zap.Logger) error {
	db, err := openDatabase(logger)
	if err != nil {
		return err
	}
	if err := bootstrap.Migrate(db); err != nil {
		return err
	}
	created, err := bootstrap.SeedDemo(db, uint64(time.Now().UnixNano()), demoPerCategory)
	if err != nil {
		return err
	}
	logger.Info("Demo catalogue seeded", zap.Int("products", created))
	return nil
}

func runMakeAdmin(email string, logger *zap.Logger) error {
	db, err := openDatabase(logger)
	if err != nil {
		return err
	}
	svc := service.NewAuthService(db, nil, nil, logger)
	return svc.MakeAdmin(context.Background(), email)
}
