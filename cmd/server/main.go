package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"rolegate.backend/internal/config"
	"rolegate.backend/internal/infrastructure/jobs"
	"rolegate.backend/internal/infrastructure/lnbits"
	"rolegate.backend/internal/infrastructure/models"
	"rolegate.backend/internal/infrastructure/platform"
	"rolegate.backend/internal/infrastructure/repositories"
	"rolegate.backend/internal/interfaces/http/handlers"
	"rolegate.backend/internal/usecases"
	"rolegate.backend/pkg/jwt"
	"rolegate.backend/pkg/logger"
	"rolegate.backend/pkg/metrics"
	"rolegate.backend/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func openDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true}
	switch cfg.Driver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.PostgresURL()), gormCfg)
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.Path), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Server.Env)
	ctx := context.Background()
	logger.Info(ctx, "logger initialized", zap.String("env", cfg.Server.Env))

	if err := redis.Connect(redis.Options{URL: cfg.Redis.URL, Password: cfg.Redis.Password}); err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer redis.Close()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := db.AutoMigrate(&models.PendingInvoice{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	feedURL, err := cfg.LNBits.WebsocketURL()
	if err != nil {
		return fmt.Errorf("invalid payment feed URL: %w", err)
	}

	invoiceRepo := repositories.NewPendingInvoiceRepository(db)
	lnbitsClient := lnbits.NewClient(cfg.LNBits.URL, cfg.LNBits.APIKey, cfg.LNBits.RequestTimeout)
	platformClient := platform.NewClient(cfg.Platform.APIBaseURL, cfg.Platform.BotToken, cfg.Platform.GuildID)

	granter := usecases.NewGranterUsecase(platformClient, cfg.Platform.RoleID, cfg.Invoice.PriceSats, cfg.Platform.ResolveTimeout)
	invoiceUsecase := usecases.NewInvoiceUsecase(invoiceRepo, lnbitsClient, granter, cfg.Platform.ChannelID)

	jwtService := jwt.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	authHandler := handlers.NewAuthHandler(jwtService, cfg.Auth.AdminPasswordHash)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceUsecase, cfg.Invoice.PriceSats, cfg.Invoice.Memo)

	// Surviving records from a previous run keep their payment watch via the
	// feed; log how many we picked up.
	if restored, err := invoiceRepo.Count(ctx); err == nil && restored > 0 {
		metrics.InvoicesPending.Set(float64(restored))
		logger.Info(ctx, "restored pending invoices from store", zap.Int64("count", restored))
	}

	// Grants run on the root context so records already consumed finish their
	// grant during shutdown; the feed and the sweeper stop with feedCtx.
	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()

	dispatcher := usecases.NewDispatcher(invoiceUsecase, cfg.Invoice.GrantWorkers, cfg.Invoice.QueueSize)
	dispatcher.Start(ctx)

	listener := lnbits.NewListener(feedURL, cfg.Invoice.ReconnectBackoff, dispatcher)
	go listener.Run(feedCtx)

	expiryJob := jobs.NewInvoiceExpiryJob(invoiceRepo, cfg.Invoice.SweepInterval, cfg.Invoice.ExpiryAge)
	go expiryJob.Start(feedCtx)

	r := gin.New()
	r.Use(gin.Recovery())
	registerRoutes(r, routeDeps{
		db:             sqlDB,
		jwtService:     jwtService,
		authHandler:    authHandler,
		invoiceHandler: invoiceHandler,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info(ctx, "shutting down")

		stopFeed()
		expiryJob.Stop()
		// Stop accepting confirmations and let in-flight grants finish.
		dispatcher.Close()

		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info(ctx, "server starting", zap.String("port", cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
