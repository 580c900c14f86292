package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dstasiak/shopbot/internal/bot"
	"github.com/dstasiak/shopbot/internal/config"
	"github.com/dstasiak/shopbot/internal/database"
	"github.com/dstasiak/shopbot/internal/handler"
	"github.com/dstasiak/shopbot/internal/middleware"
	"github.com/dstasiak/shopbot/internal/notify"
	"github.com/dstasiak/shopbot/internal/repository"
	"github.com/dstasiak/shopbot/internal/session"
	"github.com/dstasiak/shopbot/internal/transport"
	"github.com/dstasiak/shopbot/internal/worker"
)

// main is the application entrypoint for the storefront bot.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting shopbot")

	// 3. Open the storage backend and apply the schema
	db, err := database.Open(cfg)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Init(context.Background(), db); err != nil {
		log.Error().Err(err).Msg("schema initialization failed")
		fmt.Fprintf(os.Stderr, "schema initialization failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("schema initialized")

	// 4. Session store: Redis when configured, in-memory otherwise
	var sessions session.Store
	if cfg.Redis.Addr != "" {
		redisStore, err := session.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.SessionTTL)
		if err != nil {
			log.Error().Err(err).Msg("redis connection failed")
			fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		sessions = redisStore
		log.Info().Msg("redis session store connected")
	} else {
		sessions = session.NewMemoryStore()
		log.Warn().Msg("using in-memory session store; working memory will not survive restarts")
	}

	// 5. Outbound transport and notification fan-out
	sender := transport.NewHTTPSender(cfg.TransportURL)
	var notifier notify.Notifier = notify.NopNotifier{}
	if len(cfg.AdminIDs) > 0 {
		notifier = notify.NewSenderNotifier(sender, cfg.AdminIDs)
	} else {
		log.Warn().Msg("no ADMIN_IDS configured; order notifications are disabled")
	}

	// 6. Repositories and dispatcher
	stockRepo := repository.NewStockRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	b := bot.New(stockRepo, orderRepo, sessions, sender, notifier, cfg.AdminIDs)

	// 7. HTTP surface
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())

	webhookHandler := handler.NewWebhookHandler(b)
	healthHandler := handler.NewHealthHandler()
	router.POST("/webhook", webhookHandler.HandleUpdate)
	router.GET("/", healthHandler.GetHealth)

	// 8. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 9. Keep-alive worker (hosting platforms that idle the process)
	if cfg.WebhookURL != "" {
		go worker.NewKeepAliveWorker(cfg.WebhookURL, cfg.KeepAliveInterval).Start(ctx)
	}

	// 10. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 11. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
