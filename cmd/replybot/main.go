package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	browseradapter "github.com/ericfisherdev/replybot/internal/adapter/driven/browser"
	openaiadapter "github.com/ericfisherdev/replybot/internal/adapter/driven/openai"
	sqliteadapter "github.com/ericfisherdev/replybot/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/replybot/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/replybot/internal/adapter/driving/web"
	"github.com/ericfisherdev/replybot/internal/application"
	"github.com/ericfisherdev/replybot/internal/config"
	"github.com/ericfisherdev/replybot/internal/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load .env (optional) and configuration (fail fast on invalid values).
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.Setup(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	log.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"default_model", cfg.DefaultModel,
		"reply_period", cfg.ReplyPeriod,
		"load_more_settle", cfg.LoadMoreSettle,
		"cdp_url", cfg.CDPURL,
	)
	if !cfg.HasSecretKey() {
		log.Warn("REPLYBOT_SECRET_KEY not set, the API key cannot be stored or read")
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database opened", "path", db.Path())

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	log.Info("migrations complete")

	// 5. Wire driven adapters.
	settingsStore := sqliteadapter.NewSettingsRepo(db, cfg.SecretKey)
	replyLogStore := sqliteadapter.NewReplyLogRepo(db)
	completions := openaiadapter.NewClient(cfg.OpenAIBaseURL, log)

	browser := browseradapter.NewBrowser(browseradapter.Options{
		CDPURL:        cfg.CDPURL,
		Headless:      cfg.Headless,
		ProfileDir:    cfg.ProfileDir,
		PageURLPrefix: cfg.PageURLPrefix,
		Selectors:     cfg.Selectors,
	}, log)
	defer browser.Close()

	// 6. Application services.
	relaySvc := application.NewRelayService(settingsStore, completions, cfg.DefaultModel, log)
	loop := application.NewAutomationLoop(relaySvc, replyLogStore, application.LoopConfig{
		Period:         cfg.ReplyPeriod,
		LoadMoreSettle: cfg.LoadMoreSettle,
	}, log)
	ctrl := application.NewController(settingsStore, browser, loop, completions, replyLogStore, cfg.DefaultModel, log)

	// 7. Register API and panel routes.
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(ctrl, relaySvc, log))
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(ctrl, cfg.DefaultModel, log))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.ApplyMiddleware(mux, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second, // covers one completion round trip on /reply
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "error", err)
			stop()
		}
	}()

	log.Info("replybot started", "panel", "http://"+cfg.ListenAddr+"/")

	// 8. Wait for shutdown signal.
	<-ctx.Done()
	log.Info("shutting down")

	// 9. Graceful shutdown: drain HTTP, then stop any run before the browser
	// and database close.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", "error", err)
	}
	if err := ctrl.Close(shutdownCtx); err != nil {
		log.Error("auto-reply shutdown error", "error", err)
	}

	log.Info("shutdown complete")
	return nil
}
