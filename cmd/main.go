package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-service/api"
	"portfolio-service/auth"
	"portfolio-service/config"
	"portfolio-service/events"
	"portfolio-service/logger"
	"portfolio-service/metrics"
	"portfolio-service/notifier"
	"portfolio-service/repository"
	"portfolio-service/store"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logg := logger.New(cfg)
	metrics.Init("portfolio-service", version, cfg.Env)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw := store.New(cfg.MongoURI, cfg.MongoDatabase,
		store.WithConnectTimeout(cfg.MongoConnectTimeout),
		store.WithLogger(logg),
	)
	articles := repository.NewArticleRepository(gw)
	projects := repository.NewProjectRepository(gw)
	gw.OnConnect(articles.EnsureIndexes)
	gw.OnConnect(projects.EnsureIndexes)

	// Serve immediately; the first request after a failed warmup dials again.
	go func() {
		if err := gw.Warm(ctx, cfg.StoreWarmupMaxElapse); err != nil && ctx.Err() == nil {
			logg.Warn("MongoDB still unreachable after %v, requests will retry: %v", cfg.StoreWarmupMaxElapse, err)
		}
	}()

	var publisher events.Publisher = events.Nop{}
	if cfg.NATSUrl != "" {
		p, err := events.NewNATSPublisher(cfg.NATSUrl, cfg.NATSSubjectPrefix, logg)
		if err != nil {
			logg.Warn("Content events disabled: %v", err)
		} else {
			logg.Info("Publishing content events to %s under %q", cfg.NATSUrl, cfg.NATSSubjectPrefix)
			publisher = p
		}
	}

	var loginNotifier notifier.LoginNotifier = notifier.Nop{}
	if cfg.SlackBotToken != "" && cfg.SlackChannelID != "" {
		loginNotifier = notifier.NewSlack(cfg.SlackBotToken, cfg.SlackChannelID, logg)
	}

	router := api.NewRouter(api.Deps{
		Config:   cfg,
		Log:      logg,
		Auth:     auth.NewJWTService(cfg.AdminUsername, cfg.AdminPassword, cfg.SessionSecret, cfg.SessionTTL),
		Articles: articles,
		Projects: projects,
		Store:    gw,
		Events:   publisher,
		Notifier: loginNotifier,
	})
	server := api.NewServer(cfg.Port, router, logg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logg.Error("Server failed: %v", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error("Server forced to shutdown: %v", err)
	}
	if err := gw.Close(shutdownCtx); err != nil {
		logg.Error("Failed to close MongoDB: %v", err)
	}
	publisher.Close()

	logg.Info("Portfolio service stopped")
	if exitCode != 0 {
		stop()
		cancel()
		os.Exit(exitCode)
	}
}
