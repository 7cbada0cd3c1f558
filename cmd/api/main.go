package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/reviewplay/campaign-backend/api/routes"
	"github.com/reviewplay/campaign-backend/internal/config"
	"github.com/reviewplay/campaign-backend/internal/handlers"
	"github.com/reviewplay/campaign-backend/internal/repositories"
	mongorepo "github.com/reviewplay/campaign-backend/internal/repositories/mongodb"
	"github.com/reviewplay/campaign-backend/internal/services"
	"github.com/reviewplay/campaign-backend/pkg/mongodb"
	"golang.org/x/exp/slog"
)

func main() {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogger(cfg.LogLevel)

	if config.GetEnvAsBool("GIN_RELEASE", false) {
		gin.SetMode(gin.ReleaseMode)
	}

	mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	var campaignRepo repositories.CampaignRepository = mongorepo.NewCampaignRepository(db)
	var adminUserRepo repositories.AdminUserRepository = mongorepo.NewAdminUserRepository(db)

	stockLedger := services.NewStockLedger()
	codeService := services.NewCodeService()
	drawService := services.NewDrawService(stockLedger, codeService)
	gateService := services.NewGateService(campaignRepo, drawService)
	campaignService := services.NewCampaignService(campaignRepo, codeService)
	authService := services.NewAuthService(adminUserRepo, cfg)

	deps := routes.HandlerDependencies{
		AuthHandler:     handlers.NewAuthHandler(authService),
		CampaignHandler: handlers.NewCampaignHandler(campaignService),
		SessionHandler:  handlers.NewSessionHandler(gateService),
	}

	router := routes.SetupRouter(cfg, deps)

	// Abandoned sessions hold a pending unlock timer each; sweep them.
	cleanupDone := make(chan struct{})
	go func() {
		interval := time.Duration(cfg.Session.CleanupIntervalMinutes) * time.Minute
		maxIdle := time.Duration(cfg.Session.MaxIdleMinutes) * time.Minute
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				gateService.CleanupInactive(maxIdle)
			case <-cleanupDone:
				return
			}
		}
	}()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")
	close(cleanupDone)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	slog.Info("Server exiting")
}

func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
