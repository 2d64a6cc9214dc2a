// Command mockbackend runs the in-memory development backend the widget can
// chat against.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"ai-character-chat/widget/mockapi"
	"ai-character-chat/widget/pkg/config"
	"ai-character-chat/widget/pkg/logger"
	"ai-character-chat/widget/shared/observability"
)

func main() {
	godotenv.Load()

	cfg := config.New()

	logConfig := logger.Config{
		Level: cfg.Logging.Level,
		JSON:  cfg.Logging.Format == "json",
	}
	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("starting mock backend", "port", cfg.Mock.Port)

	shutdownTracing, err := observability.SetupTracing("character-chat-mockbackend")
	if err != nil {
		log.LogError(err, "failed to initialize tracing")
		os.Exit(1)
	}
	if _, err := observability.SetupMetrics(); err != nil {
		log.LogError(err, "failed to initialize metrics")
		os.Exit(1)
	}

	characters, err := mockapi.LoadCharacters(cfg.Mock.FixturesPath)
	if err != nil {
		log.LogError(err, "failed to load character fixtures")
		os.Exit(1)
	}
	log.Info("catalog loaded", "characters", len(characters))

	if os.Getenv("APP_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := mockapi.NewRouter(mockapi.NewStore(characters), log, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Mock.Port,
		Handler: router.Engine,
	}

	go func() {
		log.Info("server starting", "port", cfg.Mock.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "server failed to start")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "server forced to shutdown")
	}
	if err := shutdownTracing(ctx); err != nil {
		log.LogError(err, "trace shutdown failed")
	}
	log.Info("server exited")
}
