package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/quiz-service/internal/config"
	"github.com/tutorhub/quiz-service/internal/handlers"
	"github.com/tutorhub/quiz-service/internal/services"
	"github.com/tutorhub/quiz-service/internal/storage"
	"github.com/tutorhub/quiz-service/internal/store"
	"github.com/tutorhub/quiz-service/internal/utils"
	"github.com/tutorhub/quiz-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Load config failed: %v", err)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	substrate, progress, err := buildStorage(cfg)
	if err != nil {
		log.Fatalf("Init storage failed: %v", err)
	}

	quizStore, err := store.NewQuizStore(context.Background(), substrate, slogger)
	if err != nil {
		log.Fatalf("Load quiz store failed: %v", err)
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		log.Fatalf("Init event publisher failed: %v", err)
	}
	defer publisher.Close()

	validator := utils.NewValidator()
	serviceManager := services.NewServiceManager(quizStore, progress, publisher, slogger, validator)
	handlerManager := handlers.NewHandlerManager(serviceManager, validator, logger)

	router := gin.New()
	router.Use(gin.Recovery(), utils.LoggerMiddleware(logger))
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGTERM, os.Interrupt)

	go func() {
		logger.Info("Starting quiz service",
			"port", cfg.Port,
			"storage", cfg.Storage,
			"environment", cfg.Environment)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-shutdown
	logger.Info("Shutting down quiz service")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
}

// buildStorage selects the persistence substrate for quiz documents and
// attempt progress. The postgres backend keeps attempt progress in Redis;
// the documents are the system of record, progress is session state.
func buildStorage(cfg *config.Config) (storage.Substrate, storage.ProgressStore, error) {
	switch cfg.Storage {
	case "memory":
		return storage.NewMemorySubstrate(), storage.NewMemoryProgressStore(), nil

	case "redis":
		client, err := pkg.NewRedisClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewRedisSubstrate(client), storage.NewRedisProgressStore(client), nil

	case "postgres":
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		substrate, err := storage.NewPostgresSubstrate(db)
		if err != nil {
			return nil, nil, err
		}
		client, err := pkg.NewRedisClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		return substrate, storage.NewRedisProgressStore(client), nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}
