package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docify/app/config"
	"docify/app/usecase"
	"docify/internal/domain/repository"
	"docify/internal/infrastructure/docsapi"
	"docify/internal/infrastructure/llm"
	"docify/internal/infrastructure/metrics"
	"docify/internal/infrastructure/store/memory"
	mongorepo "docify/internal/infrastructure/store/mongodb"
	"docify/internal/infrastructure/transport"
)

func main() {
	// logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// load config
	cfg := loadConfig()

	// Salvage store: Mongo when configured, in-memory otherwise
	var salvage repository.SalvageRepository
	var mongoClient *mongo.Client
	if cfg.Mongo.URI != "" {
		mongoCtx, mongoCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer mongoCancel()
		client, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			logger.Error("mongo connect failed", "err", err)
			log.Fatalf("mongo connect: %v", err)
		}
		if err := client.Ping(mongoCtx, nil); err != nil {
			logger.Error("mongo ping failed", "err", err)
			log.Fatalf("mongo ping: %v", err)
		}
		logger.Info("connected to mongo", "uri", cfg.Mongo.URI)
		mongoClient = client
		salvage = mongorepo.NewMongoResultRepo(client.Database(cfg.Mongo.Database))
	} else {
		logger.Info("no MONGO_URI set, salvaged results kept in memory")
		salvage = memory.NewResultRepo()
	}

	// Collaborators
	generator := llm.NewGeminiGenerator(
		cfg.Gemini.APIKey,
		cfg.Gemini.BaseURL,
		cfg.Gemini.Model,
		cfg.Gemini.MaxOutputTokens,
		cfg.Gemini.Temperature,
		cfg.Gemini.Timeout,
	)

	sa, err := docsapi.LoadServiceAccount(cfg.Docs.ServiceAccountFile)
	if err != nil {
		logger.Error("load service account failed", "err", err)
		log.Fatalf("load service account: %v", err)
	}
	writer := docsapi.NewClient(sa, cfg.Docs.BaseURL, cfg.Docs.Timeout)
	logger.Info("share the target document with the service account", "email", sa.ClientEmail)

	// Usecase
	docsService := usecase.NewDocumentationService(generator, writer, salvage, cfg.Docs.DocID, logger)

	// Transport (HTTP handlers)
	handler := transport.NewDocifyHandler(docsService, logger)

	// Router and server
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      corsHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting metrics server on :2112")
		metrics.StartMetricsServer()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		logger.Info("starting HTTP server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "err", err)
			cancel()
		}
	}()

	// OS signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}

	if mongoClient != nil {
		logger.Info("disconnecting mongo")
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			logger.Error("mongo disconnect error", "err", err)
		}
	}

	logger.Info("service stopped")
}

func loadConfig() *config.Config {
	cfg := &config.Config{
		Server: config.Server{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  2 * time.Minute,
			WriteTimeout: 2 * time.Minute,
		},
		Gemini: config.Gemini{
			APIKey:          getEnv("GEMINI_API_KEY", ""),
			BaseURL:         getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			Model:           getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			MaxOutputTokens: getEnvInt("GEMINI_MAX_OUTPUT_TOKENS", 2048),
			Temperature:     getEnvFloat("GEMINI_TEMPERATURE", 0.3),
			Timeout:         getEnvDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		Docs: config.Docs{
			ServiceAccountFile: getEnv("SERVICE_ACCOUNT_FILE", ""),
			DocID:              getEnv("DOC_ID", ""),
			BaseURL:            getEnv("DOCS_BASE_URL", ""),
			Timeout:            getEnvDuration("DOCS_TIMEOUT", 30*time.Second),
		},
		Mongo: config.Mongo{
			URI:      getEnv("MONGO_URI", ""),
			Database: getEnv("MONGO_DB", "docify"),
		},
	}

	if cfg.Gemini.APIKey == "" {
		log.Fatal("GEMINI_API_KEY env variable is required")
	}
	if cfg.Docs.ServiceAccountFile == "" {
		log.Fatal("SERVICE_ACCOUNT_FILE env variable is required")
	}
	if cfg.Docs.DocID == "" {
		log.Fatal("DOC_ID env variable is required")
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
