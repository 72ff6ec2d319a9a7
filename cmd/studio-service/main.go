package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/tunelab-ai/studio/pkg/api"
	"github.com/tunelab-ai/studio/pkg/auth"
	"github.com/tunelab-ai/studio/pkg/catalog"
	"github.com/tunelab-ai/studio/pkg/common/config"
	"github.com/tunelab-ai/studio/pkg/common/database"
	"github.com/tunelab-ai/studio/pkg/common/httpclient"
	"github.com/tunelab-ai/studio/pkg/common/kafka"
	"github.com/tunelab-ai/studio/pkg/common/logger"
	"github.com/tunelab-ai/studio/pkg/observability/metrics"
	"github.com/tunelab-ai/studio/pkg/studio"
	"github.com/tunelab-ai/studio/pkg/trainer"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to connect to database")
	}

	studioRepo := studio.NewRepository(db)
	if err := studioRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("Failed to migrate studio tables")
	}

	catalogRepo := catalog.NewRepository(db)
	if err := catalogRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("Failed to migrate catalog tables")
	}

	modelCatalog, err := catalog.Load(cfg.ModelCatalogPath, catalog.DefaultModelCatalog())
	if err != nil {
		logger.Log.WithError(err).Warn("Falling back to built-in model catalog")
	}
	datasetCatalog, err := catalog.Load(cfg.DatasetCatalogPath, catalog.DefaultDatasetCatalog())
	if err != nil {
		logger.Log.WithError(err).Warn("Falling back to built-in dataset catalog")
	}
	catalogs := catalog.NewService(modelCatalog, datasetCatalog, catalogRepo, database.GetRedis(), cfg.CatalogCacheTTL)

	producer := kafka.NewProducer(cfg.StudioEventTopic)
	defer producer.Close()

	trainerClient := trainer.NewClient(httpclient.New(cfg.TrainerRequestTimeout), cfg.TrainerBaseURL)

	jwtManager, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, 24*time.Hour)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize token validation")
	}

	var oidc *auth.OIDCAuthenticator
	if cfg.OIDCIssuer != "" {
		oidc, err = auth.NewOIDCAuthenticator(cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, "")
		if err != nil {
			logger.Log.WithError(err).Warn("OIDC configuration invalid, continuing with local tokens only")
		} else {
			logger.Log.WithField("issuer", cfg.OIDCIssuer).Info("OIDC identity provider configured")
		}
	}

	service := studio.NewService(
		studioRepo,
		catalogs,
		trainerClient,
		producer,
		studio.ParseSubmitPolicy(cfg.SubmitPolicy),
		cfg.UploadTickInterval,
	)
	handler := studio.NewHandler(service)

	router := mux.NewRouter()
	router.Use(api.Recovery, api.Logging, api.CORS, api.BodyLimit(cfg.MaxRequestBody))
	router.Use(api.RateLimit(100, 200), api.Identity(jwtManager))
	router.HandleFunc("/health", healthCheck).Methods(http.MethodGet)
	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	if oidc != nil {
		api.NewAuthHandler(oidc).Register(router)
	}

	apiRouter := router.PathPrefix("/api/v1/studio").Subrouter()
	handler.Register(apiRouter)
	catalog.NewHandler(catalogs, catalogRepo).Register(apiRouter)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Studio Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Studio Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	if err := database.ClosePostgres(); err != nil {
		logger.Log.WithError(err).Error("Failed to close database")
	}
	if err := database.CloseRedis(); err != nil {
		logger.Log.WithError(err).Error("Failed to close Redis")
	}

	logger.Log.Info("Studio Service stopped")
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
