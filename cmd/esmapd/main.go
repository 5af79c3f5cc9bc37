package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esmap"
	"github.com/kailas-cloud/esmap/internal/config"
	dbRedis "github.com/kailas-cloud/esmap/internal/db/redis"
	logpkg "github.com/kailas-cloud/esmap/internal/logger"
	"github.com/kailas-cloud/esmap/internal/metrics"
	"github.com/kailas-cloud/esmap/internal/repository/record"
	chiTransport "github.com/kailas-cloud/esmap/internal/transport/chi"
	documentuc "github.com/kailas-cloud/esmap/internal/usecase/document"
	healthuc "github.com/kailas-cloud/esmap/internal/usecase/health"
	reindexuc "github.com/kailas-cloud/esmap/internal/usecase/reindex"
	searchuc "github.com/kailas-cloud/esmap/internal/usecase/search"
	"github.com/kailas-cloud/esmap/internal/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println(version.String())
		return
	}

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level, cfg.Elasticsearch.Index)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting esmapd",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("built", version.Date),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("es_addresses", cfg.Elasticsearch.Addresses),
		zap.Bool("record_source", cfg.Source.Enabled()),
	)

	registry, err := buildRegistry(cfg.Mappings)
	if err != nil {
		logger.Fatal("Invalid mappings", zap.Error(err))
	}

	metrics.RegisterDaemonMetrics()
	metrics.SetIndexingDisabled(cfg.Elasticsearch.IndexingDisabled)

	client, err := esmap.New(clientOptions(cfg, registry, logger)...)
	if err != nil {
		logger.Fatal("Failed to connect to Elasticsearch", zap.Error(err))
	}
	defer client.Close()
	logger.Info("Connected to Elasticsearch")

	ctx := logpkg.ContextWithLogger(context.Background(), logger)
	if err := client.EnsureIndex(ctx, cfg.Elasticsearch.RecreateIndex); err != nil {
		logger.Fatal("Failed to prepare index", zap.Error(err))
	}

	var (
		records    documentuc.RecordStore
		sourcePing healthuc.Pinger
		reindexSvc *reindexuc.Service
	)
	if cfg.Source.Enabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Source.Addrs,
			Password: cfg.Source.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create record source", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Elasticsearch.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Record source not ready", zap.Error(err))
		}
		logger.Info("Connected to record source", zap.Strings("addrs", cfg.Source.Addrs))

		repo := record.New(store, cfg.Source.KeyPrefix)
		records = repo
		sourcePing = store
		reindexSvc = reindexuc.New(repo, client, registry).WithMaxBatchSize(cfg.Source.MaxBatchSize)

		if cfg.Source.ReindexOnStart {
			for _, res := range reindexSvc.Run(ctx) {
				if res.Err != nil {
					logger.Fatal("Reindex on start failed", zap.String("doc_type", res.DocType), zap.Error(res.Err))
				}
			}
			if err := client.Refresh(ctx); err != nil {
				logger.Fatal("Refresh after reindex failed", zap.Error(err))
			}
		}
	}

	server := chiTransport.NewServer(
		searchuc.New(client),
		documentuc.New(client, records, registry),
		reindexSvc,
		healthuc.New(client, sourcePing),
		client,
		logger,
	)
	router := chiTransport.NewRouter(server, registry, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildRegistry registers a generic document mapping per configured type.
func buildRegistry(mappings []config.MappingConfig) (*esmap.Registry, error) {
	reg := esmap.NewRegistry()
	for _, mc := range mappings {
		dt, err := mc.DocType()
		if err != nil {
			return nil, err
		}
		if err := esmap.Register(reg, esmap.DocumentMapping(dt.Name, dt.Parent, dt.Fields)); err != nil {
			return nil, fmt.Errorf("register %s: %w", dt.Name, err)
		}
	}
	return reg, nil
}

func clientOptions(cfg config.Config, registry *esmap.Registry, logger *zap.Logger) []esmap.Option {
	es := cfg.Elasticsearch
	opts := []esmap.Option{
		esmap.WithAddresses(es.Addresses...),
		esmap.WithIndex(es.Index),
		esmap.WithIndexSettings(es.Shards, es.Replicas),
		esmap.WithRegistry(registry),
		esmap.WithReadinessTimeout(time.Duration(es.ReadinessTimeout) * time.Second),
		esmap.WithLogger(logger.Named("esmap")),
		esmap.WithPrometheus(prometheus.DefaultRegisterer),
	}
	if es.Username != "" {
		opts = append(opts, esmap.WithBasicAuth(es.Username, es.Password))
	}
	if es.APIKey != "" {
		opts = append(opts, esmap.WithAPIKey(es.APIKey))
	}
	if es.IndexingDisabled {
		opts = append(opts, esmap.WithIndexingDisabled())
	}
	return opts
}
