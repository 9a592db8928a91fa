package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/placehub/placehub/internal/auth"
	"github.com/placehub/placehub/internal/cache"
	"github.com/placehub/placehub/internal/cleanup"
	"github.com/placehub/placehub/internal/config"
	"github.com/placehub/placehub/internal/db"
	"github.com/placehub/placehub/internal/geocode"
	httpx "github.com/placehub/placehub/internal/http"
	"github.com/placehub/placehub/internal/observability"
	"github.com/placehub/placehub/internal/storage"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	if cfg.JWTSecret == "" {
		log.Error("TOKEN_PRIVATE_KEY is not set")
		os.Exit(1)
	}

	// tracing is optional, only wired when an OTLP endpoint is configured
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(context.Background(), "placehub", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()

			if err := shutdownTracer(ctx); err != nil {
				log.Error("tracer shutdown failed", "err", err)
			}
		}()
	}

	// metrics registry
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// database pool plus schema migrations
	migrateCtx, cancelMigrate := config.WithTimeout(30 * time.Second)

	err := db.RunMigrations(migrateCtx, cfg.DBURL)
	cancelMigrate()

	if err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	// image storage backend
	var images storage.Store

	switch cfg.StorageBackend {
	case "minio":
		ctx, cancel := config.WithTimeout(10 * time.Second)

		images, err = storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		cancel()

		if err != nil {
			log.Error("minio storage init failed", "err", err)
			os.Exit(1)
		}

	default:
		images, err = storage.NewDiskStore(cfg.UploadDir)

		if err != nil {
			log.Error("disk storage init failed", "err", err)
			os.Exit(1)
		}
	}

	// list cache, redis when configured and in-memory otherwise
	var listCache cache.Store

	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.CacheTTL)

		if err := rc.Ping(context.Background()); err != nil {
			log.Error("redis connection failed", "err", err)
			os.Exit(1)
		}
		defer rc.Close()

		listCache = rc
	} else {
		listCache = cache.New(cfg.CacheTTL)
	}

	// background removal of orphaned images
	cleaner := cleanup.New(log, images, prom, 64)

	cleanerCtx, stopCleaner := context.WithCancel(context.Background())
	defer stopCleaner()

	go cleaner.Run(cleanerCtx)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	resolver := geocode.NewResolver(cfg.GeocodeAPIKey, cfg.GeocodeBaseURL, prom)

	// set up routers with the log
	router := httpx.NewRouter(httpx.Deps{
		Log:      log,
		Cfg:      cfg,
		Pool:     pool,
		Prom:     prom,
		Registry: reg,
		JWT:      jwtManager,
		Resolver: resolver,
		Images:   images,
		Cleaner:  cleaner,
		Cache:    listCache,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
