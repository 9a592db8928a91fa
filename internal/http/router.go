package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/placehub/placehub/internal/auth"
	"github.com/placehub/placehub/internal/cache"
	"github.com/placehub/placehub/internal/cleanup"
	"github.com/placehub/placehub/internal/config"
	"github.com/placehub/placehub/internal/geocode"
	"github.com/placehub/placehub/internal/http/handlers"
	"github.com/placehub/placehub/internal/http/middlewares"
	"github.com/placehub/placehub/internal/observability"
	"github.com/placehub/placehub/internal/repo/postgres"
	"github.com/placehub/placehub/internal/storage"
)

type Deps struct {
	Log      *slog.Logger
	Cfg      config.Config
	Pool     *pgxpool.Pool
	Prom     *observability.Prom
	Registry *prometheus.Registry
	JWT      *auth.Manager
	Resolver *geocode.Resolver
	Images   storage.Store
	Cleaner  *cleanup.Cleaner
	Cache    cache.Store
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(d.Log))
	r.Use(otelgin.Middleware("placehub"))

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(d.Cfg.MaxBodyBytes))

	// health
	ping := func() error {
		if d.Pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return d.Pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	// images saved on disk are served straight from the upload dir
	if d.Cfg.StorageBackend == "disk" {
		r.Static("/"+d.Cfg.UploadDir, d.Cfg.UploadDir)
	}

	// wire up repositories
	placesRepo := postgres.NewPlacesRepo(d.Pool, d.Prom)
	usersRepo := postgres.NewUsersRepo(d.Pool, d.Prom)

	placesHandler := handlers.NewPlacesHandler(placesRepo, d.Resolver, d.Images, d.Cleaner, d.Cache)
	usersHandler := handlers.NewUsersHandler(usersRepo, d.JWT, d.Images, d.Cleaner, d.Cache)

	authMW := middlewares.NewAuthMiddleware(d.JWT)

	// signup and login do bcrypt work; keep them behind a per-IP limit
	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)

	places := r.Group("/api/places")
	{
		places.GET("", placesHandler.ListPlaces)
		places.GET("/user/:uid", placesHandler.ListPlacesByUser)
		places.GET("/:pid", placesHandler.GetPlaceByID)

		protected := places.Group("", authMW.RequireAuth())
		{
			protected.POST("", placesHandler.CreatePlace)
			protected.PATCH("/:pid", placesHandler.UpdatePlace)
			protected.DELETE("/:pid", placesHandler.DeletePlace)
		}
	}

	users := r.Group("/api/users")
	{
		users.GET("", usersHandler.ListUsers)
		users.POST("/signup", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), usersHandler.SignUp)
		users.POST("/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), usersHandler.Login)
	}

	return r
}
