package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/cache"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/fleet"
	"github.com/ukydev/fleet-maintenance/internal/handlers"
	"github.com/ukydev/fleet-maintenance/internal/ingest"
	"github.com/ukydev/fleet-maintenance/internal/metrics"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.WithError(err).Fatal("Server stopped with error")
	}
}

func run() error {
	cfg := config.Load()
	cfg.ConfigureLogging()
	if cfg.UsesDefaultSecret() {
		log.Warn("JWT_SECRET is not set, using the built-in development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	store := db.NewStore(client.Database(cfg.MongoDB))
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return err
	}
	collector := metrics.NewCollector()
	health := map[string]handlers.Pinger{
		"mongo": handlers.PingerFunc(func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }),
	}

	opts := []fleet.Option{fleet.WithRecorder(collector)}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).WithField("addr", cfg.RedisAddr).Warn("Redis unreachable, fleet summaries will not be cached")
		} else {
			opts = append(opts, fleet.WithCache(cache.NewRedisCache(rdb, cfg.CacheTTL)))
			health["redis"] = handlers.PingerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
			log.WithField("addr", cfg.RedisAddr).Info("Caching fleet summaries in Redis")
		}
	}
	svc := fleet.NewService(store.Equipment, store.Maintenance, store.Schedules, opts...)

	if cfg.MQTTBroker != "" {
		sub := ingest.NewSubscriber(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic, svc)
		if err := sub.Start(); err != nil {
			return err
		}
		defer sub.Stop()
		log.WithFields(log.Fields{"broker": cfg.MQTTBroker, "topic": cfg.MQTTTopic}).Info("Ingesting readings over MQTT")
	}

	limiter := middleware.NewRateLimitMiddleware()
	go pruneLoop(ctx, limiter)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: newRouter(app{
			auth:       authService,
			fleet:      svc,
			users:      store.Users,
			metrics:    collector,
			health:     health,
			limiter:    limiter,
			ratePerMin: cfg.RateLimitPerMin,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Server exited")
	return nil
}

func pruneLoop(ctx context.Context, limiter *middleware.RateLimitMiddleware) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Prune(time.Minute)
		}
	}
}

// app is everything the router needs.
type app struct {
	auth       *auth.Service
	fleet      handlers.FleetService
	users      db.UserCollection
	metrics    *metrics.Collector
	health     map[string]handlers.Pinger
	limiter    *middleware.RateLimitMiddleware
	ratePerMin int
}

func newRouter(a app) http.Handler {
	authHandler := handlers.NewAuthHandler(a.auth, a.users)
	fleetHandler := handlers.NewFleetHandler(a.fleet)
	authMiddleware := middleware.NewAuthMiddleware(a.auth)

	mux := http.NewServeMux()
	// route registers h under pattern, checking action first when one is given.
	route := func(pattern, action string, h http.HandlerFunc) {
		var handler http.Handler = h
		if action != "" {
			handler = authMiddleware.RequirePermission(action)(handler)
		}
		mux.Handle(pattern, a.metrics.Instrument(pattern, handler))
	}

	route("GET /health", "", handlers.Health(a.health))
	mux.Handle("GET /metrics", a.metrics.Handler())

	route("POST /api/auth/register", "", authHandler.Register)
	route("POST /api/auth/login", "", authHandler.Login)
	route("GET /api/auth/profile", "", authHandler.GetProfile)
	route("PUT /api/auth/profile", "", authHandler.UpdateProfile)
	route("POST /api/auth/change-password", "", authHandler.ChangePassword)

	route("GET /api/equipment", models.ActionViewEquipment, fleetHandler.ListEquipment)
	route("POST /api/equipment", models.ActionManageEquipment, fleetHandler.CreateEquipment)
	route("GET /api/equipment/{id}", models.ActionViewEquipment, fleetHandler.GetEquipment)
	route("PUT /api/equipment/{id}", models.ActionManageEquipment, fleetHandler.UpdateEquipment)
	route("DELETE /api/equipment/{id}", models.ActionDeleteEquipment, fleetHandler.DeleteEquipment)

	route("GET /api/equipment/{id}/maintenance", models.ActionViewMaintenance, fleetHandler.ListMaintenance)
	route("POST /api/equipment/{id}/maintenance", models.ActionLogMaintenance, fleetHandler.LogMaintenance)
	route("PUT /api/maintenance/{id}", models.ActionEditMaintenance, fleetHandler.UpdateMaintenance)
	route("DELETE /api/maintenance/{id}", models.ActionEditMaintenance, fleetHandler.DeleteMaintenance)

	route("GET /api/equipment/{id}/schedules", models.ActionViewMaintenance, fleetHandler.ListSchedules)
	route("PUT /api/equipment/{id}/schedules", models.ActionManageSchedules, fleetHandler.SaveSchedules)
	route("DELETE /api/schedules/{id}", models.ActionManageSchedules, fleetHandler.DeleteSchedule)

	route("GET /api/equipment/{id}/templates", models.ActionViewEquipment, fleetHandler.EquipmentTemplates)
	route("GET /api/templates", models.ActionViewEquipment, fleetHandler.TemplatesForType)

	route("GET /api/dashboard/summary", models.ActionViewDashboard, fleetHandler.Summary)

	var handler http.Handler = authMiddleware.Authenticate(mux)
	if a.limiter != nil && a.ratePerMin > 0 {
		handler = a.limiter.RateLimit(a.ratePerMin, time.Minute)(handler)
	}
	return middleware.RequestLogger(handler)
}
