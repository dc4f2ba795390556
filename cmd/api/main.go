package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lowvoltmgr/lowvolt-backend/api/routes"
	"github.com/lowvoltmgr/lowvolt-backend/internal/authz"
	"github.com/lowvoltmgr/lowvolt-backend/internal/dashboard"
	"github.com/lowvoltmgr/lowvolt-backend/internal/importer"
	"github.com/lowvoltmgr/lowvolt-backend/internal/ledger"
	"github.com/lowvoltmgr/lowvolt-backend/internal/materials"
	"github.com/lowvoltmgr/lowvolt-backend/internal/rooms"
	"github.com/lowvoltmgr/lowvolt-backend/internal/tools"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/config"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/db"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/logger"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/metrics"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/migrate"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	confirmer, err := authz.NewStaticPIN(cfg.Admin.PIN)
	if err != nil {
		logg.Error(context.Background(), "failed to create pin confirmer", err)
		os.Exit(1)
	}

	materialRepo := materials.NewRepository(dbClient.DB())
	roomRepo := rooms.NewRepository(dbClient.DB())
	toolRepo := tools.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())

	materialsService, err := materials.NewService(materialRepo, ledgerRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create materials service", err)
		os.Exit(1)
	}

	roomsService, err := rooms.NewService(roomRepo, materialRepo, ledgerRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create rooms service", err)
		os.Exit(1)
	}

	toolsService, err := tools.NewService(toolRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create tools service", err)
		os.Exit(1)
	}

	importService, err := importer.NewService(materialRepo, roomRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create import service", err)
		os.Exit(1)
	}

	dashboardService, err := dashboard.NewService(materialRepo, toolRepo, roomRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			httpMetrics,
			confirmer,
			materialsService,
			roomsService,
			toolsService,
			importService,
			dashboardService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
