package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lowvoltmgr/lowvolt-backend/api/controllers"
	"github.com/lowvoltmgr/lowvolt-backend/api/middleware"
	"github.com/lowvoltmgr/lowvolt-backend/internal/authz"
	"github.com/lowvoltmgr/lowvolt-backend/internal/dashboard"
	"github.com/lowvoltmgr/lowvolt-backend/internal/importer"
	"github.com/lowvoltmgr/lowvolt-backend/internal/materials"
	"github.com/lowvoltmgr/lowvolt-backend/internal/rooms"
	"github.com/lowvoltmgr/lowvolt-backend/internal/tools"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/config"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/db"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/logger"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/metrics"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	confirmer authz.Confirmer,
	materialsService materials.Service,
	roomsService rooms.Service,
	toolsService tools.Service,
	importService importer.Service,
	dashboardService dashboard.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	pinPolicy := middleware.NewPinRateLimitPolicy(
		"confirm",
		cfg.PinRateLimit.Window,
		cfg.PinRateLimit.IPLimit,
		cfg.PinRateLimit.PinLimit,
	)
	pinLimited := middleware.PinRateLimit(pinPolicy, redisClient, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/materials", func(r chi.Router) {
		r.Get("/", controllers.MaterialsList(materialsService, logg))
		r.Post("/", controllers.MaterialCreate(materialsService, logg))
		r.Get("/lookup", controllers.MaterialLookup(materialsService, logg))
		r.Get("/history", controllers.MaterialsHistory(materialsService, logg))
		r.Route("/{materialId}", func(r chi.Router) {
			r.Delete("/", controllers.MaterialDelete(materialsService, logg))
			r.Post("/receive", controllers.MaterialReceive(materialsService, logg))
			r.Post("/send-to-site", controllers.MaterialSendToSite(materialsService, logg))
			r.Post("/install", controllers.MaterialInstall(materialsService, logg))
			r.With(pinLimited).Post("/audit", controllers.MaterialAuditCorrect(materialsService, confirmer, logg))
		})
	})

	r.Route("/api/v1/rooms", func(r chi.Router) {
		r.Get("/", controllers.RoomsList(roomsService, logg))
		r.Post("/", controllers.RoomCreate(roomsService, logg))
		r.With(pinLimited).Delete("/", controllers.RoomsWipe(roomsService, confirmer, logg))
		r.Get("/fulfillment", controllers.RoomsFulfillment(roomsService, logg))
		r.Get("/export.csv", controllers.RoomsExportCSV(roomsService, logg))
		r.Route("/{roomId}", func(r chi.Router) {
			r.Delete("/", controllers.RoomDelete(roomsService, logg))
			r.Get("/fulfillment", controllers.RoomFulfillment(roomsService, logg))
			r.Post("/quick-deploy", controllers.RoomQuickDeploy(roomsService, logg))
		})
	})

	r.Route("/api/v1/tools", func(r chi.Router) {
		r.Get("/", controllers.ToolsList(toolsService, logg))
		r.Post("/", controllers.ToolCreate(toolsService, logg))
		r.Get("/lookup", controllers.ToolLookup(toolsService, logg))
		r.Get("/history", controllers.ToolsHistory(toolsService, logg))
		r.Post("/audit-sweep", controllers.ToolsAuditSweep(toolsService, logg))
		r.Route("/{toolId}", func(r chi.Router) {
			r.Get("/", controllers.ToolGet(toolsService, logg))
			r.Delete("/", controllers.ToolDelete(toolsService, logg))
			r.Post("/checkout", controllers.ToolCheckout(toolsService, logg))
			r.Post("/checkin", controllers.ToolCheckin(toolsService, logg))
			r.Post("/report-broken", controllers.ToolReportBroken(toolsService, logg))
			r.With(pinLimited).Post("/repair", controllers.ToolRepairComplete(toolsService, confirmer, logg))
			r.With(pinLimited).Post("/force-status", controllers.ToolForceStatus(toolsService, confirmer, logg))
		})
	})

	r.Route("/api/v1/imports", func(r chi.Router) {
		r.Post("/catalog", controllers.ImportCatalog(importService, cfg.Import, logg))
		r.Post("/tracker", controllers.ImportTracker(importService, cfg.Import, logg))
	})

	r.Route("/api/v1/dashboard", func(r chi.Router) {
		r.Get("/stats", controllers.DashboardStats(dashboardService, logg))
	})

	return r
}
