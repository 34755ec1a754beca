// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	auditlogfeature "github.com/dalemusser/laundrypos/internal/app/features/auditlog"
	cloudsyncfeature "github.com/dalemusser/laundrypos/internal/app/features/cloudsync"
	employeesfeature "github.com/dalemusser/laundrypos/internal/app/features/employees"
	errorsfeature "github.com/dalemusser/laundrypos/internal/app/features/errors"
	exportfeature "github.com/dalemusser/laundrypos/internal/app/features/export"
	healthfeature "github.com/dalemusser/laundrypos/internal/app/features/health"
	inventoryfeature "github.com/dalemusser/laundrypos/internal/app/features/inventory"
	metricsfeature "github.com/dalemusser/laundrypos/internal/app/features/metrics"
	pwafeature "github.com/dalemusser/laundrypos/internal/app/features/pwa"
	salesfeature "github.com/dalemusser/laundrypos/internal/app/features/sales"
	timesheetsfeature "github.com/dalemusser/laundrypos/internal/app/features/timesheets"
	"github.com/dalemusser/laundrypos/internal/app/system/offline"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// LaundryPOS serves the installable app shell (manifest, service worker,
// icons) at the root and the JSON API the terminals sync against under /api.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	bg := deps.bg
	if bg == nil || bg.audit == nil {
		return nil, errors.New("bootstrap: Startup must run before BuildHandler")
	}

	version := offlineVersion(appCfg)
	assets, err := offline.NewAssetManifest(appCfg.OfflineAssets...)
	if err != nil {
		return nil, err
	}

	reg := metricsfeature.NewRegistry()
	httpMetrics, err := metricsfeature.NewHTTP(reg)
	if err != nil {
		logger.Error("metrics init failed", zap.Error(err))
		return nil, err
	}

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httpMetrics.Middleware)
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, version.BucketName(), logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", metricsfeature.Handler(reg))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// App shell, web app manifest, service worker and icons
	pwaHandler, err := pwafeature.NewHandler(pwafeature.Config{
		Name:            appCfg.SiteName,
		ShortName:       appCfg.ShortName,
		BackgroundColor: appCfg.BackgroundColor,
		ThemeColor:      appCfg.ThemeColor,
	}, version, assets, logger)
	if err != nil {
		logger.Error("app shell init failed", zap.Error(err))
		return nil, err
	}
	pwafeature.Register(r, pwaHandler)

	db := deps.MongoDatabase

	r.Route("/api", func(api chi.Router) {
		employeesHandler := employeesfeature.NewHandler(db, errLog, bg.audit, logger)
		api.Mount("/employees", employeesfeature.Routes(employeesHandler))

		salesHandler := salesfeature.NewHandler(db, errLog, bg.audit, logger)
		api.Mount("/sales", salesfeature.Routes(salesHandler))

		timesheetsHandler := timesheetsfeature.NewHandler(db, errLog, bg.audit, logger)
		api.Mount("/timesheets", timesheetsfeature.Routes(timesheetsHandler))

		inventoryHandler := inventoryfeature.NewHandler(db, errLog, bg.audit, logger)
		api.Mount("/inventory", inventoryfeature.Routes(inventoryHandler))

		exportHandler := exportfeature.NewHandler(db, bg.mailer, appCfg.SiteName, appCfg.BaseURL, errLog, bg.audit, logger)
		api.Mount("/export", exportfeature.Routes(exportHandler, bg.mailLimit.Middleware))

		syncHandler := cloudsyncfeature.NewHandler(db, errLog, bg.audit, logger)
		api.Mount("/sync", cloudsyncfeature.Routes(syncHandler, bg.syncLimit.Middleware))

		auditHandler := auditlogfeature.NewHandler(db, errLog, logger)
		api.Mount("/audit", auditlogfeature.Routes(auditHandler))
	})

	return r, nil
}
