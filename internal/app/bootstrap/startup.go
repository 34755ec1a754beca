// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	auditstore "github.com/dalemusser/laundrypos/internal/app/store/audit"
	inventorystore "github.com/dalemusser/laundrypos/internal/app/store/inventory"
	"github.com/dalemusser/laundrypos/internal/app/system/auditlog"
	"github.com/dalemusser/laundrypos/internal/app/system/mailer"
	"github.com/dalemusser/laundrypos/internal/app/system/ratelimit"
	"github.com/dalemusser/laundrypos/internal/app/system/tasks"
	"github.com/dalemusser/laundrypos/internal/app/system/timeouts"
	"github.com/dalemusser/laundrypos/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// background is everything Startup brings up that Shutdown must stop.
type background struct {
	mailer    *mailer.Mailer
	audit     *auditlog.Logger
	syncLimit *ratelimit.Limiter
	mailLimit *ratelimit.Limiter
	lowStock  *workers.LowStockAlert
	runner    *tasks.Runner
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It applies
// timeout overrides, builds the mailer and audit logger, and starts the
// background workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts configured from environment",
			zap.Int("count", n),
			zap.Any("timeouts", timeouts.Current()))
	}

	bg := deps.bg
	if bg == nil {
		return errors.New("bootstrap: ConnectDB must run before Startup")
	}

	m, err := mailer.New(mailer.Config{URLs: appCfg.MailURLs, HTML: appCfg.MailHTML}, logger)
	if err != nil {
		logger.Error("mailer init failed", zap.Error(err))
		return err
	}
	bg.mailer = m
	if !m.Configured() {
		logger.Warn("no mail_urls configured; report email and low-stock alerts are disabled")
	}

	bg.audit = auditlog.New(auditstore.New(deps.MongoDatabase), logger, auditlog.Config{
		Changes: appCfg.AuditLogChanges,
		Sync:    appCfg.AuditLogSync,
	})

	bg.syncLimit = ratelimit.New(appCfg.SyncRateLimit, appCfg.SyncRateWindow)
	bg.mailLimit = ratelimit.New(appCfg.EmailRateLimit, appCfg.EmailRateWindow)

	if m.Configured() && appCfg.LowStockInterval > 0 {
		bg.lowStock = workers.NewLowStockAlert(
			inventorystore.New(deps.MongoDatabase), m, logger,
			appCfg.SiteName, appCfg.LowStockInterval)
		bg.lowStock.Start()
	}

	var jobs []tasks.Job
	if appCfg.AuditRetention > 0 {
		jobs = append(jobs, tasks.AuditRetentionJob(auditstore.New(deps.MongoDatabase), logger, appCfg.AuditRetention))
	}
	bg.runner = tasks.NewRunner(logger, jobs...)
	bg.runner.Start()

	logger.Info("startup complete",
		zap.String("site", appCfg.SiteName),
		zap.String("offline_bucket", offlineVersion(appCfg).BucketName()),
		zap.Bool("mail", m.Configured()),
		zap.Bool("low_stock_alerts", bg.lowStock != nil))
	return nil
}
