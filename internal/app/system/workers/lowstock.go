// internal/app/system/workers/lowstock.go
package workers

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/laundrypos/internal/app/system/mailer"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	"go.uber.org/zap"
)

// StockSource lists the items at or below their reorder level.
type StockSource interface {
	LowStock(ctx context.Context) ([]models.InventoryItem, error)
}

// Notifier delivers an email.
type Notifier interface {
	Send(ctx context.Context, e mailer.Email) error
}

// LowStockAlert is a background worker that emails the manager when items
// run low. It sends again only when the set of low items changes.
type LowStockAlert struct {
	stock    StockSource
	notify   Notifier
	log      *zap.Logger
	siteName string
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup

	// last is the fingerprint of the most recent alert; touched only by run.
	last string
}

// NewLowStockAlert creates a new low-stock alert worker.
//
// Parameters:
//   - stock: the inventory store
//   - notify: where alerts are sent
//   - logger: zap logger for logging
//   - siteName: shown in the email subject
//   - interval: how often to check stock (e.g., 15 minutes)
func NewLowStockAlert(stock StockSource, notify Notifier, logger *zap.Logger, siteName string, interval time.Duration) *LowStockAlert {
	return &LowStockAlert{
		stock:    stock,
		notify:   notify,
		log:      logger,
		siteName: siteName,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background check loop.
func (w *LowStockAlert) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("low stock alert worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *LowStockAlert) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("low stock alert worker stopped")
}

func (w *LowStockAlert) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			w.Check(ctx)
			cancel()
		}
	}
}

// Check runs one pass and reports whether an alert was sent. It is
// exported so the first pass can run at startup.
func (w *LowStockAlert) Check(ctx context.Context) bool {
	items, err := w.stock.LowStock(ctx)
	if err != nil {
		w.log.Error("failed to list low stock", zap.Error(err))
		return false
	}

	fp := fingerprint(items)
	if fp == w.last {
		return false
	}
	if len(items) == 0 {
		// Restocked; the next shortage alerts again.
		w.last = fp
		return false
	}

	lines := make([]mailer.StockLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, mailer.StockLine{
			Name:         it.Name,
			Unit:         it.Unit,
			Quantity:     it.Quantity,
			ReorderLevel: it.ReorderLevel,
		})
	}
	email := mailer.BuildLowStockEmail(mailer.LowStockEmailData{SiteName: w.siteName, Items: lines})
	if err := w.notify.Send(ctx, email); err != nil {
		w.log.Warn("low stock alert not sent", zap.Error(err))
		return false
	}

	w.last = fp
	w.log.Info("low stock alert sent", zap.Int("items", len(items)))
	return true
}

func fingerprint(items []models.InventoryItem) string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID.Hex())
	}
	slices.Sort(ids)
	return strings.Join(ids, ",")
}
