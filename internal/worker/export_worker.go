package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
)

// Exporter writes a ledger snapshot somewhere outside the process.
type Exporter interface {
	Export(ctx context.Context, v ledger.View) error
}

// ExportWorker mirrors the persisted ledger to an Exporter. It reloads the
// stores on every run, so it can live in a separate process from the API.
type ExportWorker struct {
	store    store.Store
	exporter Exporter
	logger   *slog.Logger

	mu           sync.Mutex
	lastExported time.Time
}

func NewExportWorker(st store.Store, exporter Exporter, logger *slog.Logger) *ExportWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportWorker{store: st, exporter: exporter, logger: logger}
}

// affectsExport reports whether an event touches data present in the export.
func affectsExport(storeName string) bool {
	return storeName == store.KeyExpenses || storeName == store.KeyBudgetSavings
}

// HandleLedgerEvent processes a single change event from AMQP.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		applog.FieldEventType, string(event.Type),
		applog.FieldStore, event.Store,
		applog.FieldRecordID, event.ID)

	if !affectsExport(event.Store) {
		w.logger.DebugContext(ctx, "Event does not affect export, skipping", applog.FieldStore, event.Store)
		return nil
	}

	// A full export already reflects every change made before it started.
	w.mu.Lock()
	stale := !event.Timestamp.IsZero() && event.Timestamp.Before(w.lastExported)
	w.mu.Unlock()
	if stale {
		w.logger.DebugContext(ctx, "Event predates last export, skipping",
			applog.FieldEventType, string(event.Type))
		return nil
	}

	if err := w.ExportNow(ctx); err != nil {
		return fmt.Errorf("export after %s: %w", event.Type, err)
	}
	return nil
}

// ExportNow reloads the ledger and exports it.
func (w *ExportWorker) ExportNow(ctx context.Context) error {
	started := time.Now()

	l := ledger.New(w.store, ledger.WithLogger(w.logger))
	if err := l.Load(ctx); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	v := l.View()
	if err := w.exporter.Export(ctx, v); err != nil {
		return err
	}

	w.mu.Lock()
	w.lastExported = started
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Export completed",
		applog.FieldOperation, applog.OpExport,
		"expenses", len(v.Expenses),
		"duration_ms", time.Since(started).Milliseconds())
	return nil
}

// Run exports at startup and then every interval until ctx is done. This
// covers events lost while the worker was down.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) {
	if err := w.ExportNow(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup export failed", applog.FieldOperation, applog.OpExport, applog.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ExportNow(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic export failed", applog.FieldOperation, applog.OpExport, applog.FieldError, err)
			}
		}
	}
}
