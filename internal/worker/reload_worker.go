package worker

import (
	"context"
	"fmt"
	"time"

	"mastercoin/internal/amqp"
	"mastercoin/internal/backend"
	"mastercoin/internal/log"
	"mastercoin/internal/services"
	"mastercoin/internal/sheets"
)

// Ingester replaces the loaded dataset from a workbook reader.
type Ingester interface {
	Ingest(ctx context.Context, reader sheets.WorkbookReader, source string) (*services.Dataset, error)
}

// ReloadWorker re-ingests the configured workbook on request and on a timer.
type ReloadWorker struct {
	ledger  Ingester
	factory backend.Factory
	config  backend.Config
	logger  *log.Logger
}

func NewReloadWorker(ledger Ingester, factory backend.Factory, config backend.Config, logger *log.Logger) *ReloadWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ReloadWorker{
		ledger:  ledger,
		factory: factory,
		config:  config,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// Reload builds a fresh reader for source and ingests it. An empty source
// means the configured one.
func (w *ReloadWorker) Reload(ctx context.Context, source string) (*services.Dataset, error) {
	cfg := w.config
	if source != "" {
		cfg.Type = backend.SourceType(source)
	}

	reader, err := w.factory.CreateReader(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s reader: %w", cfg.Type, err)
	}

	ds, err := w.ledger.Ingest(ctx, reader, cfg.Type.String())
	if err != nil {
		return nil, fmt.Errorf("reload %s workbook: %w", cfg.Type, err)
	}
	return ds, nil
}

// HandleReloadRequest processes a single reload request from AMQP
func (w *ReloadWorker) HandleReloadRequest(ctx context.Context, req *amqp.ReloadRequest) error {
	w.logger.InfoContext(ctx, "Processing reload request",
		log.FieldSource, req.Source,
		"requested_by", req.RequestedBy,
		"timestamp", req.Timestamp)

	ds, err := w.Reload(ctx, req.Source)
	if err != nil {
		w.logger.ErrorContext(ctx, "Reload request failed",
			log.FieldOperation, log.OpReload,
			log.FieldError, err)
		return err
	}

	w.logger.InfoContext(ctx, "Reload request completed",
		log.FieldDatasetID, ds.Version,
		log.FieldRecordCount, len(ds.Transactions))
	return nil
}

// Run re-ingests the workbook every interval until ctx is cancelled.
// Failures are logged and the previous dataset stays loaded.
func (w *ReloadWorker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.InfoContext(ctx, "Periodic reload started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Periodic reload stopped")
			return
		case <-ticker.C:
			if _, err := w.Reload(ctx, ""); err != nil {
				w.logger.WarnContext(ctx, "Periodic reload failed, keeping current dataset",
					log.FieldError, err)
			}
		}
	}
}
