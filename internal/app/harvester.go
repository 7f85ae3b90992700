package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Adda-Baaj/kijiji-ledger/internal/config"
	"github.com/Adda-Baaj/kijiji-ledger/internal/crawler"
	"github.com/Adda-Baaj/kijiji-ledger/internal/logger"
	"github.com/Adda-Baaj/kijiji-ledger/internal/storage"
	"github.com/Adda-Baaj/kijiji-ledger/pkg/listings"
	"github.com/Adda-Baaj/kijiji-ledger/pkg/publishers"
	"github.com/Adda-Baaj/kijiji-ledger/pkg/sheets"
)

const shutdownTimeout = 10 * time.Second

// Harvester represents the ledger runtime. It serves the HTTP trigger and,
// when an interval is configured, runs ingestion on a ticker. It also owns
// the journal and publisher lifecycles.
type Harvester struct {
	cfg         *config.Config
	pipeline    *Pipeline
	server      *http.Server
	fanout      *publishers.Fanout
	journal     storage.Journal
	runInterval time.Duration
	log         logger.Logger
}

// NewHarvester builds a harvester runtime from config.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sheet, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID: cfg.SpreadsheetKey,
		ClientEmail:   cfg.ClientEmail,
		PrivateKey:    cfg.PrivateKey,
		Endpoint:      cfg.SheetsEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("init sheets client: %w", err)
	}

	sourceReg := listings.DefaultRegistry(
		listings.DefaultHTTPClient(time.Duration(cfg.ListingsTimeoutSeconds)*time.Second),
		listings.KijijiOptions{
			BaseURL:      cfg.ListingsBaseURL,
			UserAgent:    cfg.ListingsUserAgent,
			RequestDelay: time.Duration(cfg.ListingsRequestDelayMs) * time.Millisecond,
		},
		log,
	)
	source, err := sourceReg.SourceFor(cfg.ListingsSource)
	if err != nil {
		return nil, fmt.Errorf("resolve listings source: %w", err)
	}
	log.InfoObj("listings source resolved", "listings_meta", map[string]any{
		"source":     source.Name(),
		"base_url":   cfg.ListingsBaseURL,
		"locations":  cfg.LocationIDs,
		"categories": cfg.CategoryIDs,
	})

	journal, err := storage.NewJournal(cfg.StorageType, cfg.BBoltPath, storage.Options{
		TTL:             cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
		Scope:           JournalScope(cfg.SpreadsheetKey, cfg.SheetIndex),
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"scope":                    JournalScope(cfg.SpreadsheetKey, cfg.SheetIndex),
		"ttl_seconds":              int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		_ = journal.Close()
		return nil, err
	}

	pipeline := NewPipeline(
		NewRunConfig(cfg),
		sheet,
		crawler.NewService(source, log, cfg.FetchConcurrency),
		journal,
		fanout,
		log,
	)

	return &Harvester{
		cfg:         cfg,
		pipeline:    pipeline,
		server:      NewServer(cfg.Port, pipeline, log),
		fanout:      fanout,
		journal:     journal,
		runInterval: cfg.RunInterval,
		log:         log,
	}, nil
}

// JournalScope keys the GUID journal to one worksheet of one spreadsheet.
func JournalScope(spreadsheetKey string, sheetIndex int) string {
	return fmt.Sprintf("%s/%d", spreadsheetKey, sheetIndex)
}

// buildFanout loads optional append-event publishers. No file means no publishers.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultBuilders(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]any, 0, len(enabled))
	for _, pubCfg := range publisherReg.All() {
		summaries = append(summaries, map[string]any{
			"id":      pubCfg.ID,
			"type":    pubCfg.Type,
			"enabled": pubCfg.IsEnabled(),
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"enabled":    len(enabled),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run serves the trigger endpoint and the optional schedule until the context is cancelled.
func (h *Harvester) Run(ctx context.Context) error {
	if h == nil || h.pipeline == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()

	serveErr := make(chan error, 1)
	go func() {
		h.log.InfoObj("trigger server listening", "server_meta", map[string]any{
			"addr": h.server.Addr,
		})
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var tick <-chan time.Time
	if h.runInterval > 0 {
		ticker := time.NewTicker(h.runInterval)
		defer ticker.Stop()
		tick = ticker.C
		h.log.InfoObj("scheduled ingestion enabled", "schedule_meta", map[string]any{
			"run_interval": h.runInterval.String(),
		})
		h.runScheduled(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.log.InfoObj("harvester exiting", "reason", ctx.Err())
			return h.shutdown()
		case err, ok := <-serveErr:
			if ok && err != nil {
				return fmt.Errorf("trigger server: %w", err)
			}
			serveErr = nil
		case <-tick:
			h.runScheduled(ctx)
		}
	}
}

func (h *Harvester) runScheduled(ctx context.Context) {
	if _, err := h.pipeline.Run(ctx); err != nil {
		h.log.ErrorObj("scheduled ingestion failed", "error", err.Error())
	}
}

func (h *Harvester) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := h.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown trigger server: %w", err)
	}
	return nil
}

// close releases the journal and publishers, logging any errors encountered.
func (h *Harvester) close() {
	if h.fanout != nil {
		if err := h.fanout.Close(); err != nil {
			h.log.ErrorObj("publisher close failed", "error", err.Error())
		}
	}
	if h.journal != nil {
		if err := h.journal.Close(); err != nil {
			h.log.ErrorObj("storage close failed", "error", err.Error())
		}
	}
}
