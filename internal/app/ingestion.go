package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Adda-Baaj/kijiji-ledger/internal/config"
	"github.com/Adda-Baaj/kijiji-ledger/internal/crawler"
	"github.com/Adda-Baaj/kijiji-ledger/internal/domain"
	"github.com/Adda-Baaj/kijiji-ledger/internal/filter"
	"github.com/Adda-Baaj/kijiji-ledger/internal/logger"
	"github.com/Adda-Baaj/kijiji-ledger/internal/sink"
	"github.com/Adda-Baaj/kijiji-ledger/internal/storage"
	"github.com/Adda-Baaj/kijiji-ledger/pkg/publishers"
	"github.com/google/uuid"
)

// Sheet is the spreadsheet collaborator.
type Sheet interface {
	Authenticate(ctx context.Context) error
	storage.CellReader
	sink.Appender
}

// Fetcher retrieves ads for every search task, failing as a whole.
type Fetcher interface {
	FetchAll(ctx context.Context, tasks []domain.SearchTask) ([]domain.RawAd, error)
}

// EventPublisher receives one event per appended row.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// RunConfig is the immutable input of one ingestion run.
type RunConfig struct {
	Locations  []string
	Categories []string
	Price      domain.PriceBounds
	Window     storage.Window
	Filter     filter.Options
	Writer     sink.Options
}

// NewRunConfig derives the run input from loaded configuration.
func NewRunConfig(cfg *config.Config) RunConfig {
	return RunConfig{
		Locations:  append([]string(nil), cfg.LocationIDs...),
		Categories: append([]string(nil), cfg.CategoryIDs...),
		Price:      domain.PriceBounds{Min: cfg.MinPrice, Max: cfg.MaxPrice},
		Window: storage.Window{
			SheetIndex: cfg.SheetIndex,
			MinRow:     1,
			MaxRow:     cfg.SheetGUIDMaxRow,
			Column:     cfg.SheetGUIDColumn,
		},
		Filter: filter.Options{EngineMin: cfg.EngineMin, EngineMax: cfg.EngineMax},
		Writer: sink.Options{
			SheetIndex:      cfg.SheetIndex,
			Concurrency:     cfg.AppendConcurrency,
			DedupeWithinRun: cfg.DedupeWithinRun,
		},
	}
}

// Pipeline runs authenticate -> load keys -> plan -> fetch -> write. Only one
// run executes at a time.
type Pipeline struct {
	rc        RunConfig
	sheet     Sheet
	fetcher   Fetcher
	journal   storage.Journal
	publisher EventPublisher
	log       logger.Logger

	running sync.Mutex
}

// NewPipeline wires a pipeline. journal and publisher may be nil.
func NewPipeline(rc RunConfig, sheet Sheet, fetcher Fetcher, journal storage.Journal, publisher EventPublisher, log logger.Logger) *Pipeline {
	return &Pipeline{
		rc:        rc,
		sheet:     sheet,
		fetcher:   fetcher,
		journal:   journal,
		publisher: publisher,
		log:       logger.Ensure(log),
	}
}

// Run executes one ingestion and returns the number of rows appended.
func (p *Pipeline) Run(ctx context.Context) (int, error) {
	if p == nil || p.sheet == nil || p.fetcher == nil {
		return 0, fmt.Errorf("ingestion pipeline is not initialized")
	}
	if !p.running.TryLock() {
		return 0, domain.ErrRunInProgress
	}
	defer p.running.Unlock()

	runID := uuid.NewString()
	log := logger.WithField(p.log, "run_id", runID)
	start := time.Now()
	rc := p.rc

	if err := p.sheet.Authenticate(ctx); err != nil {
		return 0, fail(log, fmt.Errorf("%w: %w", domain.ErrAuth, err))
	}

	keys, err := storage.LoadKeySet(ctx, p.sheet, rc.Window, p.journal)
	if err != nil {
		return 0, fail(log, err)
	}

	tasks := crawler.Plan(rc.Locations, rc.Categories, rc.Price)
	log.InfoObj("ingestion started", "run_meta", map[string]any{
		"existing_keys": keys.Len(),
		"tasks":         len(tasks),
	})

	ads, err := p.fetcher.FetchAll(ctx, tasks)
	if err != nil {
		return 0, fail(log, err)
	}

	var marker sink.Marker
	if p.journal != nil {
		marker = p.journal
	}
	writer := sink.NewWriter(p.sheet, marker, rc.Writer, log)
	rep, err := writer.WriteAll(ctx, ads, filter.New(keys, rc.Filter).Decide)
	if err != nil {
		return 0, fail(log, err)
	}

	p.publish(ctx, log, runID, rep.Rows)

	log.InfoObj("ingestion completed", "run_result", map[string]any{
		"fetched":    rep.Total,
		"written":    rep.Written,
		"failed":     rep.Failed,
		"rejected":   rep.Rejected,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return rep.Written, nil
}

func fail(log logger.Logger, err error) error {
	log.ErrorObj("ingestion failed", "error", err.Error())
	return err
}

// publish is best-effort; failures never affect the run result.
func (p *Pipeline) publish(ctx context.Context, log logger.Logger, runID string, rows []domain.Row) {
	if p.publisher == nil {
		return
	}
	for _, row := range rows {
		if _, err := p.publisher.Publish(ctx, publishers.NewEvent(runID, row)); err != nil {
			log.WarnObj("append event publish failed", "publish_error", map[string]any{
				"guid":  row.GUID,
				"error": err.Error(),
			})
		}
	}
}
