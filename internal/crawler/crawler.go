package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/Adda-Baaj/kijiji-ledger/internal/domain"
	"github.com/Adda-Baaj/kijiji-ledger/internal/logger"
	"github.com/Adda-Baaj/kijiji-ledger/pkg/listings"
	"golang.org/x/sync/errgroup"
)

// Service fetches every search task from the listings source in parallel.
type Service struct {
	source      listings.Source
	log         logger.Logger
	concurrency int
}

// NewService wires a crawler to a listings source. concurrency <= 0 runs
// every task at once.
func NewService(source listings.Source, log logger.Logger, concurrency int) *Service {
	return &Service{
		source:      source,
		log:         logger.Ensure(log),
		concurrency: concurrency,
	}
}

// FetchAll runs one query per task and concatenates the results in task
// order. The first failing task fails the whole call and no ads are returned.
func (s *Service) FetchAll(ctx context.Context, tasks []domain.SearchTask) ([]domain.RawAd, error) {
	if s == nil || s.source == nil {
		return nil, fmt.Errorf("crawler service is not initialized")
	}
	if len(tasks) == 0 {
		return nil, nil
	}

	results := make([][]domain.RawAd, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}

	for i, task := range tasks {
		g.Go(func() error {
			ads, err := s.fetch(gctx, task)
			if err != nil {
				return err
			}
			results[i] = ads
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, ads := range results {
		total += len(ads)
	}
	out := make([]domain.RawAd, 0, total)
	for _, ads := range results {
		out = append(out, ads...)
	}
	return out, nil
}

func (s *Service) fetch(ctx context.Context, task domain.SearchTask) ([]domain.RawAd, error) {
	s.log.InfoObj("fetching listings", "search_task", map[string]any{
		"location_id": task.LocationID,
		"category_id": task.CategoryID,
		"source":      s.source.Name(),
	})

	start := time.Now()
	ads, err := s.source.Query(ctx, task)
	if err != nil {
		s.log.ErrorObj("listing fetch failed", "fetch_error", map[string]any{
			"location_id": task.LocationID,
			"category_id": task.CategoryID,
			"error":       err.Error(),
		})
		return nil, fmt.Errorf("%w: location %s category %s: %w", domain.ErrFetch, task.LocationID, task.CategoryID, err)
	}

	s.log.DebugObj("listing fetch completed", "fetch_result", map[string]any{
		"location_id": task.LocationID,
		"category_id": task.CategoryID,
		"ads":         len(ads),
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})
	return ads, nil
}
