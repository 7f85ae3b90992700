// Package sink appends accepted ads to the sheet and tracks run progress.
package sink

import (
	"context"
	"fmt"

	"github.com/Adda-Baaj/kijiji-ledger/internal/domain"
	"github.com/Adda-Baaj/kijiji-ledger/internal/filter"
	"github.com/Adda-Baaj/kijiji-ledger/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Appender appends a single row keyed by column name.
type Appender interface {
	AppendRow(ctx context.Context, sheetIndex int, values map[string]string) error
}

// Marker records appended GUIDs outside the sheet.
type Marker interface {
	Mark(guid string) error
}

// DecideFunc classifies one ad.
type DecideFunc func(domain.RawAd) filter.Decision

// Report summarises a write phase.
type Report struct {
	Total    int
	Written  int
	Failed   int
	Rejected map[filter.Reason]int
	Rows     []domain.Row
}

// RejectedTotal sums rejections across reasons.
func (r Report) RejectedTotal() int {
	n := 0
	for _, v := range r.Rejected {
		n += v
	}
	return n
}

// Options tunes the writer.
type Options struct {
	SheetIndex      int
	Concurrency     int
	DedupeWithinRun bool
}

// Writer dispatches appends without waiting for earlier ones to finish.
type Writer struct {
	appender Appender
	marker   Marker
	opts     Options
	log      logger.Logger
}

// NewWriter builds a writer. marker may be nil.
func NewWriter(appender Appender, marker Marker, opts Options, log logger.Logger) *Writer {
	return &Writer{
		appender: appender,
		marker:   marker,
		opts:     opts,
		log:      logger.Ensure(log),
	}
}

// WriteAll decides every ad, appends the accepted ones concurrently and
// returns once all ads are accounted for. Append failures are logged and
// counted, never returned.
func (w *Writer) WriteAll(ctx context.Context, ads []domain.RawAd, decide DecideFunc) (Report, error) {
	if w == nil || w.appender == nil {
		return Report{}, fmt.Errorf("sink writer is not initialized")
	}
	if decide == nil {
		return Report{}, fmt.Errorf("decide func is nil")
	}

	p := newProgress(len(ads))

	var g errgroup.Group
	if w.opts.Concurrency > 0 {
		g.SetLimit(w.opts.Concurrency)
	}

	var dispatched map[string]struct{}
	if w.opts.DedupeWithinRun {
		dispatched = make(map[string]struct{}, len(ads))
	}

	for _, ad := range ads {
		d := decide(ad)
		if !d.Accepted {
			p.reject(d.Reason)
			continue
		}
		if dispatched != nil {
			if _, dup := dispatched[d.Row.GUID]; dup {
				p.reject(filter.ReasonDuplicate)
				continue
			}
			dispatched[d.Row.GUID] = struct{}{}
		}

		row := d.Row
		g.Go(func() error {
			w.append(ctx, p, row)
			return nil
		})
	}

	<-p.Done()
	_ = g.Wait()

	return p.report(), nil
}

func (w *Writer) append(ctx context.Context, p *progress, row domain.Row) {
	if err := w.appender.AppendRow(ctx, w.opts.SheetIndex, row.Values()); err != nil {
		err = fmt.Errorf("%w: guid %s: %w", domain.ErrWrite, row.GUID, err)
		w.log.WarnObj("row append failed", "append_error", map[string]any{
			"guid":  row.GUID,
			"error": err.Error(),
		})
		p.failedWrite()
		return
	}

	if w.marker != nil {
		if err := w.marker.Mark(row.GUID); err != nil {
			w.log.WarnObj("guid journal mark failed", "journal_error", map[string]any{
				"guid":  row.GUID,
				"error": err.Error(),
			})
		}
	}

	w.log.DebugObj("row appended", "append_result", map[string]any{
		"guid":  row.GUID,
		"title": row.Title,
	})
	p.wrote(row)
}
