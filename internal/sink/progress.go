package sink

import (
	"sync"
	"sync/atomic"

	"github.com/Adda-Baaj/kijiji-ledger/internal/domain"
	"github.com/Adda-Baaj/kijiji-ledger/internal/filter"
)

// progress tracks one run's ads until each reaches a terminal state
// (rejected, written or write-failed). It is never shared across runs.
type progress struct {
	total       int64
	outstanding atomic.Int64
	written     atomic.Int64
	failed      atomic.Int64

	mu       sync.Mutex
	rejected map[filter.Reason]int
	rows     []domain.Row

	done     chan struct{}
	doneOnce sync.Once
}

func newProgress(total int) *progress {
	p := &progress{
		total:    int64(total),
		rejected: make(map[filter.Reason]int),
		done:     make(chan struct{}),
	}
	p.outstanding.Store(int64(total))
	if total == 0 {
		p.finish()
	}
	return p
}

func (p *progress) reject(reason filter.Reason) {
	p.mu.Lock()
	p.rejected[reason]++
	p.mu.Unlock()
	p.settle()
}

func (p *progress) wrote(row domain.Row) {
	p.mu.Lock()
	p.rows = append(p.rows, row)
	p.mu.Unlock()
	p.written.Add(1)
	p.settle()
}

func (p *progress) failedWrite() {
	p.failed.Add(1)
	p.settle()
}

func (p *progress) settle() {
	if p.outstanding.Add(-1) == 0 {
		p.finish()
	}
}

func (p *progress) finish() {
	p.doneOnce.Do(func() { close(p.done) })
}

// Done is closed exactly once, when every ad is terminal.
func (p *progress) Done() <-chan struct{} { return p.done }

func (p *progress) report() Report {
	p.mu.Lock()
	defer p.mu.Unlock()

	rejected := make(map[filter.Reason]int, len(p.rejected))
	for k, v := range p.rejected {
		rejected[k] = v
	}
	return Report{
		Total:    int(p.total),
		Written:  int(p.written.Load()),
		Failed:   int(p.failed.Load()),
		Rejected: rejected,
		Rows:     append([]domain.Row(nil), p.rows...),
	}
}
