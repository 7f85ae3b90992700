package listings

import (
	"context"

	"github.com/Adda-Baaj/kijiji-ledger/internal/domain"
	"github.com/Adda-Baaj/kijiji-ledger/pkg/httpclient"
)

// Source queries a classifieds site for one location/category search.
type Source interface {
	Name() string
	Query(ctx context.Context, task domain.SearchTask) ([]domain.RawAd, error)
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within listings.
type HTTPClient = httpclient.Client

// Logger defines the logging surface sources rely on.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
