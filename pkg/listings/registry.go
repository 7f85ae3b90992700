package listings

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/kijiji-ledger/pkg/httpclient"
)

// Registry resolves a listings source by name.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry builds a registry keyed by each source's Name.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: make(map[string]Source)}
	for _, s := range sources {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a source.
func (r *Registry) Register(s Source) {
	if s == nil {
		return
	}
	key := strings.ToLower(strings.TrimSpace(s.Name()))
	if key == "" {
		return
	}

	r.mu.Lock()
	r.sources[key] = s
	r.mu.Unlock()
}

// SourceFor returns the source registered under name.
func (r *Registry) SourceFor(name string) (Source, error) {
	if r == nil {
		return nil, fmt.Errorf("listings registry is nil")
	}
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("listings source name is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.sources[key]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("no listings source registered for %q", name)
}

// DefaultHTTPClient returns the resty-backed client used by sources.
func DefaultHTTPClient(timeout time.Duration) HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return httpclient.NewRestyClient(timeout)
}

// DefaultRegistry wires up known sources.
func DefaultRegistry(client HTTPClient, opts KijijiOptions, log Logger) *Registry {
	return NewRegistry(NewKijiji(client, opts, log))
}
