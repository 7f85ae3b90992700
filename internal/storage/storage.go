package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage holds the existing-key index and the local GUID journal.

// Journal remembers GUIDs appended to the sheet by earlier runs, including
// rows that fall outside the sheet key window.
type Journal interface {
	Close() error
	Keys() ([]string, error)
	Mark(guid string) error
}

// Options controls retention characteristics for concrete journal implementations.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	// Scope isolates keys per sink, e.g. "<spreadsheet>/<sheet index>".
	Scope           string
}

const (
	defaultTTL             = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewJournal creates the configured journal backend.
func NewJournal(typ, path string, opts Options) (Journal, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopJournal{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		j, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return j, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopJournal struct{}

func (noopJournal) Close() error            { return nil }
func (noopJournal) Keys() ([]string, error) { return nil, nil }
func (noopJournal) Mark(string) error       { return nil }
