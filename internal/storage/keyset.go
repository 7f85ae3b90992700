package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/kijiji-ledger/internal/domain"
)

// CellReader reads a rectangular range of worksheet cells. Bounds are
// 1-based and inclusive; empty cells may be omitted from the result.
type CellReader interface {
	ReadCells(ctx context.Context, sheetIndex int, rows, cols [2]int) ([]string, error)
}

// Window locates the GUID column in the sink.
type Window struct {
	SheetIndex int
	MinRow     int
	MaxRow     int
	Column     int
}

// KeySet is the set of GUIDs already recorded in the sink. It is read-only
// after LoadKeySet returns and safe for concurrent use.
type KeySet struct {
	keys map[string]struct{}
}

// NewKeySet builds a set from the given GUIDs, ignoring blanks.
func NewKeySet(guids ...string) KeySet {
	ks := KeySet{keys: make(map[string]struct{}, len(guids))}
	ks.add(guids)
	return ks
}

func (k KeySet) add(guids []string) {
	for _, g := range guids {
		if g = strings.TrimSpace(g); g != "" {
			k.keys[g] = struct{}{}
		}
	}
}

// Contains reports whether guid was present at load time.
func (k KeySet) Contains(guid string) bool {
	_, ok := k.keys[guid]
	return ok
}

// Len returns the number of distinct GUIDs.
func (k KeySet) Len() int { return len(k.keys) }

// LoadKeySet reads the GUID window from the sink and merges the journal's keys.
// journal may be nil.
func LoadKeySet(ctx context.Context, reader CellReader, w Window, journal Journal) (KeySet, error) {
	if reader == nil {
		return KeySet{}, fmt.Errorf("%w: cell reader is nil", domain.ErrSinkRead)
	}
	if w.MinRow <= 0 {
		w.MinRow = 1
	}
	if w.MaxRow < w.MinRow || w.Column <= 0 {
		return KeySet{}, fmt.Errorf("%w: invalid key window %+v", domain.ErrSinkRead, w)
	}

	cells, err := reader.ReadCells(ctx, w.SheetIndex, [2]int{w.MinRow, w.MaxRow}, [2]int{w.Column, w.Column})
	if err != nil {
		return KeySet{}, fmt.Errorf("%w: %w", domain.ErrSinkRead, err)
	}
	ks := NewKeySet(cells...)

	if journal != nil {
		keys, err := journal.Keys()
		if err != nil {
			return KeySet{}, fmt.Errorf("%w: journal: %w", domain.ErrSinkRead, err)
		}
		ks.add(keys)
	}
	return ks, nil
}
