package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/Adda-Baaj/kijiji-ledger/internal/domain"
)

type fakeReader struct {
	cells []string
	err   error
	rows  [2]int
	cols  [2]int
	sheet int
}

func (f *fakeReader) ReadCells(_ context.Context, sheetIndex int, rows, cols [2]int) ([]string, error) {
	f.sheet, f.rows, f.cols = sheetIndex, rows, cols
	return f.cells, f.err
}

type fakeJournal struct {
	keys []string
	err  error
}

func (f fakeJournal) Close() error            { return nil }
func (f fakeJournal) Keys() ([]string, error) { return f.keys, f.err }
func (f fakeJournal) Mark(string) error       { return nil }

func TestLoadKeySetReadsConfiguredWindow(t *testing.T) {
	reader := &fakeReader{cells: []string{"guid", "a1", "", "  ", "a2", "a1"}}
	ks, err := LoadKeySet(context.Background(), reader, Window{SheetIndex: 1, MaxRow: 1000, Column: 9}, nil)
	if err != nil {
		t.Fatalf("LoadKeySet: %v", err)
	}

	if reader.sheet != 1 || reader.rows != [2]int{1, 1000} || reader.cols != [2]int{9, 9} {
		t.Fatalf("unexpected read window sheet=%d rows=%v cols=%v", reader.sheet, reader.rows, reader.cols)
	}
	if ks.Len() != 3 {
		t.Fatalf("expected 3 keys (header, a1, a2), got %d", ks.Len())
	}
	if !ks.Contains("a1") || !ks.Contains("a2") || ks.Contains("") {
		t.Fatalf("unexpected membership")
	}
}

func TestLoadKeySetMergesJournal(t *testing.T) {
	reader := &fakeReader{cells: []string{"a1"}}
	ks, err := LoadKeySet(context.Background(), reader, Window{MaxRow: 10, Column: 1}, fakeJournal{keys: []string{"old"}})
	if err != nil {
		t.Fatalf("LoadKeySet: %v", err)
	}
	if !ks.Contains("a1") || !ks.Contains("old") {
		t.Fatalf("expected sheet and journal keys to merge")
	}
}

func TestLoadKeySetWrapsReadErrors(t *testing.T) {
	_, err := LoadKeySet(context.Background(), &fakeReader{err: errors.New("unauthenticated")}, Window{MaxRow: 10, Column: 1}, nil)
	if !errors.Is(err, domain.ErrSinkRead) {
		t.Fatalf("expected ErrSinkRead, got %v", err)
	}

	_, err = LoadKeySet(context.Background(), &fakeReader{}, Window{MaxRow: 10, Column: 1}, fakeJournal{err: errors.New("disk")})
	if !errors.Is(err, domain.ErrSinkRead) {
		t.Fatalf("expected ErrSinkRead for journal failure, got %v", err)
	}
}

func TestLoadKeySetRejectsInvalidWindow(t *testing.T) {
	if _, err := LoadKeySet(context.Background(), &fakeReader{}, Window{MaxRow: 10}, nil); err == nil {
		t.Fatalf("expected error for missing column")
	}
}
