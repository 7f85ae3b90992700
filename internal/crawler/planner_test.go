package crawler

import (
	"testing"

	"github.com/Adda-Baaj/kijiji-ledger/internal/domain"
)

func TestPlanIsLocationMajor(t *testing.T) {
	lo, hi := 500.0, 4000.0
	bounds := domain.PriceBounds{Min: &lo, Max: &hi}

	tasks := Plan([]string{"A", "B"}, []string{"C", "D"}, bounds)
	want := [][2]string{{"A", "C"}, {"A", "D"}, {"B", "C"}, {"B", "D"}}
	if len(tasks) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(tasks))
	}
	for i, w := range want {
		got := tasks[i]
		if got.LocationID != w[0] || got.CategoryID != w[1] {
			t.Fatalf("task %d = %s/%s, want %s/%s", i, got.LocationID, got.CategoryID, w[0], w[1])
		}
		if got.AdType != domain.AdTypeOffer || *got.Price.Min != 500 || *got.Price.Max != 4000 {
			t.Fatalf("task %d did not inherit filters: %+v", i, got)
		}
	}
}

func TestPlanEmptyInputs(t *testing.T) {
	if got := Plan(nil, []string{"C"}, domain.PriceBounds{}); len(got) != 0 {
		t.Fatalf("expected no tasks without locations, got %d", len(got))
	}
	if got := Plan([]string{"A"}, nil, domain.PriceBounds{}); len(got) != 0 {
		t.Fatalf("expected no tasks without categories, got %d", len(got))
	}
	if got := Plan([]string{" "}, []string{"C"}, domain.PriceBounds{}); len(got) != 0 {
		t.Fatalf("expected blank location to be skipped, got %d", len(got))
	}
}

func TestPlanKeepsDuplicateLocations(t *testing.T) {
	if got := Plan([]string{"A", "A"}, []string{"C"}, domain.PriceBounds{}); len(got) != 2 {
		t.Fatalf("expected duplicates to plan twice, got %d", len(got))
	}
}
