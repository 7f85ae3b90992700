package crawler

import (
	"strings"

	"github.com/Adda-Baaj/kijiji-ledger/internal/domain"
)

// Plan expands locations x categories into search tasks, location-major.
// Blank identifiers are skipped; an empty side yields no tasks.
func Plan(locations, categories []string, price domain.PriceBounds) []domain.SearchTask {
	tasks := make([]domain.SearchTask, 0, len(locations)*len(categories))
	for _, loc := range locations {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			continue
		}
		for _, cat := range categories {
			cat = strings.TrimSpace(cat)
			if cat == "" {
				continue
			}
			tasks = append(tasks, domain.SearchTask{
				LocationID: loc,
				CategoryID: cat,
				Price:      price,
				AdType:     domain.AdTypeOffer,
			})
		}
	}
	return tasks
}
