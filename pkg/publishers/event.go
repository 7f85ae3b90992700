package publishers

import (
	"time"

	"github.com/Adda-Baaj/kijiji-ledger/internal/domain"
)

// Event announces a row appended to the sheet.
type Event struct {
	RunID      string            `json:"run_id"`
	GUID       string            `json:"guid"`
	Row        map[string]string `json:"row"`
	AppendedAt time.Time         `json:"appended_at"`
}

// NewEvent constructs an Event for a row written during run runID.
func NewEvent(runID string, row domain.Row) Event {
	return Event{
		RunID:      runID,
		GUID:       row.GUID,
		Row:        row.Values(),
		AppendedAt: time.Now().UTC(),
	}
}
