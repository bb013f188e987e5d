package components

import (
	"encoding/json"
	"fmt"

	"github.com/leapstack-labs/pqview/internal/session"
	"github.com/leapstack-labs/pqview/internal/view"
)

func showFileName(snap session.Snapshot) bool {
	return snap.FileName != "" && snap.State != session.Idle
}

func canReset(state session.State) bool {
	return state == session.Loaded || state == session.Failed
}

func signalsJSON(snap session.Snapshot) (string, error) {
	b, err := json.Marshal(SignalsFor(snap))
	if err != nil {
		return "", fmt.Errorf("encode signals: %w", err)
	}
	return string(b), nil
}

func filterPlaceholder(isRegex bool) string {
	if isRegex {
		return "Regular expression"
	}
	return "Contains text"
}

func sortAction(column int) string {
	return fmt.Sprintf("@post('/api/sort/%d')", column)
}

func pageAction(offset int) string {
	return fmt.Sprintf("@post('/api/page?offset=%d')", offset)
}

// rowRange reports the 1-based span of rows in the window, or 0–0 when it
// is empty.
func rowRange(w view.Window) string {
	if len(w.Rows) == 0 {
		return "Rows 0–0"
	}
	return fmt.Sprintf("Rows %d–%d", w.Offset+1, w.Offset+len(w.Rows))
}

func sortIndicator(d view.Direction) string {
	if d == view.Descending {
		return "▼"
	}
	return "▲"
}

func ariaSort(s view.SortConfig, column string) string {
	switch {
	case s.Column != column:
		return "none"
	case s.Direction == view.Descending:
		return "descending"
	default:
		return "ascending"
	}
}
