package models

import (
	"time"

	"github.com/artyomka101/appforphone/internal/constants"
	apperrors "github.com/artyomka101/appforphone/internal/errors"
)

// Completion records that a habit was done on a calendar day.
// A habit is completed for a date exactly when such a record exists.
type Completion struct {
	ID          string    `json:"id"`
	HabitID     string    `json:"habit_id"`
	Date        string    `json:"date"` // YYYY-MM-DD
	CompletedAt time.Time `json:"completed_at"`
}

// PendingToggle is an optimistic completion state that has not been persisted yet
type PendingToggle struct {
	HabitID   string    `json:"habit_id"`
	Date      string    `json:"date"`
	Completed bool      `json:"completed"`
	QueuedAt  time.Time `json:"queued_at"`
}

// CellState is the known completion state of one (habit, date) cell
type CellState int

const (
	CellUnknown CellState = iota
	CellIncomplete
	CellComplete
)

// CellFromBool maps a loaded completion flag to a cell state
func CellFromBool(done bool) CellState {
	if done {
		return CellComplete
	}
	return CellIncomplete
}

// Known reports whether the cell has been loaded
func (c CellState) Known() bool {
	return c != CellUnknown
}

// Flip returns the opposite known state. Unknown stays Unknown.
func (c CellState) Flip() CellState {
	switch c {
	case CellComplete:
		return CellIncomplete
	case CellIncomplete:
		return CellComplete
	default:
		return CellUnknown
	}
}

func (c CellState) String() string {
	switch c {
	case CellComplete:
		return "complete"
	case CellIncomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// ValidateDate checks a YYYY-MM-DD calendar date string
func ValidateDate(date string) error {
	if _, err := time.Parse(constants.DateFormat, date); err != nil {
		return apperrors.Invalidf("invalid date %q (expected YYYY-MM-DD)", date)
	}
	return nil
}
