package state

import (
	"maps"
	"slices"

	"github.com/artyomka101/appforphone/internal/models"
)

// Snapshot is an immutable view of the container. Confirmed holds cells read
// from the store for SelectedDate; Pending holds optimistic values that are
// not durable yet and win over Confirmed.
type Snapshot struct {
	SelectedDate  string
	Loaded        bool
	Active        []models.Habit
	Archived      []models.Habit
	Confirmed     map[string]models.CellState
	Pending       map[string]bool
	Counts        map[string]int
	Notifications []models.Notification
	UnreadCount   int
	Profile       models.Profile
	Err           error // last failed persist, cleared by the next success
}

// Stats summarizes the profile screen
type Stats struct {
	TotalHabits      int
	ActiveHabits     int
	CompletedToday   int
	TotalCompletions int
}

// Cell returns the effective state of habitID on SelectedDate
func (s Snapshot) Cell(habitID string) models.CellState {
	if want, ok := s.Pending[habitID]; ok {
		return models.CellFromBool(want)
	}
	return s.Confirmed[habitID]
}

// CompletedToday counts active habits whose effective cell is complete
func (s Snapshot) CompletedToday() int {
	n := 0
	for _, h := range s.Active {
		if s.Cell(h.ID) == models.CellComplete {
			n++
		}
	}
	return n
}

// CompletionRate is CompletedToday as an integer percentage of active habits, 0 with none
func (s Snapshot) CompletionRate() int {
	if len(s.Active) == 0 {
		return 0
	}
	return s.CompletedToday() * 100 / len(s.Active)
}

func (s Snapshot) Stats() Stats {
	total := 0
	for _, n := range s.Counts {
		total += n
	}
	return Stats{
		TotalHabits:      len(s.Active) + len(s.Archived),
		ActiveHabits:     len(s.Active),
		CompletedToday:   s.CompletedToday(),
		TotalCompletions: total,
	}
}

// Habit finds a habit in either list
func (s Snapshot) Habit(id string) (models.Habit, bool) {
	for _, list := range [][]models.Habit{s.Active, s.Archived} {
		if i := slices.IndexFunc(list, func(h models.Habit) bool { return h.ID == id }); i >= 0 {
			return list[i], true
		}
	}
	return models.Habit{}, false
}

func (s Snapshot) clone() Snapshot {
	s.Active = slices.Clone(s.Active)
	s.Archived = slices.Clone(s.Archived)
	s.Notifications = slices.Clone(s.Notifications)
	s.Confirmed = maps.Clone(s.Confirmed)
	s.Pending = maps.Clone(s.Pending)
	s.Counts = maps.Clone(s.Counts)
	return s
}
