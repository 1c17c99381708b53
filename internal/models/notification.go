package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/artyomka101/appforphone/internal/constants"
	apperrors "github.com/artyomka101/appforphone/internal/errors"
)

// Notification is an immutable log entry of a completion or goal event.
// Only IsRead ever changes after insertion.
type Notification struct {
	ID         string                     `json:"id"`
	Title      string                     `json:"title"`
	Message    string                     `json:"message"`
	Type       constants.NotificationType `json:"type"`
	HabitID    string                     `json:"habit_id,omitempty"`
	HabitTitle string                     `json:"habit_title,omitempty"`
	CreatedAt  string                     `json:"created_at"` // dd.MM.yyyy HH:mm
	CreatedNs  int64                      `json:"-"`
	IsRead     bool                       `json:"is_read"`
}

// TaskCompletedNotification builds the record written when a habit is marked done
func TaskCompletedNotification(id string, h Habit, at time.Time) Notification {
	return Notification{
		ID:         id,
		Title:      "Task completed! 🎉",
		Message:    fmt.Sprintf("Congratulations! You completed the task: %s", h.Title),
		Type:       constants.NotificationTaskCompleted,
		HabitID:    h.ID,
		HabitTitle: h.Title,
		CreatedAt:  at.Format(constants.DisplayTimestampFormat),
		CreatedNs:  at.UnixNano(),
	}
}

// GoalAchievedNotification builds the record written when a habit reaches its target
func GoalAchievedNotification(id string, h Habit, count int, at time.Time) Notification {
	return Notification{
		ID:         id,
		Title:      "Goal achieved! ⭐",
		Message:    fmt.Sprintf("Congratulations! You reached the goal for task: %s (%d days)", h.Title, count),
		Type:       constants.NotificationGoalAchieved,
		HabitID:    h.ID,
		HabitTitle: h.Title,
		CreatedAt:  at.Format(constants.DisplayTimestampFormat),
		CreatedNs:  at.UnixNano(),
	}
}

// TestNotification builds a manually triggered record used to check delivery
func TestNotification(id string, at time.Time) Notification {
	return Notification{
		ID:        id,
		Title:     "Test notification",
		Message:   "Notifications are working.",
		Type:      constants.NotificationTest,
		CreatedAt: at.Format(constants.DisplayTimestampFormat),
		CreatedNs: at.UnixNano(),
	}
}

// Profile is the single local user
type Profile struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultProfile returns the profile created on first launch
func DefaultProfile(now time.Time) Profile {
	return Profile{ID: constants.ProfileID, Name: constants.DefaultProfileName, CreatedAt: now}
}

// ValidateProfileName trims and checks a new profile name
func ValidateProfileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.Invalidf("profile name cannot be empty")
	}
	return name, nil
}
