package models

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/artyomka101/appforphone/internal/constants"
	apperrors "github.com/artyomka101/appforphone/internal/errors"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Habit is a recurring task the user completes once per calendar day
type Habit struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Color         string    `json:"color"`
	Icon          string    `json:"icon"`
	TargetDays    int       `json:"target_days"`
	IsActive      bool      `json:"is_active"`
	ScheduledTime string    `json:"scheduled_time,omitempty"` // HH:MM
	CreatedAt     time.Time `json:"created_at"`
}

// NewHabit returns an active habit with the default color, icon and target
func NewHabit(id, title string, now time.Time) Habit {
	return Habit{
		ID:         id,
		Title:      title,
		Color:      constants.DefaultHabitColor,
		Icon:       constants.DefaultHabitIcon,
		TargetDays: constants.DefaultTargetDays,
		IsActive:   true,
		CreatedAt:  now,
	}
}

// Normalize trims free-text fields and fills empty appearance fields with defaults.
func (h *Habit) Normalize() {
	h.Title = strings.TrimSpace(h.Title)
	h.Description = strings.TrimSpace(h.Description)
	h.ScheduledTime = strings.TrimSpace(h.ScheduledTime)
	if h.Color == "" {
		h.Color = constants.DefaultHabitColor
	}
	if h.Icon == "" {
		h.Icon = constants.DefaultHabitIcon
	}
	h.Color = strings.ToUpper(h.Color)
}

// Validate rejects habits that must never reach the store
func (h *Habit) Validate() error {
	if strings.TrimSpace(h.Title) == "" {
		return apperrors.Invalidf("habit title cannot be empty")
	}
	if h.TargetDays <= 0 {
		return apperrors.Invalidf("target days must be positive, got %d", h.TargetDays)
	}
	if !hexColor.MatchString(h.Color) {
		return apperrors.Invalidf("invalid color %q (expected #RRGGBB)", h.Color)
	}
	if !slices.Contains(constants.Icons, h.Icon) {
		return apperrors.Invalidf("unknown icon %q", h.Icon)
	}
	if h.ScheduledTime != "" {
		if _, err := time.Parse(constants.TimeFormat, h.ScheduledTime); err != nil {
			return apperrors.Invalidf("invalid scheduled time %q (expected HH:MM)", h.ScheduledTime)
		}
	}
	return nil
}

// GoalReached reports whether count satisfies the habit's target
func (h *Habit) GoalReached(count int) bool {
	return count >= h.TargetDays
}

// Progress returns completion progress as a percentage capped at 100
func (h *Habit) Progress(count int) int {
	if h.TargetDays <= 0 {
		return 0
	}
	p := count * 100 / h.TargetDays
	if p > 100 {
		return 100
	}
	return p
}
