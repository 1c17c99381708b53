// Package catalog holds the built-in habit templates offered on the explore screen.
package catalog

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	apperrors "github.com/artyomka101/appforphone/internal/errors"
	"github.com/artyomka101/appforphone/internal/models"
)

// AllCategories selects every template in Filter
const AllCategories = "All"

// Categories in display order
var Categories = []string{"Health", "Productivity", "Learning", "Daily habits", "Creativity", "Finance"}

// Template is a ready-made habit
type Template struct {
	ID            string
	Title         string
	Description   string
	Category      string
	Icon          string
	Color         string
	TargetDays    int
	ScheduledTime string
}

var templates = []Template{
	{"water", "Drink water", "Drink 8 glasses of water a day", "Health", "water", "#42A5F5", 30, "08:00"},
	{"fitness", "Morning exercise", "15 minutes of physical exercise", "Health", "fitness", "#66BB6A", 21, "07:30"},
	{"walk", "Walk", "30 minutes of walking outdoors", "Health", "fitness", "#4CAF50", 30, "18:00"},
	{"vitamins", "Take vitamins", "Daily vitamin intake", "Health", "favorite", "#E91E63", 30, "09:00"},
	{"stretch", "Stretching", "10 minutes of stretching for flexibility", "Health", "fitness", "#9C27B0", 21, "20:00"},

	{"reading", "Read a book", "20 minutes of reading fiction", "Learning", "book", "#7E57C2", 21, "21:00"},
	{"language", "Learn a language", "15 minutes of studying a foreign language", "Learning", "school", "#3F51B5", 30, "19:00"},
	{"podcast", "Listen to podcasts", "Educational podcasts on the way", "Learning", "book", "#FF9800", 21, "08:30"},
	{"course", "Online course", "30 minutes of learning new skills", "Learning", "school", "#795548", 30, "20:30"},

	{"plan", "Plan the day", "Write a list of the 3 main tasks", "Productivity", "task", "#FFA726", 30, "09:00"},
	{"email", "Check email", "Process incoming messages", "Productivity", "work", "#607D8B", 21, "10:00"},
	{"review", "Review the day", "5 minutes of reflection on the day", "Productivity", "task", "#FF5722", 30, "22:00"},
	{"declutter", "Tidy the workspace", "Keep the desk in order", "Productivity", "work", "#00BCD4", 21, "17:00"},

	{"sleep", "Go to bed on time", "Asleep by 23:00 to recover", "Daily habits", "bedtime", "#26C6DA", 14, "22:30"},
	{"morning", "Morning ritual", "A glass of water and 5 minutes of meditation", "Daily habits", "star", "#FFC107", 21, "07:00"},
	{"phone", "No phone at meals", "Mindful eating without gadgets", "Daily habits", "dining", "#8BC34A", 14, "12:00"},
	{"gratitude", "Gratitude", "Write down 3 things you are grateful for", "Daily habits", "favorite", "#E91E63", 21, "21:30"},

	{"draw", "Draw", "15 minutes of creative drawing", "Creativity", "star", "#9C27B0", 21, "19:30"},
	{"music", "Play an instrument", "20 minutes of music practice", "Creativity", "star", "#673AB7", 30, "18:30"},
	{"write", "Keep a journal", "10 minutes of free writing", "Creativity", "book", "#FF9800", 21, "22:30"},

	{"budget", "Track expenses", "Write down every expense of the day", "Finance", "work", "#4CAF50", 30, "21:00"},
	{"save", "Save money", "Put 100 into the piggy bank", "Finance", "star", "#FF9800", 30, "20:00"},
	{"invest", "Learn about investing", "15 minutes of reading about finance", "Finance", "book", "#2196F3", 21, "19:00"},
}

// All returns a copy of every template in catalog order
func All() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// Get looks a template up by ID
func Get(id string) (Template, error) {
	for _, t := range templates {
		if t.ID == id {
			return t, nil
		}
	}
	return Template{}, apperrors.NotFoundf("template %s", id)
}

// Filter returns templates in category (empty or AllCategories for any) whose
// title or description contains query, compared case-insensitively.
func Filter(category, query string) []Template {
	fold := cases.Fold()
	needle := fold.String(norm.NFC.String(strings.TrimSpace(query)))

	out := []Template{}
	for _, t := range templates {
		if category != "" && category != AllCategories && !strings.EqualFold(t.Category, category) {
			continue
		}
		if needle != "" {
			title := fold.String(norm.NFC.String(t.Title))
			desc := fold.String(norm.NFC.String(t.Description))
			if !strings.Contains(title, needle) && !strings.Contains(desc, needle) {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// Habit builds a new active habit from the template
func (t Template) Habit(id string, now time.Time) models.Habit {
	h := models.NewHabit(id, t.Title, now)
	h.Description = t.Description
	h.Icon = t.Icon
	h.Color = t.Color
	h.TargetDays = t.TargetDays
	h.ScheduledTime = t.ScheduledTime
	return h
}

// Render writes templates grouped by category in display order
func Render(w io.Writer, list []Template) error {
	first := true
	for _, cat := range Categories {
		var group []Template
		for _, t := range list {
			if t.Category == cat {
				group = append(group, t)
			}
		}
		if len(group) == 0 {
			continue
		}
		if !first {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		first = false
		if _, err := fmt.Fprintln(w, cat); err != nil {
			return err
		}
		for _, t := range group {
			if _, err := fmt.Fprintf(w, "  %-10s %-24s %3dd  %-5s  %s\n",
				t.ID, t.Title, t.TargetDays, t.ScheduledTime, t.Description); err != nil {
				return err
			}
		}
	}
	return nil
}
