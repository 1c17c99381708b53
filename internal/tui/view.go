package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/artyomka101/appforphone/internal/constants"
	"github.com/artyomka101/appforphone/internal/models"
)

var tabTitles = map[constants.SessionState]string{
	constants.StateToday:         "Today",
	constants.StateArchive:       "Archive",
	constants.StateNotifications: "Notifications",
	constants.StateProfile:       "Profile",
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case constants.StateToday:
		content = m.viewToday()
	case constants.StateArchive:
		content = m.viewArchive()
	case constants.StateNotifications:
		content = m.viewNotifications()
	case constants.StateProfile:
		content = m.viewProfile()
	case constants.StateAddHabit, constants.StateRenameProfile:
		content = m.form.View()
	case constants.StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		m.viewHeader(),
		docStyle.Render(content),
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var out []string
	for _, t := range tabs {
		title := tabTitles[t]
		if t == constants.StateNotifications && m.snap.UnreadCount > 0 {
			title = fmt.Sprintf("%s (%d)", title, m.snap.UnreadCount)
		}
		if t == m.state {
			out = append(out, activeTabStyle.Render(title))
		} else {
			out = append(out, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}

func (m Model) viewHeader() string {
	if !m.snap.Loaded {
		return headerStyle.Render("Loading...")
	}
	return headerStyle.Render(fmt.Sprintf("%s · %d/%d done · %d%%",
		m.snap.SelectedDate, m.snap.CompletedToday(), len(m.snap.Active), m.snap.CompletionRate()))
}

func (m Model) viewStatus() string {
	switch {
	case m.errMsg != "":
		return dangerStyle.Render("✗ " + m.errMsg)
	case m.status != "":
		return statusStyle.Render(m.status)
	}
	return ""
}

func (m Model) viewToday() string {
	if len(m.snap.Active) == 0 {
		return "No active habits.\nPress 'a' to add one."
	}
	var b strings.Builder
	cur := m.cursor()
	for i, h := range m.snap.Active {
		mark := "○"
		switch m.snap.Cell(h.ID) {
		case models.CellComplete:
			mark = "✓"
		case models.CellUnknown:
			mark = "·"
		}
		if _, pending := m.snap.Pending[h.ID]; pending {
			mark = pendingStyle.Render(mark)
		}
		line := fmt.Sprintf("%s %s %s  %s", mark, swatch(h.Color), h.Title,
			mutedStyle.Render(fmt.Sprintf("%d/%d days", m.snap.Counts[h.ID], h.TargetDays)))
		if h.ScheduledTime != "" {
			line += mutedStyle.Render(" at " + h.ScheduledTime)
		}
		b.WriteString(m.row(i == cur, line))
	}
	return b.String()
}

func (m Model) viewArchive() string {
	if len(m.snap.Archived) == 0 {
		return "No archived habits yet.\nReach a habit's target to see it here."
	}
	var b strings.Builder
	cur := m.cursor()
	for i, h := range m.snap.Archived {
		line := fmt.Sprintf("🏆 %s %s  %s", swatch(h.Color), h.Title,
			mutedStyle.Render(fmt.Sprintf("%d/%d days", m.snap.Counts[h.ID], h.TargetDays)))
		b.WriteString(m.row(i == cur, line))
	}
	return b.String()
}

func (m Model) viewNotifications() string {
	if len(m.snap.Notifications) == 0 {
		return "No notifications."
	}
	var b strings.Builder
	cur := m.cursor()
	for i, n := range m.snap.Notifications {
		title := n.Title
		if !n.IsRead {
			title = "• " + title
		}
		line := fmt.Sprintf("%s  %s\n    %s", title, mutedStyle.Render(n.CreatedAt), n.Message)
		b.WriteString(m.row(i == cur, line))
	}
	return b.String()
}

func (m Model) viewProfile() string {
	s := m.snap.Stats()
	notify := "off"
	if m.notifier.Enabled() {
		notify = "on"
	}
	return fmt.Sprintf(
		"👤 %s\n\nTotal habits:      %d\nActive habits:     %d\nCompleted today:   %d\nTotal completions: %d\n\nPlatform notifications: %s",
		m.snap.Profile.Name, s.TotalHabits, s.ActiveHabits, s.CompletedToday, s.TotalCompletions, notify)
}

func (m Model) viewConfirmDelete() string {
	h, _ := m.snap.Habit(m.deleteID)
	return dangerStyle.Render(fmt.Sprintf("Delete %q and all of its completions?", h.Title)) +
		"\n\nPress 'y' to confirm, any other key to cancel."
}

func (m Model) row(selected bool, line string) string {
	if selected {
		return selectedStyle.Render("> ") + line + "\n"
	}
	return "  " + line + "\n"
}
