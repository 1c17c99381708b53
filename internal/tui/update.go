package tui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/artyomka101/appforphone/internal/constants"
	"github.com/artyomka101/appforphone/internal/logger"
	"github.com/artyomka101/appforphone/internal/state"
	"github.com/artyomka101/appforphone/internal/utils"
)

var tabs = []constants.SessionState{
	constants.StateToday,
	constants.StateArchive,
	constants.StateNotifications,
	constants.StateProfile,
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snap = state.Snapshot(msg)
		if m.snap.Err != nil {
			m.errMsg = m.snap.Err.Error()
		}
		return m, m.waitForSnapshot()

	case resultMsg:
		if msg.err != nil {
			logger.Warn("TUI operation failed", "error", msg.err)
			m.errMsg = msg.err.Error()
			m.status = ""
		} else {
			m.errMsg = ""
			m.status = msg.status
		}
		m.snap = m.st.Snapshot()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	}

	switch m.state {
	case constants.StateAddHabit, constants.StateRenameProfile:
		return m.updateForm(msg)
	case constants.StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.unsubscribe()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		m.state = tabs[(tabIndex(m.state)+1)%len(tabs)]
		return m, nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.state = tabs[(tabIndex(m.state)+len(tabs)-1)%len(tabs)]
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.cursors[m.state] = max(m.cursor()-1, 0)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.cursors[m.state] = min(m.cursor()+1, max(m.rows()-1, 0))
		return m, nil
	case key.Matches(msg, m.keys.Notify):
		on := !m.notifier.Enabled()
		m.notifier.SetEnabled(on)
		m.status = fmt.Sprintf("Platform notifications %s", onOff(on))
		return m, nil
	}

	switch m.state {
	case constants.StateToday:
		return m.updateToday(msg)
	case constants.StateArchive:
		return m.updateArchive(msg)
	case constants.StateNotifications:
		return m.updateNotifications(msg)
	case constants.StateProfile:
		if key.Matches(msg, m.keys.Rename) {
			m.profileForm = &ProfileFormModel{Name: m.snap.Profile.Name}
			m.form = NewProfileForm(m.profileForm)
			m.state = constants.StateRenameProfile
			return m, m.form.Init()
		}
	}
	return m, nil
}

func (m Model) updateToday(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Toggle):
		h, ok := m.selectedHabit()
		if !ok {
			return m, nil
		}
		// the container publishes the optimistic value right away
		return m, m.run("", func(ctx context.Context) error {
			_, err := m.st.ToggleHabitCompletion(ctx, h.ID)
			return err
		})
	case key.Matches(msg, m.keys.PrevDay), key.Matches(msg, m.keys.NextDay):
		days := -1
		if key.Matches(msg, m.keys.NextDay) {
			days = 1
		}
		date, err := utils.ShiftDate(m.snap.SelectedDate, days)
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		return m, m.selectDate(date)
	case key.Matches(msg, m.keys.Today):
		date, err := m.today()
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		return m, m.selectDate(date)
	case key.Matches(msg, m.keys.Add):
		m.habitForm = &HabitFormModel{
			Target: strconv.Itoa(constants.DefaultTargetDays),
			Color:  constants.DefaultHabitColor,
			Icon:   constants.DefaultHabitIcon,
		}
		m.form = NewHabitForm(m.habitForm)
		m.state = constants.StateAddHabit
		return m, m.form.Init()
	case key.Matches(msg, m.keys.Delete):
		return m.confirmDelete()
	}
	return m, nil
}

func (m Model) selectDate(date string) tea.Cmd {
	return m.run("", func(ctx context.Context) error {
		return m.st.SetSelectedDate(ctx, date)
	})
}

func (m Model) updateArchive(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Reactivate):
		h, ok := m.selectedHabit()
		if !ok {
			return m, nil
		}
		// another round of the same length
		target := m.snap.Counts[h.ID] + h.TargetDays
		return m, m.run(fmt.Sprintf("%s is active again (target %d days)", h.Title, target), func(ctx context.Context) error {
			_, err := m.st.ReactivateHabit(ctx, h.ID, target)
			return err
		})
	case key.Matches(msg, m.keys.Delete):
		return m.confirmDelete()
	}
	return m, nil
}

func (m Model) updateNotifications(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Read):
		n, ok := m.selectedNotification()
		if !ok || n.IsRead {
			return m, nil
		}
		return m, m.run("", func(ctx context.Context) error {
			return m.st.MarkNotificationRead(ctx, n.ID)
		})
	case key.Matches(msg, m.keys.Delete):
		n, ok := m.selectedNotification()
		if !ok {
			return m, nil
		}
		return m, m.run("Notification deleted", func(ctx context.Context) error {
			return m.st.DeleteNotification(ctx, n.ID)
		})
	case key.Matches(msg, m.keys.Clear):
		return m, m.run("Notifications cleared", m.st.ClearNotifications)
	case key.Matches(msg, m.keys.Test):
		return m, m.run("Test notification sent", func(ctx context.Context) error {
			_, err := m.st.CreateTestNotification(ctx)
			return err
		})
	}
	return m, nil
}

func (m Model) confirmDelete() (tea.Model, tea.Cmd) {
	h, ok := m.selectedHabit()
	if !ok {
		return m, nil
	}
	m.deleteID = h.ID
	m.state = constants.StateConfirmDelete
	return m, nil
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	id := m.deleteID
	m.deleteID = ""
	m.state = constants.StateToday
	if h, found := m.snap.Habit(id); found && !h.IsActive {
		m.state = constants.StateArchive
	}
	if keyMsg.String() != "y" {
		m.status = "Delete cancelled"
		return m, nil
	}
	return m, m.run("Habit deleted", func(ctx context.Context) error {
		return m.st.DeleteHabit(ctx, id)
	})
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	back := constants.StateToday
	if m.state == constants.StateRenameProfile {
		back = constants.StateProfile
	}
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = back
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.state = back
		if back == constants.StateProfile {
			name := m.profileForm.Name
			return m, m.run("Profile renamed", func(ctx context.Context) error {
				return m.st.RenameProfile(ctx, name)
			})
		}
		h := habitFromForm(m.habitForm)
		return m, m.run(fmt.Sprintf("Added %s", h.Title), func(ctx context.Context) error {
			_, err := m.st.AddHabit(ctx, h)
			return err
		})
	case huh.StateAborted:
		m.state = back
		return m, nil
	}
	return m, cmd
}

func tabIndex(s constants.SessionState) int {
	for i, t := range tabs {
		if t == s {
			return i
		}
	}
	return 0
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
