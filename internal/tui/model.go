// Package tui is the interactive terminal front end. It renders snapshots of
// the state container and turns key presses into container operations.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/artyomka101/appforphone/internal/constants"
	"github.com/artyomka101/appforphone/internal/models"
	"github.com/artyomka101/appforphone/internal/notifier"
	"github.com/artyomka101/appforphone/internal/state"
	"github.com/artyomka101/appforphone/internal/utils"
)

type HabitFormModel struct {
	Title       string
	Description string
	Target      string
	Color       string
	Icon        string
	Time        string
}

type ProfileFormModel struct {
	Name string
}

// snapshotMsg carries a new view from the container
type snapshotMsg state.Snapshot

// resultMsg reports the outcome of an operation run as a command
type resultMsg struct {
	status string
	err    error
}

type Model struct {
	ctx      context.Context
	st       *state.Container
	notifier *notifier.Guarded
	today    func() (string, error)

	updates     <-chan state.Snapshot
	unsubscribe func()

	snap        state.Snapshot
	state       constants.SessionState
	cursors     map[constants.SessionState]int
	keys        KeyMap
	help        help.Model
	form        *huh.Form
	habitForm   *HabitFormModel
	profileForm *ProfileFormModel
	deleteID    string
	status      string
	errMsg      string
	quitting    bool
	width       int
	height      int
}

// NewModel builds the TUI over a started container. today reports the
// current date in the user's timezone.
func NewModel(ctx context.Context, st *state.Container, n *notifier.Guarded, today func() (string, error)) Model {
	updates, unsubscribe := st.Subscribe()
	return Model{
		ctx:         ctx,
		st:          st,
		notifier:    n,
		today:       today,
		updates:     updates,
		unsubscribe: unsubscribe,
		snap:        st.Snapshot(),
		state:       constants.StateToday,
		cursors:     map[constants.SessionState]int{},
		keys:        DefaultKeyMap(),
		help:        help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForSnapshot()
}

func (m Model) waitForSnapshot() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}

// run executes op off the UI goroutine and reports its outcome
func (m Model) run(status string, op func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := op(ctx); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{status: status}
	}
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case constants.StateToday:
		keys = append(keys, m.keys.Toggle, m.keys.PrevDay, m.keys.NextDay, m.keys.Add, m.keys.Delete)
	case constants.StateArchive:
		keys = append(keys, m.keys.Reactivate, m.keys.Delete)
	case constants.StateNotifications:
		keys = append(keys, m.keys.Read, m.keys.Delete, m.keys.Clear, m.keys.Notify)
	case constants.StateProfile:
		keys = append(keys, m.keys.Rename, m.keys.Notify)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help, m.keys.Notify}
	navigation := []key.Binding{m.keys.Up, m.keys.Down, m.keys.PrevDay, m.keys.NextDay, m.keys.Today}

	var actions []key.Binding
	switch m.state {
	case constants.StateToday:
		actions = []key.Binding{m.keys.Toggle, m.keys.Add, m.keys.Delete}
	case constants.StateArchive:
		actions = []key.Binding{m.keys.Reactivate, m.keys.Delete}
	case constants.StateNotifications:
		actions = []key.Binding{m.keys.Read, m.keys.Delete, m.keys.Clear, m.keys.Test}
	case constants.StateProfile:
		actions = []key.Binding{m.keys.Rename}
	}
	return [][]key.Binding{global, navigation, actions}
}

// rows is the number of selectable rows on the current tab
func (m Model) rows() int {
	switch m.state {
	case constants.StateToday:
		return len(m.snap.Active)
	case constants.StateArchive:
		return len(m.snap.Archived)
	case constants.StateNotifications:
		return len(m.snap.Notifications)
	}
	return 0
}

func (m Model) cursor() int {
	c := m.cursors[m.state]
	if n := m.rows(); c >= n {
		c = n - 1
	}
	return max(c, 0)
}

func (m Model) selectedHabit() (models.Habit, bool) {
	var list []models.Habit
	switch m.state {
	case constants.StateToday:
		list = m.snap.Active
	case constants.StateArchive:
		list = m.snap.Archived
	default:
		return models.Habit{}, false
	}
	if len(list) == 0 {
		return models.Habit{}, false
	}
	return list[m.cursor()], true
}

func (m Model) selectedNotification() (models.Notification, bool) {
	if m.state != constants.StateNotifications || len(m.snap.Notifications) == 0 {
		return models.Notification{}, false
	}
	return m.snap.Notifications[m.cursor()], true
}

func NewHabitForm(fm *HabitFormModel) *huh.Form {
	colors := make([]huh.Option[string], len(constants.Palette))
	for i, c := range constants.Palette {
		colors[i] = huh.NewOption(swatch(c)+" "+c, c)
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit title").
				Value(&fm.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Description").
				Value(&fm.Description),
			huh.NewInput().
				Title("Target days").
				Value(&fm.Target).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n < 1 {
						return fmt.Errorf("target must be a positive number")
					}
					return nil
				}),
			huh.NewInput().
				Title("Reminder time (HH:MM, optional)").
				Value(&fm.Time).
				Validate(func(s string) error {
					if s = strings.TrimSpace(s); s != "" && !utils.ValidateTimeFormat(s) {
						return fmt.Errorf("time must be HH:MM")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color").
				Options(colors...).
				Value(&fm.Color),
			huh.NewSelect[string]().
				Title("Icon").
				Options(huh.NewOptions(constants.Icons...)...).
				Value(&fm.Icon),
		),
	).WithTheme(huh.ThemeDracula())
}

func NewProfileForm(fm *ProfileFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Profile name").
				Value(&fm.Name).
				Validate(func(s string) error {
					_, err := models.ValidateProfileName(s)
					return err
				}),
		),
	).WithTheme(huh.ThemeDracula())
}

// habitFromForm converts submitted form values into a new habit
func habitFromForm(fm *HabitFormModel) models.Habit {
	target, _ := strconv.Atoi(strings.TrimSpace(fm.Target))
	return models.Habit{
		Title:         fm.Title,
		Description:   fm.Description,
		TargetDays:    target,
		Color:         fm.Color,
		Icon:          fm.Icon,
		ScheduledTime: strings.TrimSpace(fm.Time),
	}
}
