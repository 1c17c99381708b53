// Package state keeps the UI-facing view of habits, completions and
// notifications, and turns toggles into optimistic, debounced writes.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/artyomka101/appforphone/internal/constants"
	"github.com/artyomka101/appforphone/internal/engine"
	apperrors "github.com/artyomka101/appforphone/internal/errors"
	"github.com/artyomka101/appforphone/internal/events"
	"github.com/artyomka101/appforphone/internal/logger"
	"github.com/artyomka101/appforphone/internal/metrics"
	"github.com/artyomka101/appforphone/internal/models"
	"github.com/artyomka101/appforphone/internal/storage"
	"github.com/artyomka101/appforphone/internal/utils"
)

var ErrClosed = errors.New("state container is closed")

// maxReloadAttempts bounds re-reads when writes land during a reload
const maxReloadAttempts = 3

type cellKey struct {
	habitID string
	date    string
}

func (k cellKey) String() string { return k.habitID + "@" + k.date }

type pendingWrite struct {
	toggle models.PendingToggle
	timer  *time.Timer
}

// Container owns the in-memory view. Construct one per store and call Start.
type Container struct {
	store    storage.Provider
	engine   *engine.Engine
	debounce time.Duration
	now      func() time.Time
	newID    func() string

	ctx    context.Context
	cancel context.CancelFunc
	keys   *utils.KeyedMutex

	mu      sync.Mutex
	view    Snapshot
	pending map[cellKey]*pendingWrite
	gen     uint64
	subs    map[int]chan Snapshot
	nextSub int
	closed  bool
}

type Option func(*Container)

// WithDebounce sets the delay between a toggle and its persist
func WithDebounce(d time.Duration) Option {
	return func(c *Container) { c.debounce = d }
}

// WithDate sets the initially selected date
func WithDate(date string) Option {
	return func(c *Container) { c.view.SelectedDate = date }
}

func WithClock(now func() time.Time) Option {
	return func(c *Container) { c.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(c *Container) { c.newID = newID }
}

func New(store storage.Provider, eng *engine.Engine, opts ...Option) *Container {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Container{
		store:    store,
		engine:   eng,
		debounce: constants.PersistDebounce,
		now:      time.Now,
		newID:    uuid.NewString,
		ctx:      ctx,
		cancel:   cancel,
		keys:     utils.NewKeyedMutex(),
		pending:  make(map[cellKey]*pendingWrite),
		subs:     make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.view.SelectedDate == "" {
		c.view.SelectedDate = c.now().Format(constants.DateFormat)
	}
	if c.debounce < 0 {
		c.debounce = 0
	}
	c.view.Confirmed = map[string]models.CellState{}
	c.view.Counts = map[string]int{}
	return c
}

// Start prepares the store for this session and loads the view. The change
// feed is followed until ctx is done or the container is closed.
func (c *Container) Start(ctx context.Context) error {
	if err := c.ensureProfile(ctx); err != nil {
		return err
	}
	if err := c.replayPending(ctx); err != nil {
		return err
	}
	if achieved, err := c.engine.ReconcileGoals(ctx); err != nil {
		return fmt.Errorf("failed to reconcile goals: %w", err)
	} else if len(achieved) > 0 {
		logger.Info("Reconciled goals at startup", "habits", achieved)
	}

	feed, unsubscribe := c.store.Subscribe()
	if err := c.Reload(ctx); err != nil {
		unsubscribe()
		return err
	}
	go c.watch(ctx, feed, unsubscribe)
	return nil
}

func (c *Container) ensureProfile(ctx context.Context) error {
	_, err := c.store.GetProfile(ctx)
	if err == nil {
		return nil
	}
	if !apperrors.IsNotFound(err) {
		return err
	}
	logger.Info("Creating default profile")
	return c.store.SaveProfile(ctx, models.DefaultProfile(c.now()))
}

// replayPending applies journaled toggles left behind by an unclean exit
func (c *Container) replayPending(ctx context.Context) error {
	list, err := c.store.GetPendingToggles(ctx)
	if err != nil {
		return err
	}
	for _, p := range list {
		_, err := c.engine.SetCompleted(ctx, p.HabitID, p.Date, p.Completed)
		if err != nil && !apperrors.IsNotFound(err) {
			return fmt.Errorf("failed to replay pending toggle for %s on %s: %w", p.HabitID, p.Date, err)
		}
		if err := c.store.DeletePendingToggle(ctx, p); err != nil {
			return err
		}
	}
	if len(list) > 0 {
		logger.Info("Replayed pending toggles", "count", len(list))
	}
	return nil
}

func (c *Container) watch(ctx context.Context, feed <-chan events.Event, unsubscribe func()) {
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.ctx.Done():
			return
		case evt, ok := <-feed:
			if !ok {
				return
			}
			if evt.Topic == events.TopicPending {
				continue
			}
			// coalesce a burst into one reload
			drain(feed)
			if err := c.Reload(c.ctx); err != nil && c.ctx.Err() == nil {
				logger.Warn("Reload after store change failed", "error", err)
			}
		}
	}
}

func drain(feed <-chan events.Event) {
	for {
		select {
		case _, ok := <-feed:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

type loaded struct {
	active   []models.Habit
	archived []models.Habit
	done     map[string]bool
	counts   map[string]int
	notes    []models.Notification
	unread   int
	profile  models.Profile
}

func (c *Container) load(ctx context.Context, date string) (loaded, error) {
	var l loaded
	var err error
	if l.active, err = c.store.GetHabits(ctx, true); err != nil {
		return l, err
	}
	if l.archived, err = c.store.GetHabits(ctx, false); err != nil {
		return l, err
	}
	completions, err := c.store.GetCompletionsForDate(ctx, date)
	if err != nil {
		return l, err
	}
	l.done = make(map[string]bool, len(completions))
	for _, comp := range completions {
		l.done[comp.HabitID] = true
	}
	all, err := c.store.GetAllCompletions(ctx)
	if err != nil {
		return l, err
	}
	l.counts = countDistinctDates(all)
	if l.notes, err = c.store.GetNotifications(ctx); err != nil {
		return l, err
	}
	if l.unread, err = c.store.CountUnreadNotifications(ctx); err != nil {
		return l, err
	}
	if l.profile, err = c.store.GetProfile(ctx); err != nil && !apperrors.IsNotFound(err) {
		return l, err
	}
	return l, nil
}

func countDistinctDates(all []models.Completion) map[string]int {
	dates := map[string]map[string]struct{}{}
	for _, comp := range all {
		if dates[comp.HabitID] == nil {
			dates[comp.HabitID] = map[string]struct{}{}
		}
		dates[comp.HabitID][comp.Date] = struct{}{}
	}
	counts := make(map[string]int, len(dates))
	for id, set := range dates {
		counts[id] = len(set)
	}
	return counts
}

// Reload re-reads every snapshot field from the store
func (c *Container) Reload(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		c.mu.Lock()
		gen, date := c.gen, c.view.SelectedDate
		c.mu.Unlock()

		l, err := c.load(ctx, date)
		if err != nil {
			return err
		}

		c.mu.Lock()
		if c.view.SelectedDate != date || (c.gen != gen && attempt < maxReloadAttempts) {
			c.mu.Unlock()
			continue
		}
		c.view.Active = l.active
		c.view.Archived = l.archived
		c.view.Notifications = l.notes
		c.view.UnreadCount = l.unread
		c.view.Profile = l.profile
		c.view.Counts = l.counts
		confirmed := make(map[string]models.CellState, len(l.active)+len(l.archived))
		for _, list := range [][]models.Habit{l.active, l.archived} {
			for _, h := range list {
				confirmed[h.ID] = models.CellFromBool(l.done[h.ID])
			}
		}
		c.view.Confirmed = confirmed
		c.view.Loaded = true
		c.publishLocked()
		c.mu.Unlock()
		return nil
	}
}

// SetSelectedDate switches the date whose cells are shown and reloads them
func (c *Container) SetSelectedDate(ctx context.Context, date string) error {
	if err := models.ValidateDate(date); err != nil {
		return err
	}
	c.mu.Lock()
	if c.view.SelectedDate == date {
		c.mu.Unlock()
		return nil
	}
	c.view.SelectedDate = date
	c.view.Confirmed = map[string]models.CellState{}
	c.view.Loaded = false
	c.gen++
	c.publishLocked()
	c.mu.Unlock()
	return c.Reload(ctx)
}

// ToggleHabitCompletion flips habitID on the selected date optimistically and
// schedules the write. It returns the new optimistic value.
func (c *Container) ToggleHabitCompletion(ctx context.Context, habitID string) (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	k := cellKey{habitID: habitID, date: c.view.SelectedDate}
	c.mu.Unlock()

	unlock := c.keys.Lock(k.String())
	defer unlock()

	current, err := c.effective(ctx, k)
	if err != nil {
		return false, err
	}
	want := !current

	pw := &pendingWrite{toggle: models.PendingToggle{
		HabitID:   habitID,
		Date:      k.date,
		Completed: want,
		QueuedAt:  c.now().UTC(),
	}}

	c.mu.Lock()
	prev := c.pending[k]
	c.pending[k] = pw
	c.publishLocked()
	c.mu.Unlock()

	if err := c.store.SavePendingToggle(ctx, pw.toggle); err != nil {
		c.mu.Lock()
		if c.pending[k] == pw {
			if prev != nil {
				c.pending[k] = prev
			} else {
				delete(c.pending, k)
			}
		}
		c.view.Err = err
		c.publishLocked()
		c.mu.Unlock()
		logger.Error("Failed to journal toggle", "habit", habitID, "date", k.date, "error", err)
		return current, err
	}

	c.mu.Lock()
	if prev != nil && prev.timer != nil {
		prev.timer.Stop()
	}
	pw.timer = time.AfterFunc(c.debounce, func() {
		_ = c.persist(c.ctx, k)
	})
	c.mu.Unlock()

	logger.Debug("Queued toggle", "habit", habitID, "date", k.date, "completed", want)
	return want, nil
}

// effective returns the cell value for k, loading it when unknown.
// Caller holds the key lock.
func (c *Container) effective(ctx context.Context, k cellKey) (bool, error) {
	c.mu.Lock()
	if pw, ok := c.pending[k]; ok {
		c.mu.Unlock()
		return pw.toggle.Completed, nil
	}
	cell := models.CellUnknown
	if c.view.SelectedDate == k.date {
		cell = c.view.Confirmed[k.habitID]
	}
	c.mu.Unlock()

	if cell.Known() {
		return cell == models.CellComplete, nil
	}
	done, err := c.engine.IsCompleted(ctx, k.habitID, k.date)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	if c.view.SelectedDate == k.date && !c.view.Confirmed[k.habitID].Known() {
		c.view.Confirmed[k.habitID] = models.CellFromBool(done)
	}
	c.mu.Unlock()
	return done, nil
}

// persist writes the latest desired value for k. Failures roll the cell back
// to its confirmed state.
func (c *Container) persist(ctx context.Context, k cellKey) error {
	unlock := c.keys.Lock(k.String())
	defer unlock()

	c.mu.Lock()
	pw, ok := c.pending[k]
	c.mu.Unlock()
	if !ok {
		return nil
	}

	start := time.Now()
	res, err := c.engine.SetCompleted(ctx, k.habitID, k.date, pw.toggle.Completed)
	metrics.RecordPersist(start, err)

	if err != nil && !apperrors.IsNotFound(err) {
		logger.Error("Failed to persist toggle", "habit", k.habitID, "date", k.date, "error", err)
		// the user sees the rollback, so a later replay must not re-apply it
		if jerr := c.store.DeletePendingToggle(ctx, pw.toggle); jerr != nil {
			logger.Warn("Failed to drop journaled toggle", "habit", k.habitID, "error", jerr)
		}
		c.mu.Lock()
		if c.pending[k] == pw {
			delete(c.pending, k)
		}
		c.view.Err = err
		c.gen++
		c.publishLocked()
		c.mu.Unlock()
		return err
	}

	if jerr := c.store.DeletePendingToggle(ctx, pw.toggle); jerr != nil {
		logger.Warn("Failed to drop journaled toggle", "habit", k.habitID, "error", jerr)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[k] == pw {
		delete(c.pending, k)
	}
	if err == nil {
		if c.view.SelectedDate == k.date {
			c.view.Confirmed[k.habitID] = models.CellFromBool(res.Completed)
		}
		c.view.Counts[k.habitID] = res.Count
		if res.GoalAchieved {
			c.archiveLocked(res.Habit)
		}
		c.view.Err = nil
	} else {
		logger.Debug("Dropped toggle for deleted habit", "habit", k.habitID)
	}
	c.gen++
	c.publishLocked()
	return nil
}

// archiveLocked moves h from the active list to the archived list
func (c *Container) archiveLocked(h models.Habit) {
	active := c.view.Active[:0:0]
	for _, a := range c.view.Active {
		if a.ID != h.ID {
			active = append(active, a)
		}
	}
	c.view.Active = active
	c.view.Archived = append([]models.Habit{h}, c.view.Archived...)
}

// Flush persists every pending write now
func (c *Container) Flush(ctx context.Context) error {
	c.mu.Lock()
	keys := make([]cellKey, 0, len(c.pending))
	for k, pw := range c.pending {
		if pw.timer != nil {
			pw.timer.Stop()
		}
		keys = append(keys, k)
	}
	c.mu.Unlock()

	var errs []error
	for _, k := range keys {
		if err := c.persist(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close flushes pending writes, stops following the store and closes every
// subscriber channel. The store itself stays open.
func (c *Container) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.Flush(c.ctx)
	c.cancel()

	c.mu.Lock()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.mu.Unlock()
	return err
}

// Snapshot returns a copy of the current view
func (c *Container) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Container) snapshotLocked() Snapshot {
	s := c.view.clone()
	s.Pending = map[string]bool{}
	for k, pw := range c.pending {
		if k.date == s.SelectedDate {
			s.Pending[k.habitID] = pw.toggle.Completed
		}
	}
	return s
}

// Subscribe returns a channel that always holds the latest snapshot
func (c *Container) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.snapshotLocked()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			close(sub)
			delete(c.subs, id)
		}
	}
}

func (c *Container) publishLocked() {
	metrics.PendingWrites.Set(float64(len(c.pending)))
	if len(c.subs) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// CompletedToday counts active habits completed on the selected date
func (c *Container) CompletedToday() int {
	return c.Snapshot().CompletedToday()
}

// CompletionRate is the selected date's completion percentage
func (c *Container) CompletionRate() int {
	return c.Snapshot().CompletionRate()
}
