package state

import (
	"context"

	"github.com/artyomka101/appforphone/internal/catalog"
	apperrors "github.com/artyomka101/appforphone/internal/errors"
	"github.com/artyomka101/appforphone/internal/logger"
	"github.com/artyomka101/appforphone/internal/models"
)

// AddHabit validates h and stores it as a new active habit. An empty ID or
// creation time is filled in.
func (c *Container) AddHabit(ctx context.Context, h models.Habit) (models.Habit, error) {
	if h.ID == "" {
		h.ID = c.newID()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = c.now()
	}
	h.IsActive = true
	h.Normalize()
	if err := h.Validate(); err != nil {
		return models.Habit{}, err
	}
	if err := c.store.AddHabit(ctx, h); err != nil {
		return models.Habit{}, err
	}
	logger.Info("Habit added", "id", h.ID, "title", h.Title)
	return h, c.Reload(ctx)
}

// AddFromTemplate creates a habit from a catalog template
func (c *Container) AddFromTemplate(ctx context.Context, templateID string) (models.Habit, error) {
	tpl, err := catalog.Get(templateID)
	if err != nil {
		return models.Habit{}, err
	}
	return c.AddHabit(ctx, tpl.Habit(c.newID(), c.now()))
}

// UpdateHabit saves edited fields of an existing habit. Creation time and
// active flag are kept; a lowered target may archive the habit right away.
func (c *Container) UpdateHabit(ctx context.Context, h models.Habit) (models.Habit, error) {
	h.Normalize()
	if err := h.Validate(); err != nil {
		return models.Habit{}, err
	}
	h, err := c.engine.UpdateHabit(ctx, h)
	if err != nil {
		return models.Habit{}, err
	}
	logger.Info("Habit updated", "id", h.ID)
	return h, c.Reload(ctx)
}

// DeleteHabit removes the habit with its completions and queued toggles.
// Its notifications stay.
func (c *Container) DeleteHabit(ctx context.Context, id string) error {
	c.mu.Lock()
	for k, pw := range c.pending {
		if k.habitID != id {
			continue
		}
		if pw.timer != nil {
			pw.timer.Stop()
		}
		delete(c.pending, k)
	}
	c.mu.Unlock()

	if err := c.store.DeleteHabit(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.view.Confirmed, id)
	delete(c.view.Counts, id)
	c.gen++
	c.mu.Unlock()

	logger.Info("Habit deleted", "id", id)
	return c.Reload(ctx)
}

// CompleteHabit archives an active habit by hand, without a goal notification
func (c *Container) CompleteHabit(ctx context.Context, id string) error {
	if err := c.store.SetHabitActive(ctx, id, false); err != nil {
		return err
	}
	logger.Info("Habit archived", "id", id)
	return c.Reload(ctx)
}

// ReactivateHabit moves an archived habit back to the active list. A target
// above zero replaces the current one; the resulting target must exceed the
// completions already recorded, otherwise the habit would be archived again.
func (c *Container) ReactivateHabit(ctx context.Context, id string, target int) (models.Habit, error) {
	h, err := c.engine.ReactivateHabit(ctx, id, target)
	if err != nil {
		return models.Habit{}, err
	}
	logger.Info("Habit reactivated", "id", id, "target", h.TargetDays)
	return h, c.Reload(ctx)
}

// RenameProfile validates and stores a new profile name
func (c *Container) RenameProfile(ctx context.Context, name string) error {
	name, err := models.ValidateProfileName(name)
	if err != nil {
		return err
	}
	p, err := c.store.GetProfile(ctx)
	if apperrors.IsNotFound(err) {
		p = models.DefaultProfile(c.now())
	} else if err != nil {
		return err
	}
	p.Name = name
	if err := c.store.SaveProfile(ctx, p); err != nil {
		return err
	}
	return c.Reload(ctx)
}

func (c *Container) MarkNotificationRead(ctx context.Context, id string) error {
	if err := c.store.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	return c.Reload(ctx)
}

func (c *Container) DeleteNotification(ctx context.Context, id string) error {
	if err := c.store.DeleteNotification(ctx, id); err != nil {
		return err
	}
	return c.Reload(ctx)
}

func (c *Container) ClearNotifications(ctx context.Context) error {
	if err := c.store.ClearNotifications(ctx); err != nil {
		return err
	}
	return c.Reload(ctx)
}

// CreateTestNotification records and raises a TEST notification
func (c *Container) CreateTestNotification(ctx context.Context) (models.Notification, error) {
	n, err := c.engine.CreateTestNotification(ctx)
	if err != nil {
		return models.Notification{}, err
	}
	return n, c.Reload(ctx)
}
