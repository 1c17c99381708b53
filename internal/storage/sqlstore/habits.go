package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	apperrors "github.com/artyomka101/appforphone/internal/errors"
	"github.com/artyomka101/appforphone/internal/events"
	"github.com/artyomka101/appforphone/internal/models"
)

const habitColumns = `id, title, description, color, icon, target_days, is_active, scheduled_time, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(r rowScanner) (models.Habit, error) {
	var h models.Habit
	var createdAt string
	var scheduled sql.NullString

	err := r.Scan(&h.ID, &h.Title, &h.Description, &h.Color, &h.Icon, &h.TargetDays, &h.IsActive, &scheduled, &createdAt)
	if err != nil {
		return models.Habit{}, err
	}
	h.ScheduledTime = scheduled.String
	h.CreatedAt, err = parseTime("created_at", createdAt)
	if err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

func (q *queries) AddHabit(ctx context.Context, h models.Habit) error {
	_, err := q.exec(ctx, "add habit", `
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.Title, h.Description, h.Color, h.Icon, h.TargetDays, h.IsActive, nullString(h.ScheduledTime), formatTime(h.CreatedAt))
	if err != nil {
		return err
	}
	q.emit(events.Event{Topic: events.TopicHabits, HabitID: h.ID})
	return nil
}

func (q *queries) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	row := q.queryRow(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)
	h, err := scanHabit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Habit{}, apperrors.NotFoundf("habit %s", id)
		}
		return models.Habit{}, apperrors.Store("get habit", err)
	}
	return h, nil
}

func (q *queries) GetHabits(ctx context.Context, active bool) ([]models.Habit, error) {
	return q.listHabits(ctx, `SELECT `+habitColumns+` FROM habits WHERE is_active = ? ORDER BY created_at DESC, id DESC`, active)
}

func (q *queries) GetAllHabits(ctx context.Context) ([]models.Habit, error) {
	return q.listHabits(ctx, `SELECT `+habitColumns+` FROM habits ORDER BY created_at DESC, id DESC`)
}

func (q *queries) listHabits(ctx context.Context, query string, args ...any) ([]models.Habit, error) {
	rows, err := q.query(ctx, "list habits", query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, apperrors.Store("list habits", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("list habits", err)
	}
	return habits, nil
}

// UpdateHabit leaves is_active alone: only SetHabitActive moves a habit
// between the lists.
func (q *queries) UpdateHabit(ctx context.Context, h models.Habit) error {
	err := q.execOne(ctx, "update habit", `
		UPDATE habits
		SET title = ?, description = ?, color = ?, icon = ?, target_days = ?, scheduled_time = ?
		WHERE id = ?`,
		apperrors.NotFoundf("habit %s", h.ID),
		h.Title, h.Description, h.Color, h.Icon, h.TargetDays, nullString(h.ScheduledTime), h.ID)
	if err != nil {
		return err
	}
	q.emit(events.Event{Topic: events.TopicHabits, HabitID: h.ID})
	return nil
}

func (q *queries) SetHabitActive(ctx context.Context, id string, active bool) error {
	err := q.execOne(ctx, "set habit active", `UPDATE habits SET is_active = ? WHERE id = ?`,
		apperrors.NotFoundf("habit %s", id), active, id)
	if err != nil {
		return err
	}
	q.emit(events.Event{Topic: events.TopicHabits, HabitID: id})
	return nil
}

func (q *queries) DeleteHabit(ctx context.Context, id string) error {
	if _, err := q.exec(ctx, "delete habit completions", `DELETE FROM habit_completions WHERE habit_id = ?`, id); err != nil {
		return err
	}
	if _, err := q.exec(ctx, "delete habit pending toggles", `DELETE FROM pending_toggles WHERE habit_id = ?`, id); err != nil {
		return err
	}
	if err := q.execOne(ctx, "delete habit", `DELETE FROM habits WHERE id = ?`, apperrors.NotFoundf("habit %s", id), id); err != nil {
		return err
	}
	q.emit(events.Event{Topic: events.TopicHabits, HabitID: id})
	q.emit(events.Event{Topic: events.TopicCompletions, HabitID: id})
	return nil
}
