package sqlstore

import (
	"context"

	apperrors "github.com/artyomka101/appforphone/internal/errors"
	"github.com/artyomka101/appforphone/internal/events"
	"github.com/artyomka101/appforphone/internal/models"
)

func (q *queries) SavePendingToggle(ctx context.Context, p models.PendingToggle) error {
	_, err := q.exec(ctx, "save pending toggle", `
		INSERT INTO pending_toggles (habit_id, date, completed, queued_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(habit_id, date) DO UPDATE SET
			completed = excluded.completed,
			queued_at = excluded.queued_at`,
		p.HabitID, p.Date, p.Completed, formatTime(p.QueuedAt))
	if err != nil {
		return err
	}
	q.emit(events.Event{Topic: events.TopicPending, HabitID: p.HabitID})
	return nil
}

func (q *queries) GetPendingToggles(ctx context.Context) ([]models.PendingToggle, error) {
	rows, err := q.query(ctx, "list pending toggles",
		`SELECT habit_id, date, completed, queued_at FROM pending_toggles ORDER BY queued_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.PendingToggle{}
	for rows.Next() {
		var p models.PendingToggle
		var queuedAt string
		if err := rows.Scan(&p.HabitID, &p.Date, &p.Completed, &queuedAt); err != nil {
			return nil, apperrors.Store("list pending toggles", err)
		}
		if p.QueuedAt, err = parseTime("queued_at", queuedAt); err != nil {
			return nil, apperrors.Store("list pending toggles", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("list pending toggles", err)
	}
	return out, nil
}

func (q *queries) DeletePendingToggle(ctx context.Context, p models.PendingToggle) error {
	res, err := q.exec(ctx, "delete pending toggle",
		`DELETE FROM pending_toggles WHERE habit_id = ? AND date = ? AND queued_at = ?`,
		p.HabitID, p.Date, formatTime(p.QueuedAt))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		q.emit(events.Event{Topic: events.TopicPending, HabitID: p.HabitID})
	}
	return nil
}
