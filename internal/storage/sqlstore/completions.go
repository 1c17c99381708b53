package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	apperrors "github.com/artyomka101/appforphone/internal/errors"
	"github.com/artyomka101/appforphone/internal/events"
	"github.com/artyomka101/appforphone/internal/models"
)

const completionColumns = `id, habit_id, date, completed_at`

func scanCompletion(r rowScanner) (models.Completion, error) {
	var c models.Completion
	var completedAt string
	if err := r.Scan(&c.ID, &c.HabitID, &c.Date, &completedAt); err != nil {
		return models.Completion{}, err
	}
	t, err := parseTime("completed_at", completedAt)
	if err != nil {
		return models.Completion{}, err
	}
	c.CompletedAt = t
	return c, nil
}

func (q *queries) GetCompletion(ctx context.Context, habitID, date string) (models.Completion, error) {
	row := q.queryRow(ctx, `
		SELECT `+completionColumns+` FROM habit_completions
		WHERE habit_id = ? AND date = ?
		ORDER BY completed_at
		LIMIT 1`, habitID, date)
	c, err := scanCompletion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Completion{}, apperrors.NotFoundf("completion of habit %s on %s", habitID, date)
		}
		return models.Completion{}, apperrors.Store("get completion", err)
	}
	return c, nil
}

func (q *queries) AddCompletion(ctx context.Context, c models.Completion) error {
	_, err := q.exec(ctx, "add completion",
		`INSERT INTO habit_completions (`+completionColumns+`) VALUES (?, ?, ?, ?)`,
		c.ID, c.HabitID, c.Date, formatTime(c.CompletedAt))
	if err != nil {
		return err
	}
	q.emit(events.Event{Topic: events.TopicCompletions, HabitID: c.HabitID})
	return nil
}

func (q *queries) DeleteCompletion(ctx context.Context, id string) error {
	var habitID string
	err := q.queryRow(ctx, `SELECT habit_id FROM habit_completions WHERE id = ?`, id).Scan(&habitID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFoundf("completion %s", id)
		}
		return apperrors.Store("delete completion", err)
	}
	if err := q.execOne(ctx, "delete completion", `DELETE FROM habit_completions WHERE id = ?`,
		apperrors.NotFoundf("completion %s", id), id); err != nil {
		return err
	}
	q.emit(events.Event{Topic: events.TopicCompletions, HabitID: habitID})
	return nil
}

// CountCompletions counts distinct completed dates. Under the one-record-per-date
// invariant this equals the record count.
func (q *queries) CountCompletions(ctx context.Context, habitID string) (int, error) {
	exists, err := q.count(ctx, "count completions", `SELECT COUNT(*) FROM habits WHERE id = ?`, habitID)
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, apperrors.NotFoundf("habit %s", habitID)
	}
	return q.count(ctx, "count completions",
		`SELECT COUNT(DISTINCT date) FROM habit_completions WHERE habit_id = ?`, habitID)
}

func (q *queries) GetCompletionsForDate(ctx context.Context, date string) ([]models.Completion, error) {
	return q.listCompletions(ctx, `SELECT `+completionColumns+` FROM habit_completions WHERE date = ? ORDER BY habit_id, completed_at`, date)
}

func (q *queries) GetCompletionsForHabit(ctx context.Context, habitID string) ([]models.Completion, error) {
	return q.listCompletions(ctx, `SELECT `+completionColumns+` FROM habit_completions WHERE habit_id = ? ORDER BY date, completed_at`, habitID)
}

func (q *queries) GetAllCompletions(ctx context.Context) ([]models.Completion, error) {
	return q.listCompletions(ctx, `SELECT `+completionColumns+` FROM habit_completions ORDER BY habit_id, date, completed_at`)
}

func (q *queries) listCompletions(ctx context.Context, query string, args ...any) ([]models.Completion, error) {
	rows, err := q.query(ctx, "list completions", query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Completion{}
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, apperrors.Store("list completions", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("list completions", err)
	}
	return out, nil
}
