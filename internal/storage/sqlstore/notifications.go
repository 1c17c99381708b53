package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/artyomka101/appforphone/internal/constants"
	apperrors "github.com/artyomka101/appforphone/internal/errors"
	"github.com/artyomka101/appforphone/internal/events"
	"github.com/artyomka101/appforphone/internal/models"
)

const notificationColumns = `id, title, message, type, habit_id, habit_title, created_at, created_ns, is_read`

func scanNotification(r rowScanner) (models.Notification, error) {
	var n models.Notification
	var typ string
	var habitID, habitTitle sql.NullString
	err := r.Scan(&n.ID, &n.Title, &n.Message, &typ, &habitID, &habitTitle, &n.CreatedAt, &n.CreatedNs, &n.IsRead)
	if err != nil {
		return models.Notification{}, err
	}
	n.Type = constants.NotificationType(typ)
	n.HabitID = habitID.String
	n.HabitTitle = habitTitle.String
	return n, nil
}

func (q *queries) AddNotification(ctx context.Context, n models.Notification) error {
	_, err := q.exec(ctx, "add notification", `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Message, string(n.Type), nullString(n.HabitID), nullString(n.HabitTitle), n.CreatedAt, n.CreatedNs, n.IsRead)
	if err != nil {
		return err
	}
	q.emit(events.Event{Topic: events.TopicNotifications})
	return nil
}

func (q *queries) GetNotification(ctx context.Context, id string) (models.Notification, error) {
	n, err := scanNotification(q.queryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Notification{}, apperrors.NotFoundf("notification %s", id)
		}
		return models.Notification{}, apperrors.Store("get notification", err)
	}
	return n, nil
}

func (q *queries) GetNotifications(ctx context.Context) ([]models.Notification, error) {
	rows, err := q.query(ctx, "list notifications",
		`SELECT `+notificationColumns+` FROM notifications ORDER BY created_ns DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, apperrors.Store("list notifications", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("list notifications", err)
	}
	return out, nil
}

func (q *queries) CountUnreadNotifications(ctx context.Context) (int, error) {
	return q.count(ctx, "count unread notifications", `SELECT COUNT(*) FROM notifications WHERE is_read = ?`, false)
}

func (q *queries) MarkNotificationRead(ctx context.Context, id string) error {
	err := q.execOne(ctx, "mark notification read", `UPDATE notifications SET is_read = ? WHERE id = ?`,
		apperrors.NotFoundf("notification %s", id), true, id)
	if err != nil {
		return err
	}
	q.emit(events.Event{Topic: events.TopicNotifications})
	return nil
}

func (q *queries) DeleteNotification(ctx context.Context, id string) error {
	err := q.execOne(ctx, "delete notification", `DELETE FROM notifications WHERE id = ?`,
		apperrors.NotFoundf("notification %s", id), id)
	if err != nil {
		return err
	}
	q.emit(events.Event{Topic: events.TopicNotifications})
	return nil
}

func (q *queries) ClearNotifications(ctx context.Context) error {
	if _, err := q.exec(ctx, "clear notifications", `DELETE FROM notifications`); err != nil {
		return err
	}
	q.emit(events.Event{Topic: events.TopicNotifications})
	return nil
}
