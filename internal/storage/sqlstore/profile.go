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

func (q *queries) GetProfile(ctx context.Context) (models.Profile, error) {
	var p models.Profile
	var createdAt string
	err := q.queryRow(ctx, `SELECT id, name, created_at FROM user_profile WHERE id = ?`, constants.ProfileID).
		Scan(&p.ID, &p.Name, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Profile{}, apperrors.NotFoundf("profile")
		}
		return models.Profile{}, apperrors.Store("get profile", err)
	}
	p.CreatedAt, err = parseTime("created_at", createdAt)
	if err != nil {
		return models.Profile{}, apperrors.Store("get profile", err)
	}
	return p, nil
}

// SaveProfile upserts the singleton row; the ID is always forced to 1
func (q *queries) SaveProfile(ctx context.Context, p models.Profile) error {
	_, err := q.exec(ctx, "save profile", `
		INSERT INTO user_profile (id, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		constants.ProfileID, p.Name, formatTime(p.CreatedAt))
	if err != nil {
		return err
	}
	q.emit(events.Event{Topic: events.TopicProfile})
	return nil
}
