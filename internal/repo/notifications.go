package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventure/internal/model"
)

func (r *repository) GetNotificationByID(ctx context.Context, id int64) (*model.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var n model.Notification
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, title, message, notification_type, is_read, created_at
		FROM notifications
		WHERE id = $1
	`, id).Scan(&n.ID, &n.UserID, &n.Name, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	return &n, nil
}

func (r *repository) ListNotificationsByUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `
		SELECT id, user_id, name, title, message, notification_type, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifs []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Name, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifs = append(notifs, n)
	}

	return notifs, rows.Err()
}

func (r *repository) MarkNotificationRead(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var got int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE notifications
		SET is_read = TRUE
		WHERE id = $1
		RETURNING id
	`, id).Scan(&got)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	return nil
}

func (r *repository) DeleteNotification(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotificationNotFound
	}

	return nil
}
