package repo

import (
	"context"
	"database/sql"
	"fmt"

	"eventure/internal/model"
)

// organizerNotification is the single notice written for the event owner when
// their event is created.
func organizerNotification(e *model.Event) model.Notification {
	return model.Notification{
		UserID:  e.OrganizerID,
		Name:    e.Name,
		Title:   "Event created: " + e.Name,
		Message: fmt.Sprintf("Your event %q is scheduled from %s to %s.", e.Name, e.StartTime.Format("2006-01-02 15:04"), e.EndTime.Format("2006-01-02 15:04")),
		Type:    model.NotificationOrganizer,
	}
}

// attendeeNotifications builds one notification per confirmed registration.
// An event with no confirmed attendees yields an empty slice.
func attendeeNotifications(e *model.Event, confirmed []model.Registration, typ, title, message string) []model.Notification {
	notifs := make([]model.Notification, 0, len(confirmed))
	for _, reg := range confirmed {
		notifs = append(notifs, model.Notification{
			UserID:  reg.UserID,
			Name:    e.Name,
			Title:   title,
			Message: message,
			Type:    typ,
		})
	}
	return notifs
}

func confirmedRegistrations(ctx context.Context, tx *sql.Tx, eventID int64) ([]model.Registration, error) {
	query := `
		SELECT id, user_id, event_id, status, created_at, updated_at
		FROM registrations
		WHERE event_id = $1 AND status = 'confirmed'
		ORDER BY created_at
	`
	rows, err := tx.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query confirmed registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, reg)
	}

	return regs, rows.Err()
}

func insertNotification(ctx context.Context, tx *sql.Tx, n *model.Notification) error {
	query := `
		INSERT INTO notifications (user_id, name, title, message, notification_type, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, NOW())
		RETURNING id, created_at
	`
	if err := tx.QueryRowContext(ctx, query,
		n.UserID, n.Name, n.Title, n.Message, n.Type,
	).Scan(&n.ID, &n.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// FanOutEventNotificationsTx writes one notification of the given type per
// confirmed attendee of the event as a single transaction. Backs the reminder
// flow, where the attendee set is resolved at delivery time rather than at
// event creation.
func (r *repository) FanOutEventNotificationsTx(ctx context.Context, eventID int64, typ, title, message string) ([]model.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var e model.Event
	err = tx.QueryRowContext(ctx, `
		SELECT id, name, organizer_id, start_time, end_time
		FROM events
		WHERE id = $1
	`, eventID).Scan(&e.ID, &e.Name, &e.OrganizerID, &e.StartTime, &e.EndTime)
	if err != nil {
		_ = tx.Rollback()
		return nil, ErrEventNotFound
	}

	confirmed, err := confirmedRegistrations(ctx, tx, eventID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	notifs := attendeeNotifications(&e, confirmed, typ, title, message)
	for i := range notifs {
		if err := insertNotification(ctx, tx, &notifs[i]); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return notifs, nil
}
