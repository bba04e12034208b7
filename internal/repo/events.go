package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventure/internal/model"
)

// CreateEventWithNotificationsTx inserts the event, one organizer notification
// and one notification per already-confirmed attendee registration as a single
// transaction. Any failure in any step rolls back all of them.
func (r *repository) CreateEventWithNotificationsTx(ctx context.Context, e *model.Event, sessions []model.Session) (int64, []model.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	query := `
		INSERT INTO events (name, description, start_time, end_time, location, organizer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	if err := tx.QueryRowContext(ctx, query,
		e.Name, e.Description, e.StartTime, e.EndTime, e.Location, e.OrganizerID,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		_ = tx.Rollback()
		return 0, nil, fmt.Errorf("failed to insert event: %w", err)
	}

	if err := r.replaceSessions(ctx, tx, e.ID, sessions); err != nil {
		_ = tx.Rollback()
		return 0, nil, err
	}

	organizer := organizerNotification(e)
	if err := insertNotification(ctx, tx, &organizer); err != nil {
		_ = tx.Rollback()
		return 0, nil, err
	}

	confirmed, err := confirmedRegistrations(ctx, tx, e.ID)
	if err != nil {
		_ = tx.Rollback()
		return 0, nil, err
	}

	attendee := attendeeNotifications(e, confirmed, model.NotificationEvent,
		"New event: "+e.Name,
		fmt.Sprintf("The event %q has been scheduled at %s.", e.Name, e.Location))
	for i := range attendee {
		if err := insertNotification(ctx, tx, &attendee[i]); err != nil {
			_ = tx.Rollback()
			return 0, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return e.ID, append([]model.Notification{organizer}, attendee...), nil
}

func (r *repository) GetEventByID(ctx context.Context, id int64) (*model.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `
		SELECT id, name, description, start_time, end_time, location,
		       organizer_id, created_at, updated_at
		FROM events WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var e model.Event
	if err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.StartTime, &e.EndTime, &e.Location,
		&e.OrganizerID, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, ErrEventNotFound
	}
	return &e, nil
}

// UpdateEventTx is a full-row update by primary key with last-write-wins
// semantics. Sessions are replaced in batch and confirmed attendees get an
// update notification, all in the same transaction.
func (r *repository) UpdateEventTx(ctx context.Context, e *model.Event, sessions []model.Session) ([]model.Notification, error) {
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

	query := `
		UPDATE events
		SET name = $1, description = $2, start_time = $3, end_time = $4,
		    location = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING organizer_id, created_at, updated_at
	`
	if err := tx.QueryRowContext(ctx, query,
		e.Name, e.Description, e.StartTime, e.EndTime, e.Location, e.ID,
	).Scan(&e.OrganizerID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	if err := r.replaceSessions(ctx, tx, e.ID, sessions); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	confirmed, err := confirmedRegistrations(ctx, tx, e.ID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	notifs := attendeeNotifications(e, confirmed, model.NotificationEvent,
		"Event updated: "+e.Name,
		fmt.Sprintf("The event %q you are registered for has changed.", e.Name))
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

// DeleteEventTx removes the registrations and sessions before the event row
// itself so that dependent rows never outlive their parent.
func (r *repository) DeleteEventTx(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE event_id = $1`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete registrations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE event_id = $1`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		_ = tx.Rollback()
		return ErrEventNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *repository) ListEventsByOrganizer(ctx context.Context, organizerID int64, upcomingOnly bool) ([]model.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	op := "<"
	if upcomingOnly {
		op = ">="
	}
	query := fmt.Sprintf(`
		SELECT id, name, description, start_time, end_time, location,
		       organizer_id, created_at, updated_at
		FROM events
		WHERE organizer_id = $1 AND start_time %s NOW()
		ORDER BY start_time
	`, op)

	rows, err := r.db.QueryContext(ctx, query, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(
			&e.ID, &e.Name, &e.Description, &e.StartTime, &e.EndTime, &e.Location,
			&e.OrganizerID, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func (r *repository) GetSessionsByEventID(ctx context.Context, eventID int64) ([]model.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `
		SELECT id, event_id, title, description, location, start_time, end_time, speaker_id
		FROM sessions
		WHERE event_id = $1
		ORDER BY start_time
	`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(
			&s.ID, &s.EventID, &s.Title, &s.Description, &s.Location,
			&s.StartTime, &s.EndTime, &s.SpeakerID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// replaceSessions rewrites the full session set of an event. Edits arrive as
// the complete batch, not as per-row diffs.
func (r *repository) replaceSessions(ctx context.Context, tx *sql.Tx, eventID int64, sessions []model.Session) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}

	query := `
		INSERT INTO sessions (event_id, title, description, location, start_time, end_time, speaker_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	for i := range sessions {
		s := &sessions[i]
		s.EventID = eventID
		if err := tx.QueryRowContext(ctx, query,
			eventID, s.Title, s.Description, s.Location, s.StartTime, s.EndTime, s.SpeakerID,
		).Scan(&s.ID); err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
	}

	return nil
}
