package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventure/internal/model"
)

// RegisterTx enrolls a user into an event with status "registered". The
// (user, event) pair is checked inside the transaction on top of the UNIQUE
// constraint, so a second registration is rejected rather than silently
// duplicated.
func (r *repository) RegisterTx(ctx context.Context, userID, eventID int64) (*model.Registration, error) {
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

	var exists int64
	err = tx.QueryRowContext(ctx, `
		SELECT id
		FROM events
		WHERE id = $1
		FOR UPDATE
	`, eventID).Scan(&exists)
	if err != nil {
		_ = tx.Rollback()
		return nil, ErrEventNotFound
	}

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM registrations
		WHERE user_id = $1 AND event_id = $2
	`, userID, eventID).Scan(&count)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to check duplicate registration: %w", err)
	}
	if count > 0 {
		_ = tx.Rollback()
		return nil, ErrDuplicateRegistration
	}

	reg := &model.Registration{
		UserID:  userID,
		EventID: eventID,
		Status:  model.RegistrationRegistered,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO registrations (user_id, event_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, userID, eventID, reg.Status).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return reg, nil
}

// ConfirmRegistrationTx promotes a registration from "registered" to
// "confirmed". Confirming an already confirmed registration is rejected.
func (r *repository) ConfirmRegistrationTx(ctx context.Context, userID, eventID int64) (*model.Registration, error) {
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

	var reg model.Registration
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id, event_id, status, created_at, updated_at
		FROM registrations
		WHERE user_id = $1 AND event_id = $2
		FOR UPDATE
	`, userID, eventID).Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return nil, ErrRegistrationNotFound
	}

	if reg.Status != model.RegistrationRegistered {
		_ = tx.Rollback()
		return nil, ErrInvalidStatusChange
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE registrations
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING updated_at
	`, model.RegistrationConfirmed, reg.ID).Scan(&reg.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to confirm registration: %w", err)
	}
	reg.Status = model.RegistrationConfirmed

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &reg, nil
}

// CancelRegistrationTx deletes the registration row and writes the
// cancellation notification in the same transaction, so the notice can never
// exist without the row actually being gone (and vice versa).
func (r *repository) CancelRegistrationTx(ctx context.Context, userID, eventID int64) (*model.Notification, error) {
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

	var eventName string
	err = tx.QueryRowContext(ctx, `
		SELECT e.name
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		WHERE r.user_id = $1 AND r.event_id = $2
		FOR UPDATE OF r
	`, userID, eventID).Scan(&eventName)
	if err != nil {
		_ = tx.Rollback()
		return nil, ErrRegistrationNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM registrations
		WHERE user_id = $1 AND event_id = $2
	`, userID, eventID); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to delete registration: %w", err)
	}

	notif := model.Notification{
		UserID:  userID,
		Name:    eventName,
		Title:   "Registration canceled: " + eventName,
		Message: fmt.Sprintf("Your registration for %q has been canceled.", eventName),
		Type:    model.NotificationCancellation,
	}
	if err := insertNotification(ctx, tx, &notif); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &notif, nil
}

func (r *repository) GetRegistration(ctx context.Context, userID, eventID int64) (*model.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var reg model.Registration
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, event_id, status, created_at, updated_at
		FROM registrations
		WHERE user_id = $1 AND event_id = $2
	`, userID, eventID).Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}

	return &reg, nil
}

func (r *repository) ListRegisteredEvents(ctx context.Context, userID int64) ([]model.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `
		SELECT e.id, e.name, e.description, e.start_time, e.end_time, e.location,
		       e.organizer_id, e.created_at, e.updated_at
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		WHERE r.user_id = $1
		ORDER BY e.start_time
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registered events: %w", err)
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

func (r *repository) CountRegistrations(ctx context.Context, eventID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var count int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM registrations
		WHERE event_id = $1
	`, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}

	return count, nil
}
