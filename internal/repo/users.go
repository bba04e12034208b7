package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventure/internal/model"
)

func (r *repository) CreateUser(ctx context.Context, u *model.User) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM users
		WHERE username = $1 OR email = $2
	`, u.Username, u.Email).Scan(&count)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to check duplicate user: %w", err)
	}
	if count > 0 {
		_ = tx.Rollback()
		return 0, ErrDuplicateUser
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (first_name, last_name, email, username, password_hash, user_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, u.FirstName, u.LastName, u.Email, u.Username, u.PasswordHash, u.UserType,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return u.ID, nil
}

func (r *repository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var u model.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, username, password_hash, user_type, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Username, &u.PasswordHash, &u.UserType, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &u, nil
}

// UpdateUserTx updates the profile fields. An empty newPasswordHash preserves
// the stored hash, which is a distinct SQL path rather than writing an empty
// value.
func (r *repository) UpdateUserTx(ctx context.Context, u *model.User, newPasswordHash string) error {
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

	var row *sql.Row
	if newPasswordHash == "" {
		row = tx.QueryRowContext(ctx, `
			UPDATE users
			SET first_name = $1, last_name = $2, email = $3, username = $4, updated_at = NOW()
			WHERE id = $5
			RETURNING user_type, created_at, updated_at
		`, u.FirstName, u.LastName, u.Email, u.Username, u.ID)
	} else {
		row = tx.QueryRowContext(ctx, `
			UPDATE users
			SET first_name = $1, last_name = $2, email = $3, username = $4, password_hash = $5, updated_at = NOW()
			WHERE id = $6
			RETURNING user_type, created_at, updated_at
		`, u.FirstName, u.LastName, u.Email, u.Username, newPasswordHash, u.ID)
	}
	if err := row.Scan(&u.UserType, &u.CreatedAt, &u.UpdatedAt); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteUserTx removes the user's registrations and notifications together
// with the account row. An organizer who still owns events, or a user still
// listed as a session speaker, must have those removed first; sessions and
// events keep FK references to the user row.
func (r *repository) DeleteUserTx(ctx context.Context, id int64) error {
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

	var owned int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM events
		WHERE organizer_id = $1
	`, id).Scan(&owned)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to count owned events: %w", err)
	}
	if owned > 0 {
		_ = tx.Rollback()
		return ErrOrganizerHasEvents
	}

	var speaking int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM sessions
		WHERE speaker_id = $1
	`, id).Scan(&speaking)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to count speaker sessions: %w", err)
	}
	if speaking > 0 {
		_ = tx.Rollback()
		return ErrUserIsSpeaker
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE user_id = $1`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete registrations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete notifications: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		_ = tx.Rollback()
		return ErrUserNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
