package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"eventure/internal/model"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrDuplicateRegistration = errors.New("duplicate registration")
	ErrDuplicateUser         = errors.New("duplicate user")
	ErrInvalidStatusChange   = errors.New("invalid registration status change")
	ErrOrganizerHasEvents    = errors.New("organizer still owns events")
	ErrUserIsSpeaker         = errors.New("user still speaks at sessions")
)

const opTimeout = 5 * time.Second

type Repository interface {
	CreateEventWithNotificationsTx(ctx context.Context, e *model.Event, sessions []model.Session) (int64, []model.Notification, error)
	GetEventByID(ctx context.Context, id int64) (*model.Event, error)
	UpdateEventTx(ctx context.Context, e *model.Event, sessions []model.Session) ([]model.Notification, error)
	DeleteEventTx(ctx context.Context, id int64) error
	ListEventsByOrganizer(ctx context.Context, organizerID int64, upcomingOnly bool) ([]model.Event, error)
	GetSessionsByEventID(ctx context.Context, eventID int64) ([]model.Session, error)
	FanOutEventNotificationsTx(ctx context.Context, eventID int64, typ, title, message string) ([]model.Notification, error)

	RegisterTx(ctx context.Context, userID, eventID int64) (*model.Registration, error)
	ConfirmRegistrationTx(ctx context.Context, userID, eventID int64) (*model.Registration, error)
	CancelRegistrationTx(ctx context.Context, userID, eventID int64) (*model.Notification, error)
	GetRegistration(ctx context.Context, userID, eventID int64) (*model.Registration, error)
	ListRegisteredEvents(ctx context.Context, userID int64) ([]model.Event, error)
	CountRegistrations(ctx context.Context, eventID int64) (int, error)

	CreateUser(ctx context.Context, u *model.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UpdateUserTx(ctx context.Context, u *model.User, newPasswordHash string) error
	DeleteUserTx(ctx context.Context, id int64) error

	GetNotificationByID(ctx context.Context, id int64) (*model.Notification, error)
	ListNotificationsByUser(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	DeleteNotification(ctx context.Context, id int64) error

	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

func (r *repository) MigrateDown(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}

	// Reverse order: dependents are dropped before the tables they reference.
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read rollback file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations rolled back successfully from %s", migrationsDir)
	return nil
}
