package model

import "time"

const (
	UserTypeOrganizer = "organizer"
	UserTypeAttendee  = "attendee"
)

// Registration is a two-phase workflow: a row starts as "registered" and is
// promoted to "confirmed". Cancellation deletes the row.
const (
	RegistrationRegistered = "registered"
	RegistrationConfirmed  = "confirmed"
)

const (
	NotificationOrganizer    = "organizer"
	NotificationEvent        = "event"
	NotificationCancellation = "cancellation"
	NotificationReminder     = "reminder"
)

type User struct {
	ID           int64     `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	UserType     string    `db:"user_type" json:"user_type"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type Event struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description,omitempty" json:"description,omitempty"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	Location    string    `db:"location,omitempty" json:"location,omitempty"`
	OrganizerID int64     `db:"organizer_id" json:"organizer_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type Session struct {
	ID          int64     `db:"id" json:"id"`
	EventID     int64     `db:"event_id" json:"event_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description,omitempty" json:"description,omitempty"`
	Location    string    `db:"location,omitempty" json:"location,omitempty"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	SpeakerID   int64     `db:"speaker_id" json:"speaker_id"`
}

type Registration struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	EventID   int64     `db:"event_id" json:"event_id"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Notification struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Type      string    `db:"notification_type" json:"notification_type"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
