package dto

import (
	"time"

	"github.com/wb-go/wbf/ginext"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	EventNotFound         = "EVENT_NOT_FOUND"
	UserNotFound          = "USER_NOT_FOUND"
	NotificationNotFound  = "NOTIFICATION_NOT_FOUND"
	RegistrationNotFound  = "REGISTRATION_NOT_FOUND"
	RegistrationDuplicate = "REGISTRATION_DUPLICATE"
	RegistrationImmutable = "REGISTRATION_IMMUTABLE"
	UserDuplicate         = "USER_DUPLICATE"
	OrganizerHasEvents    = "ORGANIZER_HAS_EVENTS"
	UserIsSpeaker         = "USER_IS_SPEAKER"
)

// Dispatch message kinds carried through RabbitMQ.
const (
	KindDispatch = "dispatch"
	KindReminder = "reminder"
)

type SessionRequest struct {
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required,gtefield=StartTime"`
	SpeakerID   int64     `json:"speaker_id" validate:"required"`
}

type CreateEventRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description"`
	StartTime   time.Time        `json:"start_time" validate:"required"`
	EndTime     time.Time        `json:"end_time" validate:"required,gtefield=StartTime"`
	Location    string           `json:"location"`
	OrganizerID int64            `json:"organizer_id" validate:"required"`
	Sessions    []SessionRequest `json:"sessions" validate:"dive"`
}

type UpdateEventRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description"`
	StartTime   time.Time        `json:"start_time" validate:"required"`
	EndTime     time.Time        `json:"end_time" validate:"required,gtefield=StartTime"`
	Location    string           `json:"location"`
	Sessions    []SessionRequest `json:"sessions" validate:"dive"`
}

type RegisterRequest struct {
	UserID int64 `json:"user_id" validate:"required"`
}

type CreateUserRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Password  string `json:"password" validate:"required,min=8"`
	UserType  string `json:"user_type" validate:"required,oneof=organizer attendee"`
}

type UpdateUserRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=50"`
	// Optional: when omitted, the stored password is preserved.
	Password string `json:"password,omitempty" validate:"omitempty,min=8"`
}

// DispatchMessage is the envelope published to RabbitMQ after a
// notification-writing transaction commits. KindDispatch carries the IDs of
// already-written notifications for email delivery; KindReminder makes the
// worker run the attendee fan-out for the event at delivery time.
type DispatchMessage struct {
	Kind            string  `json:"kind"`
	EventID         int64   `json:"event_id,omitempty"`
	NotificationIDs []int64 `json:"notification_ids,omitempty"`
}

type EventResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     time.Time         `json:"end_time"`
	Location    string            `json:"location"`
	OrganizerID int64             `json:"organizer_id"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Sessions    []SessionResponse `json:"sessions,omitempty"`
}

type EventInfoResponse struct {
	EventResponse
	RegistrationCount int `json:"registration_count"`
}

type SessionResponse struct {
	ID          int64     `json:"id"`
	EventID     int64     `json:"event_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	SpeakerID   int64     `json:"speaker_id"`
}

type RegistrationResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	EventID   int64     `json:"event_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserResponse struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	UserType  string    `json:"user_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NotificationResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"notification_type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func NotFoundError(c *ginext.Context, code, desc string) {
	c.JSON(404, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func ConflictError(c *ginext.Context, code, desc string) {
	c.JSON(409, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func EventNotFoundError(c *ginext.Context) {
	NotFoundError(c, EventNotFound, "Event not found")
}

func UserNotFoundError(c *ginext.Context) {
	NotFoundError(c, UserNotFound, "User not found")
}

func RegistrationNotFoundError(c *ginext.Context) {
	NotFoundError(c, RegistrationNotFound, "Registration not found")
}

func RegistrationDuplicateError(c *ginext.Context) {
	ConflictError(c, RegistrationDuplicate, "You have already registered for this event")
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
