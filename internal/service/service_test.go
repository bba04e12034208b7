package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"eventure/internal/api/api"
	"eventure/internal/dto"
	"eventure/internal/model"
	"eventure/internal/repo"
	"eventure/internal/service"
)

type published struct {
	body  []byte
	delay int
}

type fakePublisher struct {
	messages []published
}

func (p *fakePublisher) Publish(message []byte, delaySeconds int) error {
	p.messages = append(p.messages, published{body: message, delay: delaySeconds})
	return nil
}

// fakeRepo keeps everything in maps and mirrors the repository contract,
// including the fan-out shape: event creation yields the organizer
// notification plus one per confirmed registration of that event.
type fakeRepo struct {
	nextID        int64
	events        map[int64]*model.Event
	sessions      map[int64][]model.Session
	registrations map[string]*model.Registration
	users         map[int64]*model.User
	notifications map[int64]*model.Notification

	lastUpcomingOnly bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		events:        map[int64]*model.Event{},
		sessions:      map[int64][]model.Session{},
		registrations: map[string]*model.Registration{},
		users:         map[int64]*model.User{},
		notifications: map[int64]*model.Notification{},
	}
}

func (f *fakeRepo) id() int64 {
	f.nextID++
	return f.nextID
}

func regKey(userID, eventID int64) string { return fmt.Sprintf("%d/%d", userID, eventID) }

func (f *fakeRepo) confirmed(eventID int64) []model.Registration {
	var out []model.Registration
	for _, reg := range f.registrations {
		if reg.EventID == eventID && reg.Status == model.RegistrationConfirmed {
			out = append(out, *reg)
		}
	}
	return out
}

func (f *fakeRepo) addNotification(n model.Notification) model.Notification {
	n.ID = f.id()
	n.CreatedAt = time.Now()
	f.notifications[n.ID] = &n
	return n
}

func (f *fakeRepo) CreateEventWithNotificationsTx(_ context.Context, e *model.Event, sessions []model.Session) (int64, []model.Notification, error) {
	e.ID = f.id()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	cp := *e
	f.events[e.ID] = &cp
	for i := range sessions {
		sessions[i].ID = f.id()
		sessions[i].EventID = e.ID
	}
	f.sessions[e.ID] = sessions

	notifs := []model.Notification{f.addNotification(model.Notification{
		UserID: e.OrganizerID, Name: e.Name, Type: model.NotificationOrganizer,
	})}
	for _, reg := range f.confirmed(e.ID) {
		notifs = append(notifs, f.addNotification(model.Notification{
			UserID: reg.UserID, Name: e.Name, Type: model.NotificationEvent,
		}))
	}
	return e.ID, notifs, nil
}

func (f *fakeRepo) GetEventByID(_ context.Context, id int64) (*model.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, repo.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeRepo) UpdateEventTx(_ context.Context, e *model.Event, sessions []model.Session) ([]model.Notification, error) {
	stored, ok := f.events[e.ID]
	if !ok {
		return nil, repo.ErrEventNotFound
	}
	e.OrganizerID = stored.OrganizerID
	e.CreatedAt = stored.CreatedAt
	e.UpdatedAt = time.Now()
	cp := *e
	f.events[e.ID] = &cp
	for i := range sessions {
		sessions[i].ID = f.id()
		sessions[i].EventID = e.ID
	}
	f.sessions[e.ID] = sessions

	var notifs []model.Notification
	for _, reg := range f.confirmed(e.ID) {
		notifs = append(notifs, f.addNotification(model.Notification{
			UserID: reg.UserID, Name: e.Name, Type: model.NotificationEvent,
		}))
	}
	return notifs, nil
}

func (f *fakeRepo) DeleteEventTx(_ context.Context, id int64) error {
	if _, ok := f.events[id]; !ok {
		return repo.ErrEventNotFound
	}
	delete(f.events, id)
	delete(f.sessions, id)
	for key, reg := range f.registrations {
		if reg.EventID == id {
			delete(f.registrations, key)
		}
	}
	return nil
}

func (f *fakeRepo) ListEventsByOrganizer(_ context.Context, organizerID int64, upcomingOnly bool) ([]model.Event, error) {
	f.lastUpcomingOnly = upcomingOnly
	var out []model.Event
	for _, e := range f.events {
		if e.OrganizerID == organizerID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetSessionsByEventID(_ context.Context, eventID int64) ([]model.Session, error) {
	return f.sessions[eventID], nil
}

func (f *fakeRepo) FanOutEventNotificationsTx(_ context.Context, eventID int64, typ, title, message string) ([]model.Notification, error) {
	e, ok := f.events[eventID]
	if !ok {
		return nil, repo.ErrEventNotFound
	}
	var notifs []model.Notification
	for _, reg := range f.confirmed(eventID) {
		notifs = append(notifs, f.addNotification(model.Notification{
			UserID: reg.UserID, Name: e.Name, Title: title, Message: message, Type: typ,
		}))
	}
	return notifs, nil
}

func (f *fakeRepo) RegisterTx(_ context.Context, userID, eventID int64) (*model.Registration, error) {
	if _, ok := f.events[eventID]; !ok {
		return nil, repo.ErrEventNotFound
	}
	if _, ok := f.registrations[regKey(userID, eventID)]; ok {
		return nil, repo.ErrDuplicateRegistration
	}
	reg := &model.Registration{
		ID: f.id(), UserID: userID, EventID: eventID,
		Status: model.RegistrationRegistered, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	f.registrations[regKey(userID, eventID)] = reg
	cp := *reg
	return &cp, nil
}

func (f *fakeRepo) ConfirmRegistrationTx(_ context.Context, userID, eventID int64) (*model.Registration, error) {
	reg, ok := f.registrations[regKey(userID, eventID)]
	if !ok {
		return nil, repo.ErrRegistrationNotFound
	}
	if reg.Status != model.RegistrationRegistered {
		return nil, repo.ErrInvalidStatusChange
	}
	reg.Status = model.RegistrationConfirmed
	reg.UpdatedAt = time.Now()
	cp := *reg
	return &cp, nil
}

func (f *fakeRepo) CancelRegistrationTx(_ context.Context, userID, eventID int64) (*model.Notification, error) {
	key := regKey(userID, eventID)
	if _, ok := f.registrations[key]; !ok {
		return nil, repo.ErrRegistrationNotFound
	}
	delete(f.registrations, key)
	n := f.addNotification(model.Notification{UserID: userID, Type: model.NotificationCancellation})
	return &n, nil
}

func (f *fakeRepo) GetRegistration(_ context.Context, userID, eventID int64) (*model.Registration, error) {
	reg, ok := f.registrations[regKey(userID, eventID)]
	if !ok {
		return nil, repo.ErrRegistrationNotFound
	}
	cp := *reg
	return &cp, nil
}

func (f *fakeRepo) ListRegisteredEvents(_ context.Context, userID int64) ([]model.Event, error) {
	var out []model.Event
	for _, reg := range f.registrations {
		if reg.UserID == userID {
			if e, ok := f.events[reg.EventID]; ok {
				out = append(out, *e)
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) CountRegistrations(_ context.Context, eventID int64) (int, error) {
	count := 0
	for _, reg := range f.registrations {
		if reg.EventID == eventID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) CreateUser(_ context.Context, u *model.User) (int64, error) {
	for _, existing := range f.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return 0, repo.ErrDuplicateUser
		}
	}
	u.ID = f.id()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.users[u.ID] = &cp
	return u.ID, nil
}

func (f *fakeRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) UpdateUserTx(_ context.Context, u *model.User, newPasswordHash string) error {
	stored, ok := f.users[u.ID]
	if !ok {
		return repo.ErrUserNotFound
	}
	if newPasswordHash == "" {
		u.PasswordHash = stored.PasswordHash
	} else {
		u.PasswordHash = newPasswordHash
	}
	u.UserType = stored.UserType
	u.CreatedAt = stored.CreatedAt
	u.UpdatedAt = time.Now()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeRepo) DeleteUserTx(_ context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return repo.ErrUserNotFound
	}
	for _, e := range f.events {
		if e.OrganizerID == id {
			return repo.ErrOrganizerHasEvents
		}
	}
	for _, sessions := range f.sessions {
		for _, s := range sessions {
			if s.SpeakerID == id {
				return repo.ErrUserIsSpeaker
			}
		}
	}
	delete(f.users, id)
	return nil
}

func (f *fakeRepo) GetNotificationByID(_ context.Context, id int64) (*model.Notification, error) {
	n, ok := f.notifications[id]
	if !ok {
		return nil, repo.ErrNotificationNotFound
	}
	cp := *n
	return &cp, nil
}

func (f *fakeRepo) ListNotificationsByUser(_ context.Context, userID int64) ([]model.Notification, error) {
	var out []model.Notification
	for _, n := range f.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkNotificationRead(_ context.Context, id int64) error {
	n, ok := f.notifications[id]
	if !ok {
		return repo.ErrNotificationNotFound
	}
	n.IsRead = true
	return nil
}

func (f *fakeRepo) DeleteNotification(_ context.Context, id int64) error {
	if _, ok := f.notifications[id]; !ok {
		return repo.ErrNotificationNotFound
	}
	delete(f.notifications, id)
	return nil
}

func (f *fakeRepo) MigrateUp(string) error   { return nil }
func (f *fakeRepo) MigrateDown(string) error { return nil }

func newTestApp(t *testing.T) (*fakeRepo, *fakePublisher, http.Handler) {
	t.Helper()
	fr := newFakeRepo()
	pub := &fakePublisher{}
	log := zerolog.Nop()
	svc := service.NewService(fr, &log, pub)
	app := api.NewRouters(&api.Routers{Service: svc})
	return fr, pub, app
}

func doJSON(t *testing.T, app http.Handler, method, path string, body any) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)

	var resp dto.Response
	var raw struct {
		Status string          `json:"status"`
		Error  *dto.Error      `json:"error"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	resp.Status = raw.Status
	resp.Error = raw.Error
	resp.Data = raw.Data
	return w, resp
}

func eventBody(start, end time.Time, organizerID int64) map[string]any {
	return map[string]any{
		"name":         "Demo",
		"description":  "demo event",
		"start_time":   start,
		"end_time":     end,
		"location":     "Main Hall",
		"organizer_id": organizerID,
	}
}

func TestCreateEvent_RejectsEndBeforeStart(t *testing.T) {
	fr, pub, app := newTestApp(t)

	start := time.Now().Add(48 * time.Hour)
	w, resp := doJSON(t, app, http.MethodPost, "/v1/events", eventBody(start, start.Add(-time.Hour), 7))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != dto.FieldIncorrect {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if len(fr.events) != 0 {
		t.Fatal("store was touched for an invalid request")
	}
	if len(pub.messages) != 0 {
		t.Fatal("nothing should have been published")
	}
}

func TestCreateEvent_PublishesDispatchAndReminder(t *testing.T) {
	fr, pub, app := newTestApp(t)

	start := time.Now().Add(48 * time.Hour)
	w, resp := doJSON(t, app, http.MethodPost, "/v1/events", eventBody(start, start.Add(2*time.Hour), 7))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%+v)", w.Code, resp.Error)
	}
	if len(fr.events) != 1 {
		t.Fatalf("events stored = %d, want 1", len(fr.events))
	}
	// brand-new event: exactly the organizer notification
	if len(fr.notifications) != 1 {
		t.Fatalf("notifications = %d, want 1", len(fr.notifications))
	}
	if len(pub.messages) != 2 {
		t.Fatalf("published = %d messages, want dispatch + reminder", len(pub.messages))
	}

	var dispatch dto.DispatchMessage
	if err := json.Unmarshal(pub.messages[0].body, &dispatch); err != nil {
		t.Fatalf("decode dispatch: %v", err)
	}
	if dispatch.Kind != dto.KindDispatch || len(dispatch.NotificationIDs) != 1 {
		t.Fatalf("unexpected dispatch message: %+v", dispatch)
	}
	if pub.messages[0].delay != 0 {
		t.Fatalf("dispatch must not be delayed, got %d", pub.messages[0].delay)
	}

	var reminder dto.DispatchMessage
	if err := json.Unmarshal(pub.messages[1].body, &reminder); err != nil {
		t.Fatalf("decode reminder: %v", err)
	}
	if reminder.Kind != dto.KindReminder || reminder.EventID == 0 {
		t.Fatalf("unexpected reminder message: %+v", reminder)
	}
	if pub.messages[1].delay <= 0 {
		t.Fatalf("reminder delay = %d, want > 0", pub.messages[1].delay)
	}
}

func TestCreateEvent_ImminentStartSkipsReminder(t *testing.T) {
	_, pub, app := newTestApp(t)

	start := time.Now().Add(10 * time.Minute)
	w, _ := doJSON(t, app, http.MethodPost, "/v1/events", eventBody(start, start.Add(time.Hour), 7))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("published = %d messages, want only the dispatch", len(pub.messages))
	}
}

func TestRegister_DuplicateRejected(t *testing.T) {
	fr, _, app := newTestApp(t)

	start := time.Now().Add(48 * time.Hour)
	doJSON(t, app, http.MethodPost, "/v1/events", eventBody(start, start.Add(time.Hour), 7))
	var eventID int64
	for id := range fr.events {
		eventID = id
	}

	w, _ := doJSON(t, app, http.MethodPost, fmt.Sprintf("/v1/events/%d/registrations", eventID), map[string]any{"user_id": 10})
	if w.Code != http.StatusCreated {
		t.Fatalf("first registration: status = %d, want 201", w.Code)
	}

	w, resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/v1/events/%d/registrations", eventID), map[string]any{"user_id": 10})
	if w.Code != http.StatusConflict {
		t.Fatalf("second registration: status = %d, want 409", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != dto.RegistrationDuplicate {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if len(fr.registrations) != 1 {
		t.Fatalf("registrations = %d, want 1", len(fr.registrations))
	}
}

func TestConfirmRegistration_Transitions(t *testing.T) {
	fr, _, app := newTestApp(t)

	start := time.Now().Add(48 * time.Hour)
	doJSON(t, app, http.MethodPost, "/v1/events", eventBody(start, start.Add(time.Hour), 7))
	var eventID int64
	for id := range fr.events {
		eventID = id
	}
	doJSON(t, app, http.MethodPost, fmt.Sprintf("/v1/events/%d/registrations", eventID), map[string]any{"user_id": 10})

	w, _ := doJSON(t, app, http.MethodPost, fmt.Sprintf("/v1/events/%d/registrations/confirm", eventID), map[string]any{"user_id": 10})
	if w.Code != http.StatusOK {
		t.Fatalf("confirm: status = %d, want 200", w.Code)
	}

	// confirming twice is rejected, not silently repeated
	w, resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/v1/events/%d/registrations/confirm", eventID), map[string]any{"user_id": 10})
	if w.Code != http.StatusConflict {
		t.Fatalf("double confirm: status = %d, want 409", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != dto.RegistrationImmutable {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	// unknown registration
	w, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/v1/events/%d/registrations/confirm", eventID), map[string]any{"user_id": 99})
	if w.Code != http.StatusNotFound {
		t.Fatalf("confirm unknown: status = %d, want 404", w.Code)
	}
}

func TestCancelRegistration_DispatchesNotification(t *testing.T) {
	fr, pub, app := newTestApp(t)

	start := time.Now().Add(48 * time.Hour)
	doJSON(t, app, http.MethodPost, "/v1/events", eventBody(start, start.Add(time.Hour), 7))
	var eventID int64
	for id := range fr.events {
		eventID = id
	}
	doJSON(t, app, http.MethodPost, fmt.Sprintf("/v1/events/%d/registrations", eventID), map[string]any{"user_id": 10})
	before := len(pub.messages)

	w, _ := doJSON(t, app, http.MethodDelete, fmt.Sprintf("/v1/events/%d/registrations/10", eventID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel: status = %d, want 200", w.Code)
	}
	if len(fr.registrations) != 0 {
		t.Fatal("registration row should be gone after cancel")
	}

	if len(pub.messages) != before+1 {
		t.Fatalf("published = %d new messages, want 1", len(pub.messages)-before)
	}
	var msg dto.DispatchMessage
	if err := json.Unmarshal(pub.messages[before].body, &msg); err != nil {
		t.Fatalf("decode cancel dispatch: %v", err)
	}
	if msg.Kind != dto.KindDispatch || len(msg.NotificationIDs) != 1 {
		t.Fatalf("unexpected cancel dispatch: %+v", msg)
	}
}

func TestGetEvent_NotFound(t *testing.T) {
	_, _, app := newTestApp(t)

	w, resp := doJSON(t, app, http.MethodGet, "/v1/events/12345", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != dto.EventNotFound {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
}

func TestListOrganizerEvents_UpcomingFlag(t *testing.T) {
	fr, _, app := newTestApp(t)

	w, _ := doJSON(t, app, http.MethodGet, "/v1/organizers/7/events", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !fr.lastUpcomingOnly {
		t.Fatal("upcoming filter should default to true")
	}

	doJSON(t, app, http.MethodGet, "/v1/organizers/7/events?upcoming=false", nil)
	if fr.lastUpcomingOnly {
		t.Fatal("upcoming=false should request past events")
	}
}

func TestCreateUser_HashesPassword(t *testing.T) {
	fr, _, app := newTestApp(t)

	w, resp := doJSON(t, app, http.MethodPost, "/v1/users", map[string]any{
		"first_name": "Hannah",
		"last_name":  "Lorainne",
		"email":      "hannah@example.com",
		"username":   "hannahl",
		"password":   "s3cret-pass",
		"user_type":  "organizer",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%+v)", w.Code, resp.Error)
	}
	if len(fr.users) != 1 {
		t.Fatalf("users stored = %d, want 1", len(fr.users))
	}
	for _, u := range fr.users {
		if u.PasswordHash == "" || u.PasswordHash == "s3cret-pass" {
			t.Fatal("password must be stored as a hash")
		}
	}
	if bytes.Contains(w.Body.Bytes(), []byte("s3cret-pass")) {
		t.Fatal("password must not be echoed in the response")
	}
}

func TestDeleteUser_OrganizerWithEventsRejected(t *testing.T) {
	fr, _, app := newTestApp(t)

	doJSON(t, app, http.MethodPost, "/v1/users", map[string]any{
		"first_name": "Org", "last_name": "Anizer", "email": "org@example.com",
		"username": "organizer1", "password": "s3cret-pass", "user_type": "organizer",
	})
	var userID int64
	for id := range fr.users {
		userID = id
	}

	start := time.Now().Add(48 * time.Hour)
	doJSON(t, app, http.MethodPost, "/v1/events", eventBody(start, start.Add(time.Hour), userID))

	w, resp := doJSON(t, app, http.MethodDelete, fmt.Sprintf("/v1/users/%d", userID), nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != dto.OrganizerHasEvents {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if len(fr.users) != 1 {
		t.Fatal("user must not be deleted while owning events")
	}
}

func TestDeleteUser_SessionSpeakerRejected(t *testing.T) {
	fr, _, app := newTestApp(t)

	doJSON(t, app, http.MethodPost, "/v1/users", map[string]any{
		"first_name": "Sasha", "last_name": "Keynote", "email": "speaker@example.com",
		"username": "speaker1", "password": "s3cret-pass", "user_type": "attendee",
	})
	var speakerID int64
	for id := range fr.users {
		speakerID = id
	}

	start := time.Now().Add(48 * time.Hour)
	body := eventBody(start, start.Add(2*time.Hour), 7)
	body["sessions"] = []map[string]any{{
		"title":      "Opening keynote",
		"start_time": start,
		"end_time":   start.Add(time.Hour),
		"speaker_id": speakerID,
	}}
	w, resp := doJSON(t, app, http.MethodPost, "/v1/events", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create event: status = %d, want 201 (%+v)", w.Code, resp.Error)
	}

	w, resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/v1/users/%d", speakerID), nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != dto.UserIsSpeaker {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if len(fr.users) != 1 {
		t.Fatal("user must not be deleted while speaking at sessions")
	}
}

func TestUpdateEvent_ResponseMatchesGetShape(t *testing.T) {
	fr, _, app := newTestApp(t)

	start := time.Now().Add(48 * time.Hour)
	doJSON(t, app, http.MethodPost, "/v1/events", eventBody(start, start.Add(time.Hour), 7))
	var eventID int64
	for id := range fr.events {
		eventID = id
	}

	w, resp := doJSON(t, app, http.MethodPut, fmt.Sprintf("/v1/events/%d", eventID), map[string]any{
		"name":       "Renamed",
		"start_time": start,
		"end_time":   start.Add(3 * time.Hour),
		"location":   "Hall B",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%+v)", w.Code, resp.Error)
	}

	var got dto.EventResponse
	if err := json.Unmarshal(resp.Data.(json.RawMessage), &got); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("update response lost created_at")
	}
	if got.OrganizerID != 7 {
		t.Fatalf("update response organizer_id = %d, want 7", got.OrganizerID)
	}
}

func TestUpdateUser_ResponseMatchesGetShape(t *testing.T) {
	fr, _, app := newTestApp(t)

	doJSON(t, app, http.MethodPost, "/v1/users", map[string]any{
		"first_name": "Hannah", "last_name": "Lorainne", "email": "hannah@example.com",
		"username": "hannahl", "password": "s3cret-pass", "user_type": "organizer",
	})
	var userID int64
	for id := range fr.users {
		userID = id
	}

	w, resp := doJSON(t, app, http.MethodPut, fmt.Sprintf("/v1/users/%d", userID), map[string]any{
		"first_name": "Hannah", "last_name": "Renamed", "email": "hannah@example.com",
		"username": "hannahl",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%+v)", w.Code, resp.Error)
	}

	var got dto.UserResponse
	if err := json.Unmarshal(resp.Data.(json.RawMessage), &got); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if got.UserType != "organizer" {
		t.Fatalf("update response user_type = %q, want organizer", got.UserType)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("update response lost created_at")
	}
}

func TestNotificationLifecycle(t *testing.T) {
	fr, _, app := newTestApp(t)

	start := time.Now().Add(48 * time.Hour)
	doJSON(t, app, http.MethodPost, "/v1/events", eventBody(start, start.Add(time.Hour), 7))

	w, resp := doJSON(t, app, http.MethodGet, "/v1/users/7/notifications", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status = %d, want 200", w.Code)
	}
	var notifs []dto.NotificationResponse
	if err := json.Unmarshal(resp.Data.(json.RawMessage), &notifs); err != nil {
		t.Fatalf("decode notifications: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifs))
	}

	w, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/v1/notifications/%d/read", notifs[0].ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mark read: status = %d, want 200", w.Code)
	}
	if !fr.notifications[notifs[0].ID].IsRead {
		t.Fatal("notification should be marked read")
	}

	w, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/v1/notifications/%d", notifs[0].ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d, want 200", w.Code)
	}
	if len(fr.notifications) != 0 {
		t.Fatal("notification should be deleted")
	}
}
