package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"eventure/internal/dto"
	"eventure/internal/model"
	"eventure/internal/repo"
	"eventure/pkg/validator"
)

// reminderLead is how long before an event starts its reminder fan-out fires.
const reminderLead = time.Hour

type Service interface {
	CreateEvent(ctx *ginext.Context)
	GetEvent(ctx *ginext.Context)
	UpdateEvent(ctx *ginext.Context)
	DeleteEvent(ctx *ginext.Context)
	ListOrganizerEvents(ctx *ginext.Context)

	Register(ctx *ginext.Context)
	ConfirmRegistration(ctx *ginext.Context)
	CancelRegistration(ctx *ginext.Context)
	ListRegisteredEvents(ctx *ginext.Context)

	CreateUser(ctx *ginext.Context)
	GetUser(ctx *ginext.Context)
	UpdateUser(ctx *ginext.Context)
	DeleteUser(ctx *ginext.Context)

	ListNotifications(ctx *ginext.Context)
	MarkNotificationRead(ctx *ginext.Context)
	DeleteNotification(ctx *ginext.Context)
}

// Publisher is the slice of the rabbit client the service needs.
type Publisher interface {
	Publish(message []byte, delaySeconds int) error
}

type service struct {
	repo repo.Repository
	log  *zerolog.Logger
	rbt  Publisher
}

func NewService(repo repo.Repository, logger *zerolog.Logger, rbt Publisher) Service {
	return &service{
		repo: repo,
		log:  logger,
		rbt:  rbt,
	}
}

func (s *service) CreateEvent(ctx *ginext.Context) {
	var req dto.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse create event request")
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		s.log.Error().Msgf("validation failed: %v", verr)
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	event := &model.Event{
		Name:        req.Name,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		OrganizerID: req.OrganizerID,
	}
	sessions := sessionsFromRequest(req.Sessions)

	id, notifs, err := s.repo.CreateEventWithNotificationsTx(ctx.Request.Context(), event, sessions)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create event in DB")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("event_id", id).Int("notifications", len(notifs)).Msg("event created successfully")

	s.dispatch(notifs)
	s.scheduleReminder(event)

	dto.SuccessCreatedResponse(ctx, eventResponse(event, sessions))
}

func (s *service) GetEvent(ctx *ginext.Context) {
	eventID, ok := paramID(ctx)
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	sessions, err := s.repo.GetSessionsByEventID(ctx.Request.Context(), eventID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get event sessions")
		dto.InternalServerError(ctx)
		return
	}

	count, err := s.repo.CountRegistrations(ctx.Request.Context(), eventID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to count registrations")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, dto.EventInfoResponse{
		EventResponse:     eventResponse(event, sessions),
		RegistrationCount: count,
	})
}

func (s *service) UpdateEvent(ctx *ginext.Context) {
	eventID, ok := paramID(ctx)
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	var req dto.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	event := &model.Event{
		ID:          eventID,
		Name:        req.Name,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
	}
	sessions := sessionsFromRequest(req.Sessions)

	notifs, err := s.repo.UpdateEventTx(ctx.Request.Context(), event, sessions)
	if err != nil {
		if err == repo.ErrEventNotFound {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to update event")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("event_id", eventID).Int("notifications", len(notifs)).Msg("event updated successfully")
	s.dispatch(notifs)

	dto.SuccessResponse(ctx, eventResponse(event, sessions))
}

func (s *service) DeleteEvent(ctx *ginext.Context) {
	eventID, ok := paramID(ctx)
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	if err := s.repo.DeleteEventTx(ctx.Request.Context(), eventID); err != nil {
		if err == repo.ErrEventNotFound {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to delete event")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("event_id", eventID).Msg("event deleted")
	dto.SuccessResponse(ctx, nil)
}

func (s *service) ListOrganizerEvents(ctx *ginext.Context) {
	organizerID, ok := paramID(ctx)
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid organizer ID")
		return
	}

	upcomingOnly := ctx.Query("upcoming") != "false"

	events, err := s.repo.ListEventsByOrganizer(ctx.Request.Context(), organizerID, upcomingOnly)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list organizer events")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		resp = append(resp, eventResponse(&events[i], nil))
	}

	dto.SuccessResponse(ctx, resp)
}

// dispatch hands committed notifications to the delivery worker. Email
// delivery is best effort: the rows are already committed and a publish
// failure must not fail the user action.
func (s *service) dispatch(notifs []model.Notification) {
	if len(notifs) == 0 {
		return
	}

	ids := make([]int64, 0, len(notifs))
	for _, n := range notifs {
		ids = append(ids, n.ID)
	}

	payload, err := json.Marshal(dto.DispatchMessage{Kind: dto.KindDispatch, NotificationIDs: ids})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal dispatch message")
		return
	}
	if err := s.rbt.Publish(payload, 0); err != nil {
		s.log.Error().Err(err).Msg("failed to publish dispatch message to RabbitMQ")
	}
}

// scheduleReminder publishes a delayed message that triggers the attendee
// reminder fan-out one hour before the event starts. Events starting sooner
// than that get no reminder.
func (s *service) scheduleReminder(e *model.Event) {
	delay := int(time.Until(e.StartTime.Add(-reminderLead)).Seconds())
	if delay <= 0 {
		return
	}

	payload, err := json.Marshal(dto.DispatchMessage{Kind: dto.KindReminder, EventID: e.ID})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal reminder message")
		return
	}
	if err := s.rbt.Publish(payload, delay); err != nil {
		s.log.Error().Err(err).Msg("failed to publish reminder message to RabbitMQ")
	}
}

func paramID(ctx *ginext.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	return id, err == nil
}

func sessionsFromRequest(reqs []dto.SessionRequest) []model.Session {
	sessions := make([]model.Session, 0, len(reqs))
	for _, sr := range reqs {
		sessions = append(sessions, model.Session{
			Title:       sr.Title,
			Description: sr.Description,
			Location:    sr.Location,
			StartTime:   sr.StartTime,
			EndTime:     sr.EndTime,
			SpeakerID:   sr.SpeakerID,
		})
	}
	return sessions
}

func eventResponse(e *model.Event, sessions []model.Session) dto.EventResponse {
	resp := dto.EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Location:    e.Location,
		OrganizerID: e.OrganizerID,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	for _, sess := range sessions {
		resp.Sessions = append(resp.Sessions, dto.SessionResponse{
			ID:          sess.ID,
			EventID:     sess.EventID,
			Title:       sess.Title,
			Description: sess.Description,
			Location:    sess.Location,
			StartTime:   sess.StartTime,
			EndTime:     sess.EndTime,
			SpeakerID:   sess.SpeakerID,
		})
	}
	return resp
}
