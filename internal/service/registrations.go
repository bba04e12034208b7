package service

import (
	"fmt"
	"strconv"

	"github.com/wb-go/wbf/ginext"

	"eventure/internal/dto"
	"eventure/internal/model"
	"eventure/internal/repo"
	"eventure/pkg/validator"
)

func (s *service) Register(ctx *ginext.Context) {
	eventID, ok := paramID(ctx)
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	reg, err := s.repo.RegisterTx(ctx.Request.Context(), req.UserID, eventID)
	if err != nil {
		switch err {
		case repo.ErrEventNotFound:
			dto.EventNotFoundError(ctx)
		case repo.ErrDuplicateRegistration:
			dto.RegistrationDuplicateError(ctx)
		default:
			s.log.Error().Err(err).Msg("failed to register for event")
			dto.InternalServerError(ctx)
		}
		return
	}

	s.log.Info().
		Int64("registration_id", reg.ID).
		Int64("event_id", eventID).
		Int64("user_id", req.UserID).
		Msg("registration created successfully")

	dto.SuccessCreatedResponse(ctx, registrationResponse(reg))
}

func (s *service) ConfirmRegistration(ctx *ginext.Context) {
	eventID, ok := paramID(ctx)
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	reg, err := s.repo.ConfirmRegistrationTx(ctx.Request.Context(), req.UserID, eventID)
	if err != nil {
		switch err {
		case repo.ErrRegistrationNotFound:
			dto.RegistrationNotFoundError(ctx)
		case repo.ErrInvalidStatusChange:
			dto.ConflictError(ctx, dto.RegistrationImmutable, "Registration is already confirmed")
		default:
			s.log.Error().Err(err).Msg("failed to confirm registration")
			dto.InternalServerError(ctx)
		}
		return
	}

	s.log.Info().
		Int64("registration_id", reg.ID).
		Int64("user_id", reg.UserID).
		Msg("registration confirmed successfully")

	dto.SuccessResponse(ctx, registrationResponse(reg))
}

func (s *service) CancelRegistration(ctx *ginext.Context) {
	eventID, ok := paramID(ctx)
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}
	userID, err := strconv.ParseInt(ctx.Param("userID"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid user ID")
		return
	}

	notif, err := s.repo.CancelRegistrationTx(ctx.Request.Context(), userID, eventID)
	if err != nil {
		if err == repo.ErrRegistrationNotFound {
			dto.RegistrationNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to cancel registration")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().
		Int64("event_id", eventID).
		Int64("user_id", userID).
		Msg("registration canceled")

	s.dispatch([]model.Notification{*notif})
	dto.SuccessResponse(ctx, nil)
}

func (s *service) ListRegisteredEvents(ctx *ginext.Context) {
	userID, ok := paramID(ctx)
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid user ID")
		return
	}

	events, err := s.repo.ListRegisteredEvents(ctx.Request.Context(), userID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list registered events")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		resp = append(resp, eventResponse(&events[i], nil))
	}

	dto.SuccessResponse(ctx, resp)
}

func registrationResponse(reg *model.Registration) dto.RegistrationResponse {
	return dto.RegistrationResponse{
		ID:        reg.ID,
		UserID:    reg.UserID,
		EventID:   reg.EventID,
		Status:    reg.Status,
		CreatedAt: reg.CreatedAt,
		UpdatedAt: reg.UpdatedAt,
	}
}
