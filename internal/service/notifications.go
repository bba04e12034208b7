package service

import (
	"github.com/wb-go/wbf/ginext"

	"eventure/internal/dto"
	"eventure/internal/repo"
)

func (s *service) ListNotifications(ctx *ginext.Context) {
	userID, ok := paramID(ctx)
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid user ID")
		return
	}

	notifs, err := s.repo.ListNotificationsByUser(ctx.Request.Context(), userID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list notifications")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.NotificationResponse, 0, len(notifs))
	for _, n := range notifs {
		resp = append(resp, dto.NotificationResponse{
			ID:        n.ID,
			UserID:    n.UserID,
			Name:      n.Name,
			Title:     n.Title,
			Message:   n.Message,
			Type:      n.Type,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) MarkNotificationRead(ctx *ginext.Context) {
	id, ok := paramID(ctx)
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid notification ID")
		return
	}

	if err := s.repo.MarkNotificationRead(ctx.Request.Context(), id); err != nil {
		if err == repo.ErrNotificationNotFound {
			dto.NotFoundError(ctx, dto.NotificationNotFound, "Notification not found")
			return
		}
		s.log.Error().Err(err).Msg("failed to mark notification read")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, nil)
}

func (s *service) DeleteNotification(ctx *ginext.Context) {
	id, ok := paramID(ctx)
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid notification ID")
		return
	}

	if err := s.repo.DeleteNotification(ctx.Request.Context(), id); err != nil {
		if err == repo.ErrNotificationNotFound {
			dto.NotFoundError(ctx, dto.NotificationNotFound, "Notification not found")
			return
		}
		s.log.Error().Err(err).Msg("failed to delete notification")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, nil)
}
