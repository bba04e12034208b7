package service

import (
	"fmt"

	"github.com/wb-go/wbf/ginext"
	"golang.org/x/crypto/bcrypt"

	"eventure/internal/dto"
	"eventure/internal/model"
	"eventure/internal/repo"
	"eventure/pkg/validator"
)

func (s *service) CreateUser(ctx *ginext.Context) {
	var req dto.CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash password")
		dto.InternalServerError(ctx)
		return
	}

	user := &model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		UserType:     req.UserType,
	}

	id, err := s.repo.CreateUser(ctx.Request.Context(), user)
	if err != nil {
		if err == repo.ErrDuplicateUser {
			dto.ConflictError(ctx, dto.UserDuplicate, "Username or email is already taken")
			return
		}
		s.log.Error().Err(err).Msg("failed to create user")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("user_id", id).Str("user_type", user.UserType).Msg("user created successfully")
	dto.SuccessCreatedResponse(ctx, userResponse(user))
}

func (s *service) GetUser(ctx *ginext.Context) {
	userID, ok := paramID(ctx)
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid user ID")
		return
	}

	user, err := s.repo.GetUserByID(ctx.Request.Context(), userID)
	if err != nil {
		dto.UserNotFoundError(ctx)
		return
	}

	dto.SuccessResponse(ctx, userResponse(user))
}

func (s *service) UpdateUser(ctx *ginext.Context) {
	userID, ok := paramID(ctx)
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid user ID")
		return
	}

	var req dto.UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	var newHash string
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to hash password")
			dto.InternalServerError(ctx)
			return
		}
		newHash = string(hash)
	}

	user := &model.User{
		ID:        userID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Username:  req.Username,
	}

	if err := s.repo.UpdateUserTx(ctx.Request.Context(), user, newHash); err != nil {
		if err == repo.ErrUserNotFound {
			dto.UserNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to update user")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("user_id", userID).Bool("password_changed", newHash != "").Msg("profile updated")
	dto.SuccessResponse(ctx, userResponse(user))
}

func (s *service) DeleteUser(ctx *ginext.Context) {
	userID, ok := paramID(ctx)
	if !ok {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid user ID")
		return
	}

	if err := s.repo.DeleteUserTx(ctx.Request.Context(), userID); err != nil {
		switch err {
		case repo.ErrUserNotFound:
			dto.UserNotFoundError(ctx)
		case repo.ErrOrganizerHasEvents:
			dto.ConflictError(ctx, dto.OrganizerHasEvents, "Delete or transfer your events before deleting the account")
		case repo.ErrUserIsSpeaker:
			dto.ConflictError(ctx, dto.UserIsSpeaker, "Remove the user from session line-ups before deleting the account")
		default:
			s.log.Error().Err(err).Msg("failed to delete user")
			dto.InternalServerError(ctx)
		}
		return
	}

	s.log.Info().Int64("user_id", userID).Msg("user deleted")
	dto.SuccessResponse(ctx, nil)
}

func userResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Username:  u.Username,
		UserType:  u.UserType,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
