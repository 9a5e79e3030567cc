package service

import (
	"context"
	"datalingua/internal/logger"
	"datalingua/internal/model"
	"datalingua/internal/repository"
	"fmt"
	"strings"
	"time"
)

// UserService is admin moderation of researcher accounts
type UserService struct {
	userRepo repository.UserRepo
	now      func() time.Time
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepo) *UserService {
	return &UserService{userRepo: userRepo, now: time.Now}
}

// List returns researchers filtered by status
func (s *UserService) List(ctx context.Context, status model.UserStatus) ([]*model.User, error) {
	switch status {
	case model.UserStatusAll, model.UserStatusPending, model.UserStatusActive, model.UserStatusBanned:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.userRepo.List(ctx, status)
}

func (s *UserService) get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// Approve lets a researcher sign in
func (s *UserService) Approve(ctx context.Context, admin Actor, id string) (*model.User, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user.IsApproved = true
	user.IsActive = true
	user.ApprovedBy = admin.ID
	user.ApprovedAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	logger.WithFields(logger.Fields{"user": user.ID, "admin": admin.ID}).Info("researcher approved")
	return user, nil
}

// Ban blocks a researcher for duration days, or permanently when duration is 0
func (s *UserService) Ban(ctx context.Context, admin Actor, id string, req model.BanRequest) (*model.User, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, fmt.Errorf("%w: ban reason is required", ErrValidation)
	}
	if req.Duration < 0 {
		return nil, fmt.Errorf("%w: ban duration must not be negative", ErrValidation)
	}
	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user.IsBanned = true
	user.BanReason = req.Reason
	user.BanDuration = req.Duration
	user.BannedAt = &now
	user.BannedBy = admin.ID
	user.BanExpiresAt = nil
	if req.Duration > 0 {
		until := now.AddDate(0, 0, req.Duration)
		user.BanExpiresAt = &until
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	logger.WithFields(logger.Fields{"user": user.ID, "admin": admin.ID, "days": req.Duration}).Info("researcher banned")
	return user, nil
}

// Unban lifts a ban
func (s *UserService) Unban(ctx context.Context, admin Actor, id string) (*model.User, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	liftBan(user)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	logger.WithFields(logger.Fields{"user": user.ID, "admin": admin.ID}).Info("researcher unbanned")
	return user, nil
}

func liftBan(user *model.User) {
	user.IsBanned = false
	user.BanReason = ""
	user.BanDuration = 0
	user.BannedAt = nil
	user.BannedBy = ""
	user.BanExpiresAt = nil
}
