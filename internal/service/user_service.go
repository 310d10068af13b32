package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_market/internal/apperr"
	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository"
	"go.uber.org/zap"
)

type UserService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewUserService(store repository.Store, logger *zap.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger,
	}
}

// Register находит пользователя по Telegram ID или создаёт нового студента
func (s *UserService) Register(ctx context.Context, telegramID int64, username, firstName, lastName string) (*model.User, error) {
	existing, err := s.store.Users().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	user := &model.User{
		TelegramID: telegramID,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
		Role:       model.RoleStudent, // По умолчанию студент
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", telegramID),
		zap.String("username", username),
	)

	return user, nil
}

// SetRole меняет роль пользователя.
// Себе можно выбрать STUDENT или TUTOR, остальное только администратору.
func (s *UserService) SetRole(ctx context.Context, caller model.Caller, userID int64, role model.Role) (*model.User, error) {
	if _, ok := model.ParseRole(string(role)); !ok {
		return nil, apperr.ErrInvalidRole
	}
	if role == model.RoleAdmin || userID != caller.UserID {
		if err := Require(caller, CapAdmin); err != nil {
			return nil, err
		}
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, apperr.ErrUserNotFound
	}
	if user.Role == role {
		return user, nil
	}

	if err := s.store.Users().UpdateRole(ctx, userID, role); err != nil {
		return nil, fmt.Errorf("update user role: %w", err)
	}

	s.logger.Info("User role changed",
		zap.Int64("user_id", userID),
		zap.String("old_role", string(user.Role)),
		zap.String("new_role", string(role)),
	)

	user.Role = role
	return user, nil
}

// GetByID получает пользователя по ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, apperr.ErrUserNotFound
	}
	return user, nil
}

// GetByTelegramID получает пользователя по Telegram ID, (nil, nil) если его нет
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.store.Users().GetByTelegramID(ctx, telegramID)
}

func (s *UserService) List(ctx context.Context, caller model.Caller) ([]*model.User, error) {
	if err := Require(caller, CapAdmin); err != nil {
		return nil, err
	}
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
