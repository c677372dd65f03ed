package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/arstudios/protend/internal/models"
	"github.com/arstudios/protend/internal/repository"
)

// ==============================================
// USER SERVICE
// ==============================================

var ErrInvalidTheme = errors.New("unknown theme preference")

// ProfileStore is the slice of the user repository profile management needs.
type ProfileStore interface {
	GetUserByID(ctx context.Context, userID int) (*models.User, error)
	UpdatePreferences(ctx context.Context, userID int, theme string, notifications bool) error
	UpdateAvatar(ctx context.Context, userID int, avatarURL string) error
}

// NotificationStore manages per-user notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID int) error
	MarkAllRead(ctx context.Context, userID int) error
}

type UserService struct {
	users         ProfileStore
	notifications NotificationStore
	logger        *zap.Logger
}

func NewUserService(users ProfileStore, notifications NotificationStore, logger *zap.Logger) *UserService {
	return &UserService{
		users:         users,
		notifications: notifications,
		logger:        logger,
	}
}

// ==============================================
// PROFILE
// ==============================================

func (s *UserService) GetProfile(ctx context.Context, userID int) (*models.PublicUser, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user.ToPublic(), nil
}

// UpdatePreferences stores the theme and notification toggles.
func (s *UserService) UpdatePreferences(ctx context.Context, userID int, theme string, notifications bool) error {
	switch theme {
	case "dark", "light":
	default:
		return ErrInvalidTheme
	}

	if err := s.users.UpdatePreferences(ctx, userID, theme, notifications); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.ErrUserNotFound
		}
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	return nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID int, avatarURL string) error {
	if err := s.users.UpdateAvatar(ctx, userID, avatarURL); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.ErrUserNotFound
		}
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}

// ==============================================
// NOTIFICATIONS
// ==============================================

// Notify creates a notification for a user. Best-effort from the caller's
// point of view: failures are logged, not propagated.
func (s *UserService) Notify(ctx context.Context, userID int, title, message, kind string) {
	if kind == "" {
		kind = "info"
	}
	n := &models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    kind,
	}
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		s.logger.Warn("failed to create notification",
			zap.Int("user_id", userID), zap.Error(err))
	}
}

func (s *UserService) Notifications(ctx context.Context, userID int) ([]models.Notification, error) {
	return s.notifications.ListNotifications(ctx, userID)
}

func (s *UserService) MarkNotificationRead(ctx context.Context, userID, notificationID int) error {
	return s.notifications.MarkRead(ctx, userID, notificationID)
}

func (s *UserService) MarkAllNotificationsRead(ctx context.Context, userID int) error {
	return s.notifications.MarkAllRead(ctx, userID)
}
