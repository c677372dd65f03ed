package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arstudios/protend/internal/models"
	"github.com/arstudios/protend/internal/repository"
)

// ==============================================
// ADMIN SERVICE
// ==============================================

var ErrCannotModerateAdmin = errors.New("admin accounts cannot be banned or restricted")

// AdminUserStore is the slice of the user repository admin moderation needs.
type AdminUserStore interface {
	GetUserByID(ctx context.Context, userID int) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListUsersByRole(ctx context.Context, role string) ([]models.User, error)
	SearchUsers(ctx context.Context, term string, limit int) ([]models.User, error)
	BanUser(ctx context.Context, userID int, reason string) error
	UnbanUser(ctx context.Context, userID int) error
	RestrictUser(ctx context.Context, userID int, until time.Time, reason string) error
	UnrestrictUser(ctx context.Context, userID int) error
}

// ContentStore manages the public-site content: featured works and clients.
type ContentStore interface {
	CreateFeaturedWork(ctx context.Context, w *models.FeaturedWork) error
	GetFeaturedWorkByID(ctx context.Context, id int) (*models.FeaturedWork, error)
	ListFeaturedWorks(ctx context.Context, activeOnly bool) ([]models.FeaturedWork, error)
	UpdateFeaturedWork(ctx context.Context, w *models.FeaturedWork) error
	DeleteFeaturedWork(ctx context.Context, id int) error

	CreateClient(ctx context.Context, c *models.Client) error
	GetClientByID(ctx context.Context, id int) (*models.Client, error)
	ListClients(ctx context.Context, activeOnly bool) ([]models.Client, error)
	UpdateClient(ctx context.Context, c *models.Client) error
	DeleteClient(ctx context.Context, id int) error
}

// ActivityFeed reads the audit trail back out.
type ActivityFeed interface {
	ListActivities(ctx context.Context, limit, offset int) ([]models.Activity, error)
	CountActivities(ctx context.Context) (int, error)
}

type AdminService struct {
	users      AdminUserStore
	content    ContentStore
	activities ActivityFeed
	logger     *zap.Logger
}

func NewAdminService(users AdminUserStore, content ContentStore, activities ActivityFeed, logger *zap.Logger) *AdminService {
	return &AdminService{
		users:      users,
		content:    content,
		activities: activities,
		logger:     logger,
	}
}

// ==============================================
// USER DIRECTORY & MODERATION
// ==============================================

func (s *AdminService) ListUsers(ctx context.Context, role string) ([]models.User, error) {
	if role != "" {
		return s.users.ListUsersByRole(ctx, role)
	}
	return s.users.ListUsers(ctx)
}

func (s *AdminService) SearchUsers(ctx context.Context, term string, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.users.SearchUsers(ctx, term, limit)
}

// BanUser permanently blocks an account. Admin accounts are off-limits.
func (s *AdminService) BanUser(ctx context.Context, userID int, reason string) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return s.mapUserErr(err)
	}
	if user.IsAdmin() {
		return ErrCannotModerateAdmin
	}

	if err := s.users.BanUser(ctx, userID, reason); err != nil {
		return s.mapUserErr(err)
	}

	s.logger.Info("user banned", zap.Int("user_id", userID), zap.String("reason", reason))
	return nil
}

func (s *AdminService) UnbanUser(ctx context.Context, userID int) error {
	if err := s.users.UnbanUser(ctx, userID); err != nil {
		return s.mapUserErr(err)
	}

	s.logger.Info("user unbanned", zap.Int("user_id", userID))
	return nil
}

// RestrictUser blocks an account until the given time.
func (s *AdminService) RestrictUser(ctx context.Context, userID int, until time.Time, reason string) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return s.mapUserErr(err)
	}
	if user.IsAdmin() {
		return ErrCannotModerateAdmin
	}

	if err := s.users.RestrictUser(ctx, userID, until, reason); err != nil {
		return s.mapUserErr(err)
	}

	s.logger.Info("user restricted",
		zap.Int("user_id", userID),
		zap.Time("until", until),
		zap.String("reason", reason))
	return nil
}

func (s *AdminService) UnrestrictUser(ctx context.Context, userID int) error {
	if err := s.users.UnrestrictUser(ctx, userID); err != nil {
		return s.mapUserErr(err)
	}

	s.logger.Info("user unrestricted", zap.Int("user_id", userID))
	return nil
}

// ==============================================
// FEATURED WORKS
// ==============================================

func (s *AdminService) CreateFeaturedWork(ctx context.Context, w *models.FeaturedWork) (*models.FeaturedWork, error) {
	if err := s.content.CreateFeaturedWork(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to create featured work: %w", err)
	}
	return w, nil
}

// ListFeaturedWorks with activeOnly is the public-site view; admins pass
// false and see everything.
func (s *AdminService) ListFeaturedWorks(ctx context.Context, activeOnly bool) ([]models.FeaturedWork, error) {
	return s.content.ListFeaturedWorks(ctx, activeOnly)
}

func (s *AdminService) UpdateFeaturedWork(ctx context.Context, w *models.FeaturedWork) (*models.FeaturedWork, error) {
	if _, err := s.content.GetFeaturedWorkByID(ctx, w.ID); err != nil {
		return nil, s.mapContentErr(err)
	}
	if err := s.content.UpdateFeaturedWork(ctx, w); err != nil {
		return nil, s.mapContentErr(err)
	}
	return w, nil
}

func (s *AdminService) DeleteFeaturedWork(ctx context.Context, id int) error {
	if err := s.content.DeleteFeaturedWork(ctx, id); err != nil {
		return s.mapContentErr(err)
	}
	return nil
}

// ==============================================
// CLIENTS
// ==============================================

func (s *AdminService) CreateClient(ctx context.Context, c *models.Client) (*models.Client, error) {
	if err := s.content.CreateClient(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return c, nil
}

func (s *AdminService) ListClients(ctx context.Context, activeOnly bool) ([]models.Client, error) {
	return s.content.ListClients(ctx, activeOnly)
}

func (s *AdminService) UpdateClient(ctx context.Context, c *models.Client) (*models.Client, error) {
	if _, err := s.content.GetClientByID(ctx, c.ID); err != nil {
		return nil, s.mapContentErr(err)
	}
	if err := s.content.UpdateClient(ctx, c); err != nil {
		return nil, s.mapContentErr(err)
	}
	return c, nil
}

func (s *AdminService) DeleteClient(ctx context.Context, id int) error {
	if err := s.content.DeleteClient(ctx, id); err != nil {
		return s.mapContentErr(err)
	}
	return nil
}

// ==============================================
// ACTIVITY FEED
// ==============================================

// Activities returns a page of the audit trail plus the total count for
// pagination.
func (s *AdminService) Activities(ctx context.Context, limit, offset int) ([]models.Activity, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.activities.ListActivities(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activities: %w", err)
	}

	total, err := s.activities.CountActivities(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	return items, total, nil
}

func (s *AdminService) mapUserErr(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return models.ErrUserNotFound
	}
	return err
}

func (s *AdminService) mapContentErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrFeaturedWorkNotFound):
		return models.ErrFeaturedWorkNotFound
	case errors.Is(err, repository.ErrClientNotFound):
		return models.ErrClientNotFound
	default:
		return err
	}
}
