package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arstudios/protend/internal/models"
)

// ==============================================
// ERRORS
// ==============================================

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

const userColumns = `id, username, email, password_hash, avatar_url, role,
	       is_active, is_verified, two_factor_enabled,
	       theme_preference, notifications_enabled,
	       is_restricted, restriction_until, restriction_reason,
	       is_banned, ban_reason, banned_at,
	       created_at, last_login_at`

// ==============================================
// USER REPOSITORY
// ==============================================

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.AvatarURL,
		&user.Role,
		&user.IsActive,
		&user.IsVerified,
		&user.TwoFactorEnabled,
		&user.ThemePreference,
		&user.NotificationsEnabled,
		&user.IsRestricted,
		&user.RestrictionUntil,
		&user.RestrictionReason,
		&user.IsBanned,
		&user.BanReason,
		&user.BannedAt,
		&user.CreatedAt,
		&user.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

// ==============================================
// CREATE / READ
// ==============================================

// CreateUser creates a new user
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, avatar_url, role,
		                   is_active, is_verified, two_factor_enabled,
		                   theme_preference, notifications_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.AvatarURL,
		user.Role,
		user.IsActive,
		user.IsVerified,
		user.TwoFactorEnabled,
		user.ThemePreference,
		user.NotificationsEnabled,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, userID int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, userID))
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// GetUserByUsername retrieves a user by username
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRow(ctx, query, username))
}

// IsUsernameAvailable checks if a username is free
func (r *UserRepository) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE username = $1`, username).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count == 0, nil
}

// ListUsers returns all users ordered by creation time
func (r *UserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	return r.queryUsers(ctx, query)
}

// ListUsersByRole returns all users with a given role
func (r *UserRepository) ListUsersByRole(ctx context.Context, role string) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY created_at DESC`
	return r.queryUsers(ctx, query, role)
}

// SearchUsers matches usernames and emails against a substring
func (r *UserRepository) SearchUsers(ctx context.Context, term string, limit int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE username ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		ORDER BY username
		LIMIT $2`
	return r.queryUsers(ctx, query, term, limit)
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// ==============================================
// UPDATES
// ==============================================

// UpdateLastLogin stamps last_login_at
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// MarkVerified flips is_verified after a successful signup OTP
func (r *UserRepository) MarkVerified(ctx context.Context, userID int) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET is_verified = TRUE WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	return nil
}

// UpdatePreferences sets theme and notification settings
func (r *UserRepository) UpdatePreferences(ctx context.Context, userID int, theme string, notifications bool) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET theme_preference = $1, notifications_enabled = $2 WHERE id = $3`,
		theme, notifications, userID)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	return nil
}

// UpdateAvatar sets the avatar URL
func (r *UserRepository) UpdateAvatar(ctx context.Context, userID int, avatarURL string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET avatar_url = $1 WHERE id = $2`, avatarURL, userID)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}

// ==============================================
// BANS & RESTRICTIONS
// ==============================================

// BanUser bans a user and clears any active restriction
func (r *UserRepository) BanUser(ctx context.Context, userID int, reason string) error {
	query := `
		UPDATE users
		SET is_banned = TRUE, ban_reason = $1, banned_at = NOW(),
		    is_restricted = FALSE, restriction_until = NULL, restriction_reason = NULL
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, reason, userID)
	if err != nil {
		return fmt.Errorf("failed to ban user: %w", err)
	}
	return nil
}

// UnbanUser lifts a ban
func (r *UserRepository) UnbanUser(ctx context.Context, userID int) error {
	query := `
		UPDATE users
		SET is_banned = FALSE, ban_reason = NULL, banned_at = NULL
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to unban user: %w", err)
	}
	return nil
}

// RestrictUser places a time-boxed restriction on a user
func (r *UserRepository) RestrictUser(ctx context.Context, userID int, until time.Time, reason string) error {
	query := `
		UPDATE users
		SET is_restricted = TRUE, restriction_until = $1, restriction_reason = $2
		WHERE id = $3
	`
	_, err := r.db.Exec(ctx, query, until, reason, userID)
	if err != nil {
		return fmt.Errorf("failed to restrict user: %w", err)
	}
	return nil
}

// UnrestrictUser removes a restriction
func (r *UserRepository) UnrestrictUser(ctx context.Context, userID int) error {
	query := `
		UPDATE users
		SET is_restricted = FALSE, restriction_until = NULL, restriction_reason = NULL
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to unrestrict user: %w", err)
	}
	return nil
}

// ClearExpiredRestriction lazily removes a restriction whose deadline has
// passed; called when a gate check notices the expiry.
func (r *UserRepository) ClearExpiredRestriction(ctx context.Context, userID int) error {
	query := `
		UPDATE users
		SET is_restricted = FALSE, restriction_until = NULL, restriction_reason = NULL
		WHERE id = $1 AND is_restricted = TRUE AND restriction_until < NOW()
	`
	_, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to clear expired restriction: %w", err)
	}
	return nil
}
