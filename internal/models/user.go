package models

import (
	"database/sql"
	"time"
)

// ==============================================
// USER MODEL (Database mapping)
// ==============================================

// Role values for User.Role
const (
	RoleAdmin    = "admin"
	RoleDesigner = "designer"
	RoleClient   = "client"
)

// User represents a studio member or client account
type User struct {
	ID                   int            `db:"id"`
	Username             string         `db:"username"`
	Email                string         `db:"email"`
	PasswordHash         sql.NullString `db:"password_hash"` // NULL for OAuth-only accounts
	AvatarURL            sql.NullString `db:"avatar_url"`
	Role                 string         `db:"role"`
	IsActive             bool           `db:"is_active"`
	IsVerified           bool           `db:"is_verified"`
	TwoFactorEnabled     bool           `db:"two_factor_enabled"`
	ThemePreference      string         `db:"theme_preference"`
	NotificationsEnabled bool           `db:"notifications_enabled"`
	IsRestricted         bool           `db:"is_restricted"`
	RestrictionUntil     sql.NullTime   `db:"restriction_until"`
	RestrictionReason    sql.NullString `db:"restriction_reason"`
	IsBanned             bool           `db:"is_banned"`
	BanReason            sql.NullString `db:"ban_reason"`
	BannedAt             sql.NullTime   `db:"banned_at"`
	CreatedAt            time.Time      `db:"created_at"`
	LastLoginAt          sql.NullTime   `db:"last_login_at"`
}

// PublicUser is the safe version to return to clients (no sensitive fields)
type PublicUser struct {
	ID          int        `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	Role        string     `json:"role"`
	IsVerified  bool       `json:"is_verified"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// ToPublic converts User to PublicUser (removes sensitive fields)
func (u *User) ToPublic() *PublicUser {
	pu := &PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}

	if u.AvatarURL.Valid {
		pu.AvatarURL = u.AvatarURL.String
	}
	if u.LastLoginAt.Valid {
		pu.LastLoginAt = &u.LastLoginAt.Time
	}

	return pu
}

// IsAdmin checks if user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsDesigner checks if user holds the designer role
func (u *User) IsDesigner() bool {
	return u.Role == RoleDesigner
}

// IsClient checks if user holds the client role
func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

// HasPassword checks if the account can log in with a password
func (u *User) HasPassword() bool {
	return u.PasswordHash.Valid && u.PasswordHash.String != ""
}

// IsCurrentlyRestricted reports whether a restriction is still in force at now.
// A restriction with a past expiry no longer counts; callers that want the row
// cleaned up use UserRepository.ClearExpiredRestriction.
func (u *User) IsCurrentlyRestricted(now time.Time) bool {
	if !u.IsRestricted {
		return false
	}
	if u.RestrictionUntil.Valid && u.RestrictionUntil.Time.Before(now) {
		return false
	}
	return true
}

// RestrictionExpired reports whether the stored restriction has lapsed and
// should be cleared from the row.
func (u *User) RestrictionExpired(now time.Time) bool {
	return u.IsRestricted && u.RestrictionUntil.Valid && u.RestrictionUntil.Time.Before(now)
}

// CanAccessDashboard checks the ban/restriction gate for dashboard access
func (u *User) CanAccessDashboard(now time.Time) bool {
	return !u.IsBanned && !u.IsCurrentlyRestricted(now)
}
