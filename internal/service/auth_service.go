package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/arstudios/protend/internal/auth"
	"github.com/arstudios/protend/internal/models"
	"github.com/arstudios/protend/internal/otp"
	"github.com/arstudios/protend/internal/repository"
)

// ==============================================
// AUTH SERVICE
// ==============================================

// UserStore is the slice of the user repository the auth flow needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, userID int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
	UpdateLastLogin(ctx context.Context, userID int) error
	MarkVerified(ctx context.Context, userID int) error
	ClearExpiredRestriction(ctx context.Context, userID int) error
}

// ActivityStore records audit trail entries.
type ActivityStore interface {
	CreateActivity(ctx context.Context, a *models.Activity) error
}

// CodeEngine issues and verifies one-time codes.
type CodeEngine interface {
	Issue(ctx context.Context, email string, purpose otp.Purpose) error
	Verify(ctx context.Context, email, code string, purpose otp.Purpose) error
	Status(ctx context.Context, email string, purpose otp.Purpose) bool
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type AuthService struct {
	users      UserStore
	activities ActivityStore
	codes      CodeEngine
	jwtSecret  string
	oauth      *oauth2.Config
	logger     *zap.Logger

	now func() time.Time
}

func NewAuthService(users UserStore, activities ActivityStore, codes CodeEngine, jwtSecret string, oauth *oauth2.Config, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		activities: activities,
		codes:      codes,
		jwtSecret:  jwtSecret,
		oauth:      oauth,
		logger:     logger,
		now:        time.Now,
	}
}

// NewGoogleOAuthConfig builds the Google OAuth config, or nil when the client
// credentials are not configured (OAuth is then disabled, not broken).
func NewGoogleOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

// LoginResult is the outcome of a login step. Either RequiresOTP is set and
// PendingToken carries the challenge, or Token/ExpiresIn/User describe a
// complete session.
type LoginResult struct {
	RequiresOTP  bool
	PendingToken string

	Token     string
	ExpiresIn int
	User      *models.PublicUser
}

// ==============================================
// PASSWORD LOGIN
// ==============================================

// Login runs the password step. Accounts with two-factor enabled get a code
// emailed and a short-lived pending token instead of a session.
func (s *AuthService) Login(ctx context.Context, email, password string, remember bool) (*LoginResult, error) {
	email = normalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// OAuth-only accounts have no password to check.
	if !user.HasPassword() {
		return nil, models.ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash.String) {
		return nil, models.ErrInvalidCredentials
	}

	if err := s.checkAccountGate(ctx, user); err != nil {
		return nil, err
	}

	if user.TwoFactorEnabled {
		if err := s.codes.Issue(ctx, user.Email, otp.PurposeLogin); err != nil {
			return nil, err
		}

		pending, err := auth.GeneratePendingToken(user.Email, string(otp.PurposeLogin), s.jwtSecret, remember)
		if err != nil {
			return nil, fmt.Errorf("failed to sign pending token: %w", err)
		}

		return &LoginResult{RequiresOTP: true, PendingToken: pending}, nil
	}

	return s.finalizeLogin(ctx, user, remember, models.ActivityUserLogin)
}

// VerifyLoginOTP completes a two-factor login: pending token plus the emailed
// code yields a session.
func (s *AuthService) VerifyLoginOTP(ctx context.Context, pendingToken, code string) (*LoginResult, error) {
	claims, err := auth.ValidatePendingToken(pendingToken, s.jwtSecret)
	if err != nil || claims.Purpose != string(otp.PurposeLogin) {
		return nil, models.ErrInvalidPendingToken
	}

	if err := s.codes.Verify(ctx, claims.Email, code, otp.PurposeLogin); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// Re-check the gate: a ban landed between the password step and now
	// must still block the session.
	if err := s.checkAccountGate(ctx, user); err != nil {
		return nil, err
	}

	return s.finalizeLogin(ctx, user, claims.Remember, models.ActivityUserLogin)
}

// ResendOTP issues a fresh code for a live pending challenge. The previous
// code stops working as soon as the new one is stored.
func (s *AuthService) ResendOTP(ctx context.Context, pendingToken string) error {
	claims, err := auth.ValidatePendingToken(pendingToken, s.jwtSecret)
	if err != nil {
		return models.ErrInvalidPendingToken
	}
	return s.codes.Issue(ctx, claims.Email, otp.Purpose(claims.Purpose))
}

// ==============================================
// SIGNUP
// ==============================================

// Signup creates an unverified account and emails a verification code. The
// account row exists immediately so the username and email are reserved.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (string, error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)

	if !emailPattern.MatchString(email) {
		return "", models.ErrInvalidEmail
	}
	if len(password) < 8 {
		return "", models.ErrWeakPassword
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return "", models.ErrEmailAlreadyExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return "", fmt.Errorf("failed to check email: %w", err)
	}

	available, err := s.users.IsUsernameAvailable(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to check username: %w", err)
	}
	if !available {
		return "", models.ErrUsernameAlreadyExists
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:             username,
		Email:                email,
		PasswordHash:         sql.NullString{String: hash, Valid: true},
		Role:                 models.RoleClient,
		IsActive:             true,
		IsVerified:           false,
		TwoFactorEnabled:     true,
		ThemePreference:      "dark",
		NotificationsEnabled: true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return "", models.ErrEmailAlreadyExists
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.codes.Issue(ctx, email, otp.PurposeSignup); err != nil {
		return "", err
	}

	return auth.GeneratePendingToken(email, string(otp.PurposeSignup), s.jwtSecret, false)
}

// VerifySignupOTP finishes registration: the correct code marks the account
// verified and opens a session.
func (s *AuthService) VerifySignupOTP(ctx context.Context, pendingToken, code string) (*LoginResult, error) {
	claims, err := auth.ValidatePendingToken(pendingToken, s.jwtSecret)
	if err != nil || claims.Purpose != string(otp.PurposeSignup) {
		return nil, models.ErrInvalidPendingToken
	}

	if err := s.codes.Verify(ctx, claims.Email, code, otp.PurposeSignup); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !user.IsVerified {
		if err := s.users.MarkVerified(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to mark verified: %w", err)
		}
		user.IsVerified = true
	}

	return s.finalizeLogin(ctx, user, false, models.ActivityUserRegistration)
}

// ==============================================
// GOOGLE OAUTH
// ==============================================

type googleProfile struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleAuthURL returns the consent-screen redirect plus the state nonce the
// callback must echo back.
func (s *AuthService) GoogleAuthURL() (url, state string, err error) {
	if s.oauth == nil {
		return "", "", models.ErrOAuthDisabled
	}
	state = uuid.NewString()
	return s.oauth.AuthCodeURL(state), state, nil
}

// GoogleCallback exchanges the authorization code, loads the Google profile,
// and signs the user in, provisioning a verified password-less account on
// first contact. OAuth logins skip the email code step: Google already
// verified the mailbox.
func (s *AuthService) GoogleCallback(ctx context.Context, code string) (*LoginResult, error) {
	if s.oauth == nil {
		return nil, models.ErrOAuthDisabled
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange failed: %w", err)
	}

	resp, err := s.oauth.Client(ctx, token).Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google profile: %w", err)
	}
	defer resp.Body.Close()

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode google profile: %w", err)
	}
	if profile.Email == "" {
		return nil, models.ErrInvalidEmail
	}

	email := normalizeEmail(profile.Email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		user, err = s.provisionGoogleUser(ctx, email, profile)
		if err != nil {
			return nil, err
		}
		return s.finalizeLogin(ctx, user, false, models.ActivityGoogleRegistration)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.checkAccountGate(ctx, user); err != nil {
		return nil, err
	}

	return s.finalizeLogin(ctx, user, false, models.ActivityGoogleLogin)
}

func (s *AuthService) provisionGoogleUser(ctx context.Context, email string, profile googleProfile) (*models.User, error) {
	username, err := s.uniqueUsername(ctx, email)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:             username,
		Email:                email,
		Role:                 models.RoleClient,
		IsActive:             true,
		IsVerified:           true,
		ThemePreference:      "dark",
		NotificationsEnabled: true,
	}
	if profile.Picture != "" {
		user.AvatarURL = sql.NullString{String: profile.Picture, Valid: true}
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}
	return user, nil
}

// uniqueUsername derives a username from the email local part, suffixing a
// short random tag until it is free.
func (s *AuthService) uniqueUsername(ctx context.Context, email string) (string, error) {
	base := strings.SplitN(email, "@", 2)[0]
	candidate := base

	for i := 0; i < 5; i++ {
		available, err := s.users.IsUsernameAvailable(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		if available {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%s", base, uuid.NewString()[:8])
	}

	return "", models.ErrUsernameAlreadyExists
}

// ==============================================
// SESSION
// ==============================================

// ValidateSession resolves a session token to its live user, applying the
// ban/restriction gate on every request rather than only at login.
func (s *AuthService) ValidateSession(ctx context.Context, tokenString string) (*models.User, error) {
	userID, _, err := auth.ValidateSessionToken(tokenString, s.jwtSecret)
	if err != nil {
		return nil, models.ErrInvalidToken
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, models.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.checkAccountGate(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// checkAccountGate enforces the ban/restriction/active rules. An expired
// restriction is cleared lazily on the way through.
func (s *AuthService) checkAccountGate(ctx context.Context, user *models.User) error {
	if user.IsBanned {
		return models.ErrAccountBanned
	}

	now := s.now()
	if user.RestrictionExpired(now) {
		if err := s.users.ClearExpiredRestriction(ctx, user.ID); err != nil {
			s.logger.Warn("failed to clear expired restriction",
				zap.Int("user_id", user.ID), zap.Error(err))
		}
		user.IsRestricted = false
	} else if user.IsCurrentlyRestricted(now) {
		return models.ErrAccountRestricted
	}

	if !user.IsActive {
		return models.ErrAccountInactive
	}

	return nil
}

func (s *AuthService) finalizeLogin(ctx context.Context, user *models.User, remember bool, action string) (*LoginResult, error) {
	token, expiresIn, err := auth.GenerateSessionToken(user.ID, user.Role, s.jwtSecret, remember)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to record last login",
			zap.Int("user_id", user.ID), zap.Error(err))
	}

	s.logActivity(ctx, user.ID, 0, action, "")

	return &LoginResult{
		Token:     token,
		ExpiresIn: expiresIn,
		User:      user.ToPublic(),
	}, nil
}

// logActivity is best-effort: audit trail writes never fail the request.
func (s *AuthService) logActivity(ctx context.Context, userID, projectID int, action, description string) {
	a := &models.Activity{
		UserID: userID,
		Action: action,
	}
	if projectID != 0 {
		a.ProjectID = sql.NullInt32{Int32: int32(projectID), Valid: true}
	}
	if description != "" {
		a.Description = sql.NullString{String: description, Valid: true}
	}

	if err := s.activities.CreateActivity(ctx, a); err != nil {
		s.logger.Warn("failed to record activity",
			zap.String("action", action), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
