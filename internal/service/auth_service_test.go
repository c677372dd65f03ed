package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arstudios/protend/internal/auth"
	"github.com/arstudios/protend/internal/models"
	"github.com/arstudios/protend/internal/otp"
	"github.com/arstudios/protend/internal/repository"
)

const testSecret = "test-secret"

// ==============================================
// MOCK STORES
// ==============================================

type MockUserStore struct {
	CreateUserFunc              func(ctx context.Context, user *models.User) error
	GetUserByIDFunc             func(ctx context.Context, userID int) (*models.User, error)
	GetUserByEmailFunc          func(ctx context.Context, email string) (*models.User, error)
	IsUsernameAvailableFunc     func(ctx context.Context, username string) (bool, error)
	UpdateLastLoginFunc         func(ctx context.Context, userID int) error
	MarkVerifiedFunc            func(ctx context.Context, userID int) error
	ClearExpiredRestrictionFunc func(ctx context.Context, userID int) error
}

func (m *MockUserStore) CreateUser(ctx context.Context, user *models.User) error {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, user)
	}
	user.ID = 1
	return nil
}

func (m *MockUserStore) GetUserByID(ctx context.Context, userID int) (*models.User, error) {
	if m.GetUserByIDFunc != nil {
		return m.GetUserByIDFunc(ctx, userID)
	}
	return nil, repository.ErrUserNotFound
}

func (m *MockUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetUserByEmailFunc != nil {
		return m.GetUserByEmailFunc(ctx, email)
	}
	return nil, repository.ErrUserNotFound
}

func (m *MockUserStore) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	if m.IsUsernameAvailableFunc != nil {
		return m.IsUsernameAvailableFunc(ctx, username)
	}
	return true, nil
}

func (m *MockUserStore) UpdateLastLogin(ctx context.Context, userID int) error {
	if m.UpdateLastLoginFunc != nil {
		return m.UpdateLastLoginFunc(ctx, userID)
	}
	return nil
}

func (m *MockUserStore) MarkVerified(ctx context.Context, userID int) error {
	if m.MarkVerifiedFunc != nil {
		return m.MarkVerifiedFunc(ctx, userID)
	}
	return nil
}

func (m *MockUserStore) ClearExpiredRestriction(ctx context.Context, userID int) error {
	if m.ClearExpiredRestrictionFunc != nil {
		return m.ClearExpiredRestrictionFunc(ctx, userID)
	}
	return nil
}

type MockActivityStore struct {
	CreateActivityFunc func(ctx context.Context, a *models.Activity) error
	Recorded           []models.Activity
}

func (m *MockActivityStore) CreateActivity(ctx context.Context, a *models.Activity) error {
	if m.CreateActivityFunc != nil {
		return m.CreateActivityFunc(ctx, a)
	}
	m.Recorded = append(m.Recorded, *a)
	return nil
}

type MockCodeEngine struct {
	IssueFunc  func(ctx context.Context, email string, purpose otp.Purpose) error
	VerifyFunc func(ctx context.Context, email, code string, purpose otp.Purpose) error
	StatusFunc func(ctx context.Context, email string, purpose otp.Purpose) bool

	IssuedTo      string
	IssuedPurpose otp.Purpose
	IssueCalls    int
}

func (m *MockCodeEngine) Issue(ctx context.Context, email string, purpose otp.Purpose) error {
	m.IssuedTo = email
	m.IssuedPurpose = purpose
	m.IssueCalls++
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, email, purpose)
	}
	return nil
}

func (m *MockCodeEngine) Verify(ctx context.Context, email, code string, purpose otp.Purpose) error {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, email, code, purpose)
	}
	return nil
}

func (m *MockCodeEngine) Status(ctx context.Context, email string, purpose otp.Purpose) bool {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, email, purpose)
	}
	return true
}

// ==============================================
// HELPERS
// ==============================================

func newAuthService(users *MockUserStore, codes *MockCodeEngine) (*AuthService, *MockActivityStore) {
	activities := &MockActivityStore{}
	svc := NewAuthService(users, activities, codes, testSecret, nil, zap.NewNop())
	return svc, activities
}

func passwordUser(email, password string, twoFactor bool) *models.User {
	hash, err := auth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	return &models.User{
		ID:               7,
		Username:         "ada",
		Email:            email,
		PasswordHash:     sql.NullString{String: hash, Valid: true},
		Role:             models.RoleDesigner,
		IsActive:         true,
		IsVerified:       true,
		TwoFactorEnabled: twoFactor,
		CreatedAt:        time.Now(),
	}
}

// ==============================================
// PASSWORD LOGIN TESTS
// ==============================================

func TestLogin_SuccessWithoutTwoFactor(t *testing.T) {
	user := passwordUser("ada@example.com", "correct horse", false)
	users := &MockUserStore{
		GetUserByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			assert.Equal(t, "ada@example.com", email)
			return user, nil
		},
	}
	codes := &MockCodeEngine{}
	svc, activities := newAuthService(users, codes)

	// Email is normalized before lookup.
	result, err := svc.Login(context.Background(), "  ADA@Example.COM ", "correct horse", false)
	require.NoError(t, err)

	assert.False(t, result.RequiresOTP)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, user.ID, result.User.ID)
	assert.Zero(t, codes.IssueCalls, "no code should be sent without two-factor")
	require.Len(t, activities.Recorded, 1)
	assert.Equal(t, models.ActivityUserLogin, activities.Recorded[0].Action)

	userID, role, err := auth.ValidateSessionToken(result.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, models.RoleDesigner, role)
}

func TestLogin_WrongPassword(t *testing.T) {
	user := passwordUser("ada@example.com", "correct horse", false)
	users := &MockUserStore{
		GetUserByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc, _ := newAuthService(users, &MockCodeEngine{})

	_, err := svc.Login(context.Background(), "ada@example.com", "battery staple", false)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestLogin_UnknownEmailIsIndistinguishable(t *testing.T) {
	svc, _ := newAuthService(&MockUserStore{}, &MockCodeEngine{})

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever", false)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestLogin_OAuthOnlyAccountRejectsPassword(t *testing.T) {
	user := passwordUser("ada@example.com", "x", false)
	user.PasswordHash = sql.NullString{}
	users := &MockUserStore{
		GetUserByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc, _ := newAuthService(users, &MockCodeEngine{})

	_, err := svc.Login(context.Background(), "ada@example.com", "anything", false)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestLogin_TwoFactorIssuesChallenge(t *testing.T) {
	user := passwordUser("ada@example.com", "correct horse", true)
	users := &MockUserStore{
		GetUserByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	codes := &MockCodeEngine{}
	svc, activities := newAuthService(users, codes)

	result, err := svc.Login(context.Background(), "ada@example.com", "correct horse", true)
	require.NoError(t, err)

	assert.True(t, result.RequiresOTP)
	assert.NotEmpty(t, result.PendingToken)
	assert.Empty(t, result.Token, "no session until the code is verified")
	assert.Equal(t, "ada@example.com", codes.IssuedTo)
	assert.Equal(t, otp.PurposeLogin, codes.IssuedPurpose)
	assert.Empty(t, activities.Recorded, "login is not recorded until verification")

	claims, err := auth.ValidatePendingToken(result.PendingToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.True(t, claims.Remember)
}

func TestLogin_BannedAccount(t *testing.T) {
	user := passwordUser("ada@example.com", "correct horse", false)
	user.IsBanned = true
	users := &MockUserStore{
		GetUserByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc, _ := newAuthService(users, &MockCodeEngine{})

	_, err := svc.Login(context.Background(), "ada@example.com", "correct horse", false)
	assert.ErrorIs(t, err, models.ErrAccountBanned)
}

func TestLogin_ActiveRestrictionBlocks(t *testing.T) {
	user := passwordUser("ada@example.com", "correct horse", false)
	user.IsRestricted = true
	user.RestrictionUntil = sql.NullTime{Time: time.Now().Add(time.Hour), Valid: true}
	users := &MockUserStore{
		GetUserByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc, _ := newAuthService(users, &MockCodeEngine{})

	_, err := svc.Login(context.Background(), "ada@example.com", "correct horse", false)
	assert.ErrorIs(t, err, models.ErrAccountRestricted)
}

func TestLogin_ExpiredRestrictionIsClearedAndLoginSucceeds(t *testing.T) {
	user := passwordUser("ada@example.com", "correct horse", false)
	user.IsRestricted = true
	user.RestrictionUntil = sql.NullTime{Time: time.Now().Add(-time.Hour), Valid: true}

	cleared := false
	users := &MockUserStore{
		GetUserByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		ClearExpiredRestrictionFunc: func(ctx context.Context, userID int) error {
			cleared = true
			return nil
		},
	}
	svc, _ := newAuthService(users, &MockCodeEngine{})

	result, err := svc.Login(context.Background(), "ada@example.com", "correct horse", false)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.True(t, cleared, "expired restriction should be cleaned up lazily")
}

// ==============================================
// OTP STEP TESTS
// ==============================================

func TestVerifyLoginOTP_Success(t *testing.T) {
	user := passwordUser("ada@example.com", "correct horse", true)
	users := &MockUserStore{
		GetUserByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	verified := false
	codes := &MockCodeEngine{
		VerifyFunc: func(ctx context.Context, email, code string, purpose otp.Purpose) error {
			verified = true
			assert.Equal(t, "ada@example.com", email)
			assert.Equal(t, "123456", code)
			assert.Equal(t, otp.PurposeLogin, purpose)
			return nil
		},
	}
	svc, _ := newAuthService(users, codes)

	pending, err := auth.GeneratePendingToken("ada@example.com", string(otp.PurposeLogin), testSecret, true)
	require.NoError(t, err)

	result, err := svc.VerifyLoginOTP(context.Background(), pending, "123456")
	require.NoError(t, err)
	assert.True(t, verified)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, user.ID, result.User.ID)
}

func TestVerifyLoginOTP_WrongCodePropagates(t *testing.T) {
	users := &MockUserStore{}
	codes := &MockCodeEngine{
		VerifyFunc: func(ctx context.Context, email, code string, purpose otp.Purpose) error {
			return otp.ErrInvalidCode
		},
	}
	svc, _ := newAuthService(users, codes)

	pending, err := auth.GeneratePendingToken("ada@example.com", string(otp.PurposeLogin), testSecret, false)
	require.NoError(t, err)

	_, err = svc.VerifyLoginOTP(context.Background(), pending, "000000")
	assert.ErrorIs(t, err, otp.ErrInvalidCode)
}

func TestVerifyLoginOTP_RejectsSignupToken(t *testing.T) {
	svc, _ := newAuthService(&MockUserStore{}, &MockCodeEngine{})

	pending, err := auth.GeneratePendingToken("ada@example.com", string(otp.PurposeSignup), testSecret, false)
	require.NoError(t, err)

	_, err = svc.VerifyLoginOTP(context.Background(), pending, "123456")
	assert.ErrorIs(t, err, models.ErrInvalidPendingToken)
}

func TestVerifyLoginOTP_BanLandedMidChallenge(t *testing.T) {
	user := passwordUser("ada@example.com", "correct horse", true)
	user.IsBanned = true
	users := &MockUserStore{
		GetUserByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc, _ := newAuthService(users, &MockCodeEngine{})

	pending, err := auth.GeneratePendingToken("ada@example.com", string(otp.PurposeLogin), testSecret, false)
	require.NoError(t, err)

	_, err = svc.VerifyLoginOTP(context.Background(), pending, "123456")
	assert.ErrorIs(t, err, models.ErrAccountBanned)
}

func TestResendOTP_GarbageTokenRejected(t *testing.T) {
	svc, _ := newAuthService(&MockUserStore{}, &MockCodeEngine{})

	err := svc.ResendOTP(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, models.ErrInvalidPendingToken)
}

func TestResendOTP_ReissuesSamePurpose(t *testing.T) {
	codes := &MockCodeEngine{}
	svc, _ := newAuthService(&MockUserStore{}, codes)

	pending, err := auth.GeneratePendingToken("ada@example.com", string(otp.PurposeSignup), testSecret, false)
	require.NoError(t, err)

	require.NoError(t, svc.ResendOTP(context.Background(), pending))
	assert.Equal(t, 1, codes.IssueCalls)
	assert.Equal(t, otp.PurposeSignup, codes.IssuedPurpose)
}

// ==============================================
// SIGNUP TESTS
// ==============================================

func TestSignup_CreatesUnverifiedAccountAndIssuesCode(t *testing.T) {
	var created *models.User
	users := &MockUserStore{
		CreateUserFunc: func(ctx context.Context, user *models.User) error {
			user.ID = 42
			created = user
			return nil
		},
	}
	codes := &MockCodeEngine{}
	svc, _ := newAuthService(users, codes)

	pending, err := svc.Signup(context.Background(), "grace", "Grace@Example.com", "long enough password")
	require.NoError(t, err)
	assert.NotEmpty(t, pending)

	require.NotNil(t, created)
	assert.Equal(t, "grace@example.com", created.Email)
	assert.Equal(t, models.RoleClient, created.Role)
	assert.False(t, created.IsVerified)
	assert.True(t, created.TwoFactorEnabled)
	assert.True(t, created.HasPassword())
	assert.True(t, auth.CheckPassword("long enough password", created.PasswordHash.String))

	assert.Equal(t, "grace@example.com", codes.IssuedTo)
	assert.Equal(t, otp.PurposeSignup, codes.IssuedPurpose)
}

func TestSignup_RejectsWeakPassword(t *testing.T) {
	svc, _ := newAuthService(&MockUserStore{}, &MockCodeEngine{})

	_, err := svc.Signup(context.Background(), "grace", "grace@example.com", "short")
	assert.ErrorIs(t, err, models.ErrWeakPassword)
}

func TestSignup_RejectsMalformedEmail(t *testing.T) {
	svc, _ := newAuthService(&MockUserStore{}, &MockCodeEngine{})

	_, err := svc.Signup(context.Background(), "grace", "not-an-email", "long enough password")
	assert.ErrorIs(t, err, models.ErrInvalidEmail)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	users := &MockUserStore{
		GetUserByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: 1, Email: email}, nil
		},
	}
	svc, _ := newAuthService(users, &MockCodeEngine{})

	_, err := svc.Signup(context.Background(), "grace", "grace@example.com", "long enough password")
	assert.ErrorIs(t, err, models.ErrEmailAlreadyExists)
}

func TestSignup_DuplicateUsername(t *testing.T) {
	users := &MockUserStore{
		IsUsernameAvailableFunc: func(ctx context.Context, username string) (bool, error) {
			return false, nil
		},
	}
	svc, _ := newAuthService(users, &MockCodeEngine{})

	_, err := svc.Signup(context.Background(), "grace", "grace@example.com", "long enough password")
	assert.ErrorIs(t, err, models.ErrUsernameAlreadyExists)
}

func TestVerifySignupOTP_MarksVerifiedAndOpensSession(t *testing.T) {
	user := passwordUser("grace@example.com", "long enough password", true)
	user.IsVerified = false

	marked := false
	users := &MockUserStore{
		GetUserByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		MarkVerifiedFunc: func(ctx context.Context, userID int) error {
			marked = true
			assert.Equal(t, user.ID, userID)
			return nil
		},
	}
	svc, activities := newAuthService(users, &MockCodeEngine{})

	pending, err := auth.GeneratePendingToken("grace@example.com", string(otp.PurposeSignup), testSecret, false)
	require.NoError(t, err)

	result, err := svc.VerifySignupOTP(context.Background(), pending, "123456")
	require.NoError(t, err)

	assert.True(t, marked)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.User.IsVerified)
	require.Len(t, activities.Recorded, 1)
	assert.Equal(t, models.ActivityUserRegistration, activities.Recorded[0].Action)
}

// ==============================================
// SESSION TESTS
// ==============================================

func TestValidateSession_RoundTrip(t *testing.T) {
	user := passwordUser("ada@example.com", "correct horse", false)
	users := &MockUserStore{
		GetUserByIDFunc: func(ctx context.Context, userID int) (*models.User, error) {
			assert.Equal(t, user.ID, userID)
			return user, nil
		},
	}
	svc, _ := newAuthService(users, &MockCodeEngine{})

	token, _, err := auth.GenerateSessionToken(user.ID, user.Role, testSecret, false)
	require.NoError(t, err)

	got, err := svc.ValidateSession(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestValidateSession_PendingTokenIsNotASession(t *testing.T) {
	user := passwordUser("ada@example.com", "correct horse", true)
	users := &MockUserStore{
		GetUserByIDFunc: func(ctx context.Context, userID int) (*models.User, error) {
			return user, nil
		},
	}
	svc, _ := newAuthService(users, &MockCodeEngine{})

	pending, err := auth.GeneratePendingToken("ada@example.com", string(otp.PurposeLogin), testSecret, false)
	require.NoError(t, err)

	// A pending token parses as Claims with user_id 0, which resolves no user.
	_, err = svc.ValidateSession(context.Background(), pending)
	assert.Error(t, err)
}

func TestValidateSession_BannedMidSession(t *testing.T) {
	user := passwordUser("ada@example.com", "correct horse", false)
	user.IsBanned = true
	users := &MockUserStore{
		GetUserByIDFunc: func(ctx context.Context, userID int) (*models.User, error) {
			return user, nil
		},
	}
	svc, _ := newAuthService(users, &MockCodeEngine{})

	token, _, err := auth.GenerateSessionToken(user.ID, user.Role, testSecret, false)
	require.NoError(t, err)

	_, err = svc.ValidateSession(context.Background(), token)
	assert.ErrorIs(t, err, models.ErrAccountBanned)
}

func TestGoogleLogin_DisabledWithoutConfig(t *testing.T) {
	svc, _ := newAuthService(&MockUserStore{}, &MockCodeEngine{})

	_, _, err := svc.GoogleAuthURL()
	assert.ErrorIs(t, err, models.ErrOAuthDisabled)

	_, err = svc.GoogleCallback(context.Background(), "code")
	assert.ErrorIs(t, err, models.ErrOAuthDisabled)
}

func TestLogin_DeliveryFailureSurfaces(t *testing.T) {
	user := passwordUser("ada@example.com", "correct horse", true)
	users := &MockUserStore{
		GetUserByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	codes := &MockCodeEngine{
		IssueFunc: func(ctx context.Context, email string, purpose otp.Purpose) error {
			return errors.New("smtp: connection refused")
		},
	}
	svc, _ := newAuthService(users, codes)

	_, err := svc.Login(context.Background(), "ada@example.com", "correct horse", false)
	assert.Error(t, err)
}
