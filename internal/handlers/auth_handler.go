package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arstudios/protend/internal/api/dto"
	"github.com/arstudios/protend/internal/models"
	"github.com/arstudios/protend/internal/otp"
	"github.com/arstudios/protend/internal/service"
)

// ==============================================
// SERVICE INTERFACE (for testing)
// ==============================================

type AuthService interface {
	Login(ctx context.Context, email, password string, remember bool) (*service.LoginResult, error)
	VerifyLoginOTP(ctx context.Context, pendingToken, code string) (*service.LoginResult, error)
	ResendOTP(ctx context.Context, pendingToken string) error
	Signup(ctx context.Context, username, email, password string) (string, error)
	VerifySignupOTP(ctx context.Context, pendingToken, code string) (*service.LoginResult, error)
	GoogleAuthURL() (url, state string, err error)
	GoogleCallback(ctx context.Context, code string) (*service.LoginResult, error)
}

// ==============================================
// HANDLER (HTTP Layer ONLY)
// ==============================================

const oauthStateCookie = "oauth_state"

type AuthHandler struct {
	service AuthService
}

func NewAuthHandler(service AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// ==============================================
// ENDPOINTS
// ==============================================

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Email, req.Password, req.Remember)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if result.RequiresOTP {
		respondSuccess(c, http.StatusAccepted, dto.PendingResponse{
			RequiresOTP:  true,
			PendingToken: result.PendingToken,
			ExpiresIn:    int(otp.ValidityWindow.Seconds()),
		})
		return
	}

	respondSuccess(c, http.StatusOK, dto.SessionResponse{
		Token:     result.Token,
		ExpiresIn: result.ExpiresIn,
		User:      result.User,
	})
}

// VerifyLoginOTP handles POST /api/v1/auth/login/verify
func (h *AuthHandler) VerifyLoginOTP(c *gin.Context) {
	var req dto.VerifyOTPRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	result, err := h.service.VerifyLoginOTP(c.Request.Context(), req.PendingToken, req.Code)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.SessionResponse{
		Token:     result.Token,
		ExpiresIn: result.ExpiresIn,
		User:      result.User,
	})
}

// ResendOTP handles POST /api/v1/auth/otp/resend
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req dto.ResendOTPRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	if err := h.service.ResendOTP(c.Request.Context(), req.PendingToken); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.SuccessResponse{
		Success: true,
		Message: "A new code has been sent",
	})
}

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	pending, err := h.service.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusAccepted, dto.PendingResponse{
		RequiresOTP:  true,
		PendingToken: pending,
		ExpiresIn:    int(otp.ValidityWindow.Seconds()),
	})
}

// VerifySignupOTP handles POST /api/v1/auth/signup/verify
func (h *AuthHandler) VerifySignupOTP(c *gin.Context) {
	var req dto.VerifyOTPRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	result, err := h.service.VerifySignupOTP(c.Request.Context(), req.PendingToken, req.Code)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, dto.SessionResponse{
		Token:     result.Token,
		ExpiresIn: result.ExpiresIn,
		User:      result.User,
	})
}

// GoogleLogin handles GET /api/v1/auth/google
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	url, state, err := h.service.GoogleAuthURL()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// State lives in a short-lived cookie; the callback must echo it.
	c.SetCookie(oauthStateCookie, state, 600, "/", "", false, true)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback handles GET /api/v1/auth/google/callback
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	expected, err := c.Cookie(oauthStateCookie)
	if err != nil || expected == "" || c.Query("state") != expected {
		respondServiceError(c, models.ErrOAuthStateMismatch)
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", false, true)

	result, err := h.service.GoogleCallback(c.Request.Context(), c.Query("code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.SessionResponse{
		Token:     result.Token,
		ExpiresIn: result.ExpiresIn,
		User:      result.User,
	})
}

// ==============================================
// ROUTE REGISTRATION
// ==============================================

func (h *AuthHandler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1/auth")
	{
		v1.POST("/login", h.Login)
		v1.POST("/login/verify", h.VerifyLoginOTP)
		v1.POST("/otp/resend", h.ResendOTP)
		v1.POST("/signup", h.Signup)
		v1.POST("/signup/verify", h.VerifySignupOTP)
		v1.GET("/google", h.GoogleLogin)
		v1.GET("/google/callback", h.GoogleCallback)
	}
}
