package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arstudios/protend/internal/api/dto"
	"github.com/arstudios/protend/internal/models"
)

// ==============================================
// SERVICE INTERFACE (for testing)
// ==============================================

type UserService interface {
	GetProfile(ctx context.Context, userID int) (*models.PublicUser, error)
	UpdatePreferences(ctx context.Context, userID int, theme string, notifications bool) error
	UpdateAvatar(ctx context.Context, userID int, avatarURL string) error
	Notifications(ctx context.Context, userID int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID int) error
	MarkAllNotificationsRead(ctx context.Context, userID int) error
}

// ==============================================
// HANDLER (HTTP Layer ONLY)
// ==============================================

type UserHandler struct {
	service UserService
}

func NewUserHandler(service UserService) *UserHandler {
	return &UserHandler{service: service}
}

// ==============================================
// ENDPOINTS
// ==============================================

// GetProfile handles GET /api/v1/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	user := CurrentUser(c)

	profile, err := h.service.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, profile)
}

// UpdatePreferences handles PUT /api/v1/me/preferences
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	var req dto.UpdatePreferencesRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	user := CurrentUser(c)
	if err := h.service.UpdatePreferences(c.Request.Context(), user.ID, req.Theme, req.Notifications); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.SuccessResponse{Success: true, Message: "Preferences updated"})
}

// UpdateAvatar handles PUT /api/v1/me/avatar
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	var req dto.UpdateAvatarRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	user := CurrentUser(c)
	if err := h.service.UpdateAvatar(c.Request.Context(), user.ID, req.AvatarURL); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.SuccessResponse{Success: true, Message: "Avatar updated"})
}

// Notifications handles GET /api/v1/me/notifications
func (h *UserHandler) Notifications(c *gin.Context) {
	user := CurrentUser(c)

	items, err := h.service.Notifications(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, items)
}

// MarkNotificationRead handles POST /api/v1/me/notifications/:id/read
func (h *UserHandler) MarkNotificationRead(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "Invalid notification id",
			errors.New("id must be a positive number"))
		return
	}

	user := CurrentUser(c)
	if err := h.service.MarkNotificationRead(c.Request.Context(), user.ID, id); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.SuccessResponse{Success: true, Message: "Notification marked read"})
}

// MarkAllNotificationsRead handles POST /api/v1/me/notifications/read-all
func (h *UserHandler) MarkAllNotificationsRead(c *gin.Context) {
	user := CurrentUser(c)

	if err := h.service.MarkAllNotificationsRead(c.Request.Context(), user.ID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.SuccessResponse{Success: true, Message: "All notifications marked read"})
}

// ==============================================
// ROUTE REGISTRATION
// ==============================================

func (h *UserHandler) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	me := router.Group("/api/v1/me", auth)
	{
		me.GET("", h.GetProfile)
		me.PUT("/preferences", h.UpdatePreferences)
		me.PUT("/avatar", h.UpdateAvatar)
		me.GET("/notifications", h.Notifications)
		me.POST("/notifications/:id/read", h.MarkNotificationRead)
		me.POST("/notifications/read-all", h.MarkAllNotificationsRead)
	}
}
