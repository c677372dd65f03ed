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

type ChatService interface {
	PostText(ctx context.Context, actor *models.User, projectID int, body string) (*models.ChatMessage, error)
	PostAttachment(ctx context.Context, actor *models.User, projectID int, fileName, fileURL, mimeType string, fileSize int64) (*models.ChatMessage, error)
	History(ctx context.Context, actor *models.User, projectID, limit, offset int) ([]models.ChatMessage, error)
	DeleteMessage(ctx context.Context, actor *models.User, messageID int64) error
}

// ==============================================
// HANDLER (HTTP Layer ONLY)
// ==============================================

type ChatHandler struct {
	service ChatService
}

func NewChatHandler(service ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// ==============================================
// ENDPOINTS
// ==============================================

// PostMessage handles POST /api/v1/projects/:id/chat
func (h *ChatHandler) PostMessage(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid project id", err)
		return
	}

	var req dto.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	m, err := h.service.PostText(c.Request.Context(), CurrentUser(c), projectID, req.Body)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, dto.FromChatMessage(m))
}

// PostAttachment handles POST /api/v1/projects/:id/chat/attachments
func (h *ChatHandler) PostAttachment(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid project id", err)
		return
	}

	var req dto.PostAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	m, err := h.service.PostAttachment(c.Request.Context(), CurrentUser(c), projectID,
		req.FileName, req.FileURL, req.MimeType, req.FileSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, dto.FromChatMessage(m))
}

// History handles GET /api/v1/projects/:id/chat
func (h *ChatHandler) History(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid project id", err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.service.History(c.Request.Context(), CurrentUser(c), projectID, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.FromChatMessages(items))
}

// DeleteMessage handles DELETE /api/v1/chat/messages/:id
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "Invalid message id",
			errors.New("id must be a positive number"))
		return
	}

	if err := h.service.DeleteMessage(c.Request.Context(), CurrentUser(c), id); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.SuccessResponse{Success: true, Message: "Message deleted"})
}

// ==============================================
// ROUTE REGISTRATION
// ==============================================

func (h *ChatHandler) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	v1 := router.Group("/api/v1", auth)
	{
		v1.GET("/projects/:id/chat", h.History)
		v1.POST("/projects/:id/chat", h.PostMessage)
		v1.POST("/projects/:id/chat/attachments", h.PostAttachment)
		v1.DELETE("/chat/messages/:id", h.DeleteMessage)
	}
}
