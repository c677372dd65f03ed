package dto

import (
	"time"

	"github.com/arstudios/protend/internal/models"
)

// ==============================================
// CHAT DTOs
// ==============================================

// PostMessageRequest - Plain text message
type PostMessageRequest struct {
	Body string `json:"body" binding:"required,max=4000"`
}

// PostAttachmentRequest - File attachment metadata (file already uploaded)
type PostAttachmentRequest struct {
	FileName string `json:"file_name" binding:"required,max=255"`
	FileURL  string `json:"file_url" binding:"required,url"`
	MimeType string `json:"mime_type" binding:"omitempty,max=100"`
	FileSize int64  `json:"file_size" binding:"omitempty,min=0"`
}

// ChatMessageResponse - One history entry; attachment fields are only
// present on attachment messages
type ChatMessageResponse struct {
	ID        int64     `json:"id"`
	ProjectID int       `json:"project_id"`
	UserID    int       `json:"user_id"`
	Kind      string    `json:"kind"`
	Body      string    `json:"body,omitempty"`
	FileName  string    `json:"file_name,omitempty"`
	FileURL   string    `json:"file_url,omitempty"`
	MimeType  string    `json:"mime_type,omitempty"`
	FileSize  int64     `json:"file_size,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func FromChatMessage(m *models.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		UserID:    m.UserID,
		Kind:      string(m.Kind),
		Body:      m.Body,
		FileName:  m.FileName,
		FileURL:   m.FileURL,
		MimeType:  m.MimeType,
		FileSize:  m.FileSize,
		CreatedAt: m.CreatedAt,
	}
}

func FromChatMessages(items []models.ChatMessage) []ChatMessageResponse {
	out := make([]ChatMessageResponse, 0, len(items))
	for i := range items {
		out = append(out, FromChatMessage(&items[i]))
	}
	return out
}
