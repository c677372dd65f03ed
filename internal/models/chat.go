package models

import "time"

// ==============================================
// PROJECT CHAT
// ==============================================

// ChatMessageKind discriminates the message payload variant
type ChatMessageKind string

const (
	ChatMessageText       ChatMessageKind = "text"
	ChatMessageAttachment ChatMessageKind = "attachment"
)

// ChatMessage is one entry in a project's chat history. A message is either a
// plain text body or a file attachment; the Kind column decides which set of
// fields is populated.
type ChatMessage struct {
	ID        int64           `db:"id"`
	ProjectID int             `db:"project_id"`
	UserID    int             `db:"user_id"`
	Kind      ChatMessageKind `db:"kind"`
	Body      string          `db:"body"` // text messages only

	// Attachment fields, empty for text messages
	FileName string `db:"file_name"`
	FileURL  string `db:"file_url"`
	MimeType string `db:"mime_type"`
	FileSize int64  `db:"file_size"`

	CreatedAt time.Time `db:"created_at"`
}

// IsAttachment checks the payload variant
func (m *ChatMessage) IsAttachment() bool {
	return m.Kind == ChatMessageAttachment
}
