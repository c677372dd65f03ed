package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arstudios/protend/internal/models"
)

var ErrChatMessageNotFound = errors.New("chat message not found")

// ==============================================
// CHAT REPOSITORY
// ==============================================

type ChatRepository struct {
	db *pgxpool.Pool
}

func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateMessage appends a message (text or attachment) to a project chat
func (r *ChatRepository) CreateMessage(ctx context.Context, m *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (project_id, user_id, kind, body,
		                           file_name, file_url, mime_type, file_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		m.ProjectID, m.UserID, m.Kind, m.Body,
		m.FileName, m.FileURL, m.MimeType, m.FileSize,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}

// ListMessages returns a page of a project's chat history, oldest first
func (r *ChatRepository) ListMessages(ctx context.Context, projectID, limit, offset int) ([]models.ChatMessage, error) {
	query := `
		SELECT id, project_id, user_id, kind, body,
		       file_name, file_url, mime_type, file_size, created_at
		FROM chat_messages
		WHERE project_id = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, projectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	var out []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Kind, &m.Body,
			&m.FileName, &m.FileURL, &m.MimeType, &m.FileSize, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMessageByID fetches a single chat message
func (r *ChatRepository) GetMessageByID(ctx context.Context, messageID int64) (*models.ChatMessage, error) {
	query := `
		SELECT id, project_id, user_id, kind, body,
		       file_name, file_url, mime_type, file_size, created_at
		FROM chat_messages
		WHERE id = $1
	`
	var m models.ChatMessage
	err := r.db.QueryRow(ctx, query, messageID).Scan(
		&m.ID, &m.ProjectID, &m.UserID, &m.Kind, &m.Body,
		&m.FileName, &m.FileURL, &m.MimeType, &m.FileSize, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChatMessageNotFound
		}
		return nil, fmt.Errorf("failed to get chat message: %w", err)
	}
	return &m, nil
}

// DeleteMessage removes a chat message
func (r *ChatRepository) DeleteMessage(ctx context.Context, messageID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM chat_messages WHERE id = $1`, messageID)
	if err != nil {
		return fmt.Errorf("failed to delete chat message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrChatMessageNotFound
	}
	return nil
}
