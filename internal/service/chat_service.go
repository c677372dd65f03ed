package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/arstudios/protend/internal/models"
	"github.com/arstudios/protend/internal/repository"
)

// ==============================================
// CHAT SERVICE
// ==============================================

// ErrEmptyMessage rejects text messages with no content.
var ErrEmptyMessage = errors.New("message body is empty")

// ChatStore persists project chat history.
type ChatStore interface {
	CreateMessage(ctx context.Context, m *models.ChatMessage) error
	ListMessages(ctx context.Context, projectID, limit, offset int) ([]models.ChatMessage, error)
	GetMessageByID(ctx context.Context, messageID int64) (*models.ChatMessage, error)
	DeleteMessage(ctx context.Context, messageID int64) error
}

// MembershipChecker answers whether a user belongs to a project.
type MembershipChecker interface {
	IsAssigned(ctx context.Context, projectID, userID int) (bool, error)
}

// AttachmentCleaner removes a stored attachment file. Cleanup is best-effort:
// failures are logged and never retried, so an orphaned file is possible but a
// chat operation never fails because storage cleanup did.
type AttachmentCleaner interface {
	Remove(ctx context.Context, fileURL string) error
}

type ChatService struct {
	messages   ChatStore
	membership MembershipChecker
	cleaner    AttachmentCleaner
	activities ActivityStore
	logger     *zap.Logger
}

func NewChatService(messages ChatStore, membership MembershipChecker, cleaner AttachmentCleaner, activities ActivityStore, logger *zap.Logger) *ChatService {
	return &ChatService{
		messages:   messages,
		membership: membership,
		cleaner:    cleaner,
		activities: activities,
		logger:     logger,
	}
}

// PostText appends a text message to a project's chat.
func (s *ChatService) PostText(ctx context.Context, actor *models.User, projectID int, body string) (*models.ChatMessage, error) {
	if err := s.requireMember(ctx, actor, projectID); err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}

	m := &models.ChatMessage{
		ProjectID: projectID,
		UserID:    actor.ID,
		Kind:      models.ChatMessageText,
		Body:      body,
	}
	if err := s.messages.CreateMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	return m, nil
}

// PostAttachment appends a file-attachment message. The file itself is
// already uploaded; this records its metadata in the history.
func (s *ChatService) PostAttachment(ctx context.Context, actor *models.User, projectID int, fileName, fileURL, mimeType string, fileSize int64) (*models.ChatMessage, error) {
	if err := s.requireMember(ctx, actor, projectID); err != nil {
		return nil, err
	}

	if fileName == "" || fileURL == "" {
		return nil, ErrEmptyMessage
	}

	m := &models.ChatMessage{
		ProjectID: projectID,
		UserID:    actor.ID,
		Kind:      models.ChatMessageAttachment,
		FileName:  fileName,
		FileURL:   fileURL,
		MimeType:  mimeType,
		FileSize:  fileSize,
	}
	if err := s.messages.CreateMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	s.logActivity(ctx, actor.ID, projectID, models.ActivityChatAttachment, fileName)
	return m, nil
}

// History returns a page of the project's chat, oldest first.
func (s *ChatService) History(ctx context.Context, actor *models.User, projectID, limit, offset int) ([]models.ChatMessage, error) {
	if err := s.requireMember(ctx, actor, projectID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	return s.messages.ListMessages(ctx, projectID, limit, offset)
}

// DeleteMessage removes a message. Only the author or an admin may delete;
// attachment files are cleaned up best-effort after the row is gone.
func (s *ChatService) DeleteMessage(ctx context.Context, actor *models.User, messageID int64) error {
	m, err := s.messages.GetMessageByID(ctx, messageID)
	if err != nil {
		return err
	}

	if m.UserID != actor.ID && !actor.IsAdmin() {
		return models.ErrNotProjectMember
	}

	if err := s.messages.DeleteMessage(ctx, m.ID); err != nil {
		if errors.Is(err, repository.ErrChatMessageNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete message: %w", err)
	}

	if m.IsAttachment() && s.cleaner != nil {
		if err := s.cleaner.Remove(ctx, m.FileURL); err != nil {
			s.logger.Warn("failed to remove attachment file",
				zap.String("file_url", m.FileURL), zap.Error(err))
		}
	}

	return nil
}

func (s *ChatService) requireMember(ctx context.Context, actor *models.User, projectID int) error {
	if actor.IsAdmin() {
		return nil
	}

	assigned, err := s.membership.IsAssigned(ctx, projectID, actor.ID)
	if err != nil {
		return fmt.Errorf("failed to check assignment: %w", err)
	}
	if !assigned {
		return models.ErrNotProjectMember
	}
	return nil
}

func (s *ChatService) logActivity(ctx context.Context, userID, projectID int, action, description string) {
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
