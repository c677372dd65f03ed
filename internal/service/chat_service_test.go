package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arstudios/protend/internal/models"
	"github.com/arstudios/protend/internal/repository"
)

// ==============================================
// MOCKS
// ==============================================

type MockChatStore struct {
	CreateMessageFunc  func(ctx context.Context, m *models.ChatMessage) error
	ListMessagesFunc   func(ctx context.Context, projectID, limit, offset int) ([]models.ChatMessage, error)
	GetMessageByIDFunc func(ctx context.Context, messageID int64) (*models.ChatMessage, error)
	DeleteMessageFunc  func(ctx context.Context, messageID int64) error

	Created []models.ChatMessage
	Deleted []int64
}

func (m *MockChatStore) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	if m.CreateMessageFunc != nil {
		return m.CreateMessageFunc(ctx, msg)
	}
	msg.ID = int64(len(m.Created) + 1)
	m.Created = append(m.Created, *msg)
	return nil
}

func (m *MockChatStore) ListMessages(ctx context.Context, projectID, limit, offset int) ([]models.ChatMessage, error) {
	if m.ListMessagesFunc != nil {
		return m.ListMessagesFunc(ctx, projectID, limit, offset)
	}
	return nil, nil
}

func (m *MockChatStore) GetMessageByID(ctx context.Context, messageID int64) (*models.ChatMessage, error) {
	if m.GetMessageByIDFunc != nil {
		return m.GetMessageByIDFunc(ctx, messageID)
	}
	return nil, repository.ErrChatMessageNotFound
}

func (m *MockChatStore) DeleteMessage(ctx context.Context, messageID int64) error {
	if m.DeleteMessageFunc != nil {
		return m.DeleteMessageFunc(ctx, messageID)
	}
	m.Deleted = append(m.Deleted, messageID)
	return nil
}

type MockMembership struct {
	IsAssignedFunc func(ctx context.Context, projectID, userID int) (bool, error)
}

func (m *MockMembership) IsAssigned(ctx context.Context, projectID, userID int) (bool, error) {
	if m.IsAssignedFunc != nil {
		return m.IsAssignedFunc(ctx, projectID, userID)
	}
	return true, nil
}

type MockCleaner struct {
	RemoveFunc func(ctx context.Context, fileURL string) error
	Removed    []string
	Calls      int
}

func (m *MockCleaner) Remove(ctx context.Context, fileURL string) error {
	m.Calls++
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, fileURL)
	}
	m.Removed = append(m.Removed, fileURL)
	return nil
}

func newChatService(store *MockChatStore, membership *MockMembership, cleaner *MockCleaner) *ChatService {
	return NewChatService(store, membership, cleaner, &MockActivityStore{}, zap.NewNop())
}

// ==============================================
// TESTS
// ==============================================

func TestPostText_TrimsAndStores(t *testing.T) {
	store := &MockChatStore{}
	svc := newChatService(store, &MockMembership{}, nil)

	m, err := svc.PostText(context.Background(), designerUser(), 5, "  hello team  ")
	require.NoError(t, err)

	assert.Equal(t, models.ChatMessageText, m.Kind)
	assert.Equal(t, "hello team", m.Body)
	assert.Equal(t, 5, m.ProjectID)
}

func TestPostText_EmptyRejected(t *testing.T) {
	svc := newChatService(&MockChatStore{}, &MockMembership{}, nil)

	_, err := svc.PostText(context.Background(), designerUser(), 5, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestPostText_NonMemberRejected(t *testing.T) {
	membership := &MockMembership{
		IsAssignedFunc: func(ctx context.Context, projectID, userID int) (bool, error) {
			return false, nil
		},
	}
	svc := newChatService(&MockChatStore{}, membership, nil)

	_, err := svc.PostText(context.Background(), designerUser(), 5, "hello")
	assert.ErrorIs(t, err, models.ErrNotProjectMember)
}

func TestPostAttachment_StoresMetadata(t *testing.T) {
	store := &MockChatStore{}
	svc := newChatService(store, &MockMembership{}, nil)

	m, err := svc.PostAttachment(context.Background(), designerUser(), 5,
		"brief.pdf", "https://cdn.example.com/brief.pdf", "application/pdf", 2048)
	require.NoError(t, err)

	assert.True(t, m.IsAttachment())
	assert.Equal(t, "brief.pdf", m.FileName)
	assert.Empty(t, m.Body)
}

func TestDeleteMessage_AuthorCanDelete(t *testing.T) {
	actor := designerUser()
	store := &MockChatStore{
		GetMessageByIDFunc: func(ctx context.Context, messageID int64) (*models.ChatMessage, error) {
			return &models.ChatMessage{ID: messageID, UserID: actor.ID, Kind: models.ChatMessageText}, nil
		},
	}
	svc := newChatService(store, &MockMembership{}, nil)

	require.NoError(t, svc.DeleteMessage(context.Background(), actor, 9))
	assert.Equal(t, []int64{9}, store.Deleted)
}

func TestDeleteMessage_StrangerRejected(t *testing.T) {
	store := &MockChatStore{
		GetMessageByIDFunc: func(ctx context.Context, messageID int64) (*models.ChatMessage, error) {
			return &models.ChatMessage{ID: messageID, UserID: 999}, nil
		},
	}
	svc := newChatService(store, &MockMembership{}, nil)

	err := svc.DeleteMessage(context.Background(), designerUser(), 9)
	assert.ErrorIs(t, err, models.ErrNotProjectMember)
	assert.Empty(t, store.Deleted)
}

func TestDeleteMessage_AdminOverride(t *testing.T) {
	store := &MockChatStore{
		GetMessageByIDFunc: func(ctx context.Context, messageID int64) (*models.ChatMessage, error) {
			return &models.ChatMessage{ID: messageID, UserID: 999}, nil
		},
	}
	svc := newChatService(store, &MockMembership{}, nil)

	require.NoError(t, svc.DeleteMessage(context.Background(), adminUser(), 9))
}

func TestDeleteMessage_AttachmentCleanupIsBestEffort(t *testing.T) {
	actor := designerUser()
	store := &MockChatStore{
		GetMessageByIDFunc: func(ctx context.Context, messageID int64) (*models.ChatMessage, error) {
			return &models.ChatMessage{
				ID: messageID, UserID: actor.ID,
				Kind: models.ChatMessageAttachment, FileURL: "https://cdn.example.com/brief.pdf",
			}, nil
		},
	}
	cleaner := &MockCleaner{
		RemoveFunc: func(ctx context.Context, fileURL string) error {
			return errors.New("storage unreachable")
		},
	}
	svc := newChatService(store, &MockMembership{}, cleaner)

	// A failed file cleanup never fails the delete, and is not retried.
	require.NoError(t, svc.DeleteMessage(context.Background(), actor, 9))
	assert.Equal(t, 1, cleaner.Calls)
}

func TestHistory_ClampsPagination(t *testing.T) {
	var gotLimit, gotOffset int
	store := &MockChatStore{
		ListMessagesFunc: func(ctx context.Context, projectID, limit, offset int) ([]models.ChatMessage, error) {
			gotLimit, gotOffset = limit, offset
			return nil, nil
		},
	}
	svc := newChatService(store, &MockMembership{}, nil)

	_, err := svc.History(context.Background(), designerUser(), 5, 10000, -3)
	require.NoError(t, err)
	assert.Equal(t, 50, gotLimit)
	assert.Equal(t, 0, gotOffset)
}
