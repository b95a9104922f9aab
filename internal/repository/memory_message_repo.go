package repository

import (
	"context"
	"sync"

	"github.com/uniportal/PortalBack/internal/models"
)

type conversationIndex interface {
	GetByID(ctx context.Context, conversationID int64) (*models.Conversation, error)
	ListIDsForParticipant(ctx context.Context, role models.Role, participantID int64) ([]int64, error)
}

// MemoryMessageRepository is an append-only log per conversation. Slice order
// is the authoritative message order.
type MemoryMessageRepository struct {
	mu            sync.RWMutex
	conversations conversationIndex
	nextID        int64
	logs          map[int64][]*models.ChatMessage
	now           Clock
}

func NewMemoryMessageRepository(conversations conversationIndex) *MemoryMessageRepository {
	return &MemoryMessageRepository{
		conversations: conversations,
		logs:          make(map[int64][]*models.ChatMessage),
		now:           systemClock,
	}
}

func (r *MemoryMessageRepository) WithClock(clock Clock) *MemoryMessageRepository {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = clock
	return r
}

func (r *MemoryMessageRepository) ensureConversation(ctx context.Context, conversationID int64) error {
	_, err := r.conversations.GetByID(ctx, conversationID)
	return err
}

func (r *MemoryMessageRepository) Append(
	ctx context.Context,
	conversationID int64,
	text string,
	senderType models.Role,
	senderName string,
) (*models.ChatMessage, error) {
	if err := r.ensureConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	message := &models.ChatMessage{
		ID:             r.nextID,
		ConversationID: conversationID,
		Text:           text,
		SenderType:     senderType,
		SenderName:     senderName,
		IsRead:         false,
		CreatedAt:      r.now(),
	}
	r.logs[conversationID] = append(r.logs[conversationID], message)

	appended := *message
	return &appended, nil
}

func (r *MemoryMessageRepository) ListFor(ctx context.Context, conversationID int64) ([]models.ChatMessage, error) {
	if err := r.ensureConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	log := r.logs[conversationID]
	messages := make([]models.ChatMessage, 0, len(log))
	for _, message := range log {
		messages = append(messages, *message)
	}
	return messages, nil
}

func (r *MemoryMessageRepository) MarkRead(ctx context.Context, conversationID int64, readerRole models.Role) (int, error) {
	if err := r.ensureConversation(ctx, conversationID); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	marked := 0
	for _, message := range r.logs[conversationID] {
		if message.SenderType != readerRole && !message.IsRead {
			message.IsRead = true
			marked++
		}
	}
	return marked, nil
}

func (r *MemoryMessageRepository) CountUnread(ctx context.Context, conversationID int64, readerRole models.Role) (int, error) {
	if err := r.ensureConversation(ctx, conversationID); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.countUnreadLocked(conversationID, readerRole), nil
}

func (r *MemoryMessageRepository) UnreadCountFor(ctx context.Context, role models.Role, participantID int64) (int, error) {
	ids, err := r.conversations.ListIDsForParticipant(ctx, role, participantID)
	if err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, id := range ids {
		total += r.countUnreadLocked(id, role)
	}
	return total, nil
}

func (r *MemoryMessageRepository) countUnreadLocked(conversationID int64, readerRole models.Role) int {
	count := 0
	for _, message := range r.logs[conversationID] {
		if message.SenderType != readerRole && !message.IsRead {
			count++
		}
	}
	return count
}
