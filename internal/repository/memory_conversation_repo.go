package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/uniportal/PortalBack/internal/models"
)

type conversationPair struct {
	studentID int64
	doctorID  int64
}

// MemoryConversationRepository keeps conversations in an id-keyed arena for
// the lifetime of the process. Each instance owns its own state.
type MemoryConversationRepository struct {
	mu            sync.RWMutex
	nextID        int64
	conversations map[int64]*models.Conversation
	byPair        map[conversationPair]int64
	now           Clock
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{
		conversations: make(map[int64]*models.Conversation),
		byPair:        make(map[conversationPair]int64),
		now:           systemClock,
	}
}

func (r *MemoryConversationRepository) WithClock(clock Clock) *MemoryConversationRepository {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = clock
	return r
}

func (r *MemoryConversationRepository) GetOrCreate(
	_ context.Context,
	student models.Participant,
	doctorID int64,
	doctorName string,
	doctorEmail string,
) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := conversationPair{studentID: student.ID, doctorID: doctorID}
	if id, ok := r.byPair[key]; ok {
		existing := *r.conversations[id]
		return &existing, nil
	}

	r.nextID++
	now := r.now()
	conversation := &models.Conversation{
		ID:                    r.nextID,
		StudentID:             student.ID,
		StudentName:           student.Name,
		StudentAcademicNumber: student.AcademicNumber,
		DoctorID:              doctorID,
		DoctorName:            doctorName,
		DoctorEmail:           doctorEmail,
		LastMessage:           "",
		LastMessageDate:       now,
		UnreadCount:           0,
		CreatedAt:             now,
	}
	r.conversations[conversation.ID] = conversation
	r.byPair[key] = conversation.ID

	created := *conversation
	return &created, nil
}

func (r *MemoryConversationRepository) GetByID(_ context.Context, conversationID int64) (*models.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conversation, ok := r.conversations[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	found := *conversation
	return &found, nil
}

func (r *MemoryConversationRepository) ListForStudent(_ context.Context, studentID int64) ([]models.Conversation, error) {
	return r.filter(func(c *models.Conversation) bool { return c.StudentID == studentID }), nil
}

func (r *MemoryConversationRepository) ListForDoctor(_ context.Context, doctorID int64) ([]models.Conversation, error) {
	return r.filter(func(c *models.Conversation) bool { return c.DoctorID == doctorID }), nil
}

// ListIDsForParticipant returns the ids of every conversation the participant
// belongs to, in no particular order.
func (r *MemoryConversationRepository) ListIDsForParticipant(
	_ context.Context,
	role models.Role,
	participantID int64,
) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0)
	for id, conversation := range r.conversations {
		if (role == models.RoleStudent && conversation.StudentID == participantID) ||
			(role == models.RoleDoctor && conversation.DoctorID == participantID) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *MemoryConversationRepository) filter(match func(*models.Conversation) bool) []models.Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conversations := make([]models.Conversation, 0)
	for _, conversation := range r.conversations {
		if match(conversation) {
			conversations = append(conversations, *conversation)
		}
	}

	sort.Slice(conversations, func(i, j int) bool {
		if conversations[i].LastMessageDate.Equal(conversations[j].LastMessageDate) {
			return conversations[i].ID > conversations[j].ID
		}
		return conversations[i].LastMessageDate.After(conversations[j].LastMessageDate)
	})
	return conversations
}

func (r *MemoryConversationRepository) Touch(
	_ context.Context,
	conversationID int64,
	lastMessage string,
	lastMessageDate time.Time,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conversation, ok := r.conversations[conversationID]
	if !ok {
		return ErrNotFound
	}
	conversation.LastMessage = lastMessage
	conversation.LastMessageDate = lastMessageDate
	return nil
}

func (r *MemoryConversationRepository) SetStudentUnread(_ context.Context, conversationID int64, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conversation, ok := r.conversations[conversationID]
	if !ok {
		return ErrNotFound
	}
	conversation.UnreadCount = count
	return nil
}
