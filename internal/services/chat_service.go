package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/uniportal/PortalBack/internal/metrics"
	"github.com/uniportal/PortalBack/internal/models"
	"github.com/uniportal/PortalBack/internal/repository"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidRole           = errors.New("invalid role")
	ErrConversationNotFound  = errors.New("conversation not found")
	ErrNotConversationMember = errors.New("not a member of this conversation")
)

type conversationStore interface {
	GetOrCreate(ctx context.Context, student models.Participant, doctorID int64, doctorName string, doctorEmail string) (*models.Conversation, error)
	GetByID(ctx context.Context, conversationID int64) (*models.Conversation, error)
	ListForStudent(ctx context.Context, studentID int64) ([]models.Conversation, error)
	ListForDoctor(ctx context.Context, doctorID int64) ([]models.Conversation, error)
	Touch(ctx context.Context, conversationID int64, lastMessage string, lastMessageDate time.Time) error
	SetStudentUnread(ctx context.Context, conversationID int64, count int) error
}

type messageLog interface {
	Append(ctx context.Context, conversationID int64, text string, senderType models.Role, senderName string) (*models.ChatMessage, error)
	ListFor(ctx context.Context, conversationID int64) ([]models.ChatMessage, error)
	MarkRead(ctx context.Context, conversationID int64, readerRole models.Role) (int, error)
	CountUnread(ctx context.Context, conversationID int64, readerRole models.Role) (int, error)
	UnreadCountFor(ctx context.Context, role models.Role, participantID int64) (int, error)
}

type identityResolver interface {
	Resolve(role models.Role, id int64) models.Participant
}

// ChatService is the only writer of conversations and messages. Mutations on
// one conversation are serialized so append order and the denormalized
// last-message fields stay consistent.
type ChatService struct {
	conversations conversationStore
	messages      messageLog
	identities    identityResolver
	locks         *keyedMutex
	logger        zerolog.Logger
}

func NewChatService(
	conversations conversationStore,
	messages messageLog,
	identities identityResolver,
	logger zerolog.Logger,
) *ChatService {
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		identities:    identities,
		locks:         newKeyedMutex(),
		logger:        logger.With().Str("component", "chat").Logger(),
	}
}

func (s *ChatService) OpenOrCreate(
	ctx context.Context,
	role models.Role,
	selfID int64,
	otherID int64,
	otherName string,
	otherEmail string,
) (*models.Conversation, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if selfID <= 0 || otherID <= 0 {
		return nil, ErrInvalidInput
	}

	var (
		student models.Participant
		doctor  models.Participant
	)
	if role == models.RoleStudent {
		student = s.identities.Resolve(models.RoleStudent, selfID)
		doctor = s.withSuppliedIdentity(models.RoleDoctor, otherID, otherName, otherEmail)
	} else {
		doctor = s.identities.Resolve(models.RoleDoctor, selfID)
		student = s.withSuppliedIdentity(models.RoleStudent, otherID, otherName, otherEmail)
	}

	conversation, err := s.conversations.GetOrCreate(ctx, student, doctor.ID, doctor.Name, doctor.Email)
	if err != nil {
		return nil, fmt.Errorf("get or create conversation: %w", err)
	}

	unlock := s.locks.Lock(conversation.ID)
	defer unlock()

	if _, err := s.markReadLocked(ctx, conversation.ID, role); err != nil {
		return nil, err
	}

	metrics.ConversationsOpened.WithLabelValues(string(role)).Inc()
	s.logger.Debug().
		Int64("conversation_id", conversation.ID).
		Str("role", string(role)).
		Int64("student_id", student.ID).
		Int64("doctor_id", doctor.ID).
		Msg("conversation opened")

	return s.getConversation(ctx, conversation.ID)
}

// withSuppliedIdentity prefers the identity carried by the caller (a
// "contact" link) and falls back to the directory for missing fields.
func (s *ChatService) withSuppliedIdentity(role models.Role, id int64, name, email string) models.Participant {
	participant := s.identities.Resolve(role, id)
	if name = strings.TrimSpace(name); name != "" {
		participant.Name = name
	}
	if email = strings.TrimSpace(email); email != "" {
		participant.Email = email
	}
	return participant
}

func (s *ChatService) ListConversations(ctx context.Context, role models.Role, participantID int64) ([]models.Conversation, error) {
	switch role {
	case models.RoleStudent:
		return s.conversations.ListForStudent(ctx, participantID)
	case models.RoleDoctor:
		return s.conversations.ListForDoctor(ctx, participantID)
	default:
		return nil, ErrInvalidRole
	}
}

func (s *ChatService) GetConversation(ctx context.Context, conversationID int64) (*models.Conversation, error) {
	return s.getConversation(ctx, conversationID)
}

// GetConversationFor returns the conversation only when the participant is
// one of its two sides.
func (s *ChatService) GetConversationFor(
	ctx context.Context,
	role models.Role,
	participantID int64,
	conversationID int64,
) (*models.Conversation, error) {
	conversation, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !isMember(conversation, role, participantID) {
		return nil, ErrNotConversationMember
	}
	return conversation, nil
}

func (s *ChatService) ListMessages(ctx context.Context, conversationID int64) ([]models.ChatMessage, error) {
	messages, err := s.messages.ListFor(ctx, conversationID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return messages, nil
}

func (s *ChatService) Send(
	ctx context.Context,
	conversationID int64,
	text string,
	senderRole models.Role,
	senderName string,
) (*models.ChatMessage, error) {
	if !senderRole.Valid() {
		return nil, ErrInvalidRole
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		metrics.RejectedMessages.Inc()
		return nil, ErrInvalidInput
	}

	unlock := s.locks.Lock(conversationID)
	defer unlock()

	message, err := s.messages.Append(ctx, conversationID, trimmed, senderRole, senderName)
	if err != nil {
		return nil, translateStoreError(err)
	}

	if err := s.conversations.Touch(ctx, conversationID, message.Text, message.CreatedAt); err != nil {
		return nil, translateStoreError(err)
	}
	if err := s.refreshStudentUnread(ctx, conversationID); err != nil {
		return nil, err
	}

	metrics.MessagesSent.WithLabelValues(string(senderRole)).Inc()
	return message, nil
}

func (s *ChatService) MarkRead(ctx context.Context, conversationID int64, role models.Role) (int, error) {
	if !role.Valid() {
		return 0, ErrInvalidRole
	}

	unlock := s.locks.Lock(conversationID)
	defer unlock()

	return s.markReadLocked(ctx, conversationID, role)
}

func (s *ChatService) markReadLocked(ctx context.Context, conversationID int64, role models.Role) (int, error) {
	marked, err := s.messages.MarkRead(ctx, conversationID, role)
	if err != nil {
		return 0, translateStoreError(err)
	}
	if err := s.refreshStudentUnread(ctx, conversationID); err != nil {
		return 0, err
	}

	if marked > 0 {
		metrics.MessagesMarkedRead.WithLabelValues(string(role)).Add(float64(marked))
		s.logger.Debug().
			Int64("conversation_id", conversationID).
			Str("reader_role", string(role)).
			Int("marked", marked).
			Msg("messages marked read")
	}
	return marked, nil
}

func (s *ChatService) UnreadBadge(ctx context.Context, role models.Role, participantID int64) (int, error) {
	if !role.Valid() {
		return 0, ErrInvalidRole
	}
	return s.messages.UnreadCountFor(ctx, role, participantID)
}

// refreshStudentUnread recomputes the cached student-side counter from the
// message log. Doctor-side unread is never cached.
func (s *ChatService) refreshStudentUnread(ctx context.Context, conversationID int64) error {
	count, err := s.messages.CountUnread(ctx, conversationID, models.RoleStudent)
	if err != nil {
		return translateStoreError(err)
	}
	if err := s.conversations.SetStudentUnread(ctx, conversationID, count); err != nil {
		return translateStoreError(err)
	}
	return nil
}

func (s *ChatService) getConversation(ctx context.Context, conversationID int64) (*models.Conversation, error) {
	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return conversation, nil
}

func isMember(conversation *models.Conversation, role models.Role, participantID int64) bool {
	switch role {
	case models.RoleStudent:
		return conversation.StudentID == participantID
	case models.RoleDoctor:
		return conversation.DoctorID == participantID
	default:
		return false
	}
}

func translateStoreError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrConversationNotFound
	}
	return err
}
