package repository

import (
	"context"
	"time"

	"github.com/uniportal/PortalBack/internal/models"
)

const conversationColumns = `
	id,
	student_id,
	student_name,
	student_academic_number,
	doctor_id,
	doctor_name,
	doctor_email,
	last_message,
	last_message_date,
	unread_count,
	created_at
`

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*models.Conversation, error) {
	var conversation models.Conversation
	err := row.Scan(
		&conversation.ID,
		&conversation.StudentID,
		&conversation.StudentName,
		&conversation.StudentAcademicNumber,
		&conversation.DoctorID,
		&conversation.DoctorName,
		&conversation.DoctorEmail,
		&conversation.LastMessage,
		&conversation.LastMessageDate,
		&conversation.UnreadCount,
		&conversation.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *ConversationRepository) GetOrCreate(
	ctx context.Context,
	student models.Participant,
	doctorID int64,
	doctorName string,
	doctorEmail string,
) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (
			student_id, student_name, student_academic_number,
			doctor_id, doctor_name, doctor_email
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_id, doctor_id)
		DO UPDATE SET student_id = conversations.student_id
		RETURNING ` + conversationColumns

	return scanConversation(r.db.QueryRow(
		ctx,
		query,
		student.ID,
		student.Name,
		student.AcademicNumber,
		doctorID,
		doctorName,
		doctorEmail,
	))
}

func (r *ConversationRepository) GetByID(ctx context.Context, conversationID int64) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`

	conversation, err := scanConversation(r.db.QueryRow(ctx, query, conversationID))
	if err != nil {
		return nil, translateNoRows(err)
	}
	return conversation, nil
}

func (r *ConversationRepository) ListForStudent(ctx context.Context, studentID int64) ([]models.Conversation, error) {
	return r.list(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE student_id = $1
		ORDER BY last_message_date DESC, id DESC
	`, studentID)
}

func (r *ConversationRepository) ListForDoctor(ctx context.Context, doctorID int64) ([]models.Conversation, error) {
	return r.list(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE doctor_id = $1
		ORDER BY last_message_date DESC, id DESC
	`, doctorID)
}

func (r *ConversationRepository) list(ctx context.Context, query string, participantID int64) ([]models.Conversation, error) {
	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	for rows.Next() {
		conversation, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, *conversation)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return conversations, nil
}

func (r *ConversationRepository) Touch(
	ctx context.Context,
	conversationID int64,
	lastMessage string,
	lastMessageDate time.Time,
) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET last_message = $2, last_message_date = $3
		WHERE id = $1
	`, conversationID, lastMessage, lastMessageDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ConversationRepository) SetStudentUnread(ctx context.Context, conversationID int64, count int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET unread_count = $2
		WHERE id = $1
	`, conversationID, count)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
