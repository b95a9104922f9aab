package repository

import (
	"context"

	"github.com/uniportal/PortalBack/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

func scanMessage(row rowScanner) (*models.ChatMessage, error) {
	var message models.ChatMessage
	var senderType string
	err := row.Scan(
		&message.ID,
		&message.ConversationID,
		&message.Text,
		&senderType,
		&message.SenderName,
		&message.IsRead,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	message.SenderType = models.Role(senderType)
	return &message, nil
}

func (r *MessageRepository) conversationExists(ctx context.Context, conversationID int64) error {
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1)`,
		conversationID,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func (r *MessageRepository) Append(
	ctx context.Context,
	conversationID int64,
	text string,
	senderType models.Role,
	senderName string,
) (*models.ChatMessage, error) {
	if err := r.conversationExists(ctx, conversationID); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO messages (conversation_id, text, sender_type, sender_name, is_read)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id, conversation_id, text, sender_type, sender_name, is_read, created_at
	`

	return scanMessage(r.db.QueryRow(ctx, query, conversationID, text, string(senderType), senderName))
}

func (r *MessageRepository) ListFor(ctx context.Context, conversationID int64) ([]models.ChatMessage, error) {
	if err := r.conversationExists(ctx, conversationID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, conversation_id, text, sender_type, sender_name, is_read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY id ASC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, conversationID int64, readerRole models.Role) (int, error) {
	if err := r.conversationExists(ctx, conversationID); err != nil {
		return 0, err
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE conversation_id = $1
		  AND sender_type <> $2
		  AND is_read = FALSE
	`, conversationID, string(readerRole))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *MessageRepository) CountUnread(ctx context.Context, conversationID int64, readerRole models.Role) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM messages
		WHERE conversation_id = $1
		  AND sender_type <> $2
		  AND is_read = FALSE
	`, conversationID, string(readerRole)).Scan(&count)
	return count, err
}

func (r *MessageRepository) UnreadCountFor(ctx context.Context, role models.Role, participantID int64) (int, error) {
	participantColumn := "c.student_id"
	if role == models.RoleDoctor {
		participantColumn = "c.doctor_id"
	}

	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE `+participantColumn+` = $1
		  AND m.sender_type <> $2
		  AND m.is_read = FALSE
	`, participantID, string(role)).Scan(&count)
	return count, err
}
