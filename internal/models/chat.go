package models

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleDoctor  Role = "doctor"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleDoctor
}

// Other returns the opposite side of a student/doctor conversation.
func (r Role) Other() Role {
	if r == RoleStudent {
		return RoleDoctor
	}
	return RoleStudent
}

type Conversation struct {
	ID                    int64     `json:"id"`
	StudentID             int64     `json:"student_id"`
	StudentName           string    `json:"student_name"`
	StudentAcademicNumber string    `json:"student_academic_number"`
	DoctorID              int64     `json:"doctor_id"`
	DoctorName            string    `json:"doctor_name"`
	DoctorEmail           string    `json:"doctor_email"`
	LastMessage           string    `json:"last_message"`
	LastMessageDate       time.Time `json:"last_message_date"`
	// UnreadCount tracks messages unread by the student only.
	UnreadCount int       `json:"unread_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type ChatMessage struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Text           string    `json:"text"`
	SenderType     Role      `json:"sender_type"`
	SenderName     string    `json:"sender_name"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}
