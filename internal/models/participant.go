package models

type Participant struct {
	Role           Role   `json:"role"`
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	AcademicNumber string `json:"academic_number,omitempty"`
	Department     string `json:"department,omitempty"`
}
