package directory

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/uniportal/PortalBack/internal/models"
)

const (
	unknownStudentName = "Unknown student"
	unknownDoctorName  = "Unknown doctor"
)

// Directory resolves display identities for students and doctors. It is a
// read-only lookup; a missing entry never blocks messaging.
type Directory struct {
	students map[int64]models.Participant
	doctors  map[int64]models.Participant
}

type rosterFile struct {
	Students []models.Participant `json:"students"`
	Doctors  []models.Participant `json:"doctors"`
}

func New(students, doctors []models.Participant) *Directory {
	d := &Directory{
		students: make(map[int64]models.Participant, len(students)),
		doctors:  make(map[int64]models.Participant, len(doctors)),
	}
	for _, student := range students {
		student.Role = models.RoleStudent
		d.students[student.ID] = student
	}
	for _, doctor := range doctors {
		doctor.Role = models.RoleDoctor
		d.doctors[doctor.ID] = doctor
	}
	return d
}

// Load reads a JSON roster from path. An empty path yields the seed roster.
func Load(path string) (*Directory, error) {
	if strings.TrimSpace(path) == "" {
		return Seed(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read directory file: %w", err)
	}

	var roster rosterFile
	if err := json.Unmarshal(content, &roster); err != nil {
		return nil, fmt.Errorf("decode directory file: %w", err)
	}

	return New(roster.Students, roster.Doctors), nil
}

func (d *Directory) Resolve(role models.Role, id int64) models.Participant {
	switch role {
	case models.RoleStudent:
		if student, ok := d.students[id]; ok {
			return student
		}
		return models.Participant{Role: role, ID: id, Name: unknownStudentName}
	case models.RoleDoctor:
		if doctor, ok := d.doctors[id]; ok {
			return doctor
		}
		return models.Participant{Role: role, ID: id, Name: unknownDoctorName}
	default:
		return models.Participant{Role: role, ID: id, Name: "Unknown"}
	}
}

func (d *Directory) ListDoctors() []models.Participant {
	doctors := make([]models.Participant, 0, len(d.doctors))
	for _, doctor := range d.doctors {
		doctors = append(doctors, doctor)
	}
	sort.Slice(doctors, func(i, j int) bool {
		if doctors[i].Name == doctors[j].Name {
			return doctors[i].ID < doctors[j].ID
		}
		return doctors[i].Name < doctors[j].Name
	})
	return doctors
}
