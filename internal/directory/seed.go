package directory

import "github.com/uniportal/PortalBack/internal/models"

func Seed() *Directory {
	return New(
		[]models.Participant{
			{ID: 1, Name: "Ahmed Ali", Email: "ahmed.ali@student.uni.edu", AcademicNumber: "20210001", Department: "Computer Science"},
			{ID: 2, Name: "Sara Hassan", Email: "sara.hassan@student.uni.edu", AcademicNumber: "20210002", Department: "Information Systems"},
			{ID: 3, Name: "Omar Khaled", Email: "omar.khaled@student.uni.edu", AcademicNumber: "20220015", Department: "Software Engineering"},
		},
		[]models.Participant{
			{ID: 1, Name: "Dr. Mohammed Saleh", Email: "m.saleh@uni.edu", Department: "Computer Science"},
			{ID: 2, Name: "Dr. Fatima Nasser", Email: "f.nasser@uni.edu", Department: "Information Systems"},
			{ID: 3, Name: "Dr. Youssef Amin", Email: "y.amin@uni.edu", Department: "Software Engineering"},
		},
	)
}
