package user

import (
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

// FakePatient returns a patient with generated name and email.
func FakePatient(f *gofakeit.Faker) User {
	return User{
		ID:       uuid.New(),
		FullName: f.Name(),
		Email:    f.Email(),
		Role:     RolePatient,
	}
}

// FakeDoctor returns a doctor with one of the clinic specialties.
func FakeDoctor(f *gofakeit.Faker) User {
	specialty := specialties[f.Number(0, len(specialties)-1)]
	return User{
		ID:        uuid.New(),
		FullName:  "Dr. " + f.LastName(),
		Email:     f.Email(),
		Role:      RoleDoctor,
		Specialty: &specialty,
	}
}
