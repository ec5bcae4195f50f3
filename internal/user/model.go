package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RoleNurse   Role = "NURSE"
	RoleAdmin   Role = "ADMIN"
)

var ErrUserNotFound = errors.New("user not found")

// User is the read-only identity snapshot the appointment service needs.
type User struct {
	ID        uuid.UUID
	FullName  string
	Email     string
	Role      Role
	Specialty *string
}

// Resolver looks up identities by id. Implementations return ErrUserNotFound
// when the id is unknown.
type Resolver interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
}
