package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

type SQLResolver struct {
	db *sql.DB
}

func NewSQLResolver(db *sql.DB) *SQLResolver {
	return &SQLResolver{db: db}
}

var _ Resolver = (*SQLResolver)(nil)

func (r *SQLResolver) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	const q = `
		SELECT id, full_name, email, role, specialty
		FROM users
		WHERE id = $1
	`
	var (
		u         User
		specialty sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&u.ID,
		&u.FullName,
		&u.Email,
		&u.Role,
		&specialty,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if specialty.Valid {
		u.Specialty = &specialty.String
	}
	return &u, nil
}

// Insert is used by the seeder; the service never writes users.
func Insert(ctx context.Context, tx *sql.Tx, u User) error {
	const q = `
		INSERT INTO users (id, full_name, email, role, specialty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
	`
	_, err := tx.ExecContext(ctx, q, u.ID, u.FullName, u.Email, string(u.Role), u.Specialty)
	return err
}
