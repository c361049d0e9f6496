package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/fatora-app/fatora-server/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and populates its ID and timestamps.  The email
// is normalized to lower case before the insert; the unique index on
// users.email turns duplicate registrations into ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (first_name, second_name, email, password_hash) VALUES (?,?,?,?)",
		u.FirstName, u.SecondName, u.Email, u.PasswordHash)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)

	// Follow-up SELECT to populate DB-assigned timestamp defaults.
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM users WHERE id=?",
		u.ID).Scan(&u.CreatedAt, &u.UpdatedAt)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,first_name,second_name,email,password_hash,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.FirstName, &u.SecondName, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,first_name,second_name,email,password_hash,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.FirstName, &u.SecondName, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
