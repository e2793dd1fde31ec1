package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/belgrade-mama-market/internal/model"
	"github.com/iliyamo/belgrade-mama-market/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,name,phone,password_hash,provider,provider_id,avatar,created_at,updated_at"

// NewUser carries the fields of a local registration.
type NewUser struct {
	Email    string
	Password string
	Name     string
	Phone    *string
}

// Create hashes the password, inserts a local user and returns it.
func (r *UserRepo) Create(ctx context.Context, in NewUser, cost int) (model.User, error) {
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return model.User{}, err
	}
	ts := now()
	u := model.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Name:         strings.TrimSpace(in.Name),
		Phone:        in.Phone,
		PasswordHash: &hash,
		Provider:     model.ProviderLocal,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id,email,name,phone,password_hash,provider,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?)",
		u.ID, u.Email, u.Name, u.Phone, hash, u.Provider, ts, ts)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// ProfileUpdate lists the optional profile fields; nil keeps the stored
// value.
type ProfileUpdate struct {
	Name   *string
	Phone  *string
	Avatar *string
}

// UpdateProfile applies the non-nil fields and returns the fresh row.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (model.User, error) {
	// RowsAffected is not a reliable existence check in MySQL (unchanged rows
	// report 0), so the read-back decides between the user and ErrNotFound.
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=COALESCE(?,name), phone=COALESCE(?,phone), avatar=COALESCE(?,avatar), updated_at=? WHERE id=?",
		p.Name, p.Phone, p.Avatar, now(), id); err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var (
		u                        model.User
		phone, hash, pid, avatar sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &phone, &hash, &u.Provider, &pid, &avatar, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, notFound(err)
	}
	u.Phone, u.PasswordHash, u.ProviderID, u.Avatar = strPtr(phone), strPtr(hash), strPtr(pid), strPtr(avatar)
	return u, nil
}
