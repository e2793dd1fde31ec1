package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/belgrade-mama-market/internal/utils"
)

var userCols = []string{"id", "email", "name", "phone", "password_hash", "provider", "provider_id", "avatar", "created_at", "updated_at"}

func TestUserRepo_CreateNormalisesEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "ana@example.com", "Ana", nil, sqlmock.AnyArg(), "local", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u, err := NewUserRepo(db).Create(context.Background(), NewUser{Email: "  Ana@Example.COM ", Password: "secret1", Name: "Ana"}, 4)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Len(t, u.ID, 36)
	require.NotNil(t, u.PasswordHash)
	assert.True(t, utils.VerifyPassword(*u.PasswordHash, "secret1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_CreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err = NewUserRepo(db).Create(context.Background(), NewUser{Email: "a@b.rs", Password: "secret1", Name: "Ana"}, 4)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("SELECT .* FROM users WHERE email=\\?").
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "ana@example.com", "Ana", "+381", nil, "google", "g-1", nil, ts, ts))

	u, err := NewUserRepo(db).GetByEmail(context.Background(), "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Nil(t, u.PasswordHash, "federated account has no password")
	require.NotNil(t, u.Phone)
	assert.Equal(t, "+381", *u.Phone)
	assert.Equal(t, "google", u.Provider)
}

func TestUserRepo_GetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .* FROM users WHERE id=\\?").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err = NewUserRepo(db).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenRepo_ValidateRefresh(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTokenRepo(db)
	cols := []string{"user_id", "expires_at", "revoked_at"}

	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
		WithArgs("h1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", time.Now().Add(time.Hour), nil))
	uid, err := repo.ValidateRefresh(context.Background(), "h1")
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)

	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
		WithArgs("h2").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", time.Now().Add(time.Hour), time.Now()))
	_, err = repo.ValidateRefresh(context.Background(), "h2")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
		WithArgs("h3").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", time.Now().Add(-time.Hour), nil))
	_, err = repo.ValidateRefresh(context.Background(), "h3")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
