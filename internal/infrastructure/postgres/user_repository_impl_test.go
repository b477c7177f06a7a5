package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-registry/internal/domain/apperror"
	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/internal/infrastructure/postgres"
)

const anaID = "6f1c2a8e-3b4d-4c5e-9f60-7a8b9c0d1e2f"

var userCols = []string{"id", "name", "email", "age", "profile_image", "created_at", "updated_at"}

func anaRow(ts time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(userCols).
		AddRow(anaID, "Ana", "ana@x.com", 30, "https://storage.googleapis.com/b/avatars/a.jpg", ts, ts)
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()
	ts := time.Now().UTC().Truncate(time.Microsecond)
	input := &entity.User{Name: " Ana ", Email: "Ana@X.com", Age: 30, ProfileImage: "https://storage.googleapis.com/b/avatars/a.jpg"}

	t.Run("inserts normalized fields", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("Ana", "ana@x.com", 30, input.ProfileImage).
			WillReturnRows(anaRow(ts))

		created, err := postgres.NewUserRepository(mock).Create(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, anaID, created.ID)
		assert.Equal(t, "ana@x.com", created.Email)
		assert.Equal(t, ts, created.CreatedAt)
		assert.Equal(t, " Ana ", input.Name, "input must not be mutated")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation is a duplicate email", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("Ana", "ana@x.com", 30, input.ProfileImage).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		created, err := postgres.NewUserRepository(mock).Create(ctx, input)
		assert.Nil(t, created)
		assert.ErrorIs(t, err, apperror.ErrDuplicateEmail)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing fields never reach the database", func(t *testing.T) {
		mock := newMock(t)
		created, err := postgres.NewUserRepository(mock).Create(ctx, &entity.User{Email: "ana@x.com"})
		assert.Nil(t, created)
		assert.ErrorIs(t, err, apperror.ErrValidation)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other database errors stay internal", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("Ana", "ana@x.com", 30, input.ProfileImage).
			WillReturnError(errors.New("connection reset"))

		_, err := postgres.NewUserRepository(mock).Create(ctx, input)
		require.Error(t, err)
		assert.Equal(t, apperror.Internal, apperror.KindOf(err))
		assert.Contains(t, err.Error(), "create user")
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	ts := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("SELECT .+ FROM users WHERE id = \\$1").
			WithArgs(anaID).
			WillReturnRows(anaRow(ts))

		u, err := postgres.NewUserRepository(mock).GetByID(ctx, anaID)
		require.NoError(t, err)
		assert.Equal(t, "Ana", u.Name)
		assert.Equal(t, 30, u.Age)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("SELECT .+ FROM users WHERE id = \\$1").
			WithArgs(anaID).
			WillReturnRows(pgxmock.NewRows(userCols))

		_, err := postgres.NewUserRepository(mock).GetByID(ctx, anaID)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		mock := newMock(t)
		_, err := postgres.NewUserRepository(mock).GetByID(ctx, "123")
		assert.ErrorIs(t, err, apperror.ErrInvalidID)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_List(t *testing.T) {
	ctx := context.Background()
	ts := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("returns rows in order", func(t *testing.T) {
		mock := newMock(t)
		rows := anaRow(ts).AddRow("0b7e0a52-8c38-4a8e-b2a7-2f0f7a1d9e11", "Luis", "luis@x.com", 41, "https://img/l.jpg", ts, ts)
		mock.ExpectQuery("SELECT .+ FROM users ORDER BY created_at").WillReturnRows(rows)

		users, err := postgres.NewUserRepository(mock).List(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "Ana", users[0].Name)
		assert.Equal(t, "Luis", users[1].Name)
	})

	t.Run("empty table is an empty slice", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("SELECT .+ FROM users ORDER BY created_at").WillReturnRows(pgxmock.NewRows(userCols))

		users, err := postgres.NewUserRepository(mock).List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, users)
		assert.Empty(t, users)
	})
}

func TestUserRepository_Update(t *testing.T) {
	ctx := context.Background()
	ts := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("merges patch and keeps the image", func(t *testing.T) {
		mock := newMock(t)
		age := 31
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT .+ FROM users WHERE id = \\$1 FOR UPDATE").
			WithArgs(anaID).
			WillReturnRows(anaRow(ts))
		mock.ExpectQuery("UPDATE users").
			WithArgs(anaID, "Ana", "ana@x.com", 31, "https://storage.googleapis.com/b/avatars/a.jpg", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow(anaID, "Ana", "ana@x.com", 31, "https://storage.googleapis.com/b/avatars/a.jpg", ts, ts.Add(time.Second)))
		mock.ExpectCommit()

		u, prev, err := postgres.NewUserRepository(mock).Update(ctx, anaID, entity.UserPatch{Age: &age})
		require.NoError(t, err)
		assert.Equal(t, 31, u.Age)
		assert.Equal(t, 30, prev.Age)
		assert.True(t, u.UpdatedAt.After(prev.UpdatedAt))
		assert.Equal(t, "https://storage.googleapis.com/b/avatars/a.jpg", u.ProfileImage)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMock(t)
		name := "X"
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT .+ FOR UPDATE").WithArgs(anaID).WillReturnRows(pgxmock.NewRows(userCols))
		mock.ExpectRollback()

		_, _, err := postgres.NewUserRepository(mock).Update(ctx, anaID, entity.UserPatch{Name: &name})
		assert.ErrorIs(t, err, apperror.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid merged record", func(t *testing.T) {
		mock := newMock(t)
		email := "broken"
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT .+ FOR UPDATE").WithArgs(anaID).WillReturnRows(anaRow(ts))
		mock.ExpectRollback()

		_, _, err := postgres.NewUserRepository(mock).Update(ctx, anaID, entity.UserPatch{Email: &email})
		assert.ErrorIs(t, err, apperror.ErrValidation)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("email taken by another user", func(t *testing.T) {
		mock := newMock(t)
		email := "luis@x.com"
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT .+ FOR UPDATE").WithArgs(anaID).WillReturnRows(anaRow(ts))
		mock.ExpectQuery("UPDATE users").
			WithArgs(anaID, "Ana", "luis@x.com", 30, "https://storage.googleapis.com/b/avatars/a.jpg", pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectRollback()

		_, _, err := postgres.NewUserRepository(mock).Update(ctx, anaID, entity.UserPatch{Email: &email})
		assert.ErrorIs(t, err, apperror.ErrDuplicateEmail)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("previous row comes from the locked read", func(t *testing.T) {
		mock := newMock(t)
		img := "https://storage.googleapis.com/b/avatars/new.jpg"
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT .+ FROM users WHERE id = \\$1 FOR UPDATE").
			WithArgs(anaID).
			WillReturnRows(anaRow(ts))
		mock.ExpectQuery("UPDATE users").
			WithArgs(anaID, "Ana", "ana@x.com", 30, img, pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow(anaID, "Ana", "ana@x.com", 30, img, ts, ts.Add(time.Second)))
		mock.ExpectCommit()

		u, prev, err := postgres.NewUserRepository(mock).Update(ctx, anaID, entity.UserPatch{ProfileImage: &img})
		require.NoError(t, err)
		assert.Equal(t, img, u.ProfileImage)
		assert.Equal(t, "https://storage.googleapis.com/b/avatars/a.jpg", prev.ProfileImage)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed id", func(t *testing.T) {
		mock := newMock(t)
		_, _, err := postgres.NewUserRepository(mock).Update(ctx, "nope", entity.UserPatch{})
		assert.ErrorIs(t, err, apperror.ErrInvalidID)
	})
}

func TestUserRepository_Delete(t *testing.T) {
	ctx := context.Background()
	ts := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("returns the deleted row", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("DELETE FROM users WHERE id = \\$1 RETURNING").WithArgs(anaID).WillReturnRows(anaRow(ts))

		u, err := postgres.NewUserRepository(mock).Delete(ctx, anaID)
		require.NoError(t, err)
		assert.Equal(t, anaID, u.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("DELETE FROM users").WithArgs(anaID).WillReturnRows(pgxmock.NewRows(userCols))

		u, err := postgres.NewUserRepository(mock).Delete(ctx, anaID)
		assert.Nil(t, u)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}
