package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/go-user-registry/internal/domain/apperror"
	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/internal/domain/repository"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"

	userColumns = "id, name, email, age, profile_image, created_at, updated_at"
)

var (
	errUserNotFound   = apperror.New(apperror.NotFound, "Usuario no encontrado con el ID proporcionado")
	errInvalidUserID  = apperror.New(apperror.InvalidID, "El ID proporcionado no es válido")
	errEmailDuplicate = apperror.New(apperror.DuplicateEmail, "El correo ya está registrado")
)

// PgxPool is the subset of *pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type UserRepository struct {
	pool PgxPool
}

func NewUserRepository(pool PgxPool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) (*entity.User, error) {
	in := *u
	in.Normalize()
	if err := in.Validate(true); err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, age, profile_image)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		in.Name, in.Email, in.Age, in.ProfileImage)

	created, err := scanUser(row)
	if err != nil {
		return nil, mapWriteError("create user", err)
	}
	return created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, errInvalidUserID
	}
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Update locks the row, merges the patch, re-validates the merged record
// and writes it back in one transaction.
func (r *UserRepository) Update(ctx context.Context, id string, patch entity.UserPatch) (*entity.User, *entity.User, error) {
	if !validID(id) {
		return nil, nil, errInvalidUserID
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, errUserNotFound
		}
		return nil, nil, fmt.Errorf("load user for update: %w", err)
	}

	if patch.Empty() {
		if err := tx.Commit(ctx); err != nil {
			return nil, nil, fmt.Errorf("commit update: %w", err)
		}
		return current, current, nil
	}

	merged := patch.Apply(*current)
	merged.Normalize()
	if err := merged.Validate(true); err != nil {
		return nil, nil, err
	}

	// updated_at orders cache entries, so it must move forward.
	now := time.Now().UTC()
	if !now.After(current.UpdatedAt) {
		now = current.UpdatedAt.Add(time.Microsecond)
	}
	updated, err := scanUser(tx.QueryRow(ctx, `
		UPDATE users
		SET name = $2, email = $3, age = $4, profile_image = $5, updated_at = $6
		WHERE id = $1
		RETURNING `+userColumns,
		id, merged.Name, merged.Email, merged.Age, merged.ProfileImage, now))
	if err != nil {
		return nil, nil, mapWriteError("update user", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, mapWriteError("commit update", err)
	}
	return updated, current, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, errInvalidUserID
	}
	row := r.pool.QueryRow(ctx, `DELETE FROM users WHERE id = $1 RETURNING `+userColumns, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("delete user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Age, &u.ProfileImage, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// mapWriteError turns constraint violations into tagged errors.
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errEmailDuplicate
		case pgCheckViolation:
			return apperror.NewValidation("Datos inválidos", map[string]string{pgErr.ConstraintName: pgErr.Message})
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ repository.UserRepository = (*UserRepository)(nil)
