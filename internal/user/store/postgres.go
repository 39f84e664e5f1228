package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"atelier/internal/user/models"
	id "atelier/pkg/domain"
	"atelier/pkg/platform/sentinel"
)

// PostgresStore persists users in PostgreSQL. Email uniqueness is a unique
// index on LOWER(email).
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	const q = `
INSERT INTO users (id, email, name, password_hash, role, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, q,
		uuid.UUID(u.ID), u.Email, u.Name, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	const q = `
SELECT id, email, name, password_hash, role, created_at, updated_at
FROM users
WHERE id = $1`
	return scanUser(s.db.QueryRowContext(ctx, q, uuid.UUID(userID)))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
SELECT id, email, name, password_hash, role, created_at, updated_at
FROM users
WHERE LOWER(email) = LOWER($1)`
	return scanUser(s.db.QueryRowContext(ctx, q, email))
}

func (s *PostgresStore) Update(ctx context.Context, u *models.User) error {
	const q = `
UPDATE users
SET email = $1, name = $2, password_hash = $3, role = $4, updated_at = $5
WHERE id = $6`
	res, err := s.db.ExecContext(ctx, q,
		u.Email, u.Name, u.PasswordHash, string(u.Role), u.UpdatedAt, uuid.UUID(u.ID),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// List returns a page of users ordered by creation time, oldest first, plus
// the total count. A limit < 0 disables pagination.
func (s *PostgresStore) List(ctx context.Context, offset, limit int) ([]*models.User, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	q := `
SELECT id, email, name, password_hash, role, created_at, updated_at
FROM users
ORDER BY created_at ASC, id ASC`
	args := []any{}
	if limit >= 0 {
		args = append(args, limit, offset)
		q += " LIMIT $1 OFFSET $2"
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return users, total, nil
}

// isUniqueViolation reports whether err is a unique-constraint violation from
// the pgx driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u      models.User
		userID uuid.UUID
		role   string
	)
	err := row.Scan(&userID, &u.Email, &u.Name, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	u.ID = id.UserID(userID)
	u.Role = id.Role(role)
	return &u, nil
}
