package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"atelier/internal/project/models"
	id "atelier/pkg/domain"
	"atelier/pkg/platform/sentinel"
)

// PostgresStore persists projects in PostgreSQL. The sharing ledger lives in
// project_shares with a (project_id, user_id) primary key, so the one-entry-
// per-user invariant is structural rather than enforced by scans.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed project store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Project) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create project: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
INSERT INTO projects (id, owner_id, name, description, tags, status, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)`
	_, err = tx.ExecContext(ctx, q,
		uuid.UUID(p.ID), uuid.UUID(p.OwnerID), p.Name, p.Description,
		pq.Array(p.Tags), string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert project: %w", err)
	}

	if err := insertShares(ctx, tx, p); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create project: %w", err)
	}
	p.Version = 1
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, projectID id.ProjectID) (*models.Project, error) {
	const q = `
SELECT id, owner_id, name, description, tags, status, version, created_at, updated_at
FROM projects
WHERE id = $1`

	p, err := scanProject(s.db.QueryRowContext(ctx, q, uuid.UUID(projectID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find project: %w", err)
	}

	shares, err := s.loadShares(ctx, []uuid.UUID{uuid.UUID(projectID)})
	if err != nil {
		return nil, err
	}
	p.SharedWith = shares[uuid.UUID(projectID)]
	if p.SharedWith == nil {
		p.SharedWith = []models.ShareEntry{}
	}
	return p, nil
}

// Update is a compare-and-swap on (id, version): the row is only written when
// the caller saw the latest version, and the sharing ledger is replaced in the
// same transaction. Losing the race yields sentinel.ErrVersionMismatch.
func (s *PostgresStore) Update(ctx context.Context, p *models.Project) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update project: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
UPDATE projects
SET owner_id = $1, name = $2, description = $3, tags = $4, status = $5,
    version = version + 1, updated_at = $6
WHERE id = $7 AND version = $8`
	res, err := tx.ExecContext(ctx, q,
		uuid.UUID(p.OwnerID), p.Name, p.Description, pq.Array(p.Tags),
		string(p.Status), p.UpdatedAt, uuid.UUID(p.ID), p.Version,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project rows: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, uuid.UUID(p.ID),
		).Scan(&exists); err != nil {
			return fmt.Errorf("check project existence: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrVersionMismatch
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM project_shares WHERE project_id = $1`, uuid.UUID(p.ID),
	); err != nil {
		return fmt.Errorf("clear project shares: %w", err)
	}
	if err := insertShares(ctx, tx, p); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update project: %w", err)
	}
	p.Version++
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, projectID id.ProjectID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, uuid.UUID(projectID))
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project rows: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// List returns the matching page plus the total match count ignoring
// pagination. A limit < 0 disables pagination.
func (s *PostgresStore) List(ctx context.Context, filter Filter, offset, limit int) ([]*models.Project, int, error) {
	where, args := buildWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM projects p` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	pageQuery := `
SELECT p.id, p.owner_id, p.name, p.description, p.tags, p.status, p.version, p.created_at, p.updated_at
FROM projects p` + where + `
ORDER BY p.created_at DESC, p.id DESC`
	if limit >= 0 {
		args = append(args, limit, offset)
		pageQuery += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.db.QueryContext(ctx, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*models.Project, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
		ids = append(ids, uuid.UUID(p.ID))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate projects: %w", err)
	}

	shares, err := s.loadShares(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, p := range projects {
		p.SharedWith = shares[uuid.UUID(p.ID)]
		if p.SharedWith == nil {
			p.SharedWith = []models.ShareEntry{}
		}
	}
	return projects, total, nil
}

func buildWhere(f Filter) (string, []any) {
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if f.VisibleTo != nil {
		args = append(args, uuid.UUID(*f.VisibleTo))
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(p.owner_id = $%d OR EXISTS (SELECT 1 FROM project_shares s WHERE s.project_id = p.id AND s.user_id = $%d))", n, n))
	}
	if f.NameContains != "" {
		args = append(args, f.NameContains)
		clauses = append(clauses, fmt.Sprintf("p.name ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if f.Tag != "" {
		args = append(args, f.Tag)
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(p.tags)", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "\nWHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var (
		p         models.Project
		projectID uuid.UUID
		ownerID   uuid.UUID
		tags      []string
		status    string
	)
	err := row.Scan(&projectID, &ownerID, &p.Name, &p.Description,
		pq.Array(&tags), &status, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ID = id.ProjectID(projectID)
	p.OwnerID = id.UserID(ownerID)
	p.Tags = tags
	p.Status = models.Status(status)
	return &p, nil
}

func (s *PostgresStore) loadShares(ctx context.Context, projectIDs []uuid.UUID) (map[uuid.UUID][]models.ShareEntry, error) {
	result := make(map[uuid.UUID][]models.ShareEntry, len(projectIDs))
	if len(projectIDs) == 0 {
		return result, nil
	}

	const q = `
SELECT project_id, user_id, permissions
FROM project_shares
WHERE project_id = ANY($1)`
	rows, err := s.db.QueryContext(ctx, q, pq.Array(projectIDs))
	if err != nil {
		return nil, fmt.Errorf("load project shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			projectID uuid.UUID
			userID    uuid.UUID
			perms     []string
		)
		if err := rows.Scan(&projectID, &userID, pq.Array(&perms)); err != nil {
			return nil, fmt.Errorf("scan project share: %w", err)
		}
		entry := models.ShareEntry{UserID: id.UserID(userID), Permissions: toPermissions(perms)}
		result[projectID] = append(result[projectID], entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project shares: %w", err)
	}
	return result, nil
}

func insertShares(ctx context.Context, tx *sql.Tx, p *models.Project) error {
	for _, entry := range p.SharedWith {
		perms := make([]string, len(entry.Permissions))
		for i, perm := range entry.Permissions {
			perms[i] = string(perm)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO project_shares (project_id, user_id, permissions) VALUES ($1, $2, $3)`,
			uuid.UUID(p.ID), uuid.UUID(entry.UserID), pq.Array(perms),
		); err != nil {
			return fmt.Errorf("insert project share: %w", err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a unique-constraint violation from
// the pgx driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func toPermissions(perms []string) []models.Permission {
	out := make([]models.Permission, len(perms))
	for i, p := range perms {
		out[i] = models.Permission(p)
	}
	return out
}
