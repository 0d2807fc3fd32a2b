package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// ProjectRepository defines the interface for project persistence
type ProjectRepository interface {
	Create(ctx context.Context, project entity.Project) (*entity.Project, error)
	Get(ctx context.Context, id string) (*entity.Project, error)
	List(ctx context.Context, skip, limit int) ([]*entity.Project, error)
	Rename(ctx context.Context, id, name string) (*entity.Project, error)
	Delete(ctx context.Context, id string) error
}

var _ ProjectRepository = &ProjectPostgres{}

// ProjectPostgres implements ProjectRepository using PostgreSQL
type ProjectPostgres struct {
	db *pgxpool.Pool
}

func NewProjectPostgres(db *pgxpool.Pool) *ProjectPostgres {
	return &ProjectPostgres{db: db}
}

func (r *ProjectPostgres) Create(ctx context.Context, project entity.Project) (*entity.Project, error) {
	projectID, err := parseUUID(project.ID)
	if err != nil {
		return nil, fmt.Errorf("parse project ID: %w", err)
	}

	documentID, err := parseUUID(project.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	var row projectRow
	err = r.db.QueryRow(ctx, `
		INSERT INTO projects (id, name, document_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, document_id, created_at`,
		projectID, project.Name, documentID,
	).Scan(&row.ID, &row.Name, &row.DocumentID, &row.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, entity.ErrDocumentLinked
		}
		return nil, fmt.Errorf("create project: %w", err)
	}

	return toEntityProject(&row), nil
}

func (r *ProjectPostgres) Get(ctx context.Context, id string) (*entity.Project, error) {
	projectID, err := parseUUID(id)
	if err != nil {
		return nil, fmt.Errorf("parse project ID: %w", err)
	}

	var row projectRow
	err = r.db.QueryRow(ctx, `
		SELECT id, name, document_id, created_at
		FROM projects
		WHERE id = $1`,
		projectID,
	).Scan(&row.ID, &row.Name, &row.DocumentID, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrProjectNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	return toEntityProject(&row), nil
}

func (r *ProjectPostgres) List(ctx context.Context, skip, limit int) ([]*entity.Project, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, document_id, created_at
		FROM projects
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		int32(limit), int32(skip),
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*entity.Project, 0)
	for rows.Next() {
		var row projectRow
		if err := rows.Scan(&row.ID, &row.Name, &row.DocumentID, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, toEntityProject(&row))
	}

	return projects, rows.Err()
}

func (r *ProjectPostgres) Rename(ctx context.Context, id, name string) (*entity.Project, error) {
	projectID, err := parseUUID(id)
	if err != nil {
		return nil, fmt.Errorf("parse project ID: %w", err)
	}

	var row projectRow
	err = r.db.QueryRow(ctx, `
		UPDATE projects SET name = $2
		WHERE id = $1
		RETURNING id, name, document_id, created_at`,
		projectID, name,
	).Scan(&row.ID, &row.Name, &row.DocumentID, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrProjectNotFound
		}
		return nil, fmt.Errorf("rename project: %w", err)
	}

	return toEntityProject(&row), nil
}

func (r *ProjectPostgres) Delete(ctx context.Context, id string) error {
	projectID, err := parseUUID(id)
	if err != nil {
		return fmt.Errorf("parse project ID: %w", err)
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, projectID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrProjectNotFound
	}

	return nil
}
