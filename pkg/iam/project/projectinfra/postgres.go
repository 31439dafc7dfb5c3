package projectinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hypeframe/monarch/pkg/dbx"
	"github.com/hypeframe/monarch/pkg/errx"
	"github.com/hypeframe/monarch/pkg/iam/project"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// PostgresProjectRepository es la implementación en PostgreSQL de project.Repository.
type PostgresProjectRepository struct {
	db *sqlx.DB
}

// NewPostgresProjectRepository crea una nueva instancia del repositorio.
func NewPostgresProjectRepository(db *sqlx.DB) *PostgresProjectRepository {
	return &PostgresProjectRepository{db: db}
}

const projectColumns = `id, name, api_key_hash, api_key_prefix, is_active, created_at, updated_at`

// Create inserta un proyecto nuevo.
func (r *PostgresProjectRepository) Create(ctx context.Context, p *project.Project) error {
	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (:id, :name, :api_key_hash, :api_key_prefix, :is_active, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		if dbx.IsUniqueViolation(err) {
			return project.ErrProjectExists().WithDetail("project_id", p.ID)
		}
		return errx.Wrap(err, "failed to create project", errx.TypeInternal).
			WithDetail("project_id", p.ID)
	}
	return nil
}

// Update guarda nombre, key y estado.
func (r *PostgresProjectRepository) Update(ctx context.Context, p *project.Project) error {
	query := `
		UPDATE projects SET
			name = :name,
			api_key_hash = :api_key_hash,
			api_key_prefix = :api_key_prefix,
			is_active = :is_active,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		return errx.Wrap(err, "failed to update project", errx.TypeInternal).
			WithDetail("project_id", p.ID)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on update", errx.TypeInternal)
	}
	if rows == 0 {
		return project.ErrProjectNotFound()
	}
	return nil
}

// FindByID busca un proyecto por ID.
func (r *PostgresProjectRepository) FindByID(ctx context.Context, id kernel.ProjectID) (*project.Project, error) {
	var p project.Project
	err := r.db.GetContext(ctx, &p, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, project.ErrProjectNotFound()
		}
		return nil, errx.Wrap(err, "failed to find project by ID", errx.TypeInternal)
	}
	return &p, nil
}

// FindByAPIKeyHash busca un proyecto por el hash SHA-256 de su API key.
func (r *PostgresProjectRepository) FindByAPIKeyHash(ctx context.Context, keyHash string) (*project.Project, error) {
	var p project.Project
	err := r.db.GetContext(ctx, &p, `SELECT `+projectColumns+` FROM projects WHERE api_key_hash = $1`, keyHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, project.ErrProjectNotFound()
		}
		return nil, errx.Wrap(err, "failed to find project by key hash", errx.TypeInternal)
	}
	return &p, nil
}

// List devuelve todos los proyectos ordenados por fecha de creación.
func (r *PostgresProjectRepository) List(ctx context.Context) ([]*project.Project, error) {
	var projects []*project.Project
	if err := r.db.SelectContext(ctx, &projects, `SELECT `+projectColumns+` FROM projects ORDER BY created_at`); err != nil {
		return nil, errx.Wrap(err, "failed to list projects", errx.TypeInternal)
	}
	return projects, nil
}
