package userinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hypeframe/monarch/pkg/dbx"
	"github.com/hypeframe/monarch/pkg/errx"
	"github.com/hypeframe/monarch/pkg/iam/user"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// PostgresUserRepository implementa user.Repository sobre PostgreSQL.
type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, project_id, email, password_hash, federated_provider, federated_subject, email_verified, created_at, updated_at`

// Create inserta el usuario; (project_id, email) es único.
func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (:id, :project_id, :email, :password_hash, :federated_provider, :federated_subject, :email_verified, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, u); err != nil {
		if dbx.IsUniqueViolation(err) {
			return user.ErrDuplicateUser().WithDetail("email", u.Email)
		}
		return errx.Wrap(err, "failed to create user", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users SET
			password_hash = :password_hash,
			federated_provider = :federated_provider,
			federated_subject = :federated_subject,
			email_verified = :email_verified,
			updated_at = :updated_at
		WHERE project_id = :project_id AND id = :id`

	result, err := r.db.NamedExecContext(ctx, query, u)
	if err != nil {
		return errx.Wrap(err, "failed to update user", errx.TypeInternal)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on update", errx.TypeInternal)
	}
	if rows == 0 {
		return user.ErrUserNotFound()
	}
	return nil
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, projectID kernel.ProjectID, id kernel.UserID) (*user.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE project_id = $1 AND id = $2`, projectID.String(), id.String())
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, projectID kernel.ProjectID, email string) (*user.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE project_id = $1 AND email = $2`, projectID.String(), user.NormalizeEmail(email))
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, args ...any) (*user.User, error) {
	var u user.User
	if err := r.db.GetContext(ctx, &u, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound()
		}
		return nil, errx.Wrap(err, "failed to find user", errx.TypeInternal)
	}
	return &u, nil
}
