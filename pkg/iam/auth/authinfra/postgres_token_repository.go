package authinfra

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hypeframe/monarch/pkg/errx"
	"github.com/hypeframe/monarch/pkg/iam/auth"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// PostgresTokenRepository implementa auth.TokenRepository sobre la tabla refresh_tokens.
type PostgresTokenRepository struct {
	db *sqlx.DB
}

func NewPostgresTokenRepository(db *sqlx.DB) *PostgresTokenRepository {
	return &PostgresTokenRepository{db: db}
}

const tokenColumns = `id, token_hash, user_id, project_id, issued_at, expires_at, revoked, revoked_at`

func (r *PostgresTokenRepository) SaveRefreshToken(ctx context.Context, token auth.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (` + tokenColumns + `)
		VALUES (:id, :token_hash, :user_id, :project_id, :issued_at, :expires_at, :revoked, :revoked_at)`

	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return errx.Wrap(err, "failed to save refresh token", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresTokenRepository) FindRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	var token auth.RefreshToken
	err := r.db.GetContext(ctx, &token, `SELECT `+tokenColumns+` FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrInvalidRefreshToken()
		}
		return nil, errx.Wrap(err, "failed to find refresh token", errx.TypeInternal)
	}
	return &token, nil
}

// RevokeIfActive es un UPDATE condicional: solo una rotación concurrente afecta la fila.
func (r *PostgresTokenRepository) RevokeIfActive(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2
		WHERE token_hash = $1 AND revoked = FALSE AND expires_at > $2`,
		tokenHash, now)
	if err != nil {
		return false, errx.Wrap(err, "failed to revoke refresh token", errx.TypeInternal)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, errx.Wrap(err, "failed to get rows affected on revoke", errx.TypeInternal)
	}
	return rows == 1, nil
}

func (r *PostgresTokenRepository) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = TRUE, revoked_at = NOW()
		WHERE token_hash = $1 AND revoked = FALSE`, tokenHash)
	if err != nil {
		return errx.Wrap(err, "failed to revoke refresh token", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresTokenRepository) RevokeAllUserTokens(ctx context.Context, projectID kernel.ProjectID, userID kernel.UserID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = TRUE, revoked_at = NOW()
		WHERE project_id = $1 AND user_id = $2 AND revoked = FALSE`,
		projectID.String(), userID.String())
	if err != nil {
		return errx.Wrap(err, "failed to revoke user tokens", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresTokenRepository) CleanExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, errx.Wrap(err, "failed to clean expired tokens", errx.TypeInternal)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
