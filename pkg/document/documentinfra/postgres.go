package documentinfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hypeframe/monarch/pkg/dbx"
	"github.com/hypeframe/monarch/pkg/document"
	"github.com/hypeframe/monarch/pkg/errx"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

// ============================================================================
// Rows
// ============================================================================

const documentColumns = `id, project_id, collection, owner_user_id, data, version, deleted_at, created_at, updated_at`

type documentRow struct {
	ID          string         `db:"id"`
	ProjectID   string         `db:"project_id"`
	Collection  string         `db:"collection"`
	OwnerUserID string         `db:"owner_user_id"`
	Data        types.JSONText `db:"data"`
	Version     int64          `db:"version"`
	DeletedAt   *time.Time     `db:"deleted_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r documentRow) toDomain() (*document.Document, error) {
	data := document.Data{}
	if len(r.Data) > 0 {
		if err := r.Data.Unmarshal(&data); err != nil {
			return nil, errx.Wrap(err, "failed to decode document data", errx.TypeInternal)
		}
	}
	return &document.Document{
		ID:          kernel.NewDocumentID(r.ID),
		ProjectID:   kernel.NewProjectID(r.ProjectID),
		Collection:  r.Collection,
		OwnerUserID: kernel.NewUserID(r.OwnerUserID),
		Data:        data,
		Version:     r.Version,
		DeletedAt:   r.DeletedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

func encodeData(d document.Data) (types.JSONText, error) {
	if d == nil {
		d = document.Data{}
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, errx.Wrap(err, "failed to encode document data", errx.TypeInternal)
	}
	return types.JSONText(raw), nil
}

// ============================================================================
// Store
// ============================================================================

// PostgresDocumentStore implementa document.Store sobre PostgreSQL (JSONB).
type PostgresDocumentStore struct {
	*postgresRepository
	db *sqlx.DB
}

func NewPostgresDocumentStore(db *sqlx.DB) *PostgresDocumentStore {
	return &PostgresDocumentStore{
		postgresRepository: &postgresRepository{q: db},
		db:                 db,
	}
}

// WithinTx corre fn en una transacción nativa; cualquier error hace rollback.
func (s *PostgresDocumentStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repo document.Repository) error) error {
	return dbx.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(ctx, &postgresRepository{q: tx})
	})
}

// postgresRepository sirve tanto al pool como a una transacción abierta.
type postgresRepository struct {
	q sqlx.ExtContext
}

func (r *postgresRepository) Insert(ctx context.Context, doc *document.Document) error {
	data, err := encodeData(doc.Data)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.q.ExecContext(ctx, query,
		doc.ID.String(),
		doc.ProjectID.String(),
		doc.Collection,
		doc.OwnerUserID.String(),
		data,
		doc.Version,
		doc.DeletedAt,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return errx.Wrap(err, "failed to insert document", errx.TypeInternal)
	}
	return nil
}

func (r *postgresRepository) Find(ctx context.Context, projectID kernel.ProjectID, id kernel.DocumentID) (*document.Document, error) {
	return r.findOne(ctx, `SELECT `+documentColumns+` FROM documents WHERE project_id = $1 AND id = $2`, projectID, id)
}

func (r *postgresRepository) FindForUpdate(ctx context.Context, projectID kernel.ProjectID, id kernel.DocumentID) (*document.Document, error) {
	return r.findOne(ctx, `SELECT `+documentColumns+` FROM documents WHERE project_id = $1 AND id = $2 FOR UPDATE`, projectID, id)
}

func (r *postgresRepository) findOne(ctx context.Context, query string, projectID kernel.ProjectID, id kernel.DocumentID) (*document.Document, error) {
	var row documentRow
	if err := sqlx.GetContext(ctx, r.q, &row, query, projectID.String(), id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, document.ErrNotFound().WithDetail("document_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find document", errx.TypeInternal)
	}
	return row.toDomain()
}

func (r *postgresRepository) Save(ctx context.Context, doc *document.Document) error {
	data, err := encodeData(doc.Data)
	if err != nil {
		return err
	}

	query := `
		UPDATE documents SET
			data = $1,
			version = $2,
			deleted_at = $3,
			updated_at = $4
		WHERE project_id = $5 AND id = $6`

	result, err := r.q.ExecContext(ctx, query, data, doc.Version, doc.DeletedAt, doc.UpdatedAt, doc.ProjectID.String(), doc.ID.String())
	if err != nil {
		return errx.Wrap(err, "failed to update document", errx.TypeInternal)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on update", errx.TypeInternal)
	}
	if rows == 0 {
		return document.ErrNotFound().WithDetail("document_id", doc.ID.String())
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, projectID kernel.ProjectID, id kernel.DocumentID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM documents WHERE project_id = $1 AND id = $2`, projectID.String(), id.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete document", errx.TypeInternal)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on delete", errx.TypeInternal)
	}
	if rows == 0 {
		return document.ErrNotFound().WithDetail("document_id", id.String())
	}
	return nil
}

// List pagina newest-first. El filtro es igualdad JSONB exacta por clave de
// primer nivel (data->k = v), la misma semántica que document.Data.Matches.
func (r *postgresRepository) List(ctx context.Context, q document.ListQuery) ([]*document.Document, int, error) {
	conds := []string{"project_id = $1", "owner_user_id = $2", "collection = $3"}
	args := []any{q.ProjectID.String(), q.OwnerUserID.String(), q.Collection}

	if !q.IncludeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}
	if !q.ID.IsEmpty() {
		args = append(args, q.ID.String())
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	keys := make([]string, 0, len(q.Filter))
	for k := range q.Filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		raw, err := json.Marshal(q.Filter[k])
		if err != nil {
			return nil, 0, errx.Wrap(err, "failed to encode document filter", errx.TypeInternal)
		}
		args = append(args, k, types.JSONText(raw))
		conds = append(conds, fmt.Sprintf("data -> $%d::text = $%d::jsonb", len(args)-1, len(args)))
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := sqlx.GetContext(ctx, r.q, &total, `SELECT COUNT(*) FROM documents WHERE `+where, args...); err != nil {
		return nil, 0, errx.Wrap(err, "failed to count documents", errx.TypeInternal)
	}
	if total == 0 {
		return []*document.Document{}, 0, nil
	}

	args = append(args, q.Pagination.PageSize, q.Pagination.Offset())
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		documentColumns, where, len(args)-1, len(args))

	var rows []documentRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, args...); err != nil {
		return nil, 0, errx.Wrap(err, "failed to list documents", errx.TypeInternal)
	}

	docs := make([]*document.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.toDomain()
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}
	return docs, total, nil
}

func (r *postgresRepository) Collections(ctx context.Context, projectID kernel.ProjectID, owner kernel.UserID) ([]string, error) {
	query := `
		SELECT DISTINCT collection FROM documents
		WHERE project_id = $1 AND owner_user_id = $2 AND deleted_at IS NULL
		ORDER BY collection`

	names := []string{}
	if err := sqlx.SelectContext(ctx, r.q, &names, query, projectID.String(), owner.String()); err != nil {
		return nil, errx.Wrap(err, "failed to list collections", errx.TypeInternal)
	}
	return names, nil
}

func (r *postgresRepository) Stats(ctx context.Context, projectID kernel.ProjectID, owner kernel.UserID) ([]document.CollectionStats, error) {
	query := `
		SELECT
			collection,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE data->'completed' = 'true'::jsonb) AS completed,
			COUNT(*) FILTER (WHERE data ? 'completed') AS with_completed_field
		FROM documents
		WHERE project_id = $1 AND owner_user_id = $2 AND deleted_at IS NULL
		GROUP BY collection
		ORDER BY collection`

	stats := []document.CollectionStats{}
	if err := sqlx.SelectContext(ctx, r.q, &stats, query, projectID.String(), owner.String()); err != nil {
		return nil, errx.Wrap(err, "failed to compute document stats", errx.TypeInternal)
	}
	return stats, nil
}
