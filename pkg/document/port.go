package document

import (
	"context"

	"github.com/hypeframe/monarch/pkg/kernel"
)

// ListQuery acota una lectura a proyecto + dueño + colección.
type ListQuery struct {
	ProjectID      kernel.ProjectID
	OwnerUserID    kernel.UserID
	Collection     string
	ID             kernel.DocumentID
	Filter         Data
	IncludeDeleted bool
	Pagination     kernel.PaginationOptions
}

// Repository es el acceso a documentos dentro (o fuera) de una transacción.
// Find/FindForUpdate devuelven ErrNotFound cuando el id no existe en el proyecto.
type Repository interface {
	Insert(ctx context.Context, doc *Document) error
	Find(ctx context.Context, projectID kernel.ProjectID, id kernel.DocumentID) (*Document, error)
	// FindForUpdate bloquea el documento hasta el fin de la transacción.
	FindForUpdate(ctx context.Context, projectID kernel.ProjectID, id kernel.DocumentID) (*Document, error)
	Save(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, projectID kernel.ProjectID, id kernel.DocumentID) error
	List(ctx context.Context, q ListQuery) ([]*Document, int, error)
	// Collections y Stats ignoran documentos soft-deleted.
	Collections(ctx context.Context, projectID kernel.ProjectID, owner kernel.UserID) ([]string, error)
	Stats(ctx context.Context, projectID kernel.ProjectID, owner kernel.UserID) ([]CollectionStats, error)
}

// Store agrega transacciones al Repository. Si fn devuelve error nada de lo
// hecho con el repo que recibe queda visible.
type Store interface {
	Repository
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}
