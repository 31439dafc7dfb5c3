package documentsrv

import (
	"context"
	"time"

	"github.com/hypeframe/monarch/pkg/document"
	"github.com/hypeframe/monarch/pkg/errx"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/hypeframe/monarch/pkg/logx"
)

// Owner identifica al llamador: proyecto de la API key + usuario del bearer.
type Owner struct {
	ProjectID kernel.ProjectID
	UserID    kernel.UserID
}

// ReadQuery son los parámetros de /db/read.
type ReadQuery struct {
	Collection     string
	ID             kernel.DocumentID
	Filter         document.Data
	IncludeDeleted bool
	Page           int
	PageSize       int
}

// DocumentService aplica ownership, versión y atomicidad sobre un document.Store.
type DocumentService struct {
	store           document.Store
	bulkMaxOps      int
	defaultPageSize int
	maxPageSize     int
	now             func() time.Time
}

func NewDocumentService(store document.Store, bulkMaxOps, defaultPageSize, maxPageSize int) *DocumentService {
	return &DocumentService{
		store:           store,
		bulkMaxOps:      bulkMaxOps,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// ============================================================================
// Single-document operations
// ============================================================================

// Create guarda un documento nuevo del llamador.
func (s *DocumentService) Create(ctx context.Context, owner Owner, collection string, data document.Data) (*document.Document, error) {
	doc, err := s.create(ctx, s.store, owner, collection, data)
	if err != nil {
		return nil, errx.Storage(err)
	}
	return doc, nil
}

// Read lista los documentos del llamador en una colección, newest first.
func (s *DocumentService) Read(ctx context.Context, owner Owner, q ReadQuery) (kernel.Paginated[*document.Document], error) {
	if err := document.ValidateCollection(q.Collection); err != nil {
		return kernel.Paginated[*document.Document]{}, err
	}

	page := kernel.PaginationOptions{Page: q.Page, PageSize: q.PageSize}.Normalize(s.defaultPageSize, s.maxPageSize)
	docs, total, err := s.store.List(ctx, document.ListQuery{
		ProjectID:      owner.ProjectID,
		OwnerUserID:    owner.UserID,
		Collection:     q.Collection,
		ID:             q.ID,
		Filter:         q.Filter,
		IncludeDeleted: q.IncludeDeleted,
		Pagination:     page,
	})
	if err != nil {
		return kernel.Paginated[*document.Document]{}, errx.Storage(err)
	}
	return kernel.NewPaginated(docs, page.Page, page.PageSize, total), nil
}

// Update hace merge superficial del patch bajo lock del documento.
func (s *DocumentService) Update(ctx context.Context, owner Owner, id kernel.DocumentID, patch document.Data, expectedVersion *int64) (*document.Document, error) {
	var updated *document.Document
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo document.Repository) error {
		doc, err := s.update(ctx, repo, owner, id, patch, expectedVersion)
		updated = doc
		return err
	})
	if err != nil {
		return nil, errx.Storage(err)
	}
	return updated, nil
}

// Delete borra lógicamente o, con hard, elimina la fila.
func (s *DocumentService) Delete(ctx context.Context, owner Owner, id kernel.DocumentID, hard bool) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo document.Repository) error {
		return s.delete(ctx, repo, owner, id, hard)
	})
	if err != nil {
		return errx.Storage(err)
	}
	return nil
}

// Restore revierte un soft delete.
func (s *DocumentService) Restore(ctx context.Context, owner Owner, id kernel.DocumentID) (*document.Document, error) {
	var restored *document.Document
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo document.Repository) error {
		doc, err := s.lockOwned(ctx, repo, owner, id)
		if err != nil {
			return err
		}
		if !doc.IsDeleted() {
			restored = doc
			return nil
		}
		doc.Restore(s.now())
		restored = doc
		return repo.Save(ctx, doc)
	})
	if err != nil {
		return nil, errx.Storage(err)
	}
	return restored, nil
}

// Collections devuelve las colecciones con al menos un documento vivo del llamador.
func (s *DocumentService) Collections(ctx context.Context, owner Owner) ([]string, error) {
	names, err := s.store.Collections(ctx, owner.ProjectID, owner.UserID)
	if err != nil {
		return nil, errx.Storage(err)
	}
	return names, nil
}

// Stats agrega por colección en cada llamada; no hay contadores persistidos.
func (s *DocumentService) Stats(ctx context.Context, owner Owner) (document.Stats, error) {
	stats, err := s.store.Stats(ctx, owner.ProjectID, owner.UserID)
	if err != nil {
		return document.Stats{}, errx.Storage(err)
	}
	return document.NewStats(stats), nil
}

// ============================================================================
// Shared steps (single ops y bulk)
// ============================================================================

func (s *DocumentService) create(ctx context.Context, repo document.Repository, owner Owner, collection string, data document.Data) (*document.Document, error) {
	if err := document.ValidateCollection(collection); err != nil {
		return nil, err
	}
	doc := document.NewDocument(owner.ProjectID, collection, owner.UserID, data, s.now())
	if err := repo.Insert(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// update trata un documento soft-deleted como inexistente: hay que restaurarlo antes.
func (s *DocumentService) update(ctx context.Context, repo document.Repository, owner Owner, id kernel.DocumentID, patch document.Data, expectedVersion *int64) (*document.Document, error) {
	doc, err := s.lockOwned(ctx, repo, owner, id)
	if err != nil {
		return nil, err
	}
	if doc.IsDeleted() {
		return nil, document.ErrNotFound().WithDetail("document_id", id.String())
	}
	if err := doc.CheckVersion(expectedVersion); err != nil {
		return nil, err
	}

	doc.ApplyPatch(patch, s.now())
	if err := repo.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) delete(ctx context.Context, repo document.Repository, owner Owner, id kernel.DocumentID, hard bool) error {
	doc, err := s.lockOwned(ctx, repo, owner, id)
	if err != nil {
		return err
	}
	if hard {
		return repo.Delete(ctx, owner.ProjectID, id)
	}
	if doc.IsDeleted() {
		return nil
	}
	doc.SoftDelete(s.now())
	return repo.Save(ctx, doc)
}

// lockOwned resuelve el documento en el proyecto y exige que sea del llamador.
// Otro proyecto u id inexistente → NotFound; otro dueño del mismo proyecto → Forbidden.
func (s *DocumentService) lockOwned(ctx context.Context, repo document.Repository, owner Owner, id kernel.DocumentID) (*document.Document, error) {
	if id.IsEmpty() {
		return nil, document.ErrNotFound().WithDetail("reason", "documentId is required")
	}
	doc, err := repo.FindForUpdate(ctx, owner.ProjectID, id)
	if err != nil {
		return nil, err
	}
	if err := doc.AuthorizeOwner(owner.UserID); err != nil {
		logx.WithContext(ctx).WithFields(logx.Fields{
			"project_id":  owner.ProjectID,
			"document_id": id,
		}).Warn("Document access denied to non-owner")
		return nil, err
	}
	return doc, nil
}
