package documentinfra

import (
	"context"
	"sort"
	"sync"

	"github.com/hypeframe/monarch/pkg/document"
	"github.com/hypeframe/monarch/pkg/kernel"
)

type docKey struct {
	projectID kernel.ProjectID
	id        kernel.DocumentID
}

// MemoryDocumentStore es el store en memoria (STORE_DRIVER=memory y tests).
// Las transacciones trabajan sobre una copia que reemplaza al estado solo en commit.
type MemoryDocumentStore struct {
	mu    sync.Mutex
	state memoryState
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{state: memoryState{}}
}

func (s *MemoryDocumentStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repo document.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(ctx, snapshot); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = snapshot
	return nil
}

func (s *MemoryDocumentStore) Insert(ctx context.Context, doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Insert(ctx, doc)
}

func (s *MemoryDocumentStore) Find(ctx context.Context, projectID kernel.ProjectID, id kernel.DocumentID) (*document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Find(ctx, projectID, id)
}

func (s *MemoryDocumentStore) FindForUpdate(ctx context.Context, projectID kernel.ProjectID, id kernel.DocumentID) (*document.Document, error) {
	return s.Find(ctx, projectID, id)
}

func (s *MemoryDocumentStore) Save(ctx context.Context, doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Save(ctx, doc)
}

func (s *MemoryDocumentStore) Delete(ctx context.Context, projectID kernel.ProjectID, id kernel.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Delete(ctx, projectID, id)
}

func (s *MemoryDocumentStore) List(ctx context.Context, q document.ListQuery) ([]*document.Document, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.List(ctx, q)
}

func (s *MemoryDocumentStore) Collections(ctx context.Context, projectID kernel.ProjectID, owner kernel.UserID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Collections(ctx, projectID, owner)
}

func (s *MemoryDocumentStore) Stats(ctx context.Context, projectID kernel.ProjectID, owner kernel.UserID) ([]document.CollectionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Stats(ctx, projectID, owner)
}

// ============================================================================
// memoryState: sin locks, el llamador los maneja
// ============================================================================

type memoryState map[docKey]*document.Document

func (m memoryState) clone() memoryState {
	c := make(memoryState, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func (m memoryState) Insert(ctx context.Context, doc *document.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m[docKey{doc.ProjectID, doc.ID}] = doc.Clone()
	return nil
}

func (m memoryState) Find(ctx context.Context, projectID kernel.ProjectID, id kernel.DocumentID) (*document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, ok := m[docKey{projectID, id}]
	if !ok {
		return nil, document.ErrNotFound().WithDetail("document_id", id.String())
	}
	return doc.Clone(), nil
}

func (m memoryState) FindForUpdate(ctx context.Context, projectID kernel.ProjectID, id kernel.DocumentID) (*document.Document, error) {
	return m.Find(ctx, projectID, id)
}

func (m memoryState) Save(ctx context.Context, doc *document.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := docKey{doc.ProjectID, doc.ID}
	if _, ok := m[key]; !ok {
		return document.ErrNotFound().WithDetail("document_id", doc.ID.String())
	}
	m[key] = doc.Clone()
	return nil
}

func (m memoryState) Delete(ctx context.Context, projectID kernel.ProjectID, id kernel.DocumentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := docKey{projectID, id}
	if _, ok := m[key]; !ok {
		return document.ErrNotFound().WithDetail("document_id", id.String())
	}
	delete(m, key)
	return nil
}

func (m memoryState) List(ctx context.Context, q document.ListQuery) ([]*document.Document, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	var matched []*document.Document
	for _, doc := range m {
		if !m.owned(doc, q.ProjectID, q.OwnerUserID) || doc.Collection != q.Collection {
			continue
		}
		if !q.IncludeDeleted && doc.IsDeleted() {
			continue
		}
		if !q.ID.IsEmpty() && doc.ID != q.ID {
			continue
		}
		if !doc.Data.Matches(q.Filter) {
			continue
		}
		matched = append(matched, doc)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := q.Pagination.Offset()
	if start < 0 || start > total {
		start = total
	}
	end := start + q.Pagination.PageSize
	if end > total {
		end = total
	}

	page := make([]*document.Document, 0, end-start)
	for _, doc := range matched[start:end] {
		page = append(page, doc.Clone())
	}
	return page, total, nil
}

func (m memoryState) Collections(ctx context.Context, projectID kernel.ProjectID, owner kernel.UserID) ([]string, error) {
	stats, err := m.Stats(ctx, projectID, owner)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(stats))
	for _, s := range stats {
		names = append(names, s.Collection)
	}
	return names, nil
}

func (m memoryState) Stats(ctx context.Context, projectID kernel.ProjectID, owner kernel.UserID) ([]document.CollectionStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byCollection := map[string]*document.CollectionStats{}
	for _, doc := range m {
		if !m.owned(doc, projectID, owner) || doc.IsDeleted() {
			continue
		}
		s, ok := byCollection[doc.Collection]
		if !ok {
			s = &document.CollectionStats{Collection: doc.Collection}
			byCollection[doc.Collection] = s
		}
		s.Total++
		if doc.Data.IsCompleted() {
			s.Completed++
		}
		if doc.Data.HasCompletedField() {
			s.WithCompletedField++
		}
	}

	out := make([]document.CollectionStats, 0, len(byCollection))
	for _, s := range byCollection {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Collection < out[j].Collection })
	return out, nil
}

func (m memoryState) owned(doc *document.Document, projectID kernel.ProjectID, owner kernel.UserID) bool {
	return doc.ProjectID == projectID && doc.OwnerUserID == owner
}
