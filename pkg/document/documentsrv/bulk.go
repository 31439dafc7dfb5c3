package documentsrv

import (
	"context"
	"fmt"

	"github.com/hypeframe/monarch/pkg/document"
	"github.com/hypeframe/monarch/pkg/errx"
	"github.com/hypeframe/monarch/pkg/kernel"
)

// OpKind es el tipo de una operación bulk.
type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// BulkOp es una operación del lote; cada kind usa un subconjunto de campos.
type BulkOp struct {
	Op              OpKind            `json:"op"`
	Collection      string            `json:"collection,omitempty"`
	Data            document.Data     `json:"data,omitempty"`
	DocumentID      kernel.DocumentID `json:"documentId,omitempty"`
	Patch           document.Data     `json:"patch,omitempty"`
	ExpectedVersion *int64            `json:"expectedVersion,omitempty"`
	HardDelete      bool              `json:"hardDelete,omitempty"`
}

// BulkResult es el resultado de una operación aplicada.
type BulkResult struct {
	Index    int                `json:"index"`
	Op       OpKind             `json:"op"`
	ID       kernel.DocumentID  `json:"id"`
	Document *document.Document `json:"document,omitempty"`
}

// Bulk valida todo el lote y lo aplica en una sola transacción.
// La primera operación inválida o rechazada aborta el lote con BulkFailed
// y nada queda persistido.
func (s *DocumentService) Bulk(ctx context.Context, owner Owner, ops []BulkOp) ([]BulkResult, error) {
	if len(ops) == 0 {
		return nil, document.ErrInvalidOperation().WithDetail("reason", "ops must not be empty")
	}
	if len(ops) > s.bulkMaxOps {
		return nil, document.ErrTooManyOperations().
			WithDetail("max", s.bulkMaxOps).
			WithDetail("received", len(ops))
	}
	for i, op := range ops {
		if err := validateOp(op); err != nil {
			return nil, document.ErrBulkFailed(i, err)
		}
	}

	results := make([]BulkResult, 0, len(ops))
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo document.Repository) error {
		for i, op := range ops {
			result, err := s.apply(ctx, repo, owner, op)
			if err != nil {
				if isPolicyError(err) {
					return document.ErrBulkFailed(i, err)
				}
				return err
			}
			result.Index = i
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		return nil, errx.Storage(err)
	}
	return results, nil
}

func (s *DocumentService) apply(ctx context.Context, repo document.Repository, owner Owner, op BulkOp) (BulkResult, error) {
	switch op.Op {
	case OpCreate:
		doc, err := s.create(ctx, repo, owner, op.Collection, op.Data)
		if err != nil {
			return BulkResult{}, err
		}
		return BulkResult{Op: op.Op, ID: doc.ID, Document: doc}, nil
	case OpUpdate:
		doc, err := s.update(ctx, repo, owner, op.DocumentID, op.Patch, op.ExpectedVersion)
		if err != nil {
			return BulkResult{}, err
		}
		return BulkResult{Op: op.Op, ID: doc.ID, Document: doc}, nil
	case OpDelete:
		if err := s.delete(ctx, repo, owner, op.DocumentID, op.HardDelete); err != nil {
			return BulkResult{}, err
		}
		return BulkResult{Op: op.Op, ID: op.DocumentID}, nil
	default:
		return BulkResult{}, document.ErrInvalidOperation().WithDetail("op", string(op.Op))
	}
}

func validateOp(op BulkOp) error {
	switch op.Op {
	case OpCreate:
		if err := document.ValidateCollection(op.Collection); err != nil {
			return err
		}
		if op.Data == nil {
			return document.ErrInvalidOperation().WithDetail("reason", "create requires data")
		}
	case OpUpdate:
		if op.DocumentID.IsEmpty() {
			return document.ErrInvalidOperation().WithDetail("reason", "update requires documentId")
		}
		if op.Patch == nil {
			return document.ErrInvalidOperation().WithDetail("reason", "update requires patch")
		}
	case OpDelete:
		if op.DocumentID.IsEmpty() {
			return document.ErrInvalidOperation().WithDetail("reason", "delete requires documentId")
		}
	default:
		return document.ErrInvalidOperation().WithDetail("reason", fmt.Sprintf("unknown op %q", op.Op))
	}
	return nil
}

// isPolicyError separa los rechazos de dominio (NotFound, Forbidden, versión,
// validación) de los fallos del storage.
func isPolicyError(err error) bool {
	var xe *errx.Error
	return errx.As(err, &xe) && xe.Type != errx.TypeInternal && xe.Type != errx.TypeTimeout
}
