package document

import (
	"encoding/json"
	"maps"
	"net/http"
	"regexp"
	"time"

	"github.com/hypeframe/monarch/pkg/errx"
	"github.com/hypeframe/monarch/pkg/kernel"
)

// ============================================================================
// Entity
// ============================================================================

// Data es el payload JSON opaco de un documento. Solo stats mira dentro
// (la clave "completed").
type Data map[string]any

// Document es un objeto JSON con dueño dentro de una colección del proyecto.
type Document struct {
	ID          kernel.DocumentID `json:"id"`
	ProjectID   kernel.ProjectID  `json:"projectId"`
	Collection  string            `json:"collection"`
	OwnerUserID kernel.UserID     `json:"ownerUserId"`
	Data        Data              `json:"data"`
	Version     int64             `json:"version"`
	DeletedAt   *time.Time        `json:"deletedAt,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// CollectionStats son los agregados de una colección del usuario.
type CollectionStats struct {
	Collection         string `json:"collection" db:"collection"`
	Total              int    `json:"total" db:"total"`
	Completed          int    `json:"completed" db:"completed"`
	WithCompletedField int    `json:"withCompletedField" db:"with_completed_field"`
}

// Stats es la respuesta de /db/stats.
type Stats struct {
	Collections    []CollectionStats `json:"collections"`
	TotalDocuments int               `json:"totalDocuments"`
}

// NewStats suma los totales por colección.
func NewStats(collections []CollectionStats) Stats {
	if collections == nil {
		collections = []CollectionStats{}
	}
	total := 0
	for _, c := range collections {
		total += c.Total
	}
	return Stats{Collections: collections, TotalDocuments: total}
}

// NewDocument crea un documento versión 1 para el dueño dado.
func NewDocument(projectID kernel.ProjectID, collection string, owner kernel.UserID, data Data, now time.Time) *Document {
	if data == nil {
		data = Data{}
	}
	return &Document{
		ID:          kernel.NewDocumentID(kernel.NewID()),
		ProjectID:   projectID,
		Collection:  collection,
		OwnerUserID: owner,
		Data:        data.Clone(),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ============================================================================
// Domain Methods
// ============================================================================

// IsDeleted reports whether the document is soft-deleted.
func (d *Document) IsDeleted() bool {
	return d.DeletedAt != nil
}

// AuthorizeOwner falla con Forbidden si el documento es de otro usuario.
func (d *Document) AuthorizeOwner(userID kernel.UserID) error {
	if d.OwnerUserID != userID {
		return ErrForbidden().WithDetail("document_id", d.ID.String())
	}
	return nil
}

// CheckVersion compara contra la versión esperada, si el cliente la envió.
func (d *Document) CheckVersion(expected *int64) error {
	if expected != nil && *expected != d.Version {
		return ErrVersionConflict().
			WithDetail("expected", *expected).
			WithDetail("actual", d.Version)
	}
	return nil
}

// ApplyPatch hace merge superficial del patch sobre data.
// Una clave con valor null se guarda como null, no se borra.
func (d *Document) ApplyPatch(patch Data, now time.Time) {
	merged := d.Data.Clone()
	if merged == nil {
		merged = Data{}
	}
	for k, v := range patch {
		merged[k] = v
	}
	d.Data = merged
	d.bump(now)
}

// SoftDelete marca el documento como borrado. Ya borrado es no-op.
func (d *Document) SoftDelete(now time.Time) {
	if d.IsDeleted() {
		return
	}
	d.DeletedAt = &now
	d.bump(now)
}

// Restore revierte un soft delete. Si no estaba borrado es no-op.
func (d *Document) Restore(now time.Time) {
	if !d.IsDeleted() {
		return
	}
	d.DeletedAt = nil
	d.bump(now)
}

func (d *Document) bump(now time.Time) {
	d.Version++
	d.UpdatedAt = now
}

// Clone devuelve una copia independiente para los stores en memoria.
func (d *Document) Clone() *Document {
	c := *d
	c.Data = d.Data.Clone()
	if d.DeletedAt != nil {
		t := *d.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}

// Clone copia el primer nivel; los valores anidados nunca se mutan in place.
func (d Data) Clone() Data {
	if d == nil {
		return nil
	}
	return maps.Clone(d)
}

// Matches reports whether every top-level key of filter equals the one in d.
func (d Data) Matches(filter Data) bool {
	for k, want := range filter {
		got, ok := d[k]
		if !ok || !jsonEqual(got, want) {
			return false
		}
	}
	return true
}

// IsCompleted reports whether data.completed is the boolean true.
func (d Data) IsCompleted() bool {
	v, ok := d["completed"].(bool)
	return ok && v
}

// HasCompletedField reports whether data carries a completed key at all.
func (d Data) HasCompletedField() bool {
	_, ok := d["completed"]
	return ok
}

func jsonEqual(a, b any) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ra) == string(rb)
}

// ============================================================================
// Validation
// ============================================================================

// MaxCollectionLength limita el nombre de colección.
const MaxCollectionLength = 64

var collectionPattern = regexp.MustCompile(`^[A-Za-z0-9_\-.]+$`)

// ValidateCollection exige un nombre no vacío con caracteres seguros.
func ValidateCollection(name string) error {
	if name == "" {
		return ErrInvalidCollection().WithDetail("reason", "collection is required")
	}
	if len(name) > MaxCollectionLength || !collectionPattern.MatchString(name) {
		return ErrInvalidCollection().WithDetail("collection", name)
	}
	return nil
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("DOCUMENT")

var (
	CodeNotFound          = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Document not found")
	CodeForbidden         = ErrRegistry.Register("FORBIDDEN", errx.TypeForbidden, http.StatusForbidden, "You do not have access to this document")
	CodeVersionConflict   = ErrRegistry.Register("VERSION_CONFLICT", errx.TypeConflict, http.StatusConflict, "Document was modified by another request")
	CodeBulkFailed        = ErrRegistry.Register("BULK_FAILED", errx.TypeValidation, http.StatusBadRequest, "Bulk operation failed; no changes were applied")
	CodeInvalidCollection = ErrRegistry.Register("INVALID_COLLECTION", errx.TypeValidation, http.StatusBadRequest, "Invalid collection name")
	CodeInvalidOperation  = ErrRegistry.Register("INVALID_OPERATION", errx.TypeValidation, http.StatusBadRequest, "Invalid bulk operation")
	CodeTooManyOperations = ErrRegistry.Register("TOO_MANY_OPERATIONS", errx.TypeValidation, http.StatusBadRequest, "Too many operations in one bulk request")
)

func ErrNotFound() *errx.Error          { return ErrRegistry.New(CodeNotFound) }
func ErrForbidden() *errx.Error         { return ErrRegistry.New(CodeForbidden) }
func ErrVersionConflict() *errx.Error   { return ErrRegistry.New(CodeVersionConflict) }
func ErrInvalidCollection() *errx.Error { return ErrRegistry.New(CodeInvalidCollection) }
func ErrInvalidOperation() *errx.Error  { return ErrRegistry.New(CodeInvalidOperation) }
func ErrTooManyOperations() *errx.Error { return ErrRegistry.New(CodeTooManyOperations) }

// ErrBulkFailed reporta la primera operación que falló y por qué.
func ErrBulkFailed(index int, cause error) *errx.Error {
	reason := cause.Error()
	code := ""
	var xe *errx.Error
	if errx.As(cause, &xe) {
		reason = xe.Message
		if detail, ok := xe.Details["reason"].(string); ok && detail != "" {
			reason = xe.Message + ": " + detail
		}
		code = xe.Code
	}
	e := ErrRegistry.NewWithCause(CodeBulkFailed, cause).
		WithDetail("index", index).
		WithDetail("reason", reason)
	if code != "" {
		e = e.WithDetail("code", code)
	}
	return e
}
