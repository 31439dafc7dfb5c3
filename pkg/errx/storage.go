package errx

import (
	"context"
	"errors"
	"net/http"
)

// ============================================================================
// Storage errors
// ============================================================================

var storeRegistry = NewRegistry("STORE")

var (
	CodeStorage = storeRegistry.Register("UNAVAILABLE", TypeInternal, http.StatusInternalServerError, "Storage is temporarily unavailable")
	CodeTimeout = storeRegistry.Register("TIMEOUT", TypeTimeout, http.StatusGatewayTimeout, "The operation timed out")
)

// Storage translates an adapter failure into the public taxonomy.
// Domain errors pass through untouched; deadline and cancellation become
// Timeout; anything else becomes a generic StorageError whose cause is kept
// only for logging.
func Storage(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) && e.Type != TypeInternal {
		return e
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return storeRegistry.NewWithCause(CodeTimeout, err)
	}

	if e != nil && CodeStorage.Is(e) {
		return e
	}
	return storeRegistry.NewWithCause(CodeStorage, err)
}
