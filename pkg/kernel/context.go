package kernel

import "context"

// ============================================================================
// Context Types - Tipos para context.Context
// ============================================================================

// AuthContext es la identidad resuelta por el gate de cada request.
// ProjectID siempre viene de la API key; UserID solo del access token verificado.
type AuthContext struct {
	ProjectID ProjectID `json:"project_id"`
	UserID    *UserID   `json:"user_id,omitempty"`
}

// IsValid verifica que el proyecto esté resuelto
func (ac *AuthContext) IsValid() bool {
	return ac != nil && !ac.ProjectID.IsEmpty()
}

// IsAuthenticated verifica que además exista un usuario autenticado
func (ac *AuthContext) IsAuthenticated() bool {
	return ac.IsValid() && ac.UserID != nil && !ac.UserID.IsEmpty()
}

// ============================================================================
// Context Keys - Claves para context.Context
// ============================================================================

type ContextKey string

const (
	// AuthContextKey es la clave para almacenar AuthContext en context.Context
	AuthContextKey ContextKey = "auth_context"

	// RequestIDKey es la clave para almacenar el ID de la petición
	RequestIDKey ContextKey = "request_id"
)

// WithAuthContext returns a copy of ctx carrying ac.
func WithAuthContext(ctx context.Context, ac *AuthContext) context.Context {
	return context.WithValue(ctx, AuthContextKey, ac)
}

// AuthFromContext extracts the AuthContext stored by WithAuthContext.
func AuthFromContext(ctx context.Context) (*AuthContext, bool) {
	if ctx == nil {
		return nil, false
	}
	ac, ok := ctx.Value(AuthContextKey).(*AuthContext)
	return ac, ok && ac != nil
}

// WithRequestID returns a copy of ctx carrying the request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestIDFromContext returns the request id or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
