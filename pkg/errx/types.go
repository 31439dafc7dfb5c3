package errx

// Type represents the category of error
type Type string

const (
	// TypeInternal represents internal server errors
	TypeInternal Type = "INTERNAL"

	// TypeValidation represents validation errors
	TypeValidation Type = "VALIDATION"

	// TypeAuthorization represents authentication errors (missing or bad credentials)
	TypeAuthorization Type = "AUTHORIZATION"

	// TypeForbidden represents an authenticated caller acting on something it does not own
	TypeForbidden Type = "FORBIDDEN"

	// TypeNotFound represents resource not found errors
	TypeNotFound Type = "NOT_FOUND"

	// TypeConflict represents resource conflict errors
	TypeConflict Type = "CONFLICT"

	// TypeBusiness represents business logic errors
	TypeBusiness Type = "BUSINESS"

	// TypeRateLimit represents throttled or locked-out operations
	TypeRateLimit Type = "RATE_LIMIT"

	// TypeExternal represents errors from external services
	TypeExternal Type = "EXTERNAL"

	// TypeTimeout represents operations that ran out of time
	TypeTimeout Type = "TIMEOUT"
)

// String returns the string representation of the error type
func (t Type) String() string {
	return string(t)
}
