// Package ptrx tiene helpers para campos opcionales (expectedVersion, userId del contexto).
package ptrx

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// Value returns *p, or fallback when p is nil.
func Value[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

// Equal reports whether both pointers are nil or point to equal values.
func Equal[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
