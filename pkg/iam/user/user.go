package user

import (
	"net/http"
	"strings"
	"time"

	"github.com/hypeframe/monarch/pkg/errx"
	"github.com/hypeframe/monarch/pkg/iam"
	"github.com/hypeframe/monarch/pkg/kernel"
)

// ============================================================================
// Entity
// ============================================================================

// User es una identidad final dentro de un proyecto.
// PasswordHash es nil para usuarios creados solo por Google u OTP.
type User struct {
	ID                kernel.UserID          `db:"id"`
	ProjectID         kernel.ProjectID       `db:"project_id"`
	Email             string                 `db:"email"`
	PasswordHash      *string                `db:"password_hash"`
	FederatedProvider *iam.FederatedProvider `db:"federated_provider"`
	FederatedSubject  *string                `db:"federated_subject"`
	EmailVerified     bool                   `db:"email_verified"`
	CreatedAt         time.Time              `db:"created_at"`
	UpdatedAt         time.Time              `db:"updated_at"`
}

// Public es la proyección que sale por la API; nunca incluye el hash.
type Public struct {
	ID            kernel.UserID    `json:"id"`
	ProjectID     kernel.ProjectID `json:"projectId"`
	Email         string           `json:"email"`
	EmailVerified bool             `json:"emailVerified"`
	Provider      string           `json:"provider,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// NewUser crea un usuario con email normalizado.
func NewUser(projectID kernel.ProjectID, email string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        kernel.NewUserID(kernel.NewID()),
		ProjectID: projectID,
		Email:     NormalizeEmail(email),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeEmail recorta espacios y pasa a minúsculas.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasPassword indica si el usuario puede entrar con contraseña.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// SetPasswordHash rota el hash de la contraseña.
func (u *User) SetPasswordHash(hash string) {
	u.PasswordHash = &hash
	u.touch()
}

// IsLinkedTo reports whether the federated identity is already linked.
func (u *User) IsLinkedTo(provider iam.FederatedProvider, subject string) bool {
	return u.FederatedProvider != nil && *u.FederatedProvider == provider &&
		u.FederatedSubject != nil && *u.FederatedSubject == subject
}

// LinkFederated asocia una identidad federada y marca el email como verificado.
func (u *User) LinkFederated(provider iam.FederatedProvider, subject string) {
	u.FederatedProvider = &provider
	u.FederatedSubject = &subject
	u.EmailVerified = true
	u.touch()
}

// MarkEmailVerified marca el email como verificado.
func (u *User) MarkEmailVerified() {
	u.EmailVerified = true
	u.touch()
}

func (u *User) touch() {
	u.UpdatedAt = time.Now().UTC()
}

// ToPublic devuelve la proyección pública.
func (u *User) ToPublic() Public {
	p := Public{
		ID:            u.ID,
		ProjectID:     u.ProjectID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
	if u.FederatedProvider != nil {
		p.Provider = u.FederatedProvider.GetProviderName()
	}
	return p
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeDuplicateUser = ErrRegistry.Register("DUPLICATE_USER", errx.TypeConflict, http.StatusConflict, "A user with this email already exists in the project")
	CodeUserNotFound  = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
)

func ErrDuplicateUser() *errx.Error { return ErrRegistry.New(CodeDuplicateUser) }
func ErrUserNotFound() *errx.Error  { return ErrRegistry.New(CodeUserNotFound) }
