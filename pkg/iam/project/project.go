package project

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/hypeframe/monarch/pkg/errx"
	"github.com/hypeframe/monarch/pkg/kernel"
)

// ============================================================================
// Entity
// ============================================================================

// Project es un cliente de la plataforma. Todo usuario y documento pertenece a uno.
type Project struct {
	ID           kernel.ProjectID `db:"id" json:"id"`
	Name         string           `db:"name" json:"name"`
	APIKeyHash   string           `db:"api_key_hash" json:"-"`
	APIKeyPrefix string           `db:"api_key_prefix" json:"apiKeyPrefix"`
	IsActive     bool             `db:"is_active" json:"isActive"`
	CreatedAt    time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updatedAt"`
}

// keyRandomBytes is the entropy of a generated API key.
const keyRandomBytes = 32

// displayPrefixLen is how much of the raw key is kept for display.
const displayPrefixLen = 12

// NewProject builds an active project bound to rawKey.
func NewProject(id kernel.ProjectID, name, rawKey string) *Project {
	now := time.Now().UTC()
	p := &Project{
		ID:        id,
		Name:      strings.TrimSpace(name),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.SetAPIKey(rawKey)
	return p
}

// SetAPIKey replaces the stored key material; the raw key is never kept.
func (p *Project) SetAPIKey(rawKey string) {
	p.APIKeyHash = HashAPIKey(rawKey)
	p.APIKeyPrefix = rawKey
	if len(rawKey) > displayPrefixLen {
		p.APIKeyPrefix = rawKey[:displayPrefixLen]
	}
	p.UpdatedAt = time.Now().UTC()
}

// Disable deactivates the project; its key stops authenticating.
func (p *Project) Disable() {
	p.IsActive = false
	p.UpdatedAt = time.Now().UTC()
}

// HashAPIKey returns the SHA-256 hex digest stored for a raw key.
func HashAPIKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

// GenerateAPIKey returns prefix followed by 64 random hex characters.
func GenerateAPIKey(prefix string) (string, error) {
	buf := make([]byte, keyRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return prefix + hex.EncodeToString(buf), nil
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("PROJECT")

var (
	CodeInvalidAPIKey   = ErrRegistry.Register("INVALID_API_KEY", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid or missing API key")
	CodeProjectNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Project not found")
	CodeProjectExists   = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "Project already exists")
)

func ErrInvalidAPIKey() *errx.Error   { return ErrRegistry.New(CodeInvalidAPIKey) }
func ErrProjectNotFound() *errx.Error { return ErrRegistry.New(CodeProjectNotFound) }
func ErrProjectExists() *errx.Error   { return ErrRegistry.New(CodeProjectExists) }
