package kernel

import "github.com/google/uuid"

type UserID string

func NewUserID(id string) UserID { return UserID(id) }
func (u UserID) String() string  { return string(u) }
func (u UserID) IsEmpty() bool   { return string(u) == "" }

// ProjectID identifica al proyecto cliente (tenant) dueño de usuarios y documentos
type ProjectID string

func NewProjectID(id string) ProjectID { return ProjectID(id) }
func (p ProjectID) String() string     { return string(p) }
func (p ProjectID) IsEmpty() bool      { return string(p) == "" }

type DocumentID string

func NewDocumentID(id string) DocumentID { return DocumentID(id) }
func (d DocumentID) String() string      { return string(d) }
func (d DocumentID) IsEmpty() bool       { return string(d) == "" }

// NewID returns a random UUID string used for every generated identifier.
func NewID() string {
	return uuid.NewString()
}
