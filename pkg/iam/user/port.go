package user

import (
	"context"

	"github.com/hypeframe/monarch/pkg/kernel"
)

// Repository persists users. Lookups are always scoped by project.
type Repository interface {
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	FindByID(ctx context.Context, projectID kernel.ProjectID, id kernel.UserID) (*User, error)
	FindByEmail(ctx context.Context, projectID kernel.ProjectID, email string) (*User, error)
}
