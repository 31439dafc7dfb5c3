package project

import (
	"context"

	"github.com/hypeframe/monarch/pkg/kernel"
)

// Repository persists projects. Find methods return ErrProjectNotFound when absent.
type Repository interface {
	Create(ctx context.Context, p *Project) error
	Update(ctx context.Context, p *Project) error
	FindByID(ctx context.Context, id kernel.ProjectID) (*Project, error)
	FindByAPIKeyHash(ctx context.Context, keyHash string) (*Project, error)
	List(ctx context.Context) ([]*Project, error)
}
