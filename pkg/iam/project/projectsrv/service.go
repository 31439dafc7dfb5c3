package projectsrv

import (
	"context"
	"strings"

	"github.com/hypeframe/monarch/pkg/errx"
	"github.com/hypeframe/monarch/pkg/iam/project"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/hypeframe/monarch/pkg/logx"
)

// ProjectService resolves API keys to projects and manages project keys.
type ProjectService struct {
	repo      project.Repository
	keyPrefix string
}

// NewProjectService crea el servicio de proyectos.
func NewProjectService(repo project.Repository, keyPrefix string) *ProjectService {
	return &ProjectService{repo: repo, keyPrefix: keyPrefix}
}

// Authenticate maps a raw API key to its active project.
// Unknown, empty and disabled keys all yield ErrInvalidAPIKey.
func (s *ProjectService) Authenticate(ctx context.Context, rawKey string) (*project.Project, error) {
	rawKey = strings.TrimSpace(rawKey)
	if rawKey == "" {
		return nil, project.ErrInvalidAPIKey().WithDetail("reason", "missing api key")
	}

	p, err := s.repo.FindByAPIKeyHash(ctx, project.HashAPIKey(rawKey))
	if err != nil {
		if project.CodeProjectNotFound.Is(err) {
			return nil, project.ErrInvalidAPIKey()
		}
		return nil, errx.Storage(err)
	}

	if !p.IsActive {
		return nil, project.ErrInvalidAPIKey().WithDetail("reason", "project disabled")
	}
	return p, nil
}

// Create registers a project and returns it with its raw API key, shown only once.
func (s *ProjectService) Create(ctx context.Context, id kernel.ProjectID, name string) (*project.Project, string, error) {
	if id.IsEmpty() {
		id = kernel.NewProjectID(kernel.NewID())
	}
	if strings.TrimSpace(name) == "" {
		return nil, "", errx.Validation("project name is required")
	}

	rawKey, err := project.GenerateAPIKey(s.keyPrefix)
	if err != nil {
		return nil, "", errx.Wrap(err, "failed to generate api key", errx.TypeInternal)
	}

	p := project.NewProject(id, name, rawKey)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, "", errx.Storage(err)
	}

	logx.WithFields(logx.Fields{"project_id": p.ID, "key_prefix": p.APIKeyPrefix}).Info("Project created")
	return p, rawKey, nil
}

// RotateKey issues a new API key; the previous one stops working immediately.
func (s *ProjectService) RotateKey(ctx context.Context, id kernel.ProjectID) (*project.Project, string, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, "", errx.Storage(err)
	}

	rawKey, err := project.GenerateAPIKey(s.keyPrefix)
	if err != nil {
		return nil, "", errx.Wrap(err, "failed to generate api key", errx.TypeInternal)
	}

	p.SetAPIKey(rawKey)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, "", errx.Storage(err)
	}

	logx.WithFields(logx.Fields{"project_id": p.ID, "key_prefix": p.APIKeyPrefix}).Info("Project API key rotated")
	return p, rawKey, nil
}

// Disable deactivates a project.
func (s *ProjectService) Disable(ctx context.Context, id kernel.ProjectID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return errx.Storage(err)
	}
	p.Disable()
	if err := s.repo.Update(ctx, p); err != nil {
		return errx.Storage(err)
	}
	logx.WithField("project_id", p.ID).Info("Project disabled")
	return nil
}

// List returns every project.
func (s *ProjectService) List(ctx context.Context) ([]*project.Project, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, errx.Storage(err)
	}
	return projects, nil
}

// EnsureProject makes sure a project with id exists and accepts rawKey.
// Used to seed a known project at startup.
func (s *ProjectService) EnsureProject(ctx context.Context, id kernel.ProjectID, name, rawKey string) (*project.Project, error) {
	p, err := s.repo.FindByID(ctx, id)
	switch {
	case err == nil:
		if p.APIKeyHash == project.HashAPIKey(rawKey) && p.IsActive {
			return p, nil
		}
		p.SetAPIKey(rawKey)
		p.IsActive = true
		if err := s.repo.Update(ctx, p); err != nil {
			return nil, errx.Storage(err)
		}
		return p, nil
	case project.CodeProjectNotFound.Is(err):
		p = project.NewProject(id, name, rawKey)
		if err := s.repo.Create(ctx, p); err != nil {
			return nil, errx.Storage(err)
		}
		return p, nil
	default:
		return nil, errx.Storage(err)
	}
}
