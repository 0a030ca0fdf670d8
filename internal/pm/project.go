package pm

import (
	"context"
	"time"

	"planhub.org/internal/ids"
)

// CreateProjectInput carries the fields accepted when creating a project.
type CreateProjectInput struct {
	Name        string
	Description string
	CompanyID   string
}

// CreateProject creates a project owned by the actor's company. The
// companyId in the request must equal the actor's.
func (s *Service) CreateProject(ctx context.Context, actor Actor, in CreateProjectInput) (Project, error) {
	name, err := requireTrimmed(in.Name, "project name")
	if err != nil {
		return Project{}, err
	}
	description, err := requireTrimmed(in.Description, "project description")
	if err != nil {
		return Project{}, err
	}
	companyID, err := requireTrimmed(in.CompanyID, "companyId")
	if err != nil {
		return Project{}, err
	}
	if !belongsToCompany(companyID, actor) {
		return Project{}, guardCompany(companyID, actor, "create projects for other companies")
	}
	project := Project{
		ID:          ids.New(),
		Name:        name,
		Description: description,
		CreatedBy:   actor.ID,
		CompanyID:   companyID,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateProject(ctx, &project); err != nil {
		return Project{}, err
	}
	return project, nil
}

// ListProjects returns a page of the actor's company's projects.
func (s *Service) ListProjects(ctx context.Context, actor Actor, page PageRequest) ([]Project, int, error) {
	return s.store.ListProjects(ctx, actor.CompanyID, page)
}

// GetProject loads a project; the target must share the actor's company.
func (s *Service) GetProject(ctx context.Context, actor Actor, id string) (Project, error) {
	id, err := requireTrimmed(id, "project id")
	if err != nil {
		return Project{}, err
	}
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return Project{}, err
	}
	if err := guardCompany(project.CompanyID, actor, "access this project"); err != nil {
		return Project{}, err
	}
	return project, nil
}

// UpdateProject applies a partial mutation to a project in the actor's
// company. Ownership fields are not mutable.
func (s *Service) UpdateProject(ctx context.Context, actor Actor, id string, upd ProjectUpdate) (Project, error) {
	id, err := requireTrimmed(id, "project id")
	if err != nil {
		return Project{}, err
	}
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return Project{}, err
	}
	if err := guardCompany(project.CompanyID, actor, "update this project"); err != nil {
		return Project{}, err
	}
	if upd.Name != nil {
		trimmed, err := requireTrimmed(*upd.Name, "project name")
		if err != nil {
			return Project{}, err
		}
		upd.Name = &trimmed
	}
	if upd.Description != nil {
		trimmed, err := requireTrimmed(*upd.Description, "project description")
		if err != nil {
			return Project{}, err
		}
		upd.Description = &trimmed
	}
	return s.store.UpdateProject(ctx, id, upd)
}

// DeleteProject hard-deletes a project in the actor's company.
func (s *Service) DeleteProject(ctx context.Context, actor Actor, id string) error {
	id, err := requireTrimmed(id, "project id")
	if err != nil {
		return err
	}
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return err
	}
	if err := guardCompany(project.CompanyID, actor, "delete this project"); err != nil {
		return err
	}
	return s.store.DeleteProject(ctx, id)
}
